package config

import (
	"github.com/drivepulse/drivepulse/internal/alert"
	"github.com/drivepulse/drivepulse/internal/dashboard"
)

// Config is the top-level YAML structure.
type Config struct {
	Version   string        `yaml:"version"`
	Engine    EngineConf    `yaml:"engine"`
	Store     StoreConf     `yaml:"store"`
	Dashboard DashboardConf `yaml:"dashboard"`
	Alerts    []AlertRule   `yaml:"alerts"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	IngestWorkers    int `yaml:"ingest_workers"`
	QueueDepth       int `yaml:"queue_depth"`
	IngestTimeoutMs  int `yaml:"ingest_timeout_ms"`
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// StoreConf locates the durable event log.
type StoreConf struct {
	Path string `yaml:"path"`
}

// DashboardConf overrides pieces of the default initial snapshot. Absent
// fields keep the built-in defaults.
type DashboardConf struct {
	SafetyScore     *float64       `yaml:"safety_score"`
	DiscountPercent *float64       `yaml:"discount_percent"`
	Insurance       *InsuranceConf `yaml:"insurance"`
	Driver          *DriverConf    `yaml:"driver"`
	Metrics         []MetricConf   `yaml:"metrics"`
}

// InsuranceConf seeds the initial insurance block.
type InsuranceConf struct {
	Premium         float64 `yaml:"premium"`
	DiscountPercent float64 `yaml:"discount_percent"`
	Savings         float64 `yaml:"savings"`
}

// DriverConf seeds the initial driver profile.
type DriverConf struct {
	Name    string `yaml:"name"`
	License string `yaml:"license"`
}

// MetricConf declares one behavior metric of the fixed catalog.
type MetricConf struct {
	Key   string  `yaml:"key"`
	Label string  `yaml:"label"`
	Icon  string  `yaml:"icon"`
	Start float64 `yaml:"start"`
}

// AlertRule is the YAML form of one alert threshold rule.
type AlertRule struct {
	ID        string  `yaml:"id"`
	Field     string  `yaml:"field"`
	Op        string  `yaml:"op"`
	Threshold float64 `yaml:"threshold"`
	Level     string  `yaml:"level"`
	Message   string  `yaml:"message"`
}

// Defaults used when the corresponding YAML fields are zero.
const (
	defaultIngestWorkers    = 4
	defaultQueueDepth       = 256
	defaultIngestTimeoutMs  = 5000
	defaultSubscriberBuffer = 16
	defaultStorePath        = "drivepulse.db"
)

// Normalize fills zero-valued tunables with their defaults.
func (c *Config) Normalize() {
	if c.Engine.IngestWorkers <= 0 {
		c.Engine.IngestWorkers = defaultIngestWorkers
	}
	if c.Engine.QueueDepth <= 0 {
		c.Engine.QueueDepth = defaultQueueDepth
	}
	if c.Engine.IngestTimeoutMs <= 0 {
		c.Engine.IngestTimeoutMs = defaultIngestTimeoutMs
	}
	if c.Engine.SubscriberBuffer <= 0 {
		c.Engine.SubscriberBuffer = defaultSubscriberBuffer
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}
}

// InitialState builds the starting dashboard snapshot: the built-in
// defaults with any configured overrides applied.
func (c *Config) InitialState() dashboard.State {
	s := dashboard.Default()
	d := c.Dashboard
	if d.SafetyScore != nil {
		s.SafetyScore = *d.SafetyScore
	}
	if d.DiscountPercent != nil {
		s.DiscountPercent = *d.DiscountPercent
	}
	if d.Insurance != nil {
		s.Insurance = dashboard.Insurance{
			Premium:         d.Insurance.Premium,
			DiscountPercent: d.Insurance.DiscountPercent,
			Savings:         d.Insurance.Savings,
		}
	}
	if d.Driver != nil {
		s.DriverProfile.Name = d.Driver.Name
		s.DriverProfile.License = d.Driver.License
	}
	if len(d.Metrics) > 0 {
		catalog := make([]dashboard.BehaviorMetric, 0, len(d.Metrics))
		for _, m := range d.Metrics {
			catalog = append(catalog, dashboard.BehaviorMetric{
				Key:   m.Key,
				Label: m.Label,
				Icon:  m.Icon,
				Value: m.Start,
			})
		}
		s.BehaviorMetrics = catalog
	}
	return s
}

// Rules converts the alert section into evaluator rules. Call Validate
// first; Rules assumes the operators already parsed.
func (c *Config) Rules() []alert.Rule {
	rules := make([]alert.Rule, 0, len(c.Alerts))
	for _, r := range c.Alerts {
		op, _ := alert.ParseOp(r.Op)
		rules = append(rules, alert.Rule{
			ID:        r.ID,
			Field:     r.Field,
			Op:        op,
			Threshold: r.Threshold,
			Level:     r.Level,
			Message:   r.Message,
		})
	}
	return rules
}
