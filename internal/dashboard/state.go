package dashboard

import "time"

// RiskLevel is derived from SafetyScore and never set directly by an event.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Severity classifies an incident.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// TrendPoint is one entry of the bounded safety-score history.
type TrendPoint struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Incident is one entry of the bounded incident log, newest first.
type Incident struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// BehaviorMetric is a percentage-valued driving metric. The key set is
// fixed by the initial state; behavior events update values in place and
// never add or remove metrics.
type BehaviorMetric struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Icon  string  `json:"icon"`
	Value float64 `json:"value"`
}

// Insurance holds the premium/discount/savings triple.
type Insurance struct {
	Premium         float64 `json:"premium"`
	DiscountPercent float64 `json:"discountPercent"`
	Savings         float64 `json:"savings"`
}

// DriverProfile holds sticky driver statistics.
type DriverProfile struct {
	Name     string  `json:"name"`
	License  string  `json:"license"`
	Hours    float64 `json:"hours"`
	Trips    float64 `json:"trips"`
	AvgScore float64 `json:"avgScore"`
}

// State is the complete dashboard snapshot. It is a total function of the
// ordered event history folded so far (modulo trend/incident truncation):
// replaying the same events from Default always yields the same State.
type State struct {
	SafetyScore     float64          `json:"safetyScore"`
	RiskLevel       RiskLevel        `json:"riskLevel"`
	DiscountPercent float64          `json:"discountPercent"`
	Trend           []TrendPoint     `json:"trend"`
	Incidents       []Incident       `json:"incidents"`
	BehaviorMetrics []BehaviorMetric `json:"behaviorMetrics"`
	Insurance       Insurance        `json:"insurance"`
	DriverProfile   DriverProfile    `json:"driverProfile"`
	LastUpdated     time.Time        `json:"lastUpdated"`
}

// Default returns the initial snapshot shown before any event arrives.
func Default() State {
	return State{
		SafetyScore:     87,
		RiskLevel:       RiskLow,
		DiscountPercent: 8,
		Trend: []TrendPoint{
			{Label: "W1", Score: 70},
			{Label: "W2", Score: 75},
			{Label: "W3", Score: 80},
			{Label: "W4", Score: 85},
			{Label: "W5", Score: 87},
		},
		Incidents: []Incident{},
		BehaviorMetrics: []BehaviorMetric{
			{Key: "attention", Label: "Attention Level", Icon: "eye", Value: 92},
			{Key: "stress", Label: "Stress Indicators", Icon: "pulse", Value: 18},
			{Key: "compliance", Label: "Rule Compliance", Icon: "check", Value: 96},
			{Key: "smooth", Label: "Smooth Driving", Icon: "car", Value: 88},
		},
		Insurance: Insurance{
			Premium:         1245,
			DiscountPercent: 8,
			Savings:         100,
		},
		DriverProfile: DriverProfile{
			Name:     "Unassigned Driver",
			License:  "License pending",
			Hours:    0,
			Trips:    0,
			AvgScore: 0,
		},
	}
}

// Clone returns a deep copy. Fold already copies every slice it touches,
// but callers handing snapshots across goroutine boundaries should not
// share backing arrays with the engine's live state.
func (s State) Clone() State {
	out := s
	out.Trend = append([]TrendPoint(nil), s.Trend...)
	out.Incidents = append([]Incident(nil), s.Incidents...)
	out.BehaviorMetrics = append([]BehaviorMetric(nil), s.BehaviorMetrics...)
	return out
}
