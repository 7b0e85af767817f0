package config

import (
	"fmt"
	"strings"

	"github.com/drivepulse/drivepulse/internal/alert"
)

// Validate checks the config for:
//   - Required fields (version, alert rule shapes)
//   - Duplicate alert rule IDs and behavior metric keys
//   - Unknown comparison operators and alert levels
//
// All problems are collected and reported together.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}

	keys := make(map[string]bool)
	for i, m := range cfg.Dashboard.Metrics {
		if m.Key == "" {
			errs = append(errs, fmt.Sprintf("dashboard.metrics[%d]: key is required", i))
			continue
		}
		if keys[m.Key] {
			errs = append(errs, fmt.Sprintf("dashboard.metrics: duplicate key %q", m.Key))
		}
		keys[m.Key] = true
		if m.Start < 0 || m.Start > 100 {
			errs = append(errs, fmt.Sprintf("dashboard.metrics[%s]: start must be in [0,100], got %v", m.Key, m.Start))
		}
	}

	ids := make(map[string]bool)
	for i, r := range cfg.Alerts {
		loc := fmt.Sprintf("alerts[%d]", i)
		if r.ID == "" {
			errs = append(errs, loc+": id is required")
		} else {
			loc = fmt.Sprintf("alert %s", r.ID)
			if ids[r.ID] {
				errs = append(errs, fmt.Sprintf("duplicate alert id %q", r.ID))
			}
			ids[r.ID] = true
		}
		if r.Field == "" {
			errs = append(errs, loc+": field is required")
		}
		if _, err := alert.ParseOp(r.Op); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", loc, err))
		}
		if r.Level != "" && !alert.ValidLevel(r.Level) {
			errs = append(errs, fmt.Sprintf("%s: unknown level %q", loc, r.Level))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
