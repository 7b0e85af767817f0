// Package alert evaluates configured threshold rules against each freshly
// reconciled snapshot. Alerts ride along with broadcast updates; they are
// the server-side counterpart of the original device warning channel.
package alert

import (
	"fmt"
	"math"
	"strings"

	"github.com/drivepulse/drivepulse/internal/dashboard"
)

// Op is a numeric comparison operator.
type Op string

const (
	OpGT  Op = ">"
	OpGTE Op = ">="
	OpLT  Op = "<"
	OpLTE Op = "<="
	OpEQ  Op = "=="
)

// ParseOp validates an operator string from config.
func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case OpGT, OpGTE, OpLT, OpLTE, OpEQ:
		return Op(s), nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

// Alert levels, least to most severe.
const (
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// ValidLevel reports whether s is a known alert level.
func ValidLevel(s string) bool {
	return s == LevelInfo || s == LevelWarning || s == LevelCritical
}

// Rule compares one numeric snapshot field against a threshold.
type Rule struct {
	ID        string  `json:"id"`
	Field     string  `json:"field"` // e.g. "safetyScore", "insurance.premium", "behavior.attention"
	Op        Op      `json:"op"`
	Threshold float64 `json:"threshold"`
	Level     string  `json:"level"`
	Message   string  `json:"message"`
}

// Alert is one fired rule.
type Alert struct {
	RuleID    string  `json:"ruleId"`
	Level     string  `json:"level"`
	Message   string  `json:"message"`
	Field     string  `json:"field"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Evaluate runs every rule against s and returns the alerts that fired.
// A rule whose field does not resolve on this snapshot is skipped.
func Evaluate(rules []Rule, s dashboard.State) []Alert {
	var fired []Alert
	for _, r := range rules {
		v, ok := resolveField(s, r.Field)
		if !ok {
			continue
		}
		if compare(r.Op, v, r.Threshold) {
			fired = append(fired, Alert{
				RuleID:    r.ID,
				Level:     r.Level,
				Message:   r.Message,
				Field:     r.Field,
				Value:     v,
				Threshold: r.Threshold,
			})
		}
	}
	return fired
}

// resolveField maps a dotted rule field onto a numeric snapshot value.
func resolveField(s dashboard.State, field string) (float64, bool) {
	switch field {
	case "safetyScore":
		return s.SafetyScore, true
	case "discountPercent":
		return s.DiscountPercent, true
	case "insurance.premium":
		return s.Insurance.Premium, true
	case "insurance.discountPercent":
		return s.Insurance.DiscountPercent, true
	case "insurance.savings":
		return s.Insurance.Savings, true
	case "driverProfile.hours":
		return s.DriverProfile.Hours, true
	case "driverProfile.trips":
		return s.DriverProfile.Trips, true
	case "driverProfile.avgScore":
		return s.DriverProfile.AvgScore, true
	}
	if key, ok := strings.CutPrefix(field, "behavior."); ok {
		for _, m := range s.BehaviorMetrics {
			if m.Key == key {
				return m.Value, true
			}
		}
	}
	return 0, false
}

func compare(op Op, left, right float64) bool {
	switch op {
	case OpGT:
		return left > right
	case OpGTE:
		return left >= right
	case OpLT:
		return left < right
	case OpLTE:
		return left <= right
	case OpEQ:
		return math.Abs(left-right) < 1e-9
	}
	return false
}
