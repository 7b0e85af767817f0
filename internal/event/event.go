package event

import "time"

// Kind is the closed set of event kinds the reconciler understands.
type Kind string

const (
	KindSafetyScore Kind = "safetyScore"
	KindIncident    Kind = "incident"
	KindBehavior    Kind = "behavior"
	KindInsurance   Kind = "insurance"
	KindDriverStats Kind = "driverStats"
	KindUnknown     Kind = "unknown"
)

// Event is one accepted telemetry record. Events are immutable once
// appended to the store.
type Event struct {
	ID        string         `json:"id"`
	DeviceID  string         `json:"deviceId"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"` // producer-supplied, e.g. "safetyScore", "incident"
	Payload   map[string]any `json:"values"`
}

// Kind maps the producer-supplied type string onto the closed kind set.
// Unrecognized types are deliberately tolerated as KindUnknown so new
// producers can ship fields before the dashboard learns about them.
func (e *Event) Kind() Kind {
	switch e.Type {
	case "safety", "safetyScore":
		return KindSafetyScore
	case "incident":
		return KindIncident
	case "behavior":
		return KindBehavior
	case "insurance":
		return KindInsurance
	case "driverStats":
		return KindDriverStats
	default:
		return KindUnknown
	}
}

// Numeric returns the value of the first candidate key present in m with a
// numeric value. Every per-kind fold rule uses this fallback-key lookup.
func Numeric(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := Float(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// Float coerces a numeric payload value to float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
