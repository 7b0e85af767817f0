package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Raw is the untrusted wire form of an event before validation.
type Raw struct {
	ID        string `json:"id,omitempty"`
	DeviceID  string `json:"deviceId"`
	Timestamp string `json:"timestamp,omitempty"`
	Type      string `json:"type"`
	Values    any    `json:"values,omitempty"`
}

// Validation error codes reported to the ingest boundary.
const (
	CodeInvalidDeviceID  = "InvalidDeviceId"
	CodeInvalidType      = "InvalidType"
	CodeInvalidTimestamp = "InvalidTimestamp"
)

// ValidationError reports which field of a raw event failed and why.
type ValidationError struct {
	Code   string `json:"code"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field %q %s", e.Code, e.Field, e.Reason)
}

// Validate checks and coerces a raw event into a well-formed Event.
//
//   - deviceId is required and must be non-empty.
//   - type is required; unrecognized types are accepted (they fold as
//     KindUnknown), only a missing type is rejected.
//   - timestamp defaults to the current time when absent; a present but
//     unparseable timestamp is rejected.
//   - a missing payload becomes an empty map; a bare numeric payload is
//     coerced to {"value": n}; any other non-map payload is dropped.
//   - a fresh UUID is assigned when the producer did not supply an id.
func Validate(raw Raw) (*Event, error) {
	// UTC keeps timestamps stable across the store round-trip: a replayed
	// event compares equal to the one folded live.
	return validateAt(raw, time.Now().UTC())
}

func validateAt(raw Raw, now time.Time) (*Event, error) {
	if raw.DeviceID == "" {
		return nil, &ValidationError{Code: CodeInvalidDeviceID, Field: "deviceId", Reason: "is required and must be non-empty"}
	}
	if raw.Type == "" {
		return nil, &ValidationError{Code: CodeInvalidType, Field: "type", Reason: "is required"}
	}

	ts := now
	if raw.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
		if err != nil {
			return nil, &ValidationError{Code: CodeInvalidTimestamp, Field: "timestamp", Reason: fmt.Sprintf("must be RFC 3339, got %q", raw.Timestamp)}
		}
		ts = parsed.UTC()
	}

	id := raw.ID
	if id == "" {
		id = uuid.New().String()
	}

	return &Event{
		ID:        id,
		DeviceID:  raw.DeviceID,
		Timestamp: ts,
		Type:      raw.Type,
		Payload:   coercePayload(raw.Values),
	}, nil
}

// coercePayload normalizes the open-ended values field into a flat map.
func coercePayload(v any) map[string]any {
	switch p := v.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return p
	default:
		if f, ok := Float(p); ok {
			return map[string]any{"value": f}
		}
		return map[string]any{}
	}
}
