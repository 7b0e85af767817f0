package event

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		raw      Raw
		wantCode string // empty = expect success
	}{
		{
			name: "valid event",
			raw:  Raw{DeviceID: "dev-1", Type: "safetyScore", Values: map[string]any{"score": 80.0}},
		},
		{
			name:     "missing deviceId",
			raw:      Raw{Type: "safetyScore"},
			wantCode: CodeInvalidDeviceID,
		},
		{
			name:     "empty deviceId",
			raw:      Raw{DeviceID: "", Type: "incident"},
			wantCode: CodeInvalidDeviceID,
		},
		{
			name:     "missing type",
			raw:      Raw{DeviceID: "dev-1"},
			wantCode: CodeInvalidType,
		},
		{
			name: "unrecognized type accepted",
			raw:  Raw{DeviceID: "dev-1", Type: "firmwareBeacon"},
		},
		{
			name: "valid timestamp",
			raw:  Raw{DeviceID: "dev-1", Type: "behavior", Timestamp: "2025-05-30T08:30:00Z"},
		},
		{
			name:     "unparseable timestamp",
			raw:      Raw{DeviceID: "dev-1", Type: "behavior", Timestamp: "yesterday"},
			wantCode: CodeInvalidTimestamp,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := validateAt(tc.raw, now)
			if tc.wantCode != "" {
				if err == nil {
					t.Fatalf("expected %s error, got event %+v", tc.wantCode, ev)
				}
				verr, ok := err.(*ValidationError)
				if !ok {
					t.Fatalf("expected *ValidationError, got %T: %v", err, err)
				}
				if verr.Code != tc.wantCode {
					t.Errorf("code = %q, want %q", verr.Code, tc.wantCode)
				}
				if verr.Field == "" {
					t.Errorf("validation error must name the failing field")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ev.ID == "" {
				t.Errorf("expected a generated id")
			}
			if ev.Payload == nil {
				t.Errorf("payload must never be nil")
			}
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("timestamp defaults to ingestion time", func(t *testing.T) {
		ev, err := validateAt(Raw{DeviceID: "dev-1", Type: "behavior"}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ev.Timestamp.Equal(now) {
			t.Errorf("timestamp = %v, want %v", ev.Timestamp, now)
		}
	})

	t.Run("supplied timestamp wins", func(t *testing.T) {
		ev, err := validateAt(Raw{DeviceID: "dev-1", Type: "behavior", Timestamp: "2025-05-30T08:30:00Z"}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, 5, 30, 8, 30, 0, 0, time.UTC)
		if !ev.Timestamp.Equal(want) {
			t.Errorf("timestamp = %v, want %v", ev.Timestamp, want)
		}
	})

	t.Run("supplied id preserved", func(t *testing.T) {
		ev, err := validateAt(Raw{ID: "evt-42", DeviceID: "dev-1", Type: "behavior"}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.ID != "evt-42" {
			t.Errorf("id = %q, want evt-42", ev.ID)
		}
	})
}

func TestCoercePayload(t *testing.T) {
	cases := []struct {
		name   string
		values any
		want   map[string]any
	}{
		{"nil becomes empty map", nil, map[string]any{}},
		{"map passes through", map[string]any{"score": 80.0}, map[string]any{"score": 80.0}},
		{"bare number becomes value field", 42.5, map[string]any{"value": 42.5}},
		{"bare int becomes value field", 7, map[string]any{"value": 7.0}},
		{"string dropped", "not numeric", map[string]any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := coercePayload(tc.values)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("key %q = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		typ  string
		want Kind
	}{
		{"safetyScore", KindSafetyScore},
		{"safety", KindSafetyScore},
		{"incident", KindIncident},
		{"behavior", KindBehavior},
		{"insurance", KindInsurance},
		{"driverStats", KindDriverStats},
		{"firmwareBeacon", KindUnknown},
		{"heartbeat", KindUnknown},
	}
	for _, tc := range cases {
		ev := &Event{Type: tc.typ}
		if got := ev.Kind(); got != tc.want {
			t.Errorf("Kind(%q) = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestNumeric(t *testing.T) {
	payload := map[string]any{
		"score": 80.0,
		"label": "not a number",
		"count": 3,
	}

	if v, ok := Numeric(payload, "score", "value"); !ok || v != 80.0 {
		t.Errorf("Numeric(score, value) = %v, %v; want 80, true", v, ok)
	}
	if v, ok := Numeric(payload, "missing", "count"); !ok || v != 3.0 {
		t.Errorf("fallback key: got %v, %v; want 3, true", v, ok)
	}
	if _, ok := Numeric(payload, "label"); ok {
		t.Errorf("non-numeric value must not resolve")
	}
	if _, ok := Numeric(payload, "absent"); ok {
		t.Errorf("absent key must not resolve")
	}
}
