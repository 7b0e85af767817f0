package alert

import (
	"testing"

	"github.com/drivepulse/drivepulse/internal/dashboard"
)

func TestEvaluate(t *testing.T) {
	rules := []Rule{
		{ID: "low_score", Field: "safetyScore", Op: OpLT, Threshold: 70, Level: LevelWarning, Message: "score low"},
		{ID: "critical_score", Field: "safetyScore", Op: OpLT, Threshold: 50, Level: LevelCritical, Message: "score critical"},
		{ID: "low_attention", Field: "behavior.attention", Op: OpLT, Threshold: 40, Level: LevelWarning, Message: "attention low"},
		{ID: "bad_field", Field: "behavior.unknown_metric", Op: OpGT, Threshold: 0, Level: LevelInfo, Message: "never fires"},
	}

	cases := []struct {
		name      string
		score     float64
		attention float64
		wantIDs   []string
	}{
		{"all healthy", 90, 80, nil},
		{"warning only", 65, 80, []string{"low_score"}},
		{"warning and critical", 40, 80, []string{"low_score", "critical_score"}},
		{"attention fires independently", 90, 30, []string{"low_attention"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := dashboard.Default()
			s.SafetyScore = tc.score
			for i := range s.BehaviorMetrics {
				if s.BehaviorMetrics[i].Key == "attention" {
					s.BehaviorMetrics[i].Value = tc.attention
				}
			}

			fired := Evaluate(rules, s)
			if len(fired) != len(tc.wantIDs) {
				t.Fatalf("fired %d alerts %v, want %v", len(fired), fired, tc.wantIDs)
			}
			for i, want := range tc.wantIDs {
				if fired[i].RuleID != want {
					t.Errorf("fired[%d] = %s, want %s", i, fired[i].RuleID, want)
				}
			}
		})
	}
}

func TestEvaluate_AlertCarriesContext(t *testing.T) {
	s := dashboard.Default()
	s.SafetyScore = 66
	fired := Evaluate([]Rule{
		{ID: "low_score", Field: "safetyScore", Op: OpLT, Threshold: 70, Level: LevelWarning, Message: "score low"},
	}, s)

	if len(fired) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(fired))
	}
	a := fired[0]
	if a.Value != 66 || a.Threshold != 70 || a.Field != "safetyScore" || a.Level != LevelWarning {
		t.Errorf("alert context wrong: %+v", a)
	}
}

func TestResolveField(t *testing.T) {
	s := dashboard.Default()
	cases := []struct {
		field string
		want  float64
		ok    bool
	}{
		{"safetyScore", s.SafetyScore, true},
		{"discountPercent", s.DiscountPercent, true},
		{"insurance.premium", s.Insurance.Premium, true},
		{"insurance.savings", s.Insurance.Savings, true},
		{"driverProfile.hours", s.DriverProfile.Hours, true},
		{"behavior.attention", 92, true},
		{"behavior.nope", 0, false},
		{"riskLevel", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := resolveField(s, tc.field)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("resolveField(%q) = %v, %v; want %v, %v", tc.field, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseOp(t *testing.T) {
	for _, valid := range []string{">", ">=", "<", "<=", "=="} {
		if _, err := ParseOp(valid); err != nil {
			t.Errorf("ParseOp(%q) unexpected error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "!=", "contains", "gt"} {
		if _, err := ParseOp(invalid); err == nil {
			t.Errorf("ParseOp(%q) expected an error", invalid)
		}
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		op    Op
		left  float64
		right float64
		want  bool
	}{
		{OpGT, 2, 1, true},
		{OpGT, 1, 1, false},
		{OpGTE, 1, 1, true},
		{OpLT, 1, 2, true},
		{OpLTE, 2, 2, true},
		{OpEQ, 0.1 + 0.2, 0.3, true},
		{OpEQ, 1, 2, false},
	}
	for _, tc := range cases {
		if got := compare(tc.op, tc.left, tc.right); got != tc.want {
			t.Errorf("compare(%s, %v, %v) = %v, want %v", tc.op, tc.left, tc.right, got, tc.want)
		}
	}
}
