package dashboard

import (
	"math"
	"strings"

	"github.com/drivepulse/drivepulse/internal/event"
)

const (
	maxTrendPoints = 7
	maxIncidents   = 8
)

// Fold applies one event to a snapshot and returns the next snapshot.
//
// Fold is pure and total: it never fails, it never mutates its input, and a
// malformed or missing payload field is a no-op for that field rather than
// an error, so a single bad producer cannot corrupt the shared state or halt
// reconciliation. Unknown event kinds update LastUpdated only.
func Fold(s State, ev *event.Event) State {
	next := s
	next.LastUpdated = ev.Timestamp

	switch ev.Kind() {
	case event.KindSafetyScore:
		foldSafetyScore(&next, ev)
	case event.KindIncident:
		foldIncident(&next, ev)
	case event.KindBehavior:
		foldBehavior(&next, ev)
	case event.KindInsurance:
		foldInsurance(&next, ev)
	case event.KindDriverStats:
		foldDriverStats(&next, ev)
	}
	return next
}

func foldSafetyScore(s *State, ev *event.Event) {
	raw, ok := event.Numeric(ev.Payload, "score", "value")
	if !ok {
		return
	}
	score := clamp(raw, 0, 100)
	s.SafetyScore = score
	// RiskLevel is always recomputed from the score just written, never
	// read from the prior snapshot.
	s.RiskLevel = riskLevelFor(score)
	if discount, ok := event.Numeric(ev.Payload, "discount"); ok {
		s.DiscountPercent = discount
	}

	point := TrendPoint{Label: trendLabel(ev), Score: score}
	trend := append(append([]TrendPoint(nil), s.Trend...), point)
	if len(trend) > maxTrendPoints {
		trend = trend[len(trend)-maxTrendPoints:]
	}
	s.Trend = trend
}

func foldIncident(s *State, ev *event.Event) {
	inc := Incident{
		ID:        ev.ID,
		Type:      incidentLabel(ev.Payload),
		Severity:  severityFor(ev.Payload),
		Timestamp: ev.Timestamp,
	}
	incidents := append([]Incident{inc}, s.Incidents...)
	if len(incidents) > maxIncidents {
		incidents = incidents[:maxIncidents]
	}
	s.Incidents = incidents
}

func foldBehavior(s *State, ev *event.Event) {
	metrics := append([]BehaviorMetric(nil), s.BehaviorMetrics...)
	for i, m := range metrics {
		// Producers may address a metric by key or by display label.
		if v, ok := event.Numeric(ev.Payload, m.Key, m.Label); ok {
			metrics[i].Value = clamp(v, 0, 100)
		}
	}
	s.BehaviorMetrics = metrics
}

func foldInsurance(s *State, ev *event.Event) {
	premium := s.Insurance.Premium
	if v, ok := event.Numeric(ev.Payload, "premium"); ok {
		premium = v
	}
	discount := s.Insurance.DiscountPercent
	if v, ok := event.Numeric(ev.Payload, "discountPercent", "discount"); ok {
		discount = v
	}
	savings, ok := event.Numeric(ev.Payload, "savings")
	if !ok {
		savings = math.Round(premium * discount / 100)
	}
	s.Insurance = Insurance{Premium: premium, DiscountPercent: discount, Savings: savings}
}

func foldDriverStats(s *State, ev *event.Event) {
	profile := s.DriverProfile
	if v, ok := event.Numeric(ev.Payload, "hours"); ok {
		profile.Hours = v
	}
	if v, ok := event.Numeric(ev.Payload, "trips"); ok {
		profile.Trips = v
	}
	if v, ok := event.Numeric(ev.Payload, "avgScore", "averageScore"); ok {
		profile.AvgScore = v
	}
	s.DriverProfile = profile
}

func riskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 85:
		return RiskLow
	case score >= 70:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func severityFor(payload map[string]any) Severity {
	raw, _ := payload["severity"].(string)
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case SeverityLow:
		return SeverityLow
	case SeverityHigh:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

func incidentLabel(payload map[string]any) string {
	for _, key := range []string{"type", "incidentType"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return "Incident"
}

func trendLabel(ev *event.Event) string {
	return ev.Timestamp.Format("15:04")
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
