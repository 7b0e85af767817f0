// Command simulate posts randomized driver telemetry to a running server,
// standing in for the real monitoring devices during development.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"
)

var incidentTypes = []string{
	"Drowsiness Alert",
	"Hard Braking",
	"Phone Usage",
	"Lane Departure",
	"Overspeed",
}

var severities = []string{"low", "medium", "high"}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Server base URL")
	deviceID := flag.String("device", "driver-monitor-001", "Device ID to report as")
	interval := flag.Duration("interval", 2*time.Second, "Delay between events")
	count := flag.Int("count", 0, "Number of events to send (0 = run forever)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	client := &http.Client{Timeout: 10 * time.Second}
	score := 80.0

	for sent := 0; *count == 0 || sent < *count; sent++ {
		ev := nextEvent(*deviceID, &score)
		if err := post(client, *baseURL+"/v1/events", ev); err != nil {
			slog.Warn("post failed", "err", err)
		} else {
			slog.Info("sent", "type", ev["type"])
		}
		time.Sleep(*interval)
	}
}

// nextEvent picks an event kind with weights roughly matching a real
// session: mostly score updates, occasional incidents and metric changes.
func nextEvent(deviceID string, score *float64) map[string]any {
	ev := map[string]any{
		"deviceId":  deviceID,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	switch roll := rand.Float64(); {
	case roll < 0.5:
		*score += rand.Float64()*10 - 5
		if *score < 0 {
			*score = 0
		}
		if *score > 100 {
			*score = 100
		}
		ev["type"] = "safetyScore"
		ev["values"] = map[string]any{"score": *score}
	case roll < 0.65:
		ev["type"] = "incident"
		ev["values"] = map[string]any{
			"type":     incidentTypes[rand.Intn(len(incidentTypes))],
			"severity": severities[rand.Intn(len(severities))],
		}
	case roll < 0.85:
		ev["type"] = "behavior"
		ev["values"] = map[string]any{
			"attention": 60 + rand.Float64()*40,
			"stress":    rand.Float64() * 50,
		}
	case roll < 0.95:
		ev["type"] = "driverStats"
		ev["values"] = map[string]any{
			"hours":    float64(rand.Intn(3000)),
			"trips":    float64(rand.Intn(500)),
			"avgScore": 60 + rand.Float64()*40,
		}
	default:
		ev["type"] = "insurance"
		ev["values"] = map[string]any{
			"premium":  1000 + rand.Float64()*500,
			"discount": rand.Float64() * 20,
		}
	}
	return ev
}

func post(client *http.Client, url string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("server responded %s", resp.Status)
	}
	return nil
}
