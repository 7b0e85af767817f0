package broadcast

import (
	"testing"
	"time"

	"github.com/drivepulse/drivepulse/internal/dashboard"
)

func snapshotWithScore(score float64) dashboard.State {
	s := dashboard.Default()
	s.SafetyScore = score
	return s
}

func receive(t *testing.T, sub *Subscriber) Update {
	t.Helper()
	select {
	case u, ok := <-sub.Updates():
		if !ok {
			t.Fatalf("channel closed while expecting an update")
		}
		return u
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for update")
	}
	return Update{}
}

func TestSubscribeReceivesCurrentSnapshotFirst(t *testing.T) {
	h := NewHub(4)
	h.Publish(Update{Snapshot: snapshotWithScore(55)})

	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	u := receive(t, sub)
	if u.Snapshot.SafetyScore != 55 {
		t.Errorf("first delivery = %v, want the current snapshot (55)", u.Snapshot.SafetyScore)
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := NewHub(4)
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Publish(Update{Snapshot: snapshotWithScore(70)})
	if got := receive(t, a).Snapshot.SafetyScore; got != 70 {
		t.Errorf("subscriber a got %v, want 70", got)
	}
	if got := receive(t, b).Snapshot.SafetyScore; got != 70 {
		t.Errorf("subscriber b got %v, want 70", got)
	}
}

func TestSlowSubscriberDropsOldestKeepsOrder(t *testing.T) {
	h := NewHub(2)
	sub := h.Subscribe() // nothing published yet: queue starts empty
	defer h.Unsubscribe(sub)

	// Fill the queue of 2 and keep publishing without the subscriber reading.
	for score := 1; score <= 5; score++ {
		h.Publish(Update{Snapshot: snapshotWithScore(float64(score))})
	}

	// Oldest updates were dropped; what remains must still be in publish
	// order, ending with the newest.
	first := receive(t, sub)
	second := receive(t, sub)
	if first.Snapshot.SafetyScore >= second.Snapshot.SafetyScore {
		t.Errorf("out of order: %v then %v", first.Snapshot.SafetyScore, second.Snapshot.SafetyScore)
	}
	if second.Snapshot.SafetyScore != 5 {
		t.Errorf("newest update = %v, want 5", second.Snapshot.SafetyScore)
	}

	select {
	case u := <-sub.Updates():
		t.Errorf("unexpected extra update: %v", u.Snapshot.SafetyScore)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(4)
	sub := h.Subscribe()
	h.Unsubscribe(sub)

	// No delivery after unsubscribe; the channel is closed.
	h.Publish(Update{Snapshot: snapshotWithScore(99)})
	if _, ok := <-sub.Updates(); ok {
		t.Errorf("received an update after unsubscribe")
	}

	// Double-unsubscribe is harmless.
	h.Unsubscribe(sub)
}

func TestPublishNeverBlocks(t *testing.T) {
	h := NewHub(1)
	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			h.Publish(Update{Snapshot: snapshotWithScore(float64(i))})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a slow subscriber")
	}
}
