package hub

import (
	"testing"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

func TestPublish_OrderAndSequence(t *testing.T) {
	h := New()
	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	h.Publish(model.Event{Type: model.EventRoundCommitted, RoundID: "r1", Commitment: "c1"})
	h.Publish(model.Event{Type: model.EventBettingOpen, RoundID: "r1"})
	h.Publish(model.Event{Type: model.EventMultiplierTick, RoundID: "r1", Multiplier: 1.05})
	h.Publish(model.Event{Type: model.EventCrashed, RoundID: "r1", CrashPoint: 1.10})

	wantTypes := []model.EventType{
		model.EventRoundCommitted,
		model.EventBettingOpen,
		model.EventMultiplierTick,
		model.EventCrashed,
	}
	var lastSeq uint64
	for i, want := range wantTypes {
		ev := <-sub.Events
		if ev.Type != want {
			t.Fatalf("event %d: got %s, want %s", i, ev.Type, want)
		}
		if ev.Seq <= lastSeq {
			t.Fatalf("event %d: seq %d not increasing past %d", i, ev.Seq, lastSeq)
		}
		lastSeq = ev.Seq
	}
}

func TestSubscribe_MidRoundSnapshotNoReplay(t *testing.T) {
	h := New()
	h.Publish(model.Event{Type: model.EventRoundCommitted, RoundID: "r1", Commitment: "c1"})
	h.Publish(model.Event{Type: model.EventBettingOpen, RoundID: "r1"})
	h.Publish(model.Event{Type: model.EventMultiplierTick, RoundID: "r1", Multiplier: 1.37})

	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	if sub.Snapshot.Phase != model.PhaseRunning {
		t.Errorf("snapshot phase = %s, want running", sub.Snapshot.Phase)
	}
	if sub.Snapshot.Multiplier != 1.37 {
		t.Errorf("snapshot multiplier = %.2f, want 1.37", sub.Snapshot.Multiplier)
	}
	if sub.Snapshot.RoundID != "r1" {
		t.Errorf("snapshot round = %s, want r1", sub.Snapshot.RoundID)
	}

	// Only events published after joining arrive; no replay of earlier ticks.
	select {
	case ev := <-sub.Events:
		t.Fatalf("unexpected replayed event %s seq %d", ev.Type, ev.Seq)
	default:
	}

	h.Publish(model.Event{Type: model.EventMultiplierTick, RoundID: "r1", Multiplier: 1.42})
	ev := <-sub.Events
	if ev.Multiplier != 1.42 {
		t.Errorf("first delivered event multiplier = %.2f, want 1.42", ev.Multiplier)
	}
}

func TestSubscribe_RunningSnapshotBeforeFirstTick(t *testing.T) {
	h := New()
	h.Publish(model.Event{Type: model.EventRoundCommitted, RoundID: "r1", Commitment: "c1"})
	h.Publish(model.Event{Type: model.EventBettingOpen, RoundID: "r1"})
	h.Publish(model.Event{Type: model.EventRoundRunning, RoundID: "r1", Multiplier: 1.00})

	// Joining between the phase change and the first tick must not report
	// a betting-phase snapshot.
	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	if sub.Snapshot.Phase != model.PhaseRunning {
		t.Errorf("snapshot phase = %s, want running", sub.Snapshot.Phase)
	}
	if sub.Snapshot.Multiplier != 1.00 {
		t.Errorf("snapshot multiplier = %.2f, want 1.00", sub.Snapshot.Multiplier)
	}
}

func TestPublish_DropsSlowSubscriber(t *testing.T) {
	h := New()
	sub := h.Subscribe()

	// Never drain: overflow the buffer plus one.
	for i := 0; i <= DefaultBuffer; i++ {
		h.Publish(model.Event{Type: model.EventMultiplierTick, Multiplier: float64(i)})
	}
	if n := h.Subscribers(); n != 0 {
		t.Fatalf("expected slow subscriber to be dropped, still %d attached", n)
	}
	// Channel is closed after the buffered events.
	drained := 0
	for range sub.Events {
		drained++
	}
	if drained != DefaultBuffer {
		t.Errorf("drained %d buffered events, want %d", drained, DefaultBuffer)
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	h := New()
	sub := h.Subscribe()
	h.Unsubscribe(sub)
	h.Unsubscribe(sub)
	if n := h.Subscribers(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}
