// Package hub fans the engine's ordered event stream out to observers.
package hub

import (
	"log"
	"sync"
	"time"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// DefaultBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind is dropped rather than blocking the engine.
const DefaultBuffer = 64

// Snapshot is the synthesized state handed to a newly joining observer in
// place of a history replay.
type Snapshot struct {
	Phase      model.Phase `json:"phase"`
	RoundID    string      `json:"round_id,omitempty"`
	Commitment string      `json:"commitment,omitempty"`
	Multiplier float64     `json:"multiplier,omitempty"`
	Seq        uint64      `json:"seq"`
}

// Subscription is one observer's attachment to the hub.
type Subscription struct {
	id       int
	Events   <-chan model.Event
	Snapshot Snapshot
}

// Hub assigns a global sequence number to every published event and delivers
// them to each subscriber in publish order. Publish calls are serialized by
// the engine's round lock, so sequence order matches round order.
type Hub struct {
	mu       sync.Mutex
	seq      uint64
	nextID   int
	subs     map[int]chan model.Event
	snapshot Snapshot
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[int]chan model.Event)}
}

// Publish stamps the event with the next sequence number and timestamp,
// updates the join snapshot, and fans it out. Slow subscribers are dropped.
func (h *Hub) Publish(ev model.Event) model.Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ev.Seq = h.seq
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	h.updateSnapshot(ev)

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[WARN] dropping slow subscriber %d at seq %d", id, ev.Seq)
			delete(h.subs, id)
			close(ch)
		}
	}
	return ev
}

func (h *Hub) updateSnapshot(ev model.Event) {
	h.snapshot.Seq = h.seq
	switch ev.Type {
	case model.EventRoundCommitted:
		h.snapshot = Snapshot{
			Phase:      model.PhaseBetting,
			RoundID:    ev.RoundID,
			Commitment: ev.Commitment,
			Seq:        h.seq,
		}
	case model.EventBettingOpen:
		h.snapshot.Phase = model.PhaseBetting
	case model.EventRoundRunning:
		h.snapshot.Phase = model.PhaseRunning
		h.snapshot.Multiplier = ev.Multiplier
	case model.EventMultiplierTick:
		h.snapshot.Phase = model.PhaseRunning
		h.snapshot.Multiplier = ev.Multiplier
	case model.EventCrashed:
		h.snapshot.Phase = model.PhaseCrashed
		h.snapshot.Multiplier = ev.CrashPoint
	case model.EventSettled:
		h.snapshot.Phase = model.PhaseSettled
	}
}

// Subscribe attaches a new observer. The returned snapshot reflects the
// stream state as of the last published event; only later events are
// delivered on the channel.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan model.Event, DefaultBuffer)
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	return &Subscription{id: id, Events: ch, Snapshot: h.snapshot}
}

// Unsubscribe detaches an observer and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[sub.id]; ok {
		delete(h.subs, sub.id)
		close(ch)
	}
}

// Subscribers returns the current observer count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
