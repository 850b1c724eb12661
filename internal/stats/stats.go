// Package stats keeps rolling house statistics over recently settled rounds.
package stats

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// DefaultWindow is how many recent crash points the tracker retains.
const DefaultWindow = 500

// Summary is a point-in-time view of the tracked statistics.
type Summary struct {
	Rounds        int             `json:"rounds"`
	MeanCrash     float64         `json:"mean_crash"`
	MedianCrash   float64         `json:"median_crash"`
	MaxCrash      float64         `json:"max_crash"`
	ShareBelow150 float64         `json:"share_below_1_50"`
	WageredUSD    decimal.Decimal `json:"wagered_usd"`
	PaidOutUSD    decimal.Decimal `json:"paid_out_usd"`
	RTP           float64         `json:"rtp"`
}

// Tracker accumulates crash points and bet totals. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	window  int
	crashes []float64
	rounds  int
	wagered decimal.Decimal
	paid    decimal.Decimal
}

// NewTracker creates a tracker keeping up to window crash points.
func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{window: window}
}

// Record folds a settled round into the statistics.
func (t *Tracker) Record(crashPoint float64, bets []*model.Bet) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rounds++
	t.crashes = append(t.crashes, crashPoint)
	if len(t.crashes) > t.window {
		t.crashes = t.crashes[len(t.crashes)-t.window:]
	}
	for _, b := range bets {
		t.wagered = t.wagered.Add(b.WagerUSD)
		if b.Outcome == model.OutcomeWin {
			m := decimal.NewFromFloat(b.CashoutMultiplier)
			t.paid = t.paid.Add(b.WagerUSD.Mul(m).Round(2))
		}
	}
}

// RecentCrashes returns up to n most recent crash points, newest last.
func (t *Tracker) RecentCrashes(n int) []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 || n > len(t.crashes) {
		n = len(t.crashes)
	}
	out := make([]float64, n)
	copy(out, t.crashes[len(t.crashes)-n:])
	return out
}

// Summary computes aggregates over the retained window.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		Rounds:     t.rounds,
		WageredUSD: t.wagered,
		PaidOutUSD: t.paid,
	}
	if t.wagered.Sign() > 0 {
		rtp, _ := t.paid.Div(t.wagered).Float64()
		s.RTP = rtp
	}
	if len(t.crashes) == 0 {
		return s
	}

	sorted := make([]float64, len(t.crashes))
	copy(sorted, t.crashes)
	sort.Float64s(sorted)

	var sum float64
	below := 0
	for _, c := range sorted {
		sum += c
		if c < 1.50 {
			below++
		}
	}
	s.MeanCrash = sum / float64(len(sorted))
	s.MaxCrash = sorted[len(sorted)-1]
	s.ShareBelow150 = float64(below) / float64(len(sorted))

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		s.MedianCrash = sorted[mid]
	} else {
		s.MedianCrash = (sorted[mid-1] + sorted[mid]) / 2
	}
	return s
}
