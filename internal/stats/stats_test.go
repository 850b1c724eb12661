package stats

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

func bet(usd string, outcome model.Outcome, multiplier float64) *model.Bet {
	return &model.Bet{
		WagerUSD:          decimal.RequireFromString(usd),
		Outcome:           outcome,
		CashoutMultiplier: multiplier,
	}
}

func TestSummary_Aggregates(t *testing.T) {
	tr := NewTracker(10)
	tr.Record(1.20, []*model.Bet{bet("100", model.OutcomeLoss, 0)})
	tr.Record(2.00, []*model.Bet{bet("100", model.OutcomeWin, 1.50)})
	tr.Record(5.80, nil)

	s := tr.Summary()
	if s.Rounds != 3 {
		t.Errorf("rounds = %d, want 3", s.Rounds)
	}
	if want := (1.20 + 2.00 + 5.80) / 3; s.MeanCrash != want {
		t.Errorf("mean = %.4f, want %.4f", s.MeanCrash, want)
	}
	if s.MedianCrash != 2.00 {
		t.Errorf("median = %.2f, want 2.00", s.MedianCrash)
	}
	if s.MaxCrash != 5.80 {
		t.Errorf("max = %.2f, want 5.80", s.MaxCrash)
	}
	if want := 1.0 / 3.0; s.ShareBelow150 != want {
		t.Errorf("share below 1.5 = %.4f, want %.4f", s.ShareBelow150, want)
	}
	if !s.WageredUSD.Equal(decimal.NewFromInt(200)) {
		t.Errorf("wagered = %s, want 200", s.WageredUSD)
	}
	if !s.PaidOutUSD.Equal(decimal.NewFromInt(150)) {
		t.Errorf("paid = %s, want 150", s.PaidOutUSD)
	}
	if s.RTP != 0.75 {
		t.Errorf("rtp = %.4f, want 0.75", s.RTP)
	}
}

func TestTracker_WindowBound(t *testing.T) {
	tr := NewTracker(3)
	for i := 1; i <= 5; i++ {
		tr.Record(float64(i), nil)
	}
	got := tr.RecentCrashes(0)
	if len(got) != 3 {
		t.Fatalf("window size = %d, want 3", len(got))
	}
	if got[0] != 3 || got[2] != 5 {
		t.Errorf("window = %v, want [3 4 5]", got)
	}
	// Rounds counter is not windowed.
	if s := tr.Summary(); s.Rounds != 5 {
		t.Errorf("rounds = %d, want 5", s.Rounds)
	}
}

func TestSummary_Empty(t *testing.T) {
	s := NewTracker(0).Summary()
	if s.Rounds != 0 || s.MeanCrash != 0 || s.RTP != 0 {
		t.Errorf("empty summary not zero: %+v", s)
	}
}
