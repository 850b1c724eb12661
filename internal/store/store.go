// Package store persists settled rounds and ledger entries for audit.
package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// RoundRecord is the flat archived form of a settled round, as served by the
// history endpoint.
type RoundRecord struct {
	RoundID        string          `json:"round_id"`
	Commitment     string          `json:"commitment"`
	ServerSeed     string          `json:"server_seed"`
	ClientSeed     string          `json:"client_seed"`
	Nonce          uint64          `json:"nonce"`
	CrashPoint     float64         `json:"crash_point"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	BetCount       int             `json:"bet_count"`
	TotalWagerUSD  decimal.Decimal `json:"total_wager_usd"`
	TotalPayoutUSD decimal.Decimal `json:"total_payout_usd"`
}

// RoundArchive persists rounds and entries at settlement. Failures are
// logged by callers, never allowed to block settlement.
type RoundArchive interface {
	SaveRound(round *model.Round) error
	SaveEntries(entries []model.LedgerEntry) error
	RecentRounds(limit int) ([]RoundRecord, error)
	PruneBefore(cutoff time.Time) (int64, error)
	Close() error
}

// roundTotals sums a settled round's wagers and payouts in USD.
func roundTotals(round *model.Round) (wager, payout decimal.Decimal) {
	for _, b := range round.Bets {
		wager = wager.Add(b.WagerUSD)
		if b.Outcome == model.OutcomeWin {
			m := decimal.NewFromFloat(b.CashoutMultiplier)
			payout = payout.Add(b.WagerUSD.Mul(m).Round(2))
		}
	}
	return wager, payout
}
