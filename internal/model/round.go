package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Phase is the lifecycle state of a round.
type Phase int

const (
	PhaseBetting Phase = iota
	PhaseRunning
	PhaseCrashed
	PhaseSettled
	// PhaseFrozen marks a round pulled out of play after an invariant
	// violation. Frozen rounds accept no mutations and are flagged for
	// manual audit.
	PhaseFrozen
)

func (p Phase) String() string {
	switch p {
	case PhaseBetting:
		return "betting"
	case PhaseRunning:
		return "running"
	case PhaseCrashed:
		return "crashed"
	case PhaseSettled:
		return "settled"
	case PhaseFrozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// Outcome is the settlement result of a bet.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
)

// Bet is a single player's wager within a round. WagerCrypto is debited at
// placement; a cashout credits WagerCrypto * CashoutMultiplier.
type Bet struct {
	PlayerID          string          `json:"player_id"`
	Currency          Currency        `json:"currency"`
	WagerCrypto       decimal.Decimal `json:"wager_crypto"`
	WagerUSD          decimal.Decimal `json:"wager_usd"`
	CashoutMultiplier float64         `json:"cashout_multiplier,omitempty"`
	Outcome           Outcome         `json:"outcome"`
	PlacedAt          time.Time       `json:"placed_at"`
}

// Round is one play of the game, from betting-open to settled. ServerSeed
// stays secret until the round crashes; Commitment is published at creation
// so the reveal can be verified after the fact.
type Round struct {
	ID         string    `json:"id"`
	Phase      Phase     `json:"phase"`
	ServerSeed string    `json:"server_seed,omitempty"`
	Commitment string    `json:"commitment"`
	ClientSeed string    `json:"client_seed"`
	Nonce      uint64    `json:"nonce"`
	CrashPoint float64   `json:"crash_point,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time,omitempty"`
	Bets       []*Bet    `json:"bets"`
}
