package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryBet        EntryKind = "bet"
	EntryCashout    EntryKind = "cashout"
	EntryDeposit    EntryKind = "deposit"
	EntryWithdrawal EntryKind = "withdrawal"
)

// LedgerEntry is a write-once record of a single balance-affecting event.
// Delta is negative for debits (bet, withdrawal) and positive for credits
// (cashout, deposit). PriceAtTime is the USD price of one unit of Currency
// at the moment the entry was written.
type LedgerEntry struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	RoundID     string          `json:"round_id,omitempty"`
	Currency    Currency        `json:"currency"`
	Delta       decimal.Decimal `json:"delta"`
	Kind        EntryKind       `json:"kind"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Account holds a player's balances, one per supported currency.
type Account struct {
	PlayerID  string                       `json:"player_id"`
	Username  string                       `json:"username"`
	Balances  map[Currency]decimal.Decimal `json:"balances"`
	CreatedAt time.Time                    `json:"created_at"`
}
