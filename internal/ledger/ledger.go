// Package ledger holds player accounts and the append-only entry log.
// Every balance mutation goes through Debit or Credit, which pair the
// balance change with exactly one written ledger entry under one lock.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// CryptoPlaces is the scale used for all crypto amounts.
const CryptoPlaces = 8

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	// ErrInvariantViolation signals that the ledger and an account balance
	// disagree. The caller must freeze the affected round for manual audit.
	ErrInvariantViolation = errors.New("ledger invariant violation")
)

// Ledger serializes all account mutations behind one lock, so concurrent
// deposits, withdrawals, bets and cashouts cannot race each other.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	initial  map[string]map[model.Currency]decimal.Decimal
	entries  []model.LedgerEntry
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[string]*model.Account),
		initial:  make(map[string]map[model.Currency]decimal.Decimal),
	}
}

// CreateAccount registers a new player with the given starting balances.
// Usernames are unique. Starting balances are not entry-backed; the entry
// sum invariant is relative to them.
func (l *Ledger) CreateAccount(username string, starting map[model.Currency]decimal.Decimal) (*model.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.accounts {
		if existing.Username == username {
			return nil, fmt.Errorf("username %q: %w", username, ErrUsernameTaken)
		}
	}

	acct := &model.Account{
		PlayerID:  uuid.NewString(),
		Username:  username,
		Balances:  make(map[model.Currency]decimal.Decimal, len(model.SupportedCurrencies)),
		CreatedAt: time.Now(),
	}
	init := make(map[model.Currency]decimal.Decimal, len(model.SupportedCurrencies))
	for _, c := range model.SupportedCurrencies {
		b := starting[c]
		acct.Balances[c] = b
		init[c] = b
	}
	l.accounts[acct.PlayerID] = acct
	l.initial[acct.PlayerID] = init
	return snapshotAccount(acct), nil
}

// Account returns a copy of the player's account.
func (l *Ledger) Account(playerID string) (*model.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[playerID]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrAccountNotFound)
	}
	return snapshotAccount(acct), nil
}

// Balance returns the player's balance in one currency.
func (l *Ledger) Balance(playerID string, currency model.Currency) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[playerID]
	if !ok {
		return decimal.Zero, fmt.Errorf("player %s: %w", playerID, ErrAccountNotFound)
	}
	return acct.Balances[currency], nil
}

// Debit removes amount from the player's balance and appends a ledger entry
// with a negative delta, as one atomic unit. Nothing is mutated on error.
func (l *Ledger) Debit(playerID string, currency model.Currency, amount decimal.Decimal, kind model.EntryKind, roundID string, priceAtTime decimal.Decimal) (model.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount.Sign() <= 0 {
		return model.LedgerEntry{}, ErrInvalidAmount
	}
	acct, ok := l.accounts[playerID]
	if !ok {
		return model.LedgerEntry{}, fmt.Errorf("player %s: %w", playerID, ErrAccountNotFound)
	}
	balance := acct.Balances[currency]
	if balance.LessThan(amount) {
		return model.LedgerEntry{}, fmt.Errorf("need %s %s, have %s: %w",
			amount.StringFixed(CryptoPlaces), currency, balance.StringFixed(CryptoPlaces), ErrInsufficientFunds)
	}

	acct.Balances[currency] = balance.Sub(amount)
	entry := l.appendEntry(playerID, currency, amount.Neg(), kind, roundID, priceAtTime)
	return entry, nil
}

// Credit adds amount to the player's balance and appends a ledger entry with
// a positive delta, as one atomic unit.
func (l *Ledger) Credit(playerID string, currency model.Currency, amount decimal.Decimal, kind model.EntryKind, roundID string, priceAtTime decimal.Decimal) (model.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount.Sign() <= 0 {
		return model.LedgerEntry{}, ErrInvalidAmount
	}
	acct, ok := l.accounts[playerID]
	if !ok {
		return model.LedgerEntry{}, fmt.Errorf("player %s: %w", playerID, ErrAccountNotFound)
	}

	acct.Balances[currency] = acct.Balances[currency].Add(amount)
	entry := l.appendEntry(playerID, currency, amount, kind, roundID, priceAtTime)
	return entry, nil
}

// appendEntry writes one immutable entry. Caller holds l.mu.
func (l *Ledger) appendEntry(playerID string, currency model.Currency, delta decimal.Decimal, kind model.EntryKind, roundID string, priceAtTime decimal.Decimal) model.LedgerEntry {
	entry := model.LedgerEntry{
		ID:          uuid.NewString(),
		AccountID:   playerID,
		RoundID:     roundID,
		Currency:    currency,
		Delta:       delta,
		Kind:        kind,
		PriceAtTime: priceAtTime,
		Timestamp:   time.Now(),
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Entries returns a copy of all entries for one account, oldest first.
func (l *Ledger) Entries(playerID string) []model.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.LedgerEntry
	for _, e := range l.entries {
		if e.AccountID == playerID {
			out = append(out, e)
		}
	}
	return out
}

// EntriesForRound returns a copy of all entries tied to one round.
func (l *Ledger) EntriesForRound(roundID string) []model.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.LedgerEntry
	for _, e := range l.entries {
		if e.RoundID == roundID {
			out = append(out, e)
		}
	}
	return out
}

// VerifyAccount checks that the account's balance in every currency equals
// its starting balance plus the sum of its entry deltas, and that no balance
// is negative. A mismatch is an ErrInvariantViolation.
func (l *Ledger) VerifyAccount(playerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[playerID]
	if !ok {
		return fmt.Errorf("player %s: %w", playerID, ErrAccountNotFound)
	}

	sums := make(map[model.Currency]decimal.Decimal)
	for _, e := range l.entries {
		if e.AccountID == playerID {
			sums[e.Currency] = sums[e.Currency].Add(e.Delta)
		}
	}
	for _, c := range model.SupportedCurrencies {
		balance := acct.Balances[c]
		if balance.Sign() < 0 {
			return fmt.Errorf("negative %s balance %s for player %s: %w",
				c, balance.String(), playerID, ErrInvariantViolation)
		}
		want := l.initial[playerID][c].Add(sums[c])
		if !balance.Equal(want) {
			return fmt.Errorf("%s balance %s does not match entry sum %s for player %s: %w",
				c, balance.String(), want.String(), playerID, ErrInvariantViolation)
		}
	}
	return nil
}

func snapshotAccount(acct *model.Account) *model.Account {
	cp := &model.Account{
		PlayerID:  acct.PlayerID,
		Username:  acct.Username,
		Balances:  make(map[model.Currency]decimal.Decimal, len(acct.Balances)),
		CreatedAt: acct.CreatedAt,
	}
	for c, b := range acct.Balances {
		cp.Balances[c] = b
	}
	return cp
}
