// Package engine orchestrates round lifecycle, bet admission and settlement.
// All mutations touching the active round, its bet book and the balances of
// involved players pass through one lock, so a cashout, a new bet and the
// tick that detects a crash can never interleave partially.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/fair"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/hub"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/ledger"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/price"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/stats"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/store"
)

var (
	ErrValidation      = errors.New("invalid request")
	ErrNoActiveRound   = errors.New("no betting round open")
	ErrRoundNotRunning = errors.New("round is not running")
	// ErrRoundFrozen is returned once a round has been pulled out of play
	// after an invariant violation; it stays frozen for manual audit.
	ErrRoundFrozen = errors.New("round frozen pending audit")
)

// Config holds the game parameters of the engine.
type Config struct {
	BettingWindow time.Duration
	TickInterval  time.Duration
	RoundDelay    time.Duration
	GrowthRate    float64
	HouseEdge     float64
	MinBetUSD     decimal.Decimal
	MaxBetUSD     decimal.Decimal
}

func (c *Config) withDefaults() {
	if c.BettingWindow <= 0 {
		c.BettingWindow = 5 * time.Second
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 100 * time.Millisecond
	}
	if c.RoundDelay <= 0 {
		c.RoundDelay = 5 * time.Second
	}
	if c.GrowthRate <= 0 {
		c.GrowthRate = 0.05
	}
	if c.MinBetUSD.Sign() <= 0 {
		c.MinBetUSD = decimal.NewFromInt(1)
	}
	if c.MaxBetUSD.Sign() <= 0 {
		c.MaxBetUSD = decimal.NewFromInt(10000)
	}
}

// Alerter receives operator notifications (frozen rounds, summaries).
type Alerter interface {
	Notify(text string)
}

// BetReceipt is the synchronous result of a successful bet placement.
type BetReceipt struct {
	RoundID      string          `json:"round_id"`
	Currency     model.Currency  `json:"currency"`
	CryptoAmount decimal.Decimal `json:"crypto_amount"`
	NewBalance   decimal.Decimal `json:"new_balance"`
	PriceAtTime  decimal.Decimal `json:"price_at_time"`
}

// CashoutReceipt is the synchronous result of a successful cashout.
type CashoutReceipt struct {
	RoundID      string          `json:"round_id"`
	Multiplier   float64         `json:"multiplier"`
	PayoutCrypto decimal.Decimal `json:"payout_crypto"`
	PayoutUSD    decimal.Decimal `json:"payout_usd"`
	NewBalance   decimal.Decimal `json:"new_balance"`
}

// Status is a point-in-time view of the engine for operator queries.
type Status struct {
	RoundID    string      `json:"round_id"`
	Phase      model.Phase `json:"phase"`
	Commitment string      `json:"commitment"`
	Multiplier float64     `json:"multiplier"`
	Nonce      uint64      `json:"nonce"`
	BetCount   int         `json:"bet_count"`
}

// Engine owns the single authoritative round and its serialization point.
type Engine struct {
	cfg     Config
	gen     *fair.Generator
	ledger  *ledger.Ledger
	oracle  price.Oracle
	hub     *hub.Hub
	archive store.RoundArchive
	stats   *stats.Tracker
	alerter Alerter
	clock   Clock

	mu         sync.Mutex
	round      *model.Round
	book       *ledger.BetBook
	ticks      int
	multiplier float64
	nonce      uint64
	frozen     bool
}

// New wires an engine. archive, tracker and alerter may be nil-equivalents
// (NoopArchive, fresh tracker, nil alerter).
func New(cfg Config, l *ledger.Ledger, oracle price.Oracle, h *hub.Hub, archive store.RoundArchive, tracker *stats.Tracker, alerter Alerter) *Engine {
	cfg.withDefaults()
	if archive == nil {
		archive = store.NewNoopArchive()
	}
	if tracker == nil {
		tracker = stats.NewTracker(0)
	}
	return &Engine{
		cfg:     cfg,
		gen:     fair.New(cfg.HouseEdge),
		ledger:  l,
		oracle:  oracle,
		hub:     h,
		archive: archive,
		stats:   tracker,
		alerter: alerter,
		clock:   NewRealClock(),
	}
}

// SetClock replaces the wall clock, for deterministic tests.
func (e *Engine) SetClock(c Clock) { e.clock = c }

// Ledger exposes the engine's ledger for boundary handlers.
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// Stats exposes the rolling statistics tracker.
func (e *Engine) Stats() *stats.Tracker { return e.stats }

// multiplierAt computes the deterministic multiplier after n ticks:
// round2(1 + growthRate * elapsedSeconds), floored at 1.01. Monotonically
// non-decreasing in n.
func (e *Engine) multiplierAt(n int) float64 {
	elapsed := float64(n) * e.cfg.TickInterval.Seconds()
	m := math.Round((1+e.cfg.GrowthRate*elapsed)*100) / 100
	if m < 1.01 {
		m = 1.01
	}
	return m
}

// PlaceBet admits a wager into the open betting window. Conversion, debit,
// bet creation and the ledger entry commit as one unit; on any error nothing
// is applied.
func (e *Engine) PlaceBet(ctx context.Context, playerID, currencyCode string, usdAmount decimal.Decimal) (BetReceipt, error) {
	currency, err := model.ParseCurrency(currencyCode)
	if err != nil {
		return BetReceipt{}, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	if usdAmount.Sign() <= 0 {
		return BetReceipt{}, fmt.Errorf("bet amount must be positive: %w", ErrValidation)
	}
	if usdAmount.LessThan(e.cfg.MinBetUSD) || usdAmount.GreaterThan(e.cfg.MaxBetUSD) {
		return BetReceipt{}, fmt.Errorf("bet must be between $%s and $%s: %w",
			e.cfg.MinBetUSD, e.cfg.MaxBetUSD, ErrValidation)
	}

	// Oracle read happens outside the round lock; it is side-effect-free.
	p, err := e.oracle.Price(ctx, currency)
	if err != nil {
		return BetReceipt{}, err
	}
	wagerCrypto := usdAmount.Div(p).Round(ledger.CryptoPlaces)
	if wagerCrypto.Sign() <= 0 {
		return BetReceipt{}, fmt.Errorf("wager rounds to zero %s: %w", currency, ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.frozen {
		return BetReceipt{}, ErrRoundFrozen
	}
	if e.round == nil || e.round.Phase != model.PhaseBetting {
		return BetReceipt{}, ErrNoActiveRound
	}
	balance, err := e.ledger.Balance(playerID, currency)
	if err != nil {
		return BetReceipt{}, err
	}
	if balance.LessThan(wagerCrypto) {
		return BetReceipt{}, fmt.Errorf("need %s %s, have %s: %w",
			wagerCrypto.StringFixed(ledger.CryptoPlaces), currency,
			balance.StringFixed(ledger.CryptoPlaces), ledger.ErrInsufficientFunds)
	}
	if err := e.book.CanPlace(playerID); err != nil {
		return BetReceipt{}, err
	}

	// Debit and entry are atomic inside the ledger; the bet book mutation
	// below cannot fail, so the whole unit commits or nothing does.
	if _, err := e.ledger.Debit(playerID, currency, wagerCrypto, model.EntryBet, e.round.ID, p); err != nil {
		return BetReceipt{}, err
	}
	if _, err := e.book.Place(playerID, currency, wagerCrypto, usdAmount.Round(2)); err != nil {
		e.freezeLocked(fmt.Sprintf("bet book rejected a validated bet for %s: %v", playerID, err))
		return BetReceipt{}, ledger.ErrInvariantViolation
	}
	if err := e.ledger.VerifyAccount(playerID); err != nil {
		e.freezeLocked(fmt.Sprintf("post-bet audit for %s: %v", playerID, err))
		return BetReceipt{}, ledger.ErrInvariantViolation
	}

	balance, err = e.ledger.Balance(playerID, currency)
	if err != nil {
		return BetReceipt{}, err
	}
	return BetReceipt{
		RoundID:      e.round.ID,
		Currency:     currency,
		CryptoAmount: wagerCrypto,
		NewBalance:   balance,
		PriceAtTime:  p,
	}, nil
}

// CashOut converts the caller's pending bet into a win at the multiplier
// current when the request is admitted under the round lock. Requests
// admitted after the crash tick has been applied fail with
// ErrRoundNotRunning.
func (e *Engine) CashOut(ctx context.Context, playerID, roundID string) (CashoutReceipt, error) {
	// First admission: read the bet's currency so the price can be
	// fetched without holding the round lock.
	e.mu.Lock()
	if e.frozen {
		e.mu.Unlock()
		return CashoutReceipt{}, ErrRoundFrozen
	}
	if e.round == nil || e.round.ID != roundID || e.round.Phase != model.PhaseRunning {
		e.mu.Unlock()
		return CashoutReceipt{}, ErrRoundNotRunning
	}
	bet, err := e.book.Pending(playerID)
	if err != nil {
		e.mu.Unlock()
		return CashoutReceipt{}, err
	}
	currency := bet.Currency
	e.mu.Unlock()

	p, err := e.oracle.Price(ctx, currency)
	if err != nil {
		return CashoutReceipt{}, err
	}

	// Second admission commits; state may have moved while the price was
	// fetched, so every precondition is re-checked.
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.frozen {
		return CashoutReceipt{}, ErrRoundFrozen
	}
	if e.round == nil || e.round.ID != roundID || e.round.Phase != model.PhaseRunning {
		return CashoutReceipt{}, ErrRoundNotRunning
	}
	bet, err = e.book.Pending(playerID)
	if err != nil {
		return CashoutReceipt{}, err
	}

	multiplier := e.multiplier
	payoutCrypto := bet.WagerCrypto.Mul(decimal.NewFromFloat(multiplier)).Round(ledger.CryptoPlaces)
	payoutUSD := payoutCrypto.Mul(p).Round(2)

	if _, err := e.ledger.Credit(playerID, currency, payoutCrypto, model.EntryCashout, roundID, p); err != nil {
		return CashoutReceipt{}, err
	}
	if _, err := e.book.MarkWin(playerID, multiplier); err != nil {
		e.freezeLocked(fmt.Sprintf("credited cashout but could not settle bet for %s: %v", playerID, err))
		return CashoutReceipt{}, ledger.ErrInvariantViolation
	}
	if err := e.ledger.VerifyAccount(playerID); err != nil {
		e.freezeLocked(fmt.Sprintf("post-cashout audit for %s: %v", playerID, err))
		return CashoutReceipt{}, ledger.ErrInvariantViolation
	}

	e.hub.Publish(model.Event{
		Type:       model.EventPlayerCashedOut,
		RoundID:    roundID,
		PlayerID:   playerID,
		Multiplier: multiplier,
		PayoutUSD:  payoutUSD.StringFixed(2),
	})

	balance, err := e.ledger.Balance(playerID, currency)
	if err != nil {
		return CashoutReceipt{}, err
	}
	return CashoutReceipt{
		RoundID:      roundID,
		Multiplier:   multiplier,
		PayoutCrypto: payoutCrypto,
		PayoutUSD:    payoutUSD,
		NewBalance:   balance,
	}, nil
}

// Deposit credits a player outside of round play, with a deposit entry.
func (e *Engine) Deposit(ctx context.Context, playerID, currencyCode string, amount decimal.Decimal) (decimal.Decimal, error) {
	return e.transfer(ctx, playerID, currencyCode, amount, model.EntryDeposit)
}

// Withdraw debits a player outside of round play, with a withdrawal entry.
func (e *Engine) Withdraw(ctx context.Context, playerID, currencyCode string, amount decimal.Decimal) (decimal.Decimal, error) {
	return e.transfer(ctx, playerID, currencyCode, amount, model.EntryWithdrawal)
}

func (e *Engine) transfer(ctx context.Context, playerID, currencyCode string, amount decimal.Decimal, kind model.EntryKind) (decimal.Decimal, error) {
	currency, err := model.ParseCurrency(currencyCode)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("amount must be positive: %w", ErrValidation)
	}
	p, err := e.oracle.Price(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}

	amount = amount.Round(ledger.CryptoPlaces)
	if kind == model.EntryWithdrawal {
		_, err = e.ledger.Debit(playerID, currency, amount, kind, "", p)
	} else {
		_, err = e.ledger.Credit(playerID, currency, amount, kind, "", p)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return e.ledger.Balance(playerID, currency)
}

// Status reports the current engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{Multiplier: e.multiplier, Nonce: e.nonce}
	if e.round != nil {
		s.RoundID = e.round.ID
		s.Phase = e.round.Phase
		s.Commitment = e.round.Commitment
		s.BetCount = len(e.book.Bets())
	}
	if e.frozen {
		s.Phase = model.PhaseFrozen
	}
	return s
}

// Frozen reports whether the engine has been halted for audit.
func (e *Engine) Frozen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frozen
}

// freezeLocked marks the active round frozen, emits an error event and
// alerts the operator. Caller holds e.mu.
func (e *Engine) freezeLocked(reason string) {
	e.frozen = true
	roundID := ""
	if e.round != nil {
		e.round.Phase = model.PhaseFrozen
		roundID = e.round.ID
	}
	log.Printf("[ERROR] round %s frozen: %s", roundID, reason)
	e.hub.Publish(model.Event{
		Type:    model.EventError,
		RoundID: roundID,
		Code:    "ROUND_FROZEN",
		Message: "round frozen pending manual audit",
	})
	if e.alerter != nil {
		e.alerter.Notify(fmt.Sprintf("round %s frozen: %s", roundID, reason))
	}
}
