package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

var (
	ErrDuplicateBet     = errors.New("player already has a pending bet this round")
	ErrNoPendingBet     = errors.New("no pending bet for player this round")
	ErrAlreadyCashedOut = errors.New("bet already cashed out")
)

// BetBook is the per-round collection of bets, indexed by player. It is not
// internally locked: the engine serializes all access behind the round lock.
type BetBook struct {
	roundID  string
	bets     []*model.Bet
	byPlayer map[string]*model.Bet
}

// NewBetBook creates an empty book for one round.
func NewBetBook(roundID string) *BetBook {
	return &BetBook{
		roundID:  roundID,
		byPlayer: make(map[string]*model.Bet),
	}
}

// CanPlace reports whether the player may still bet this round.
func (b *BetBook) CanPlace(playerID string) error {
	if _, ok := b.byPlayer[playerID]; ok {
		return ErrDuplicateBet
	}
	return nil
}

// Place records a pending bet. A player gets at most one bet per round.
func (b *BetBook) Place(playerID string, currency model.Currency, wagerCrypto, wagerUSD decimal.Decimal) (*model.Bet, error) {
	if existing, ok := b.byPlayer[playerID]; ok {
		if existing.Outcome == model.OutcomePending {
			return nil, ErrDuplicateBet
		}
		return nil, fmt.Errorf("player %s already settled this round: %w", playerID, ErrDuplicateBet)
	}
	bet := &model.Bet{
		PlayerID:    playerID,
		Currency:    currency,
		WagerCrypto: wagerCrypto,
		WagerUSD:    wagerUSD,
		Outcome:     model.OutcomePending,
		PlacedAt:    time.Now(),
	}
	b.bets = append(b.bets, bet)
	b.byPlayer[playerID] = bet
	return bet, nil
}

// Pending returns the player's pending bet, distinguishing "never bet" from
// "already cashed out".
func (b *BetBook) Pending(playerID string) (*model.Bet, error) {
	bet, ok := b.byPlayer[playerID]
	if !ok {
		return nil, ErrNoPendingBet
	}
	if bet.Outcome == model.OutcomeWin {
		return nil, ErrAlreadyCashedOut
	}
	if bet.Outcome != model.OutcomePending {
		return nil, ErrNoPendingBet
	}
	return bet, nil
}

// MarkWin settles a pending bet as a win at the given multiplier. The
// pending->win transition happens exactly once; a second attempt fails.
func (b *BetBook) MarkWin(playerID string, multiplier float64) (*model.Bet, error) {
	bet, err := b.Pending(playerID)
	if err != nil {
		return nil, err
	}
	bet.Outcome = model.OutcomeWin
	bet.CashoutMultiplier = multiplier
	return bet, nil
}

// SettleLosses marks every still-pending bet as a loss and returns them.
// The wager was debited at placement, so no balance change is needed.
func (b *BetBook) SettleLosses() []*model.Bet {
	var lost []*model.Bet
	for _, bet := range b.bets {
		if bet.Outcome == model.OutcomePending {
			bet.Outcome = model.OutcomeLoss
			lost = append(lost, bet)
		}
	}
	return lost
}

// Bets returns the ordered bets of the round.
func (b *BetBook) Bets() []*model.Bet {
	out := make([]*model.Bet, len(b.bets))
	copy(out, b.bets)
	return out
}

// RoundID returns the round this book belongs to.
func (b *BetBook) RoundID() string { return b.roundID }
