package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/fair"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/ledger"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// Run drives rounds until the context is cancelled or a round freezes.
// Per round: Betting (fixed window) -> Running (tick-driven) -> Crashed ->
// Settled -> delay -> next round.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := e.StartRound(); err != nil {
			return fmt.Errorf("start round: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.clock.After(e.cfg.BettingWindow):
		}

		if err := e.StartRunning(); err != nil {
			return err
		}

		ticker := e.clock.NewTicker(e.cfg.TickInterval)
		crashed := false
		for !crashed {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return ctx.Err()
			case <-ticker.C():
				crashed = e.ApplyTick()
			}
			if e.Frozen() {
				ticker.Stop()
				return ErrRoundFrozen
			}
		}
		ticker.Stop()

		if err := e.Settle(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.clock.After(e.cfg.RoundDelay):
		}
	}
}

// StartRound creates the next round in the Betting phase. The crash point is
// derived once, here, and never mutated; only the commitment is published.
func (e *Engine) StartRound() error {
	serverSeed, err := fair.NewServerSeed()
	if err != nil {
		return err
	}
	clientSeed, err := fair.NewClientSeed()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.frozen {
		return ErrRoundFrozen
	}
	if e.round != nil && e.round.Phase != model.PhaseSettled {
		return fmt.Errorf("round %s still %s: %w", e.round.ID, e.round.Phase, ErrValidation)
	}

	e.nonce++
	crashPoint := e.gen.Derive(serverSeed, clientSeed, e.nonce)
	commitment := fair.Commit(serverSeed)

	e.round = &model.Round{
		ID:         uuid.NewString(),
		Phase:      model.PhaseBetting,
		ServerSeed: serverSeed,
		Commitment: commitment,
		ClientSeed: clientSeed,
		Nonce:      e.nonce,
		CrashPoint: crashPoint,
		StartTime:  e.clock.Now(),
	}
	e.book = ledger.NewBetBook(e.round.ID)
	e.ticks = 0
	e.multiplier = 1.00

	log.Printf("[INFO] round %s open for betting (nonce %d)", e.round.ID, e.nonce)
	e.hub.Publish(model.Event{
		Type:       model.EventRoundCommitted,
		RoundID:    e.round.ID,
		Commitment: commitment,
	})
	e.hub.Publish(model.Event{
		Type:    model.EventBettingOpen,
		RoundID: e.round.ID,
	})
	return nil
}

// StartRunning closes the betting window and begins multiplier growth.
func (e *Engine) StartRunning() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.frozen {
		return ErrRoundFrozen
	}
	if e.round == nil || e.round.Phase != model.PhaseBetting {
		return ErrNoActiveRound
	}
	e.round.Phase = model.PhaseRunning
	log.Printf("[INFO] round %s running with %d bets", e.round.ID, len(e.book.Bets()))
	// Mark the phase change on the stream so a subscriber joining before the
	// first tick sees a Running snapshot.
	e.hub.Publish(model.Event{
		Type:       model.EventRoundRunning,
		RoundID:    e.round.ID,
		Multiplier: e.multiplier,
	})
	return nil
}

// ApplyTick advances the running round by one tick. The first tick whose
// multiplier reaches the crash point applies the crash: remaining pending
// bets become losses and the server seed is revealed. Returns true once the
// round has crashed; later calls are no-ops.
func (e *Engine) ApplyTick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.round == nil || e.round.Phase != model.PhaseRunning {
		return true
	}

	e.ticks++
	e.multiplier = e.multiplierAt(e.ticks)

	if e.multiplier >= e.round.CrashPoint {
		e.round.Phase = model.PhaseCrashed
		e.round.EndTime = e.clock.Now()
		lost := e.book.SettleLosses()
		e.round.Bets = e.book.Bets()

		log.Printf("[INFO] round %s crashed at x%.2f (%d losing bets)",
			e.round.ID, e.round.CrashPoint, len(lost))
		e.hub.Publish(model.Event{
			Type:       model.EventCrashed,
			RoundID:    e.round.ID,
			CrashPoint: e.round.CrashPoint,
			ServerSeed: e.round.ServerSeed,
			ClientSeed: e.round.ClientSeed,
			Nonce:      e.round.Nonce,
		})
		return true
	}

	e.hub.Publish(model.Event{
		Type:       model.EventMultiplierTick,
		RoundID:    e.round.ID,
		Multiplier: e.multiplier,
	})
	return false
}

// Settle archives the crashed round and marks it terminal. Archive failures
// are logged, never allowed to block the next round.
func (e *Engine) Settle() error {
	e.mu.Lock()
	if e.frozen {
		e.mu.Unlock()
		return ErrRoundFrozen
	}
	if e.round == nil || e.round.Phase != model.PhaseCrashed {
		e.mu.Unlock()
		return fmt.Errorf("settle out of phase: %w", ErrValidation)
	}
	e.round.Phase = model.PhaseSettled
	round := *e.round
	round.Bets = e.book.Bets()
	e.hub.Publish(model.Event{
		Type:    model.EventSettled,
		RoundID: round.ID,
	})
	e.mu.Unlock()

	entries := e.ledger.EntriesForRound(round.ID)
	if err := e.archive.SaveRound(&round); err != nil {
		log.Printf("[ERROR] archive round %s: %v", round.ID, err)
	}
	if err := e.archive.SaveEntries(entries); err != nil {
		log.Printf("[ERROR] archive entries for round %s: %v", round.ID, err)
	}
	e.stats.Record(round.CrashPoint, round.Bets)
	return nil
}
