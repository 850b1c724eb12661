// Package maintenance runs the background housekeeping jobs around the game
// loop: price cache warming, archive pruning and the daily operator summary.
package maintenance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/alert"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/engine"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/price"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/stats"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/store"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Engine    *engine.Engine
	Oracle    *price.CachedOracle
	Archive   store.RoundArchive
	Stats     *stats.Tracker
	Alerter   *alert.TelegramAlerter
	Retention time.Duration
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, eng *engine.Engine, oracle *price.CachedOracle, archive store.RoundArchive, tracker *stats.Tracker, alerter *alert.TelegramAlerter, retentionDays int) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Engine:    eng,
		Oracle:    oracle,
		Archive:   archive,
		Stats:     tracker,
		Alerter:   alerter,
		Retention: time.Duration(retentionDays) * 24 * time.Hour,
		Ctx:       ctx,
	}
}

// RegisterAll registers the summary, prune and cache warm tasks.
func (s *Scheduler) RegisterAll(dailySummaryCron, pruneCron string) error {
	if _, err := s.Cron.AddFunc(dailySummaryCron, s.dailySummary); err != nil {
		return fmt.Errorf("register daily summary: %w", err)
	}
	if _, err := s.Cron.AddFunc(pruneCron, s.pruneArchive); err != nil {
		return fmt.Errorf("register archive prune: %w", err)
	}
	// Keep the quote cache warm so bets never wait on a cold fetch.
	if s.Oracle != nil {
		if _, err := s.Cron.AddFunc("*/8 * * * * *", s.warmCache); err != nil {
			return fmt.Errorf("register cache warm: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] maintenance scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] maintenance scheduler stopped")
}

func (s *Scheduler) dailySummary() {
	log.Println("[INFO] running daily summary")
	sum := s.Stats.Summary()
	report := alert.FormatDailySummary(sum, s.Stats.RecentCrashes(10))
	s.trySend(report)
}

func (s *Scheduler) pruneArchive() {
	cutoff := time.Now().Add(-s.Retention)
	n, err := s.Archive.PruneBefore(cutoff)
	if err != nil {
		log.Printf("[ERROR] prune archive: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[INFO] pruned %d archived rounds older than %s", n, cutoff.Format("2006-01-02"))
	}
}

func (s *Scheduler) warmCache() {
	ctx, cancel := context.WithTimeout(s.Ctx, 5*time.Second)
	defer cancel()
	s.Oracle.Warm(ctx)
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/stats":
		return alert.FormatDailySummary(s.Stats.Summary(), s.Stats.RecentCrashes(10))
	case "/round":
		st := s.Engine.Status()
		return alert.FormatRoundStatus(st.Phase.String(), st.RoundID, st.Commitment, st.Multiplier, st.BetCount)
	default:
		return "Available commands:\n• /stats\n• /round"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Alerter == nil {
		return
	}
	if err := s.Alerter.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send operator report: %v", err)
	}
}
