package store

import (
	"time"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// NoopArchive is used when no database is configured.
type NoopArchive struct{}

func NewNoopArchive() *NoopArchive { return &NoopArchive{} }

func (n *NoopArchive) SaveRound(_ *model.Round) error            { return nil }
func (n *NoopArchive) SaveEntries(_ []model.LedgerEntry) error   { return nil }
func (n *NoopArchive) RecentRounds(_ int) ([]RoundRecord, error) { return nil, nil }
func (n *NoopArchive) PruneBefore(_ time.Time) (int64, error)    { return 0, nil }
func (n *NoopArchive) Close() error                              { return nil }
