package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// PostgresArchive persists rounds to PostgreSQL. Same schema shape as the
// SQLite archive; Postgres serializes writes itself so no process-level lock
// is needed.
type PostgresArchive struct {
	db *sql.DB
}

// NewPostgresArchive connects using a lib/pq DSN and runs migrations.
func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	a := &PostgresArchive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Println("[INFO] postgres archive connected")
	return a, nil
}

func (a *PostgresArchive) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id               TEXT PRIMARY KEY,
			commitment       TEXT NOT NULL,
			server_seed      TEXT NOT NULL,
			client_seed      TEXT NOT NULL,
			nonce            BIGINT NOT NULL,
			crash_point      DOUBLE PRECISION NOT NULL,
			start_time       BIGINT NOT NULL,
			end_time         BIGINT NOT NULL,
			bet_count        INTEGER NOT NULL,
			total_wager_usd  NUMERIC(20,2) NOT NULL,
			total_payout_usd NUMERIC(20,2) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_start ON rounds(start_time)`,

		`CREATE TABLE IF NOT EXISTS bets (
			id                 BIGSERIAL PRIMARY KEY,
			round_id           TEXT NOT NULL,
			player_id          TEXT NOT NULL,
			currency           TEXT NOT NULL,
			wager_crypto       NUMERIC(30,8) NOT NULL,
			wager_usd          NUMERIC(20,2) NOT NULL,
			cashout_multiplier DOUBLE PRECISION,
			outcome            TEXT NOT NULL,
			placed_at          BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_round ON bets(round_id)`,

		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id            TEXT PRIMARY KEY,
			account_id    TEXT NOT NULL,
			round_id      TEXT,
			currency      TEXT NOT NULL,
			delta         NUMERIC(30,8) NOT NULL,
			kind          TEXT NOT NULL,
			price_at_time NUMERIC(20,2) NOT NULL,
			ts            BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_account ON ledger_entries(account_id)`,
	}

	for _, s := range stmts {
		if _, err := a.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (a *PostgresArchive) SaveRound(round *model.Round) error {
	wager, payout := roundTotals(round)
	_, err := a.db.Exec(`INSERT INTO rounds
		(id, commitment, server_seed, client_seed, nonce, crash_point,
		 start_time, end_time, bet_count, total_wager_usd, total_payout_usd)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO NOTHING`,
		round.ID, round.Commitment, round.ServerSeed, round.ClientSeed,
		round.Nonce, round.CrashPoint,
		round.StartTime.Unix(), round.EndTime.Unix(),
		len(round.Bets), wager.StringFixed(2), payout.StringFixed(2),
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	for _, b := range round.Bets {
		_, err := a.db.Exec(`INSERT INTO bets
			(round_id, player_id, currency, wager_crypto, wager_usd, cashout_multiplier, outcome, placed_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			round.ID, b.PlayerID, b.Currency.String(),
			b.WagerCrypto.String(), b.WagerUSD.StringFixed(2),
			b.CashoutMultiplier, string(b.Outcome), b.PlacedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert bet for %s: %w", b.PlayerID, err)
		}
	}
	return nil
}

func (a *PostgresArchive) SaveEntries(entries []model.LedgerEntry) error {
	for _, e := range entries {
		_, err := a.db.Exec(`INSERT INTO ledger_entries
			(id, account_id, round_id, currency, delta, kind, price_at_time, ts)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO NOTHING`,
			e.ID, e.AccountID, e.RoundID, e.Currency.String(),
			e.Delta.String(), string(e.Kind), e.PriceAtTime.String(), e.Timestamp.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	return nil
}

func (a *PostgresArchive) RecentRounds(limit int) ([]RoundRecord, error) {
	rows, err := a.db.Query(`SELECT id, commitment, server_seed, client_seed, nonce,
		crash_point, start_time, end_time, bet_count, total_wager_usd, total_payout_usd
		FROM rounds ORDER BY start_time DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()
	return scanRoundRecords(rows)
}

func (a *PostgresArchive) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := a.db.Exec(`DELETE FROM rounds WHERE start_time < $1`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune rounds: %w", err)
	}
	if _, err := a.db.Exec(`DELETE FROM bets WHERE placed_at < $1`, cutoff.Unix()); err != nil {
		return 0, fmt.Errorf("prune bets: %w", err)
	}
	return res.RowsAffected()
}

func (a *PostgresArchive) Close() error {
	log.Println("[INFO] closing postgres archive")
	return a.db.Close()
}
