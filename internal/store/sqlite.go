package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// SQLiteArchive persists rounds to a SQLite database.
type SQLiteArchive struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteArchive opens (or creates) the database and runs migrations.
func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so history reads don't block settlement writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	a := &SQLiteArchive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite archive opened: %s", dbPath)
	return a, nil
}

func (a *SQLiteArchive) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id               TEXT PRIMARY KEY,
			commitment       TEXT NOT NULL,
			server_seed      TEXT NOT NULL,
			client_seed      TEXT NOT NULL,
			nonce            INTEGER NOT NULL,
			crash_point      REAL NOT NULL,
			start_time       INTEGER NOT NULL,
			end_time         INTEGER NOT NULL,
			bet_count        INTEGER NOT NULL,
			total_wager_usd  TEXT NOT NULL,
			total_payout_usd TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_start ON rounds(start_time)`,

		`CREATE TABLE IF NOT EXISTS bets (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			round_id           TEXT NOT NULL,
			player_id          TEXT NOT NULL,
			currency           TEXT NOT NULL,
			wager_crypto       TEXT NOT NULL,
			wager_usd          TEXT NOT NULL,
			cashout_multiplier REAL,
			outcome            TEXT NOT NULL,
			placed_at          INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_round ON bets(round_id)`,

		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id            TEXT PRIMARY KEY,
			account_id    TEXT NOT NULL,
			round_id      TEXT,
			currency      TEXT NOT NULL,
			delta         TEXT NOT NULL,
			kind          TEXT NOT NULL,
			price_at_time TEXT NOT NULL,
			ts            INTEGER NOT NULL
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

func (a *SQLiteArchive) SaveRound(round *model.Round) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	wager, payout := roundTotals(round)
	_, err := a.db.Exec(`INSERT OR REPLACE INTO rounds
		(id, commitment, server_seed, client_seed, nonce, crash_point,
		 start_time, end_time, bet_count, total_wager_usd, total_payout_usd)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
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
			VALUES (?,?,?,?,?,?,?,?)`,
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

func (a *SQLiteArchive) SaveEntries(entries []model.LedgerEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range entries {
		_, err := a.db.Exec(`INSERT OR IGNORE INTO ledger_entries
			(id, account_id, round_id, currency, delta, kind, price_at_time, ts)
			VALUES (?,?,?,?,?,?,?,?)`,
			e.ID, e.AccountID, e.RoundID, e.Currency.String(),
			e.Delta.String(), string(e.Kind), e.PriceAtTime.String(), e.Timestamp.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	return nil
}

func (a *SQLiteArchive) RecentRounds(limit int) ([]RoundRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.Query(`SELECT id, commitment, server_seed, client_seed, nonce,
		crash_point, start_time, end_time, bet_count, total_wager_usd, total_payout_usd
		FROM rounds ORDER BY start_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()
	return scanRoundRecords(rows)
}

func (a *SQLiteArchive) PruneBefore(cutoff time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	res, err := a.db.Exec(`DELETE FROM rounds WHERE start_time < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune rounds: %w", err)
	}
	if _, err := a.db.Exec(`DELETE FROM bets WHERE placed_at < ?`, cutoff.Unix()); err != nil {
		return 0, fmt.Errorf("prune bets: %w", err)
	}
	return res.RowsAffected()
}

func (a *SQLiteArchive) Close() error {
	log.Println("[INFO] closing sqlite archive")
	return a.db.Close()
}

func scanRoundRecords(rows *sql.Rows) ([]RoundRecord, error) {
	var out []RoundRecord
	for rows.Next() {
		var (
			r                   RoundRecord
			startUnix, endUnix  int64
			wagerStr, payoutStr string
		)
		if err := rows.Scan(&r.RoundID, &r.Commitment, &r.ServerSeed, &r.ClientSeed,
			&r.Nonce, &r.CrashPoint, &startUnix, &endUnix, &r.BetCount,
			&wagerStr, &payoutStr); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.StartTime = time.Unix(startUnix, 0)
		r.EndTime = time.Unix(endUnix, 0)
		var err error
		if r.TotalWagerUSD, err = decimal.NewFromString(wagerStr); err != nil {
			return nil, fmt.Errorf("parse wager %q: %w", wagerStr, err)
		}
		if r.TotalPayoutUSD, err = decimal.NewFromString(payoutStr); err != nil {
			return nil, fmt.Errorf("parse payout %q: %w", payoutStr, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
