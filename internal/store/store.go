package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store wraps the relational database. All access is parameterized SQL;
// upserts use database-native ON CONFLICT so concurrent writers never
// race through an application-level read-then-write.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// WAL improves concurrent read behavior under the per-request
	// goroutine model.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		token_hash TEXT NOT NULL UNIQUE,
		display_name TEXT,
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','active','suspended','banned')),
		claim_token_hash TEXT NOT NULL,
		claimed_url TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		claimed_at INTEGER,
		last_poll_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS humans (
		id TEXT PRIMARY KEY,
		token_hash TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT,
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','active','suspended','banned','legacy')),
		claim_token_hash TEXT NOT NULL,
		claimed_url TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		claimed_at INTEGER,
		last_seen_notifications_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		requester_type TEXT NOT NULL CHECK(requester_type IN ('human','agent')),
		requester_id TEXT,
		text TEXT NOT NULL,
		budget_min TEXT,
		budget_max TEXT,
		status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open','muted','resolved','deleted')),
		delete_token_hash TEXT,
		hidden INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL REFERENCES agents(id),
		external_id TEXT NOT NULL,
		title TEXT NOT NULL,
		price TEXT NOT NULL,
		hidden INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(agent_id, external_id)
	);

	CREATE TABLE IF NOT EXISTS pitches (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL REFERENCES requests(id),
		agent_id TEXT NOT NULL REFERENCES agents(id),
		product_id TEXT REFERENCES products(id),
		text TEXT NOT NULL,
		hidden INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pitch_seen (
		pitch_id TEXT NOT NULL REFERENCES pitches(id),
		human_id TEXT NOT NULL REFERENCES humans(id),
		seen_at INTEGER NOT NULL,
		PRIMARY KEY (pitch_id, human_id)
	);

	CREATE TABLE IF NOT EXISTS blocks (
		blocker_type TEXT NOT NULL CHECK(blocker_type IN ('human','agent')),
		blocker_id TEXT NOT NULL,
		blocked_type TEXT NOT NULL CHECK(blocked_type IN ('human','agent')),
		blocked_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (blocker_type, blocker_id, blocked_type, blocked_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id),
		sender_type TEXT NOT NULL CHECK(sender_type IN ('human','agent')),
		sender_id TEXT NOT NULL,
		body TEXT NOT NULL,
		hidden INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS moderation_log (
		id TEXT PRIMARY KEY,
		actor TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		action TEXT NOT NULL,
		reason TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_requests_requester ON requests(requester_type, requester_id);
	CREATE INDEX IF NOT EXISTS idx_pitches_request ON pitches(request_id);
	CREATE INDEX IF NOT EXISTS idx_pitches_agent ON pitches(agent_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_products_agent ON products(agent_id);
	CREATE INDEX IF NOT EXISTS idx_messages_product ON messages(product_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_moderation_created ON moderation_log(created_at DESC);
	`
	_, err := db.Exec(schema)
	return err
}

// isUniqueViolation recognizes sqlite unique-constraint failures so they
// can surface as ErrConflict instead of a generic error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullStr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func intPtr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func nullDec(p *decimal.Decimal) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.String(), Valid: true}
}

func decPtr(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", ns.String, err)
	}
	return &d, nil
}
