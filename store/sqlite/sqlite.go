/*
Package sqlite provides a SQLite-backed claim version store.

PURPOSE:
  Implements claim.VersionStore over SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

SCHEMA:
  claim_versions:
    claim_id + version  composite primary key
    status              duplicated out of the payload for the guard query
    payload             full JSON-serialized claim.Record
    created_at / submitted_at

APPEND-ONLY ENFORCEMENT:
  A version row may be rewritten freely while its STORED status is
  pre-submission (a draft being edited in place). Past the submission line
  the only permitted rewrites are the decision path (submitted ->
  approved/rejected -> paid, per claim.CanReplace); claim data corrections
  arrive as new version rows. There is no DELETE path at all.

ATOMICITY:
  Each Put is a single INSERT OR REPLACE inside a transaction with the
  guard check, so a version is either fully written or not at all.

WAL MODE:
  Opened with WAL for better concurrency: readers don't block, single
  writer, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/pcs.db")
  if err != nil { log.Fatal(err) }
  defer store.Close()

SEE ALSO:
  - claim/history.go: Interface definition and in-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/pcs-engine/claim"
)

// Store implements claim.VersionStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ claim.VersionStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Claim versions (append-only once submitted)
	CREATE TABLE IF NOT EXISTS claim_versions (
		claim_id     TEXT NOT NULL,
		version      INTEGER NOT NULL,
		status       TEXT NOT NULL,
		payload      TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		submitted_at TEXT,
		PRIMARY KEY (claim_id, version)
	);

	CREATE INDEX IF NOT EXISTS idx_claim_versions_status
		ON claim_versions(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// VERSION STORE IMPLEMENTATION
// =============================================================================

func (s *Store) Put(ctx context.Context, rec *claim.Record) error {
	if rec.ID == "" || rec.Version < 1 {
		return fmt.Errorf("invalid record identity: id=%q version=%d", rec.ID, rec.Version)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize claim %s v%d: %w", rec.ID, rec.Version, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Guard: post-submission rewrites are limited to the decision path.
	var storedStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM claim_versions WHERE claim_id = ? AND version = ?`,
		rec.ID, rec.Version,
	).Scan(&storedStatus)
	switch {
	case err == nil:
		if !claim.CanReplace(claim.Status(storedStatus), rec.Status) {
			return fmt.Errorf("claim %s v%d: %w", rec.ID, rec.Version, claim.ErrVersionImmutable)
		}
	case errors.Is(err, sql.ErrNoRows):
		// New version row.
	default:
		return err
	}

	var submittedAt any
	if rec.SubmittedAt != nil {
		submittedAt = rec.SubmittedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO claim_versions
			(claim_id, version, status, payload, created_at, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Version, string(rec.Status), string(payload),
		rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), submittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write claim %s v%d: %w", rec.ID, rec.Version, err)
	}

	return tx.Commit()
}

func (s *Store) Get(ctx context.Context, id string, version int) (*claim.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM claim_versions WHERE claim_id = ? AND version = ?`,
		id, version,
	)
	return scanRecord(row, id, version)
}

func (s *Store) Latest(ctx context.Context, id string) (*claim.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT payload FROM claim_versions
		WHERE claim_id = ?
		ORDER BY version DESC
		LIMIT 1`,
		id,
	)
	return scanRecord(row, id, 0)
}

func (s *Store) Versions(ctx context.Context, id string) ([]*claim.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM claim_versions
		WHERE claim_id = ?
		ORDER BY version ASC`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*claim.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("claim %s: %w", id, claim.ErrClaimNotFound)
	}
	return out, nil
}

func scanRecord(row *sql.Row, id string, version int) (*claim.Record, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if version > 0 {
				return nil, fmt.Errorf("claim %s v%d: %w", id, version, claim.ErrClaimNotFound)
			}
			return nil, fmt.Errorf("claim %s: %w", id, claim.ErrClaimNotFound)
		}
		return nil, err
	}
	return decodeRecord(payload)
}

func decodeRecord(payload string) (*claim.Record, error) {
	var rec claim.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode stored claim: %w", err)
	}
	return &rec, nil
}
