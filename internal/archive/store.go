// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists consensus invocations to a local SQLite
// database so past results can be queried and exported without
// re-running the pipeline.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

const dbFile = "consensus.db"

// Store manages the invocation archive SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive database at dir/consensus.db,
// creating the schema if it does not exist.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS invocations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input TEXT NOT NULL,
			algorithm TEXT NOT NULL,
			engine_version TEXT,
			computed_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hits (
			invocation_id INTEGER NOT NULL REFERENCES invocations(id),
			group_idx INTEGER NOT NULL,
			rt REAL,
			mz REAL,
			sequence TEXT NOT NULL,
			score REAL NOT NULL,
			rank INTEGER,
			score_type TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hits_invocation ON hits(invocation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_hits_sequence ON hits(sequence)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores one invocation and all of its consensus hits in a single
// transaction. It returns the new invocation's row id.
func (s *Store) Record(ctx context.Context, input string, algorithm types.Algorithm, meta types.RunMetadata, groups []types.Group) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO invocations (input, algorithm, engine_version, computed_at)
		 VALUES (?, ?, ?, ?)`,
		input, string(algorithm), meta.Version, meta.Date.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting invocation: %w", err)
	}
	invocationID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading invocation id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hits (invocation_id, group_idx, rt, mz, sequence, score, rank, score_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for gi, g := range groups {
		for _, h := range g.Consensus {
			_, err := stmt.ExecContext(ctx,
				invocationID, gi, g.RT, g.MZ,
				h.Sequence, h.Score, h.Rank, g.ConsensusScoreType,
			)
			if err != nil {
				return 0, fmt.Errorf("inserting hit %s: %w", h.Sequence, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return invocationID, nil
}
