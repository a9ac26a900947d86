// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const defaultMaxResults = 100

// QueryOptions holds filters for archive queries.
type QueryOptions struct {
	// Sequence filters hits by exact peptide sequence.
	Sequence string

	// Input filters by the input path recorded with the invocation.
	Input string

	// Algorithm filters by consensus algorithm name.
	Algorithm string

	// Since keeps only invocations computed at or after this time.
	Since time.Time

	// MaxResults limits result count. Zero uses the default.
	MaxResults int
}

// IsEmpty reports whether the query has no filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Sequence == "" && q.Input == "" && q.Algorithm == "" && q.Since.IsZero()
}

// QueryResult is one archived consensus hit joined with its invocation.
type QueryResult struct {
	InvocationID  int64     `json:"invocation_id" yaml:"invocation_id"`
	Input         string    `json:"input" yaml:"input"`
	Algorithm     string    `json:"algorithm" yaml:"algorithm"`
	EngineVersion string    `json:"engine_version" yaml:"engine_version"`
	ComputedAt    time.Time `json:"computed_at" yaml:"computed_at"`
	GroupIndex    int       `json:"group_index" yaml:"group_index"`
	RT            float64   `json:"rt" yaml:"rt"`
	MZ            float64   `json:"mz" yaml:"mz"`
	Sequence      string    `json:"sequence" yaml:"sequence"`
	Score         float64   `json:"score" yaml:"score"`
	Rank          int       `json:"rank" yaml:"rank"`
	ScoreType     string    `json:"score_type" yaml:"score_type"`
}

// Query returns archived hits matching the filters, newest invocation
// first, then by group and rank within an invocation.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT i.id, i.input, i.algorithm, i.engine_version, i.computed_at,
			h.group_idx, h.rt, h.mz, h.sequence, h.score, h.rank, h.score_type
		FROM hits h
		JOIN invocations i ON i.id = h.invocation_id
		WHERE 1=1`)

	if opts.Sequence != "" {
		qb.WriteString(` AND h.sequence = ?`)
		args = append(args, opts.Sequence)
	}
	if opts.Input != "" {
		qb.WriteString(` AND i.input = ?`)
		args = append(args, opts.Input)
	}
	if opts.Algorithm != "" {
		qb.WriteString(` AND i.algorithm = ?`)
		args = append(args, opts.Algorithm)
	}
	if !opts.Since.IsZero() {
		qb.WriteString(` AND i.computed_at >= ?`)
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}

	qb.WriteString(` ORDER BY i.id DESC, h.group_idx, h.rank LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr       QueryResult
			computed string
		)
		if err := rows.Scan(
			&qr.InvocationID, &qr.Input, &qr.Algorithm, &qr.EngineVersion, &computed,
			&qr.GroupIndex, &qr.RT, &qr.MZ, &qr.Sequence, &qr.Score, &qr.Rank, &qr.ScoreType,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, computed); err == nil {
			qr.ComputedAt = t
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}
