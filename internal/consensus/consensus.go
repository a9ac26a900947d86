// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package consensus reduces a group's pooled multi-run hits to a single
// ranked consensus hit list. Five mutually exclusive strategies implement
// the Scorer interface; New selects one from the configuration.
package consensus

import (
	"fmt"
	"sort"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

// Scorer reduces one group's pooled hits to a consensus-ranked list. The
// result replaces the group's consensus hit list in place; RT/MZ are
// never altered. A group whose scorer yields no hits gets an empty list,
// which is legitimate, not an error.
type Scorer interface {
	Name() string
	Apply(g *types.Group) error
}

// New constructs the scorer selected by cfg.Algorithm.
func New(cfg types.ScoringConfig) (Scorer, error) {
	if cfg.ConsideredHits < 0 {
		return nil, fmt.Errorf("%w: considered_hits must be non-negative, got %d",
			types.ErrInvalidConfiguration, cfg.ConsideredHits)
	}
	switch cfg.Algorithm {
	case types.AlgorithmBest:
		return &bestScorer{cfg: cfg}, nil
	case types.AlgorithmAverage:
		return &averageScorer{cfg: cfg}, nil
	case types.AlgorithmRanks:
		return &ranksScorer{cfg: cfg}, nil
	case types.AlgorithmPEPMatrix:
		sim, err := newMatrixSimilarity(cfg.PEPMatrix)
		if err != nil {
			return nil, err
		}
		return &pepScorer{name: string(types.AlgorithmPEPMatrix), cfg: cfg, sim: sim}, nil
	case types.AlgorithmPEPIons:
		return &pepScorer{name: string(types.AlgorithmPEPIons), cfg: cfg, sim: newIonSimilarity(cfg.PEPIons)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", types.ErrInvalidConfiguration, cfg.Algorithm)
	}
}

// contribution is one event's truncated hit list tagged with its
// originating run and score semantics.
type contribution struct {
	runID     string
	scoreType string
	higher    bool
	hits      []types.Hit
}

// pool truncates each member's hits to the top n (0 = all) and tags them
// with the contributing event. Members without hits contribute nothing.
func pool(g *types.Group, n int) []contribution {
	var out []contribution
	for _, m := range g.Members {
		hits := m.Hits
		if n > 0 && len(hits) > n {
			hits = hits[:n]
		}
		if len(hits) == 0 {
			continue
		}
		out = append(out, contribution{
			runID:     m.RunID,
			scoreType: m.ScoreType,
			higher:    m.HigherScoreBetter,
			hits:      hits,
		})
	}
	return out
}

// rankSorted orders hits best-first for the given score orientation and
// reassigns ranks 1..n. The sort is stable, so hits with equal scores
// keep their first-seen order and results stay deterministic.
func rankSorted(hits []types.Hit, higherBetter bool) []types.Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		if higherBetter {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Score < hits[j].Score
	})
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits
}
