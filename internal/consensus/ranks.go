package consensus

import "github.com/pdiddy/consensus-engine/pkg/types"

// ranksScorer derives consensus scores purely from each hit's position
// within its own run's list, so runs with incompatible score types can
// still be reconciled. Each run contributes (L+1-rank)/L per sequence,
// where L bounds the considered list length; the sum is divided by the
// total number of runs in the invocation. Scores land in (0, 1], and 1
// means rank 1 in every run.
type ranksScorer struct {
	cfg types.ScoringConfig
}

func (s *ranksScorer) Name() string { return string(types.AlgorithmRanks) }

func (s *ranksScorer) Apply(g *types.Group) error {
	contribs := pool(g, s.cfg.ConsideredHits)
	if len(contribs) == 0 {
		g.Consensus = nil
		return nil
	}

	// L is the rank normalization bound: considered_hits when truncating,
	// otherwise the longest contributing list.
	l := s.cfg.ConsideredHits
	if l == 0 {
		for _, c := range contribs {
			if len(c.hits) > l {
				l = len(c.hits)
			}
		}
	}

	// Groups missing some runs still normalize against the whole
	// invocation's run count.
	runs := s.cfg.NumberOfRuns
	if runs < len(contribs) {
		runs = len(contribs)
	}

	sums := make(map[string]float64)
	var order []string
	for _, c := range contribs {
		seen := make(map[string]bool)
		for pos, h := range c.hits {
			if seen[h.Sequence] {
				continue
			}
			seen[h.Sequence] = true
			if _, ok := sums[h.Sequence]; !ok {
				order = append(order, h.Sequence)
			}
			sums[h.Sequence] += float64(l-pos) / float64(l)
		}
	}

	hits := make([]types.Hit, 0, len(order))
	for _, seq := range order {
		hits = append(hits, types.Hit{Sequence: seq, Score: sums[seq] / float64(runs)})
	}
	g.Consensus = rankSorted(hits, true)
	g.ConsensusScoreType = "Consensus_ranks"
	g.ConsensusHigherBetter = true
	return nil
}
