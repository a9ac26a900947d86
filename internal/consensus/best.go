package consensus

import "github.com/pdiddy/consensus-engine/pkg/types"

// bestScorer keeps, for each candidate sequence, the best score any run
// reported for it. Requires all contributing events to carry the same,
// comparable score type; the output stays on the input score scale.
type bestScorer struct {
	cfg types.ScoringConfig
}

func (s *bestScorer) Name() string { return string(types.AlgorithmBest) }

func (s *bestScorer) Apply(g *types.Group) error {
	contribs := pool(g, s.cfg.ConsideredHits)
	if len(contribs) == 0 {
		g.Consensus = nil
		return nil
	}
	higher := contribs[0].higher

	best := make(map[string]float64)
	var order []string
	for _, c := range contribs {
		for _, h := range c.hits {
			cur, ok := best[h.Sequence]
			if !ok {
				best[h.Sequence] = h.Score
				order = append(order, h.Sequence)
				continue
			}
			if (higher && h.Score > cur) || (!higher && h.Score < cur) {
				best[h.Sequence] = h.Score
			}
		}
	}

	hits := make([]types.Hit, 0, len(order))
	for _, seq := range order {
		hits = append(hits, types.Hit{Sequence: seq, Score: best[seq]})
	}
	g.Consensus = rankSorted(hits, higher)
	g.ConsensusScoreType = contribs[0].scoreType
	g.ConsensusHigherBetter = higher
	return nil
}
