package consensus

import "github.com/pdiddy/consensus-engine/pkg/types"

// averageScorer assigns each candidate sequence the mean of its scores
// across the runs that actually reported it. Runs missing a sequence are
// excluded from that sequence's mean, never zero-filled: zero-filling
// would mix "not observed" into the score scale and punish sequences for
// absent evidence rather than bad evidence. Each contributing event
// counts at most its best-scored occurrence of a sequence.
type averageScorer struct {
	cfg types.ScoringConfig
}

func (s *averageScorer) Name() string { return string(types.AlgorithmAverage) }

func (s *averageScorer) Apply(g *types.Group) error {
	contribs := pool(g, s.cfg.ConsideredHits)
	if len(contribs) == 0 {
		g.Consensus = nil
		return nil
	}
	higher := contribs[0].higher

	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string
	for _, c := range contribs {
		best := make(map[string]float64)
		var eventOrder []string
		for _, h := range c.hits {
			cur, ok := best[h.Sequence]
			if !ok {
				best[h.Sequence] = h.Score
				eventOrder = append(eventOrder, h.Sequence)
				continue
			}
			if (higher && h.Score > cur) || (!higher && h.Score < cur) {
				best[h.Sequence] = h.Score
			}
		}
		for _, seq := range eventOrder {
			if counts[seq] == 0 {
				order = append(order, seq)
			}
			sums[seq] += best[seq]
			counts[seq]++
		}
	}

	hits := make([]types.Hit, 0, len(order))
	for _, seq := range order {
		hits = append(hits, types.Hit{Sequence: seq, Score: sums[seq] / float64(counts[seq])})
	}
	g.Consensus = rankSorted(hits, higher)
	g.ConsensusScoreType = contribs[0].scoreType
	g.ConsensusHigherBetter = higher
	return nil
}
