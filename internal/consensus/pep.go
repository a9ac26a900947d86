package consensus

import (
	"math"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

// pepScorer is the probabilistic combination shared by PEPMatrix and
// PEPIons; the two differ only in the Similarity collaborator. All input
// scores must already be posterior error probabilities (enforced
// upstream, before grouping begins).
//
// For each candidate sequence, every contributing event weighs in through
// its most supportive pooled hit: a hit with similarity sigma and error
// probability p contributes the factor sigma*p + (1-sigma), so a
// dissimilar list counts as carrying no information rather than as
// disagreement. Factors multiply across events; lower combined
// probability is better. Agreement between similar but non-identical
// sequences is rewarded because sigma stays high for them.
type pepScorer struct {
	name string
	cfg  types.ScoringConfig
	sim  Similarity
}

func (s *pepScorer) Name() string { return s.name }

func (s *pepScorer) Apply(g *types.Group) error {
	contribs := pool(g, s.cfg.ConsideredHits)
	if len(contribs) == 0 {
		g.Consensus = nil
		return nil
	}

	seen := make(map[string]bool)
	var order []string
	for _, c := range contribs {
		for _, h := range c.hits {
			if !seen[h.Sequence] {
				seen[h.Sequence] = true
				order = append(order, h.Sequence)
			}
		}
	}

	hits := make([]types.Hit, 0, len(order))
	for _, seq := range order {
		p := 1.0
		for _, c := range contribs {
			factor := math.Inf(1)
			for _, h := range c.hits {
				sigma := 1.0
				if h.Sequence != seq {
					sigma = s.sim.Score(seq, h.Sequence)
				}
				if f := sigma*h.Score + (1 - sigma); f < factor {
					factor = f
				}
			}
			p *= factor
		}
		hits = append(hits, types.Hit{Sequence: seq, Score: p})
	}
	g.Consensus = rankSorted(hits, false)
	g.ConsensusScoreType = "Posterior Error Probability"
	g.ConsensusHigherBetter = false
	return nil
}
