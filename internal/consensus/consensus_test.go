package consensus

import (
	"errors"
	"math"
	"testing"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

func event(run, scoreType string, higher bool, hits ...types.Hit) types.Identification {
	return types.Identification{
		RunID:             run,
		RT:                100.0,
		MZ:                500.0,
		HasRT:             true,
		HasMZ:             true,
		ScoreType:         scoreType,
		HigherScoreBetter: higher,
		Hits:              hits,
	}
}

func hit(seq string, score float64) types.Hit {
	return types.Hit{Sequence: seq, Score: score}
}

func scoringCfg(alg types.Algorithm, considered, runs int) types.ScoringConfig {
	cfg := types.DefaultPipelineConfig().Scoring
	cfg.Algorithm = alg
	cfg.ConsideredHits = considered
	cfg.NumberOfRuns = runs
	return cfg
}

// --- factory ---

func TestNewUnknownAlgorithm(t *testing.T) {
	_, err := New(scoringCfg("bogus", 10, 0))
	if !errors.Is(err, types.ErrInvalidConfiguration) {
		t.Errorf("New = %v, want ErrInvalidConfiguration", err)
	}
}

func TestNewNegativeConsideredHits(t *testing.T) {
	_, err := New(scoringCfg(types.AlgorithmBest, -1, 0))
	if !errors.Is(err, types.ErrInvalidConfiguration) {
		t.Errorf("New = %v, want ErrInvalidConfiguration", err)
	}
}

func TestNewAllAlgorithms(t *testing.T) {
	for _, alg := range []types.Algorithm{
		types.AlgorithmBest, types.AlgorithmAverage, types.AlgorithmRanks,
		types.AlgorithmPEPMatrix, types.AlgorithmPEPIons,
	} {
		t.Run(string(alg), func(t *testing.T) {
			s, err := New(scoringCfg(alg, 10, 3))
			if err != nil {
				t.Fatalf("New(%s): %v", alg, err)
			}
			if s.Name() != string(alg) {
				t.Errorf("Name() = %q, want %q", s.Name(), alg)
			}
		})
	}
}

// --- pooling ---

func TestPoolTruncates(t *testing.T) {
	g := &types.Group{Members: []types.Identification{
		event("run_1", "score", true, hit("A", 3), hit("B", 2), hit("C", 1)),
		event("run_2", "score", true),
	}}

	contribs := pool(g, 2)
	if len(contribs) != 1 {
		t.Fatalf("len(contribs) = %d, want 1 (hitless events contribute nothing)", len(contribs))
	}
	if len(contribs[0].hits) != 2 {
		t.Errorf("len(hits) = %d, want 2", len(contribs[0].hits))
	}

	all := pool(g, 0)
	if len(all[0].hits) != 3 {
		t.Errorf("considered_hits=0 should keep all hits, got %d", len(all[0].hits))
	}
}

// --- best ---

func TestBestScorerPicksMaxScore(t *testing.T) {
	// Three runs report one event each; under "best" with one considered
	// hit, the consensus top hit is PEPTIDEB with the raw 0.95.
	g := &types.Group{Members: []types.Identification{
		event("run_1", "XTandem", true, hit("PEPTIDEA", 0.9)),
		event("run_2", "XTandem", true, hit("PEPTIDEA", 0.8)),
		event("run_3", "XTandem", true, hit("PEPTIDEB", 0.95)),
	}}

	s, err := New(scoringCfg(types.AlgorithmBest, 1, 3))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Apply(g); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(g.Consensus) != 2 {
		t.Fatalf("len(Consensus) = %d, want 2", len(g.Consensus))
	}
	top := g.Consensus[0]
	if top.Sequence != "PEPTIDEB" || top.Score != 0.95 {
		t.Errorf("top hit = %s/%g, want PEPTIDEB/0.95", top.Sequence, top.Score)
	}
	if g.Consensus[1].Sequence != "PEPTIDEA" || g.Consensus[1].Score != 0.9 {
		t.Errorf("second hit = %s/%g, want PEPTIDEA/0.9 (max of 0.9, 0.8)", g.Consensus[1].Sequence, g.Consensus[1].Score)
	}
}

func TestBestScorerLowerIsBetter(t *testing.T) {
	g := &types.Group{Members: []types.Identification{
		event("run_1", "Posterior Error Probability", false, hit("PEPTIDEA", 0.2)),
		event("run_2", "Posterior Error Probability", false, hit("PEPTIDEA", 0.05)),
	}}

	s, _ := New(scoringCfg(types.AlgorithmBest, 10, 2))
	if err := s.Apply(g); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if g.Consensus[0].Score != 0.05 {
		t.Errorf("best of a lower-is-better score = %g, want 0.05", g.Consensus[0].Score)
	}
	if g.ConsensusHigherBetter {
		t.Error("score orientation should carry through")
	}
}

// --- average ---

func TestAverageScorerContributingRunsOnly(t *testing.T) {
	// PEPTIDEA is reported by 2 of 3 runs: its mean is (0.9+0.8)/2, not
	// a zero-filled (0.9+0.8+0)/3. PEPTIDEB averages 0.95 over its
	// single contributing run.
	g := &types.Group{Members: []types.Identification{
		event("run_1", "XTandem", true, hit("PEPTIDEA", 0.9)),
		event("run_2", "XTandem", true, hit("PEPTIDEA", 0.8)),
		event("run_3", "XTandem", true, hit("PEPTIDEB", 0.95)),
	}}

	s, _ := New(scoringCfg(types.AlgorithmAverage, 1, 3))
	if err := s.Apply(g); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	scores := make(map[string]float64)
	for _, h := range g.Consensus {
		scores[h.Sequence] = h.Score
	}
	if math.Abs(scores["PEPTIDEA"]-0.85) > 1e-9 {
		t.Errorf("PEPTIDEA mean = %g, want 0.85", scores["PEPTIDEA"])
	}
	if math.Abs(scores["PEPTIDEB"]-0.95) > 1e-9 {
		t.Errorf("PEPTIDEB mean = %g, want 0.95", scores["PEPTIDEB"])
	}
	if g.Consensus[0].Sequence != "PEPTIDEB" {
		t.Errorf("top hit = %s, want PEPTIDEB", g.Consensus[0].Sequence)
	}
}

func TestAverageScorerBestOccurrencePerEvent(t *testing.T) {
	// The same sequence twice within one event contributes only its best
	// occurrence to the mean.
	g := &types.Group{Members: []types.Identification{
		event("run_1", "XTandem", true, hit("PEPTIDEA", 0.9), hit("PEPTIDEA", 0.1)),
		event("run_2", "XTandem", true, hit("PEPTIDEA", 0.7)),
	}}

	s, _ := New(scoringCfg(types.AlgorithmAverage, 0, 2))
	if err := s.Apply(g); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if math.Abs(g.Consensus[0].Score-0.8) > 1e-9 {
		t.Errorf("mean = %g, want (0.9+0.7)/2 = 0.8", g.Consensus[0].Score)
	}
}

// --- ranks ---

func TestRanksScorerRangeAndOrder(t *testing.T) {
	g := &types.Group{Members: []types.Identification{
		event("run_1", "XTandem", true, hit("A", 10), hit("B", 5)),
		event("run_2", "Mascot", false, hit("A", 0.01), hit("C", 0.5)),
		event("run_3", "Sequest", true, hit("B", 7), hit("A", 3)),
	}}

	s, _ := New(scoringCfg(types.AlgorithmRanks, 2, 3))
	if err := s.Apply(g); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for _, h := range g.Consensus {
		if h.Score <= 0 || h.Score > 1 {
			t.Errorf("rank score for %s = %g, outside (0, 1]", h.Sequence, h.Score)
		}
	}

	// A holds rank 1, 1, 2: aggregate (1 + 1 + 0.5)/3.
	if g.Consensus[0].Sequence != "A" {
		t.Fatalf("top hit = %s, want A (best aggregate rank)", g.Consensus[0].Sequence)
	}
	if math.Abs(g.Consensus[0].Score-2.5/3) > 1e-9 {
		t.Errorf("top score = %g, want %g", g.Consensus[0].Score, 2.5/3)
	}
	if !g.ConsensusHigherBetter || g.ConsensusScoreType != "Consensus_ranks" {
		t.Errorf("ranks output should be higher-is-better Consensus_ranks, got %q", g.ConsensusScoreType)
	}
}

func TestRanksScorerPerfectAgreement(t *testing.T) {
	g := &types.Group{Members: []types.Identification{
		event("run_1", "XTandem", true, hit("A", 10)),
		event("run_2", "Mascot", false, hit("A", 0.01)),
		event("run_3", "Sequest", true, hit("A", 3)),
	}}

	s, _ := New(scoringCfg(types.AlgorithmRanks, 1, 3))
	if err := s.Apply(g); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if g.Consensus[0].Score != 1.0 {
		t.Errorf("rank 1 in every run should score exactly 1.0, got %g", g.Consensus[0].Score)
	}
}

func TestRanksScorerNormalizesByInvocationRuns(t *testing.T) {
	// The group only has one of the invocation's four runs; aggregation
	// still divides by four.
	g := &types.Group{Members: []types.Identification{
		event("run_1", "XTandem", true, hit("A", 10)),
	}}

	s, _ := New(scoringCfg(types.AlgorithmRanks, 1, 4))
	if err := s.Apply(g); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if math.Abs(g.Consensus[0].Score-0.25) > 1e-9 {
		t.Errorf("score = %g, want 0.25", g.Consensus[0].Score)
	}
}

// --- PEP variants ---

func TestPEPMatrixRewardsSimilarSequences(t *testing.T) {
	pep := func(other string) float64 {
		g := &types.Group{Members: []types.Identification{
			event("run_1", "Posterior Error Probability", false, hit("PEPTIDEK", 0.1)),
			event("run_2", "Posterior Error Probability", false, hit(other, 0.1)),
		}}
		s, err := New(scoringCfg(types.AlgorithmPEPMatrix, 10, 2))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := s.Apply(g); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		for _, h := range g.Consensus {
			if h.Sequence == "PEPTIDEK" {
				return h.Score
			}
		}
		t.Fatal("PEPTIDEK missing from consensus")
		return 0
	}

	agreeing := pep("PEPTIDEK")     // identical evidence
	similar := pep("PEPTIDER")      // K/R substitution, similar
	dissimilar := pep("WWWGGGAAAY") // unrelated

	if !(agreeing <= similar && similar < dissimilar) {
		t.Errorf("combined PEP should improve with agreement: identical=%g similar=%g dissimilar=%g",
			agreeing, similar, dissimilar)
	}
}

func TestPEPIonsRewardsSharedFragments(t *testing.T) {
	pep := func(other string) float64 {
		g := &types.Group{Members: []types.Identification{
			event("run_1", "Posterior Error Probability", false, hit("PEPTIDEK", 0.1)),
			event("run_2", "Posterior Error Probability", false, hit(other, 0.1)),
		}}
		s, err := New(scoringCfg(types.AlgorithmPEPIons, 10, 2))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := s.Apply(g); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		for _, h := range g.Consensus {
			if h.Sequence == "PEPTIDEK" {
				return h.Score
			}
		}
		t.Fatal("PEPTIDEK missing from consensus")
		return 0
	}

	sharedPrefix := pep("PEPTIDER") // shares all b ions of the prefix
	unrelated := pep("WWWGGGAAAY")

	if !(sharedPrefix < unrelated) {
		t.Errorf("shared fragment ladder should lower the combined PEP: shared=%g unrelated=%g",
			sharedPrefix, unrelated)
	}
}

func TestPEPScorerLowerIsBetterOutput(t *testing.T) {
	g := &types.Group{Members: []types.Identification{
		event("run_1", "Posterior Error Probability", false, hit("PEPTIDEK", 0.05), hit("AAAAAA", 0.5)),
		event("run_2", "Posterior Error Probability", false, hit("PEPTIDEK", 0.1)),
	}}

	s, _ := New(scoringCfg(types.AlgorithmPEPMatrix, 10, 2))
	if err := s.Apply(g); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if g.ConsensusHigherBetter {
		t.Error("PEP output must be lower-is-better")
	}
	if g.Consensus[0].Sequence != "PEPTIDEK" {
		t.Errorf("top hit = %s, want the doubly supported PEPTIDEK", g.Consensus[0].Sequence)
	}
	for i := 1; i < len(g.Consensus); i++ {
		if g.Consensus[i].Score < g.Consensus[i-1].Score {
			t.Error("consensus not sorted best-first for lower-is-better scores")
		}
	}
}

// --- shared contracts ---

func TestSingletonIdempotence(t *testing.T) {
	// A consensus of one voice is that voice: the singleton's own top
	// hit stays on top under every variant.
	for _, alg := range []types.Algorithm{
		types.AlgorithmBest, types.AlgorithmAverage, types.AlgorithmRanks,
		types.AlgorithmPEPMatrix, types.AlgorithmPEPIons,
	} {
		t.Run(string(alg), func(t *testing.T) {
			g := &types.Group{Members: []types.Identification{
				event("run_1", "Posterior Error Probability", false,
					hit("TOPSEQK", 0.02), hit("LESSER", 0.3)),
			}}
			s, err := New(scoringCfg(alg, 10, 1))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if err := s.Apply(g); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if len(g.Consensus) == 0 {
				t.Fatal("singleton with hits must produce a consensus")
			}
			if g.Consensus[0].Sequence != "TOPSEQK" {
				t.Errorf("top hit = %s, want TOPSEQK", g.Consensus[0].Sequence)
			}
			if g.Consensus[0].Rank != 1 {
				t.Errorf("top hit rank = %d, want 1", g.Consensus[0].Rank)
			}
		})
	}
}

func TestEmptyGroupYieldsNoConsensus(t *testing.T) {
	for _, alg := range []types.Algorithm{
		types.AlgorithmBest, types.AlgorithmAverage, types.AlgorithmRanks,
		types.AlgorithmPEPMatrix, types.AlgorithmPEPIons,
	} {
		t.Run(string(alg), func(t *testing.T) {
			g := &types.Group{Members: []types.Identification{
				event("run_1", "Posterior Error Probability", false),
			}}
			s, err := New(scoringCfg(alg, 10, 1))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if err := s.Apply(g); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if len(g.Consensus) != 0 {
				t.Errorf("hitless group produced %d consensus hits, want 0", len(g.Consensus))
			}
		})
	}
}

func TestApplyDoesNotTouchCoordinates(t *testing.T) {
	g := &types.Group{RT: 123.4, MZ: 567.8, Members: []types.Identification{
		event("run_1", "XTandem", true, hit("A", 1)),
	}}
	s, _ := New(scoringCfg(types.AlgorithmBest, 10, 1))
	if err := s.Apply(g); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if g.RT != 123.4 || g.MZ != 567.8 {
		t.Errorf("Apply moved the centroid to %g/%g", g.RT, g.MZ)
	}
}
