package consensus

import (
	"errors"
	"testing"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

func TestMatrixSimilarityBounds(t *testing.T) {
	sim, err := newMatrixSimilarity(types.PEPMatrixConfig{})
	if err != nil {
		t.Fatalf("newMatrixSimilarity: %v", err)
	}

	pairs := [][2]string{
		{"PEPTIDEK", "PEPTIDEK"},
		{"PEPTIDEK", "PEPTIDER"},
		{"PEPTIDEK", "WWWGGGAAAY"},
		{"A", "WWWW"},
		{"", "PEPTIDE"},
	}
	for _, p := range pairs {
		s := sim.Score(p[0], p[1])
		if s < 0 || s > 1 {
			t.Errorf("Score(%q, %q) = %g, outside [0, 1]", p[0], p[1], s)
		}
		if r := sim.Score(p[1], p[0]); r != s {
			t.Errorf("Score not symmetric for %q/%q: %g vs %g", p[0], p[1], s, r)
		}
	}

	if s := sim.Score("PEPTIDEK", "PEPTIDEK"); s != 1 {
		t.Errorf("self similarity = %g, want 1", s)
	}
}

func TestMatrixSimilarityOrdersByRelatedness(t *testing.T) {
	sim, err := newMatrixSimilarity(types.PEPMatrixConfig{})
	if err != nil {
		t.Fatalf("newMatrixSimilarity: %v", err)
	}

	conservative := sim.Score("PEPTIDEK", "PEPTIDER") // K->R, same class
	radical := sim.Score("PEPTIDEK", "PEPTIDEW")      // K->W, different class
	unrelated := sim.Score("PEPTIDEK", "WWWGGGAAAY")

	if !(conservative > radical && radical >= unrelated) {
		t.Errorf("similarity should order by relatedness: conservative=%g radical=%g unrelated=%g",
			conservative, radical, unrelated)
	}
}

func TestMatrixSimilarityIdentityOnly(t *testing.T) {
	similar, err := newMatrixSimilarity(types.PEPMatrixConfig{Matrix: "similar"})
	if err != nil {
		t.Fatalf("newMatrixSimilarity(similar): %v", err)
	}
	identity, err := newMatrixSimilarity(types.PEPMatrixConfig{Matrix: "identity"})
	if err != nil {
		t.Fatalf("newMatrixSimilarity(identity): %v", err)
	}

	a, b := "PEPTIDEK", "PEPTIDER"
	if !(identity.Score(a, b) < similar.Score(a, b)) {
		t.Errorf("identity matrix should score the K/R substitution below the class-aware table")
	}
}

func TestMatrixSimilarityUnknownMatrix(t *testing.T) {
	_, err := newMatrixSimilarity(types.PEPMatrixConfig{Matrix: "PAM999"})
	if !errors.Is(err, types.ErrInvalidConfiguration) {
		t.Errorf("newMatrixSimilarity = %v, want ErrInvalidConfiguration", err)
	}
}

func TestIonSimilarity(t *testing.T) {
	sim := newIonSimilarity(types.PEPIonsConfig{MassTolerance: 0.5, MinShared: 2})

	if s := sim.Score("PEPTIDEK", "PEPTIDEK"); s != 1 {
		t.Errorf("self similarity = %g, want 1", s)
	}

	// PEPTIDEK and PEPTIDER share the full b-ion ladder of the common
	// prefix but none of the y ions.
	shared := sim.Score("PEPTIDEK", "PEPTIDER")
	if shared <= 0 || shared >= 1 {
		t.Errorf("prefix-sharing similarity = %g, want within (0, 1)", shared)
	}
	if r := sim.Score("PEPTIDER", "PEPTIDEK"); r != shared {
		t.Errorf("ion similarity not symmetric: %g vs %g", shared, r)
	}

	if s := sim.Score("PEPTIDEK", "WWWGGGAAAY"); s != 0 {
		t.Errorf("unrelated sequences = %g, want 0 (below min_shared)", s)
	}
}

func TestIonSimilarityShortSequences(t *testing.T) {
	sim := newIonSimilarity(types.PEPIonsConfig{})
	if s := sim.Score("K", "R"); s != 0 {
		t.Errorf("single-residue sequences have no fragments, similarity = %g, want 0", s)
	}
}

func TestFragmentMasses(t *testing.T) {
	frags := fragmentMasses("PEK")
	// Two b ions and two y ions.
	if len(frags) != 4 {
		t.Fatalf("len(frags) = %d, want 4", len(frags))
	}
	for i := 1; i < len(frags); i++ {
		if frags[i] < frags[i-1] {
			t.Error("fragment masses should be sorted")
		}
	}
}

func TestCountShared(t *testing.T) {
	tests := []struct {
		name   string
		fa, fb []float64
		tol    float64
		want   int
	}{
		{"exact", []float64{100, 200, 300}, []float64{100, 200, 300}, 0.5, 3},
		{"within tolerance", []float64{100.2}, []float64{100.0}, 0.5, 1},
		{"outside tolerance", []float64{101.0}, []float64{100.0}, 0.5, 0},
		{"each consumed once", []float64{100, 100.1}, []float64{100}, 0.5, 1},
		{"disjoint", []float64{1, 2}, []float64{10, 20}, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countShared(tt.fa, tt.fb, tt.tol); got != tt.want {
				t.Errorf("countShared = %d, want %d", got, tt.want)
			}
		})
	}
}
