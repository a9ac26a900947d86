package consensus

import (
	"fmt"
	"sort"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

// Similarity scores how alike two peptide sequences are, in [0, 1]:
// 1 means interchangeable evidence, 0 means none shared. Implementations
// are symmetric and safe for concurrent use.
type Similarity interface {
	Score(a, b string) float64
}

// Alignment scoring constants for the substitution-based similarity.
const (
	matchScore    = 5.0
	classScore    = 1.0
	mismatchScore = -2.0
	gapPenalty    = -4.0
)

// residueClass groups amino acids that commonly substitute for one
// another. Aligning two distinct residues from the same class scores
// classScore instead of mismatchScore.
var residueClass = map[byte]int{
	'K': 1, 'R': 1, 'H': 1, // basic
	'I': 2, 'L': 2, 'V': 2, 'M': 2, // aliphatic
	'D': 3, 'E': 3, // acidic
	'S': 4, 'T': 4, // hydroxyl
	'F': 5, 'Y': 5, 'W': 5, // aromatic
	'N': 6, 'Q': 6, // amide
	'A': 7, 'G': 7, // small
}

// matrixSimilarity aligns two sequences globally (Needleman-Wunsch) with
// a residue-class substitution table and normalizes the alignment score
// by the smaller self-alignment score.
type matrixSimilarity struct {
	identityOnly bool
	gap          float64
}

func newMatrixSimilarity(cfg types.PEPMatrixConfig) (*matrixSimilarity, error) {
	m := &matrixSimilarity{gap: gapPenalty}
	switch cfg.Matrix {
	case "", "similar":
	case "identity":
		m.identityOnly = true
	default:
		return nil, fmt.Errorf("%w: unknown substitution matrix %q (use \"similar\" or \"identity\")",
			types.ErrInvalidConfiguration, cfg.Matrix)
	}
	if cfg.PenaltyFactor > 0 {
		m.gap = gapPenalty * cfg.PenaltyFactor
	}
	return m, nil
}

func (m *matrixSimilarity) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	score := m.align(a, b)
	if score <= 0 {
		return 0
	}
	self := m.align(a, a)
	if sb := m.align(b, b); sb < self {
		self = sb
	}
	if score >= self {
		return 1
	}
	return score / self
}

// align computes the global alignment score with linear gap penalties.
func (m *matrixSimilarity) align(a, b string) float64 {
	prev := make([]float64, len(b)+1)
	cur := make([]float64, len(b)+1)
	for j := 1; j <= len(b); j++ {
		prev[j] = float64(j) * m.gap
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = float64(i) * m.gap
		for j := 1; j <= len(b); j++ {
			diag := prev[j-1] + m.pairScore(a[i-1], b[j-1])
			up := prev[j] + m.gap
			left := cur[j-1] + m.gap
			cur[j] = max3(diag, up, left)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func (m *matrixSimilarity) pairScore(x, y byte) float64 {
	if x == y {
		return matchScore
	}
	if m.identityOnly {
		return mismatchScore
	}
	cx, okx := residueClass[x]
	cy, oky := residueClass[y]
	if okx && oky && cx == cy {
		return classScore
	}
	return mismatchScore
}

func max3(a, b, c float64) float64 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

// Monoisotopic residue masses and fragment constants.
var residueMass = map[byte]float64{
	'G': 57.02146, 'A': 71.03711, 'S': 87.03203, 'P': 97.05276,
	'V': 99.06841, 'T': 101.04768, 'C': 103.00919, 'L': 113.08406,
	'I': 113.08406, 'N': 114.04293, 'D': 115.02694, 'Q': 128.05858,
	'K': 128.09496, 'E': 129.04259, 'M': 131.04049, 'H': 137.05891,
	'F': 147.06841, 'R': 156.10111, 'Y': 163.06333, 'W': 186.07931,
}

const (
	protonMass = 1.007276
	waterMass  = 18.010565

	// genericResidueMass stands in for residues outside the standard
	// twenty, keeping fragment lists deterministic for odd input.
	genericResidueMass = 110.0
)

// ionSimilarity compares the singly charged theoretical b- and y-ion
// ladders of two sequences: the fraction of shared fragment masses
// within a tolerance, zero unless at least minShared ions match.
type ionSimilarity struct {
	tol       float64
	minShared int
}

func newIonSimilarity(cfg types.PEPIonsConfig) ionSimilarity {
	s := ionSimilarity{tol: cfg.MassTolerance, minShared: cfg.MinShared}
	if s.tol <= 0 {
		s.tol = 0.5
	}
	if s.minShared <= 0 {
		s.minShared = 2
	}
	return s
}

func (s ionSimilarity) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	fa := fragmentMasses(a)
	fb := fragmentMasses(b)
	if len(fa) == 0 || len(fb) == 0 {
		return 0
	}
	shared := countShared(fa, fb, s.tol)
	if shared < s.minShared {
		return 0
	}
	return 2 * float64(shared) / float64(len(fa)+len(fb))
}

// fragmentMasses returns the sorted b- and y-ion masses of sequence for
// charge 1.
func fragmentMasses(sequence string) []float64 {
	n := len(sequence)
	if n < 2 {
		return nil
	}
	masses := make([]float64, n)
	for i := 0; i < n; i++ {
		m, ok := residueMass[sequence[i]]
		if !ok {
			m = genericResidueMass
		}
		masses[i] = m
	}

	frags := make([]float64, 0, 2*(n-1))
	prefix := 0.0
	for i := 0; i < n-1; i++ {
		prefix += masses[i]
		frags = append(frags, prefix+protonMass) // b ion
	}
	suffix := 0.0
	for i := n - 1; i > 0; i-- {
		suffix += masses[i]
		frags = append(frags, suffix+waterMass+protonMass) // y ion
	}
	sort.Float64s(frags)
	return frags
}

// countShared matches two sorted mass lists pairwise within tol, each
// fragment consumed at most once.
func countShared(fa, fb []float64, tol float64) int {
	shared := 0
	i, j := 0, 0
	for i < len(fa) && j < len(fb) {
		d := fa[i] - fb[j]
		switch {
		case d < -tol:
			i++
		case d > tol:
			j++
		default:
			shared++
			i++
			j++
		}
	}
	return shared
}
