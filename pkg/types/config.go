// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Algorithm selects the consensus scoring strategy.
type Algorithm string

const (
	// AlgorithmPEPMatrix combines posterior error probabilities with a
	// substitution-matrix similarity between candidate sequences.
	AlgorithmPEPMatrix Algorithm = "PEPMatrix"

	// AlgorithmPEPIons combines posterior error probabilities with a
	// shared theoretical fragment-ion similarity.
	AlgorithmPEPIons Algorithm = "PEPIons"

	// AlgorithmBest uses the best score any run reported for a sequence.
	AlgorithmBest Algorithm = "best"

	// AlgorithmAverage averages scores over the runs reporting a sequence.
	AlgorithmAverage Algorithm = "average"

	// AlgorithmRanks aggregates rank positions into a score in (0, 1].
	AlgorithmRanks Algorithm = "ranks"
)

// GroupingConfig holds the spatial linking tolerances. m/z is expressed
// in absolute mass units, not ppm.
type GroupingConfig struct {
	// RTDelta is the maximum allowed precursor RT deviation between
	// identifications belonging to the same spectrum (default 0.1).
	RTDelta float64 `json:"rt_delta" yaml:"rt_delta"`

	// MZDelta is the maximum allowed precursor m/z deviation between
	// identifications belonging to the same spectrum (default 0.1).
	MZDelta float64 `json:"mz_delta" yaml:"mz_delta"`
}

// PEPMatrixConfig holds PEPMatrix-specific parameters.
type PEPMatrixConfig struct {
	// Matrix selects the substitution table: "similar" (residue-class
	// aware, the default) or "identity" (exact matches only).
	Matrix string `json:"matrix" yaml:"matrix"`

	// PenaltyFactor scales the alignment gap penalty (default 1.0).
	PenaltyFactor float64 `json:"penalty_factor" yaml:"penalty_factor"`
}

// PEPIonsConfig holds PEPIons-specific parameters.
type PEPIonsConfig struct {
	// MassTolerance is the maximum deviation between two theoretical
	// fragment masses counted as shared (default 0.5).
	MassTolerance float64 `json:"mass_tolerance" yaml:"mass_tolerance"`

	// MinShared is the minimum number of shared fragment ions for two
	// sequences to count as similar at all (default 2).
	MinShared int `json:"min_shared" yaml:"min_shared"`
}

// ScoringConfig holds settings for the consensus scoring stage.
type ScoringConfig struct {
	// Algorithm selects the scoring strategy (default PEPMatrix).
	Algorithm Algorithm `json:"algorithm" yaml:"algorithm"`

	// ConsideredHits is the number of top hits taken from each
	// contributing event before scoring; 0 means all hits (default 10).
	ConsideredHits int `json:"considered_hits" yaml:"considered_hits"`

	// NumberOfRuns is the total number of distinct runs in the whole
	// invocation, used to normalize rank and probability aggregation
	// even when a group is missing some runs. 0 means "derive from the
	// input".
	NumberOfRuns int `json:"number_of_runs,omitempty" yaml:"number_of_runs,omitempty"`

	PEPMatrix PEPMatrixConfig `json:"PEPMatrix" yaml:"PEPMatrix"`
	PEPIons   PEPIonsConfig   `json:"PEPIons" yaml:"PEPIons"`
}

// ArchiveConfig holds settings for the optional results archive.
type ArchiveConfig struct {
	// Dir is the directory holding the archive database (default "archive").
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations for one invocation.
type PipelineConfig struct {
	Grouping GroupingConfig `json:"grouping" yaml:"grouping"`
	Scoring  ScoringConfig  `json:"scoring" yaml:"scoring"`
	Archive  ArchiveConfig  `json:"archive" yaml:"archive"`
}

// DefaultPipelineConfig returns the documented defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Grouping: GroupingConfig{RTDelta: 0.1, MZDelta: 0.1},
		Scoring: ScoringConfig{
			Algorithm:      AlgorithmPEPMatrix,
			ConsideredHits: 10,
			PEPMatrix:      PEPMatrixConfig{Matrix: "similar", PenaltyFactor: 1.0},
			PEPIons:        PEPIonsConfig{MassTolerance: 0.5, MinShared: 2},
		},
		Archive: ArchiveConfig{Dir: "archive"},
	}
}
