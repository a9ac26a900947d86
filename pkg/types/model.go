// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for consensus-engine:
// identification records, consensus groups, run metadata, and the
// configuration consumed by the pipeline.
package types

import "time"

// Hit is one candidate explanation for an identification event: a peptide
// sequence and the score the originating run assigned to it. Rank is the
// 1-based position within the originating run's list (0 when unset).
type Hit struct {
	Sequence string  `json:"sequence" yaml:"sequence"`
	Score    float64 `json:"score" yaml:"score"`
	Rank     int     `json:"rank,omitempty" yaml:"rank,omitempty"`
}

// Run names one identification run (e.g. one search-engine execution)
// present in the input.
type Run struct {
	ID                  string    `json:"id" yaml:"id"`
	SearchEngine        string    `json:"search_engine,omitempty" yaml:"search_engine,omitempty"`
	SearchEngineVersion string    `json:"search_engine_version,omitempty" yaml:"search_engine_version,omitempty"`
	Date                time.Time `json:"date,omitempty" yaml:"date,omitempty"`
}

// Identification is one measured spectrum's identification result from a
// single run: a run reference, the precursor RT/m-z coordinates, and the
// candidate hits in the run's own ranking order.
//
// RT and m/z are mandatory for cross-run grouping. HasRT and HasMZ record
// whether the input actually carried them; an identification missing
// either is rejected, never default-filled.
type Identification struct {
	RunID             string
	RT                float64
	MZ                float64
	HasRT             bool
	HasMZ             bool
	ScoreType         string
	HigherScoreBetter bool
	Hits              []Hit
}

// TopHit returns the first (best) hit and whether one exists.
func (id Identification) TopHit() (Hit, bool) {
	if len(id.Hits) == 0 {
		return Hit{}, false
	}
	return id.Hits[0], true
}

// Group is the unit of consensus: identification events from different
// runs judged to refer to the same physical measurement. RT/MZ is the
// group centroid, the representative coordinate for output. Scoring
// fills Consensus with the reduced, best-first hit list.
type Group struct {
	RT      float64
	MZ      float64
	Members []Identification

	Consensus             []Hit
	ConsensusScoreType    string
	ConsensusHigherBetter bool
}

// RunMetadata describes the consensus computation itself as a synthetic
// run. It is created exactly once per invocation and replaces all input
// run metadata in the output.
type RunMetadata struct {
	SearchEngine string    `json:"search_engine" yaml:"search_engine"`
	Version      string    `json:"version" yaml:"version"`
	Date         time.Time `json:"date" yaml:"date"`
}

// Stamp carries the invocation time and build version into the pipeline,
// so output metadata is reproducible in tests via injection instead of
// being read from ambient state.
type Stamp struct {
	Time    time.Time
	Version string
}
