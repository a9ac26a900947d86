// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one consensus invocation: load, group when
// the input shape requires it, score every group with the configured
// strategy, stamp fresh run metadata, and emit. All inputs are
// materialized in memory; the pipeline either completes deterministically
// or fails fast with no partial output.
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/consensus-engine/internal/consensus"
	"github.com/pdiddy/consensus-engine/internal/format"
	"github.com/pdiddy/consensus-engine/internal/group"
	"github.com/pdiddy/consensus-engine/internal/runindex"
	"github.com/pdiddy/consensus-engine/pkg/types"
)

// EngineName is the search-engine name stamped into output metadata.
const EngineName = "consensus-engine"

// Result is the scored output of one invocation: the consensus groups
// (groups whose scorer yielded nothing are already dropped) and the
// single metadata record replacing all input run metadata.
type Result struct {
	Metadata types.RunMetadata
	Groups   []types.Group
}

// ValidateConfig rejects impossible tolerance and scoring settings
// before any grouping or scoring work begins.
func ValidateConfig(cfg types.PipelineConfig) error {
	if cfg.Grouping.RTDelta < 0 {
		return fmt.Errorf("%w: rt_delta must be >= 0, got %g", types.ErrInvalidConfiguration, cfg.Grouping.RTDelta)
	}
	if cfg.Grouping.MZDelta < 0 {
		return fmt.Errorf("%w: mz_delta must be >= 0, got %g", types.ErrInvalidConfiguration, cfg.Grouping.MZDelta)
	}
	if cfg.Scoring.ConsideredHits < 0 {
		return fmt.Errorf("%w: considered_hits must be >= 0, got %d", types.ErrInvalidConfiguration, cfg.Scoring.ConsideredHits)
	}
	switch cfg.Scoring.Algorithm {
	case types.AlgorithmBest, types.AlgorithmAverage, types.AlgorithmRanks,
		types.AlgorithmPEPMatrix, types.AlgorithmPEPIons:
		return nil
	default:
		return fmt.Errorf("%w: unknown algorithm %q", types.ErrInvalidConfiguration, cfg.Scoring.Algorithm)
	}
}

// Execute loads the input container, dispatches on its shape, and writes
// the scored output in the same container type. The returned Result is
// what was stored.
func Execute(inPath, outPath string, cfg types.PipelineConfig, stamp types.Stamp, w io.Writer) (*Result, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	doc, err := format.Load(inPath)
	if err != nil {
		return nil, err
	}

	var res *Result
	switch {
	case doc.Flat != nil:
		res, err = RunFlat(doc.Flat, cfg, stamp, w)
	case doc.Grouped != nil:
		res, err = RunGrouped(doc.Grouped, cfg, stamp, w)
	default:
		return nil, fmt.Errorf("document has no content")
	}
	if err != nil {
		return nil, err
	}

	if err := format.Store(outPath, toDocument(res, doc.Type)); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "wrote %d consensus groups to %s\n", len(res.Groups), outPath)
	return res, nil
}

// RunFlat handles input shape A: flat per-run identification lists that
// must be linked by RT/m-z proximity first. Each resulting group is
// reduced to its consensus best hit.
func RunFlat(doc *format.IdentificationDocument, cfg types.PipelineConfig, stamp types.Stamp, w io.Writer) (*Result, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := checkScoreTypes(doc.Identifications, cfg.Scoring.Algorithm); err != nil {
		return nil, err
	}

	idx := runindex.New()
	for _, r := range doc.Runs {
		idx.Add(r.ID)
	}
	for _, id := range doc.Identifications {
		idx.Add(id.RunID)
	}

	byRun := make([][]types.Identification, idx.Len())
	for _, id := range doc.Identifications {
		slot, _ := idx.Slot(id.RunID)
		byRun[slot] = append(byRun[slot], id)
	}

	groups, err := group.Link(byRun, cfg.Grouping)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "linked %d identifications from %d runs into %d groups\n",
		len(doc.Identifications), idx.Len(), len(groups))

	scoring := cfg.Scoring
	if scoring.NumberOfRuns <= 0 {
		scoring.NumberOfRuns = idx.Len()
	}
	if err := scoreAll(groups, scoring); err != nil {
		return nil, err
	}

	kept := make([]types.Group, 0, len(groups))
	for _, g := range groups {
		if len(g.Consensus) == 0 {
			continue
		}
		// The flat path keeps only the consensus best hit per group.
		g.Consensus = g.Consensus[:1]
		kept = append(kept, g)
	}
	return &Result{Metadata: newRunMetadata(stamp), Groups: kept}, nil
}

// RunGrouped handles input shape B: containers that already bundle the
// identifications of one physical measurement. Grouping is skipped; each
// container is scored independently and keeps its full re-scored list.
func RunGrouped(doc *format.GroupedDocument, cfg types.PipelineConfig, stamp types.Stamp, w io.Writer) (*Result, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	var all []types.Identification
	for _, g := range doc.Groups {
		all = append(all, g.Members...)
	}
	if err := checkScoreTypes(all, cfg.Scoring.Algorithm); err != nil {
		return nil, err
	}

	idx := runindex.New()
	for _, r := range doc.Runs {
		idx.Add(r.ID)
	}
	for _, id := range all {
		idx.Add(id.RunID)
	}

	groups := group.FromContainers(doc.Groups)
	fmt.Fprintf(w, "scoring %d pre-grouped containers from %d runs\n", len(groups), idx.Len())

	scoring := cfg.Scoring
	if scoring.NumberOfRuns <= 0 {
		scoring.NumberOfRuns = idx.Len()
	}
	if err := scoreAll(groups, scoring); err != nil {
		return nil, err
	}

	kept := make([]types.Group, 0, len(groups))
	for _, g := range groups {
		if len(g.Consensus) == 0 {
			continue
		}
		kept = append(kept, g)
	}
	return &Result{Metadata: newRunMetadata(stamp), Groups: kept}, nil
}

// scoreAll applies the configured scorer to every group. Groups are
// independent after linking, so they are scored concurrently; each
// goroutine reads only its own group and the shared read-only
// configuration, and results stay in their original slots.
func scoreAll(groups []types.Group, cfg types.ScoringConfig) error {
	scorer, err := consensus.New(cfg)
	if err != nil {
		return err
	}

	errs := make([]error, len(groups))
	var wg sync.WaitGroup
	for i := range groups {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = scorer.Apply(&groups[i])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// checkScoreTypes enforces the probabilistic precondition: PEPMatrix and
// PEPIons only make sense on calibrated posterior error probabilities,
// and the mismatch is detected before any grouping or scoring work.
func checkScoreTypes(ids []types.Identification, alg types.Algorithm) error {
	if alg != types.AlgorithmPEPMatrix && alg != types.AlgorithmPEPIons {
		return nil
	}
	for _, id := range ids {
		if !isPEPScoreType(id.ScoreType) {
			return fmt.Errorf("%w: algorithm %s requires posterior error probability scores, run %q carries %q",
				types.ErrInvalidConfiguration, alg, id.RunID, id.ScoreType)
		}
	}
	return nil
}

func isPEPScoreType(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "posterior error probability", "pep":
		return true
	}
	return false
}

// newRunMetadata builds the single synthetic run record describing the
// consensus computation itself.
func newRunMetadata(stamp types.Stamp) types.RunMetadata {
	return types.RunMetadata{
		SearchEngine: EngineName,
		Version:      stamp.Version,
		Date:         stamp.Time,
	}
}

// toDocument renders the scored result in the same container type as the
// input, with a single fresh run replacing all input run metadata.
func toDocument(res *Result, typ format.Type) *format.Document {
	metaRun := types.Run{
		ID:                  EngineName,
		SearchEngine:        EngineName,
		SearchEngineVersion: res.Metadata.Version,
		Date:                res.Metadata.Date,
	}

	if typ == format.TypeIdXML {
		flat := &format.IdentificationDocument{Runs: []types.Run{metaRun}}
		for _, g := range res.Groups {
			flat.Identifications = append(flat.Identifications, consensusIdentification(g))
		}
		return &format.Document{Type: typ, Flat: flat}
	}

	grouped := &format.GroupedDocument{Runs: []types.Run{metaRun}}
	for _, g := range res.Groups {
		out := types.Group{RT: g.RT, MZ: g.MZ, Members: []types.Identification{consensusIdentification(g)}}
		grouped.Groups = append(grouped.Groups, out)
	}
	return &format.Document{Type: typ, Grouped: grouped}
}

// consensusIdentification wraps a group's consensus hit list as one
// identification attributed to the synthetic consensus run, annotated
// with the group centroid.
func consensusIdentification(g types.Group) types.Identification {
	return types.Identification{
		RunID:             EngineName,
		RT:                g.RT,
		MZ:                g.MZ,
		HasRT:             true,
		HasMZ:             true,
		ScoreType:         g.ConsensusScoreType,
		HigherScoreBetter: g.ConsensusHigherBetter,
		Hits:              g.Consensus,
	}
}
