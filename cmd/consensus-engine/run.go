// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/consensus-engine/internal/archive"
	"github.com/pdiddy/consensus-engine/internal/pipeline"
	"github.com/pdiddy/consensus-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute consensus identifications for one input file",
	Long: `Run loads an idXML, featureXML, or consensusXML input, groups
identifications by RT/m-z proximity when the input is flat, scores each
group with the selected consensus strategy, and writes the result in the
input's container format.

Algorithm-specific parameters (PEPMatrix matrix and penalty factor,
PEPIons mass tolerance and minimum shared ions) are read from the YAML
file given with --params.`,
	RunE: runRun,
}

// paramsFile is the --params YAML layout.
type paramsFile struct {
	PEPMatrix *types.PEPMatrixConfig `yaml:"PEPMatrix"`
	PEPIons   *types.PEPIonsConfig   `yaml:"PEPIons"`
}

func runRun(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	if in == "" || out == "" {
		return fmt.Errorf("--in and --out are required")
	}

	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	stamp := types.Stamp{Time: time.Now().UTC(), Version: version}

	res, err := pipeline.Execute(in, out, cfg, stamp, os.Stdout)
	if err != nil {
		return err
	}

	record, _ := cmd.Flags().GetBool("archive")
	if record {
		store, err := archive.Open(cfg.Archive.Dir)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.Record(context.Background(), in, cfg.Scoring.Algorithm, res.Metadata, res.Groups)
		if err != nil {
			return err
		}
		fmt.Printf("archived invocation %d\n", id)
	}

	return nil
}

func configFromFlags(cmd *cobra.Command) (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()

	if cmd.Flags().Changed("rt-delta") {
		cfg.Grouping.RTDelta, _ = cmd.Flags().GetFloat64("rt-delta")
	}
	if cmd.Flags().Changed("mz-delta") {
		cfg.Grouping.MZDelta, _ = cmd.Flags().GetFloat64("mz-delta")
	}
	if cmd.Flags().Changed("considered-hits") {
		cfg.Scoring.ConsideredHits, _ = cmd.Flags().GetInt("considered-hits")
	}
	if cmd.Flags().Changed("number-of-runs") {
		cfg.Scoring.NumberOfRuns, _ = cmd.Flags().GetInt("number-of-runs")
	}

	alg, _ := cmd.Flags().GetString("algorithm")
	if alg != "" {
		cfg.Scoring.Algorithm = types.Algorithm(alg)
	}

	archiveDir, _ := cmd.Flags().GetString("archive-dir")
	if archiveDir != "" {
		cfg.Archive.Dir = archiveDir
	}

	paramsPath, _ := cmd.Flags().GetString("params")
	if paramsPath != "" {
		data, err := os.ReadFile(paramsPath)
		if err != nil {
			return cfg, fmt.Errorf("reading params file: %w", err)
		}
		var params paramsFile
		if err := yaml.Unmarshal(data, &params); err != nil {
			return cfg, fmt.Errorf("parsing params file: %w", err)
		}
		if params.PEPMatrix != nil {
			cfg.Scoring.PEPMatrix = *params.PEPMatrix
		}
		if params.PEPIons != nil {
			cfg.Scoring.PEPIons = *params.PEPIons
		}
	}

	return cfg, nil
}

func init() {
	runCmd.Flags().String("in", "", "input file (idXML, featureXML, or consensusXML)")
	runCmd.Flags().String("out", "", "output file, written in the input's container format")
	runCmd.Flags().String("algorithm", string(types.AlgorithmPEPMatrix), "consensus algorithm: PEPMatrix, PEPIons, best, average, or ranks")
	runCmd.Flags().Float64("rt-delta", 0.1, "maximum RT deviation for grouping flat inputs")
	runCmd.Flags().Float64("mz-delta", 0.1, "maximum m/z deviation for grouping flat inputs")
	runCmd.Flags().Int("considered-hits", 10, "top hits taken per identification before scoring (0 = all)")
	runCmd.Flags().Int("number-of-runs", 0, "run count used for normalization (0 = derive from input)")
	runCmd.Flags().String("params", "", "YAML file with PEPMatrix/PEPIons parameters")
	runCmd.Flags().Bool("archive", false, "record this invocation in the archive database")
	runCmd.Flags().String("archive-dir", "", "archive database directory (default \"archive\")")

	rootCmd.AddCommand(runCmd)
}
