// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/consensus-engine/internal/format"
	"github.com/pdiddy/consensus-engine/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Summarize the contents of an identification file",
	Long: `Inspect loads an idXML, featureXML, or consensusXML file and prints
its shape: run count, identification and hit counts, and the score types
present. Useful for checking an input before running consensus.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

// fileSummary is the inspect output, printable as text or JSON.
type fileSummary struct {
	Path            string   `json:"path"`
	Type            string   `json:"type"`
	Runs            int      `json:"runs"`
	Groups          int      `json:"groups,omitempty"`
	Identifications int      `json:"identifications"`
	Hits            int      `json:"hits"`
	ScoreTypes      []string `json:"score_types"`
	MissingCoords   int      `json:"missing_coordinates,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	doc, err := format.Load(args[0])
	if err != nil {
		return err
	}

	s := fileSummary{Path: args[0], Type: string(doc.Type)}

	var idents []types.Identification
	switch {
	case doc.Flat != nil:
		s.Runs = len(doc.Flat.Runs)
		idents = doc.Flat.Identifications
	case doc.Grouped != nil:
		s.Runs = len(doc.Grouped.Runs)
		s.Groups = len(doc.Grouped.Groups)
		for _, g := range doc.Grouped.Groups {
			idents = append(idents, g.Members...)
		}
	}

	scoreTypes := map[string]bool{}
	for _, id := range idents {
		s.Identifications++
		s.Hits += len(id.Hits)
		if id.ScoreType != "" {
			scoreTypes[id.ScoreType] = true
		}
		if doc.Flat != nil && (!id.HasRT || !id.HasMZ) {
			s.MissingCoords++
		}
	}
	for st := range scoreTypes {
		s.ScoreTypes = append(s.ScoreTypes, st)
	}
	sort.Strings(s.ScoreTypes)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Printf("%s (%s)\n", s.Path, s.Type)
	fmt.Printf("  runs:            %d\n", s.Runs)
	if s.Groups > 0 {
		fmt.Printf("  groups:          %d\n", s.Groups)
	}
	fmt.Printf("  identifications: %d\n", s.Identifications)
	fmt.Printf("  hits:            %d\n", s.Hits)
	fmt.Printf("  score types:     %v\n", s.ScoreTypes)
	if s.MissingCoords > 0 {
		fmt.Printf("  missing coords:  %d (grouping will fail)\n", s.MissingCoords)
	}
	return nil
}

func init() {
	inspectCmd.Flags().Bool("json", false, "output summary as JSON")

	rootCmd.AddCommand(inspectCmd)
}
