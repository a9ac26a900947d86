// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/consensus-engine/internal/archive"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Query and export archived consensus invocations",
	Long: `Archive manages the local SQLite database of past consensus runs.
Invocations are recorded by "run --archive"; use subcommands to query
archived hits or export them to YAML or JSON.`,
}

// --- query subcommand ---

var archiveQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query archived consensus hits",
	Long: `Query searches the archive by peptide sequence, input file,
algorithm, or computation time. Results are newest-first.`,
	RunE: runArchiveQuery,
}

func runArchiveQuery(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := archiveOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	if opts.IsEmpty() {
		return fmt.Errorf("filter required: provide --sequence, --input, --algorithm, or --since")
	}

	results, err := store.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []archive.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-6s  %-20s  %-10s  %-20s  %-10s  %-6s\n",
		"Inv", "Input", "Algorithm", "Sequence", "Score", "Rank")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 84))

	for _, r := range results {
		input := r.Input
		if len(input) > 20 {
			input = input[:17] + "..."
		}
		seq := r.Sequence
		if len(seq) > 20 {
			seq = seq[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-6d  %-20s  %-10s  %-20s  %-10.4g  %-6d\n",
			r.InvocationID, input, r.Algorithm, seq, r.Score, r.Rank)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var archiveExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export archived hits to YAML or JSON",
	Long: `Export writes the archive (or a filtered subset) to the given file.
The format is chosen with --format and supports the same filter flags
as query.`,
	Args: cobra.ExactArgs(1),
	RunE: runArchiveExport,
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := archiveOptsFromFlags(cmd)
	if err != nil {
		return err
	}

	outFormat, _ := cmd.Flags().GetString("format")
	switch outFormat {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), args[0], opts); err != nil {
			return err
		}
	case "json":
		if err := store.ExportJSON(context.Background(), args[0], opts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", outFormat)
	}

	fmt.Printf("Exported to %s\n", args[0])
	return nil
}

// --- shared helpers ---

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	dir, _ := cmd.Flags().GetString("archive-dir")
	if dir == "" {
		dir = "archive"
	}
	return archive.Open(dir)
}

func archiveOptsFromFlags(cmd *cobra.Command) (archive.QueryOptions, error) {
	sequence, _ := cmd.Flags().GetString("sequence")
	input, _ := cmd.Flags().GetString("input")
	algorithm, _ := cmd.Flags().GetString("algorithm")
	since, _ := cmd.Flags().GetString("since")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := archive.QueryOptions{
		Sequence:   sequence,
		Input:      input,
		Algorithm:  algorithm,
		MaxResults: limit,
	}
	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return opts, fmt.Errorf("parsing --since: %w", err)
		}
		opts.Since = t
	}
	return opts, nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	archiveCmd.PersistentFlags().String("archive-dir", "archive", "archive database directory")

	// Query flags.
	archiveQueryCmd.Flags().String("sequence", "", "filter by peptide sequence")
	archiveQueryCmd.Flags().String("input", "", "filter by input file path")
	archiveQueryCmd.Flags().String("algorithm", "", "filter by consensus algorithm")
	archiveQueryCmd.Flags().String("since", "", "keep invocations computed at or after this RFC3339 time")
	archiveQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	archiveQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	archiveExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	archiveExportCmd.Flags().String("sequence", "", "filter by peptide sequence")
	archiveExportCmd.Flags().String("input", "", "filter by input file path")
	archiveExportCmd.Flags().String("algorithm", "", "filter by consensus algorithm")
	archiveExportCmd.Flags().String("since", "", "keep invocations computed at or after this RFC3339 time")
	archiveExportCmd.Flags().Int("limit", 0, "maximum hits to export (0 = all)")

	// Wire subcommands.
	archiveCmd.AddCommand(archiveQueryCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
