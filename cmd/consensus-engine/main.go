// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the consensus-engine CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the consensus-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "consensus-engine",
	Short: "Consensus peptide identification across search engine runs",
	Long: `consensus-engine merges peptide identifications produced by several
search engine runs over the same sample into a single consensus list
per spectrum.

Identifications from flat inputs are first linked by retention time and
mass-to-charge proximity; pre-grouped inputs skip that step. Each group
is then scored with one of five consensus strategies: PEPMatrix,
PEPIons, best, average, or ranks.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./consensus-engine.yaml or ~/.config/consensus-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("consensus-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "consensus-engine"))
		}
	}

	viper.SetEnvPrefix("CONSENSUS_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, types.ErrIncompatibleInput) {
			os.Exit(4)
		}
		os.Exit(1)
	}
}
