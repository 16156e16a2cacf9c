package main

import (
	"fmt"

	"github.com/bibtools/bibfix/internal/config"
	"github.com/bibtools/bibfix/internal/storage"
	"github.com/spf13/cobra"
)

var indexDBPath string

func init() {
	indexCmd.Flags().StringVar(&indexDBPath, "db", "", "Index database path (default from config)")
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index [input.bib]",
	Short: "Rebuild the SQLite index from a bib-file",
	Long: `Rebuild the SQLite index from a bib-file.

The index holds one row per entry (key, type, title, year, doi, url,
issn) plus a full-text table over keys and titles, and is rebuilt from
scratch on every run; the bib-file stays the source of truth.

Usage:
  bibfix index
  bibfix index library_fixed.bib --db thesis.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

// IndexResponse is the JSON summary of an index rebuild.
type IndexResponse struct {
	Input   string `json:"input"`
	DB      string `json:"db"`
	Entries int    `json:"entries"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	inputName := cfg.Input
	if len(args) > 0 {
		inputName = args[0]
	}
	dbPath := cfg.DB
	if indexDBPath != "" {
		dbPath = indexDBPath
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		exitWithError(ExitError, "opening index %q: %v", dbPath, err)
	}
	defer db.Close()

	n, err := db.RebuildFromBib(inputName)
	if err != nil {
		exitWithError(ExitDataError, "indexing %q: %v", inputName, err)
	}

	if humanOutput {
		fmt.Printf("Indexed %d entries from %s into %s\n", n, inputName, dbPath)
	} else {
		outputJSON(IndexResponse{Input: inputName, DB: dbPath, Entries: n})
	}

	return nil
}
