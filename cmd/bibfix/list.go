package main

import (
	"fmt"

	"github.com/bibtools/bibfix/internal/config"
	"github.com/bibtools/bibfix/internal/storage"
	"github.com/spf13/cobra"
)

var (
	listDBPath      string
	listType        string
	listMissingYear bool
	listNoDOI       bool
	listSearch      string
	listLimit       int
)

func init() {
	listCmd.Flags().StringVar(&listDBPath, "db", "", "Index database path (default from config)")
	listCmd.Flags().StringVar(&listType, "type", "", "Only entries of this type (e.g. article, misc)")
	listCmd.Flags().BoolVar(&listMissingYear, "missing-year", false, "Only entries without a year field")
	listCmd.Flags().BoolVar(&listNoDOI, "no-doi", false, "Only entries without a doi field")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Full-text search over keys and titles")
	listCmd.Flags().IntVar(&listLimit, "limit", DefaultListLimit, "Maximum number of entries to return")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Query the SQLite index",
	Long: `Query the SQLite index built by bibfix index.

Usage:
  bibfix list
  bibfix list --type article --missing-year
  bibfix list --search "unifying model"`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// ListResponse is the JSON result of a list query.
type ListResponse struct {
	Count   int             `json:"count"`
	Entries []storage.Entry `json:"entries"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	dbPath := cfg.DB
	if listDBPath != "" {
		dbPath = listDBPath
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		exitWithError(ExitError, "opening index %q: %v", dbPath, err)
	}
	defer db.Close()

	entries, err := db.List(storage.Filters{
		Type:        listType,
		MissingYear: listMissingYear,
		NoDOI:       listNoDOI,
		Search:      listSearch,
	}, listLimit)
	if err != nil {
		exitWithError(ExitError, "querying index: %v", err)
	}

	if humanOutput {
		for _, e := range entries {
			year := e.Year
			if year == "" {
				year = "????"
			}
			fmt.Printf("%-24s %-14s %-4s %s\n", e.Key, e.Type, year, truncateString(e.Title, ListTitleMaxLen))
		}
		fmt.Printf("%d entries\n", len(entries))
	} else {
		outputJSON(ListResponse{Count: len(entries), Entries: entries})
	}

	return nil
}
