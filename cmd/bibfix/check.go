package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bibtools/bibfix/internal/bibtex"
	"github.com/bibtools/bibfix/internal/config"
	"github.com/spf13/cobra"
)

var checkStrict bool

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Fail when a trailing entry has no well-formed end marker")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [input.bib]",
	Short: "Report what fix would change, without writing anything",
	Long: `Report what fix would change, without writing anything.

Runs the full rewriter over the input with the configured options and
summarizes the pending fixes. With --strict, an unterminated trailing
entry is an error instead of a warning.

Usage:
  bibfix check
  bibfix check thesis.bib --strict`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

// CheckResponse is the JSON summary of a check run.
type CheckResponse struct {
	Input string `json:"input"`
	Clean bool   `json:"clean"`
	bibtex.DocumentReport
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	inputName := cfg.Input
	if len(args) > 0 {
		inputName = args[0]
	}

	data, err := os.ReadFile(inputName)
	if err != nil {
		exitWithError(ExitError, "reading input %q: %v", inputName, err)
	}

	start := time.Now()
	_, report := bibtex.FixDocument(string(data), cfg.Options())
	elapsed := time.Since(start)

	if report.Unterminated && checkStrict {
		exitWithError(ExitDataError, "input %q ends with an entry that never terminates", inputName)
	}

	clean := report.Total() == 0 && !report.Unterminated

	if humanOutput {
		if clean {
			fmt.Printf("%s is clean (%d entries)\n", inputName, report.Entries)
		} else {
			fmt.Printf("%s has pending fixes:\n", inputName)
			printReportHuman(report)
		}
		fmt.Printf("Checking took %s\n", formatDuration(elapsed))
	} else {
		outputJSON(CheckResponse{
			Input:          inputName,
			Clean:          clean,
			DocumentReport: report,
		})
	}

	return nil
}
