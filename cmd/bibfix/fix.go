package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bibtools/bibfix/internal/bibtex"
	"github.com/bibtools/bibfix/internal/config"
	"github.com/spf13/cobra"
)

var (
	fixKeepAnnote     bool
	fixKeepAbstract   bool
	fixISSNYear       bool
	fixKeepAllURLs    bool
	fixDropURLWithDOI bool
	fixURLExceptions  []string
	fixStrict         bool
	fixDryRun         bool
)

func init() {
	fixCmd.Flags().BoolVar(&fixKeepAnnote, "keep-annote", false, "Keep annote fields instead of removing them")
	fixCmd.Flags().BoolVar(&fixKeepAbstract, "keep-abstract", false, "Keep abstract fields instead of removing them")
	fixCmd.Flags().BoolVar(&fixISSNYear, "issn-year", false, "Rename an orphan issn field to year")
	fixCmd.Flags().BoolVar(&fixKeepAllURLs, "keep-all-urls", true, "Treat every entry type as a URL exception")
	fixCmd.Flags().BoolVar(&fixDropURLWithDOI, "drop-url-with-doi", true, "Remove the URL anyway when the entry has a DOI")
	fixCmd.Flags().StringArrayVar(&fixURLExceptions, "url-exception", nil, "Entry type whose URL is kept (repeatable)")
	fixCmd.Flags().BoolVar(&fixStrict, "strict", false, "Fail when a trailing entry has no well-formed end marker")
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "Report what would change without writing the output")
	rootCmd.AddCommand(fixCmd)
}

var fixCmd = &cobra.Command{
	Use:   "fix [output.bib] [input.bib]",
	Short: "Rewrite a Mendeley export with the formatting fixes applied",
	Long: `Rewrite a Mendeley export with the formatting fixes applied.

The output file name comes first and the input second; both are
optional and default to library_fixed.bib and library.bib (or the
configured names).

Usage:
  bibfix fix
  bibfix fix thesis_fixed.bib thesis.bib
  bibfix fix --keep-annote --issn-year
  bibfix fix --keep-all-urls=false --url-exception misc --url-exception unpublished`,
	Args: cobra.MaximumNArgs(2),
	RunE: runFix,
}

// FixResponse is the JSON summary of a fix run.
type FixResponse struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
	bibtex.DocumentReport
	DurationMS int64 `json:"duration_ms"`
}

func runFix(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	outputName := cfg.Output
	inputName := cfg.Input
	if len(args) > 0 {
		outputName = args[0]
	}
	if len(args) > 1 {
		inputName = args[1]
	}

	opts := fixOptions(cmd, cfg)

	data, err := os.ReadFile(inputName)
	if err != nil {
		exitWithError(ExitError, "reading input %q: %v", inputName, err)
	}

	start := time.Now()
	fixed, report := bibtex.FixDocument(string(data), opts)
	elapsed := time.Since(start)

	if report.Unterminated && fixStrict {
		exitWithError(ExitDataError, "input %q ends with an entry that never terminates", inputName)
	}

	if !fixDryRun {
		if err := os.WriteFile(outputName, []byte(fixed), 0644); err != nil {
			exitWithError(ExitError, "writing output %q: %v", outputName, err)
		}
	}

	if humanOutput {
		if fixDryRun {
			fmt.Printf("Dry run over %s...\n", inputName)
		} else {
			fmt.Printf("Fixed %s -> %s\n", inputName, outputName)
		}
		printReportHuman(report)
		fmt.Printf("Entry fixing took %s\n", formatDuration(elapsed))
	} else {
		resp := FixResponse{
			Input:          inputName,
			DryRun:         fixDryRun,
			DocumentReport: report,
			DurationMS:     elapsed.Milliseconds(),
		}
		if !fixDryRun {
			resp.Output = outputName
		}
		outputJSON(resp)
	}

	return nil
}

// fixOptions resolves the rewriter options: config file first, then any
// flag the user set on the command line.
func fixOptions(cmd *cobra.Command, cfg *config.Config) bibtex.Options {
	opts := cfg.Options()
	if cmd.Flags().Changed("keep-annote") {
		opts.KeepAnnote = fixKeepAnnote
	}
	if cmd.Flags().Changed("keep-abstract") {
		opts.KeepAbstract = fixKeepAbstract
	}
	if cmd.Flags().Changed("issn-year") {
		opts.ISSNAsYear = fixISSNYear
	}
	if cmd.Flags().Changed("keep-all-urls") {
		opts.KeepAllURLs = fixKeepAllURLs
	}
	if cmd.Flags().Changed("drop-url-with-doi") {
		opts.DropURLWithDOI = fixDropURLWithDOI
	}
	if cmd.Flags().Changed("url-exception") {
		opts.URLExceptions = fixURLExceptions
	}
	return opts
}

// printReportHuman prints the per-rule counts of a document report.
func printReportHuman(report bibtex.DocumentReport) {
	fmt.Printf("  Entries:  %d\n", report.Entries)
	fmt.Printf("  Titles:   %d single-braced\n", report.TitlesFixed)
	fmt.Printf("  Months:   %d unbraced\n", report.MonthsFixed)
	fmt.Printf("  Escapes:  %d resolved\n", report.EscapesFixed)
	fmt.Printf("  Removed:  %d url, %d file, %d annote, %d abstract\n",
		report.URLsRemoved, report.FilesRemoved, report.AnnotesRemoved, report.AbstractsRemoved)
	if report.ISSNsRenamed > 0 {
		fmt.Printf("  ISSNs:    %d renamed to year\n", report.ISSNsRenamed)
	}
	if report.Unterminated {
		fmt.Println("  Warning: a trailing entry never terminates and was dropped")
	}
}
