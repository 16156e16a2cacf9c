package main

import (
	"fmt"
	"os"

	"github.com/bibtools/bibfix/internal/bibtex"
	"github.com/bibtools/bibfix/internal/config"
	"github.com/bibtools/bibfix/internal/pdf"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(pdfdoiCmd)
}

var pdfdoiCmd = &cobra.Command{
	Use:   "pdfdoi [input.bib]",
	Short: "Recover DOIs from the PDFs of entries that lack one",
	Long: `Recover DOIs from the PDFs of entries that lack one.

For every entry that has a file field but no doi field, the referenced
PDF is opened and its first pages are searched for a DOI. Results are
reported only; the bib-file is not edited. Run this before fix, which
removes the file fields.

Usage:
  bibfix pdfdoi
  bibfix pdfdoi thesis.bib --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPDFDOI,
}

// PDFDOIResult describes one checked entry.
type PDFDOIResult struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	DOI   string `json:"doi,omitempty"`
	Error string `json:"error,omitempty"`
}

// PDFDOIResponse is the JSON result of a pdfdoi run.
type PDFDOIResponse struct {
	Input   string         `json:"input"`
	Checked int            `json:"checked"`
	Found   int            `json:"found"`
	Results []PDFDOIResult `json:"results"`
}

func runPDFDOI(cmd *cobra.Command, args []string) error {
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

	entries, _ := bibtex.Segment(string(data))

	var results []PDFDOIResult
	found := 0
	for _, e := range entries {
		if bibtex.FieldValue(e.Raw, "doi") != "" {
			continue
		}
		key := bibtex.EntryKey(e.Raw)
		for _, path := range bibtex.FilePaths(e.Raw) {
			result := PDFDOIResult{Key: key, Path: path}
			doi, err := pdf.ExtractDOI(path)
			switch {
			case err != nil:
				result.Error = err.Error()
			case doi != "":
				result.DOI = doi
				found++
			}
			results = append(results, result)
		}
	}

	if humanOutput {
		for _, r := range results {
			switch {
			case r.Error != "":
				fmt.Printf("%s: %s (%s)\n", r.Key, r.Error, r.Path)
			case r.DOI != "":
				fmt.Printf("%s: %s\n", r.Key, r.DOI)
			default:
				fmt.Printf("%s: no DOI found in %s\n", r.Key, r.Path)
			}
		}
		fmt.Printf("Checked %d PDFs, found %d DOIs\n", len(results), found)
	} else {
		outputJSON(PDFDOIResponse{
			Input:   inputName,
			Checked: len(results),
			Found:   found,
			Results: results,
		})
	}

	return nil
}
