// Package main provides the bibfix CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibfix",
	Short: "Clean up bib-files exported by Mendeley Desktop",
	Long: `bibfix corrects the formatting quirks of bib-files generated by
Mendeley Desktop: double-braced titles, escaped braces, braced month
abbreviations, and unwanted url/file/annote/abstract fields. It can
also index a library into SQLite for quick queries and recover DOIs
from the PDFs a library points at.

All commands output JSON by default for easy scripting; pass --human
for readable text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Pick up BIBFIX_* overrides from a .env file if present.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
