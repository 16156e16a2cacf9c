package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bibtools/bibfix/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  bibfix config                         # Show all config
  bibfix config input                   # Get specific value
  bibfix config input thesis.bib        # Set value
  bibfix config url-exceptions misc,unpublished

Keys:
  input              Default input bib-file
  output             Default output bib-file
  db                 Default index database path
  keep-annote        Keep annote fields (true/false)
  keep-abstract      Keep abstract fields (true/false)
  issn-year          Rename orphan issn fields to year (true/false)
  keep-all-urls      Treat every entry type as a URL exception (true/false)
  drop-url-with-doi  Remove the URL when the entry has a DOI (true/false)
  url-exceptions     Comma-separated entry types whose URL is kept`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse mirrors the full configuration as JSON.
type ConfigResponse struct {
	Input          string   `json:"input"`
	Output         string   `json:"output"`
	DB             string   `json:"db"`
	KeepAnnote     bool     `json:"keep_annote"`
	KeepAbstract   bool     `json:"keep_abstract"`
	ISSNAsYear     bool     `json:"issn_year"`
	KeepAllURLs    bool     `json:"keep_all_urls"`
	DropURLWithDOI bool     `json:"drop_url_with_doi"`
	URLExceptions  []string `json:"url_exceptions"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			fmt.Printf("input:              %s\n", cfg.Input)
			fmt.Printf("output:             %s\n", cfg.Output)
			fmt.Printf("db:                 %s\n", cfg.DB)
			fmt.Printf("keep-annote:        %v\n", cfg.KeepAnnote)
			fmt.Printf("keep-abstract:      %v\n", cfg.KeepAbstract)
			fmt.Printf("issn-year:          %v\n", cfg.ISSNAsYear)
			fmt.Printf("keep-all-urls:      %v\n", cfg.KeepAllURLs)
			fmt.Printf("drop-url-with-doi:  %v\n", cfg.DropURLWithDOI)
			fmt.Printf("url-exceptions:     %s\n", strings.Join(cfg.URLExceptions, ","))
		} else {
			outputJSON(configResponse(cfg))
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		value, ok := configValue(cfg, key)
		if !ok {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): value})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	if err := setConfigValue(cfg, key, value); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if err := cfg.Save(); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}

	return nil
}

func configResponse(cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		Input:          cfg.Input,
		Output:         cfg.Output,
		DB:             cfg.DB,
		KeepAnnote:     cfg.KeepAnnote,
		KeepAbstract:   cfg.KeepAbstract,
		ISSNAsYear:     cfg.ISSNAsYear,
		KeepAllURLs:    cfg.KeepAllURLs,
		DropURLWithDOI: cfg.DropURLWithDOI,
		URLExceptions:  cfg.URLExceptions,
	}
}

// configValue returns the string form of a config key's value.
func configValue(cfg *config.Config, key string) (string, bool) {
	switch key {
	case "input":
		return cfg.Input, true
	case "output":
		return cfg.Output, true
	case "db":
		return cfg.DB, true
	case "keep-annote":
		return strconv.FormatBool(cfg.KeepAnnote), true
	case "keep-abstract":
		return strconv.FormatBool(cfg.KeepAbstract), true
	case "issn-year":
		return strconv.FormatBool(cfg.ISSNAsYear), true
	case "keep-all-urls":
		return strconv.FormatBool(cfg.KeepAllURLs), true
	case "drop-url-with-doi":
		return strconv.FormatBool(cfg.DropURLWithDOI), true
	case "url-exceptions":
		return strings.Join(cfg.URLExceptions, ","), true
	}
	return "", false
}

// setConfigValue parses and applies a config update.
func setConfigValue(cfg *config.Config, key, value string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("value for %s must be true or false, got %q", key, value)
		}
		return b, nil
	}

	switch key {
	case "input":
		cfg.Input = value
	case "output":
		cfg.Output = value
	case "db":
		cfg.DB = value
	case "keep-annote":
		b, err := parseBool()
		if err != nil {
			return err
		}
		cfg.KeepAnnote = b
	case "keep-abstract":
		b, err := parseBool()
		if err != nil {
			return err
		}
		cfg.KeepAbstract = b
	case "issn-year":
		b, err := parseBool()
		if err != nil {
			return err
		}
		cfg.ISSNAsYear = b
	case "keep-all-urls":
		b, err := parseBool()
		if err != nil {
			return err
		}
		cfg.KeepAllURLs = b
	case "drop-url-with-doi":
		b, err := parseBool()
		if err != nil {
			return err
		}
		cfg.DropURLWithDOI = b
	case "url-exceptions":
		var types []string
		for _, t := range strings.Split(value, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
		cfg.URLExceptions = types
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// normalizeKey converts key formats (keep_annote, keep-annote) to a
// consistent form.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
