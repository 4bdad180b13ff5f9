// RuleHub: rule-and-template retrieval MCP server.
//
// Stores declarative content rules and prompt templates, answers
// context queries with ranked results, and synthesizes validation
// prompts for external LLMs.
//
// Usage:
//
//	rulehub serve              # Start MCP server (stdio transport)
//	rulehub import <path>      # Import rules/templates into the corpus dirs
//	rulehub search [query]     # Search the corpus from the command line
//	rulehub stats              # Print corpus statistics
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"rulehub/internal/config"
	"rulehub/internal/corpus"
	"rulehub/internal/importer"
	"rulehub/internal/match"
	"rulehub/internal/merge"
	"rulehub/internal/schema"
	rhserver "rulehub/internal/server"
	"rulehub/internal/stats"
)

var (
	configPath string

	// search flags
	searchLanguages    string
	searchDomains      string
	searchTags         string
	searchContentTypes string
	searchTypes        string
	searchLimit        int

	// import flags
	importPolicy string
)

var rootCmd = &cobra.Command{
	Use:          "rulehub",
	Short:        "Rule-and-template retrieval MCP server",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		s, cleanup, err := rhserver.New(cfg)
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		defer cleanup()

		// Graceful shutdown on interrupt. The stdio server manages its
		// own lifecycle; closing stdin ends it, signals just make sure
		// cleanup runs.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			cleanup()
			os.Exit(0)
		}()

		return server.ServeStdio(s)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import rules and templates from a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := merge.ParsePolicy(importPolicy)
		if err != nil {
			return err
		}

		store, err := loadStore()
		if err != nil {
			return err
		}

		loaded, err := importer.LoadPath(args[0])
		if err != nil {
			return err
		}
		for _, fe := range loaded.Errors {
			fmt.Fprintf(os.Stderr, "WARNING: %s: %s\n", fe.Path, fe.Err)
		}

		summary := merge.NewImporter(store).Import(loaded.Rules, loaded.Templates, policy)
		fmt.Printf("batch %s: created=%d updated=%d merged=%d rejected=%d failed=%d\n",
			summary.BatchID, summary.Created, summary.Updated, summary.Merged,
			summary.Rejected, summary.Failed)
		for _, o := range summary.Outcomes {
			if o.Error != "" {
				fmt.Printf("  %s%s: %s\n", o.RuleID, o.TemplateID, o.Error)
			}
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the corpus from the command line",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		store, err := loadStore()
		if err != nil {
			return err
		}

		q := schema.Query{
			Languages:    splitFlag(searchLanguages),
			Domains:      splitFlag(searchDomains),
			Tags:         splitFlag(searchTags),
			ContentTypes: splitFlag(searchContentTypes),
			RuleTypes:    splitFlag(searchTypes),
			Limit:        searchLimit,
		}
		if len(args) == 1 {
			q.Text = args[0]
		}

		results := match.NewEngine(store, cfg.Weights, cfg.MaxSearchResults).Search(q)
		if len(results) == 0 {
			fmt.Println("no rules matched")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%-14s %.2f  %s\n", r.Rule.RuleID, r.Score, r.Rule.Name)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print corpus statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore()
		if err != nil {
			return err
		}

		report := stats.Aggregate(store, schema.Query{})
		fmt.Printf("rules:     %d total, %d active\n", report.Total, report.ActiveCount)
		fmt.Printf("templates: %d\n", report.Templates)
		fmt.Printf("usage:     %d events, avg success rate %.2f\n",
			report.TotalUsage, report.AverageSuccessRate)
		printBreakdown("by language", report.ByLanguage)
		printBreakdown("by type", report.ByType)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rulehub v%s\n", rhserver.Version)
	},
}

// loadStore builds an in-memory corpus from the configured directories
// for the one-shot CLI commands.
func loadStore() (*corpus.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	store := corpus.New()
	im := merge.NewImporter(store)
	for _, dir := range []string{cfg.RulesDir, cfg.TemplatesDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		loaded, err := importer.LoadPath(dir)
		if err != nil {
			return nil, err
		}
		for _, fe := range loaded.Errors {
			fmt.Fprintf(os.Stderr, "WARNING: %s: %s\n", fe.Path, fe.Err)
		}
		im.Import(loaded.Rules, loaded.Templates, merge.PolicyMerge)
	}
	return store, nil
}

func splitFlag(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printBreakdown(title string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %s: %d\n", k, m[k])
	}
}

func main() {
	// Logs go to stderr; stdout belongs to the MCP transport in serve
	// mode and to command output otherwise.
	log.SetOutput(os.Stderr)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.rulehub/config.yaml)")

	importCmd.Flags().StringVar(&importPolicy, "policy", "", "conflict policy: reject, overwrite, merge (default merge)")

	searchCmd.Flags().StringVar(&searchLanguages, "languages", "", "comma-separated languages")
	searchCmd.Flags().StringVar(&searchDomains, "domains", "", "comma-separated domains")
	searchCmd.Flags().StringVar(&searchTags, "tags", "", "comma-separated tags")
	searchCmd.Flags().StringVar(&searchContentTypes, "content-types", "", "comma-separated content types")
	searchCmd.Flags().StringVar(&searchTypes, "rule-types", "", "comma-separated rule types")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results")

	rootCmd.AddCommand(serveCmd, importCmd, searchCmd, statsCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
