// Package main provides the entry point for the goop CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for goop.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goop",
		Short: "Polite breadth-first web crawler and scraper",
		Long: `goop is a polite, bounded, breadth-first web crawler and scraper.
It honors robots.txt, rate-limits per host, and writes crawl reports
in JSON, CSV, Markdown, plain text, or as a plain list of links.

Completed crawls are recorded in a local history database so runs can
be listed and compared later.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("config", "",
		"Configuration file path (default: .goop in current, XDG config, or home directory)")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
