// Package main provides the entry point for the seolens CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for seolens.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seolens",
		Short: "SEO auditing tool for public websites",
		Long: `seolens is an SEO auditing tool for public websites.

It discovers a site's pages via its sitemap, fetches them with bounded
concurrency, analyzes each page for on-page SEO issues, and verifies the
reachability of internal links. Results are reported per page even when
individual fetches fail or the run deadline expires.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewHistoryCmd())
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
