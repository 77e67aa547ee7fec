// Package main provides the entry point for the arcache CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for arcache.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arcache",
		Short: "Fetch, extract, and cache remote archives",
		Long: `arcache ingests remote archives into a content-addressed cache.

It downloads each archive over HTTP, extracts the entries, and stores
every entry under a key derived from its payload digest. Entries that
are already cached are skipped, so repeated runs over the same inputs
are cheap and idempotent.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewDiscoverCmd())
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
