package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tsubute/arcache/internal/config"
	"github.com/tsubute/arcache/internal/fetch"
	"github.com/tsubute/arcache/internal/model"
)

// NewDiscoverCmd creates the discover command.
func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover <index-url>",
		Short: "List archive links found on an HTML index page",
		Long: `Discover fetches an HTML page and lists every archive link it finds.

This is useful against directory listings or release pages: pipe the
output into a configuration file and ingest the whole set with "run".

Examples:
  # List archive URLs on a directory index
  arcache discover https://example.com/exports/

  # Emit a YAML archives block ready for .arcache
  arcache discover --yaml https://example.com/exports/`,
		Args: cobra.ExactArgs(1),
		RunE: runDiscoverCmd,
	}

	cmd.Flags().BoolP("yaml", "y", false,
		"Output a YAML archives block instead of plain URLs")
	cmd.Flags().DurationP("timeout", "t", config.DefaultAttemptTimeout,
		"Timeout for the index page fetch")

	return cmd
}

// runDiscoverCmd executes the discover command.
func runDiscoverCmd(cmd *cobra.Command, args []string) error {
	asYAML, err := cmd.Flags().GetBool("yaml")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	fetcher := fetch.New(
		fetch.WithAttemptTimeout(timeout),
		fetch.WithUserAgent(config.DefaultUserAgent),
		fetch.WithLogger(logger),
	)

	descriptors, err := fetcher.Discover(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if len(descriptors) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No archive links found")
		return nil
	}

	if asYAML {
		return writeDiscoveredYAML(cmd, descriptors)
	}

	for _, d := range descriptors {
		fmt.Fprintln(cmd.OutOrStdout(), d.URL)
	}
	return nil
}

// writeDiscoveredYAML emits the descriptors as a YAML archives block
// suitable for pasting into an .arcache configuration file.
func writeDiscoveredYAML(cmd *cobra.Command, descriptors []model.Descriptor) error {
	block := struct {
		Archives []model.Descriptor `yaml:"archives"`
	}{Archives: descriptors}

	data, err := yaml.Marshal(block)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
