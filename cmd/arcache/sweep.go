package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsubute/arcache/internal/config"
)

// NewSweepCmd creates the sweep command.
func NewSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evict expired entries from the cache",
		Long: `Sweep removes every cache entry whose time-to-live has elapsed.

Expiry is never enforced in the background: entries outlive their TTL
until a sweep runs, either via this command or via "run --sweep".

Examples:
  # Sweep the default SQLite store
  arcache sweep

  # Sweep a Redis store
  arcache sweep --store redis --redis-addr localhost:6379`,
		Args: cobra.NoArgs,
		RunE: runSweepCmd,
	}

	cmd.Flags().StringP("store", "s", config.DefaultStoreBackend,
		"Cache store backend: sqlite, redis, or memory")
	cmd.Flags().String("redis-addr", config.DefaultRedisAddress,
		"Redis server address (host:port)")
	cmd.Flags().String("redis-password", "",
		"Redis AUTH password")
	cmd.Flags().Int("redis-db", 0,
		"Redis logical database number")
	cmd.Flags().String("db-dir", "",
		"SQLite database directory (default: XDG data directory)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .arcache in current or home directory)")

	return cmd
}

// runSweepCmd executes the sweep command.
func runSweepCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildStoreConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ctx := cmd.Context()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	evicted, err := st.Sweep(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d expired entries\n", evicted)
	return nil
}

// buildStoreConfig creates a Config with only the store options populated.
// Used by commands that touch the store but never fetch.
func buildStoreConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.New()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.Find(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cmd.Flags().Changed("store") {
		if cfg.StoreBackend, err = cmd.Flags().GetString("store"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("redis-addr") {
		if cfg.RedisAddress, err = cmd.Flags().GetString("redis-addr"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("redis-password") {
		if cfg.RedisPassword, err = cmd.Flags().GetString("redis-password"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("redis-db") {
		if cfg.RedisDB, err = cmd.Flags().GetInt("redis-db"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("db-dir") {
		if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	switch cfg.StoreBackend {
	case "redis", "sqlite", "memory":
	default:
		return nil, config.ErrUnknownBackend
	}

	return cfg, nil
}
