package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsubute/arcache/internal/config"
	"github.com/tsubute/arcache/internal/fetch"
	"github.com/tsubute/arcache/internal/log"
	"github.com/tsubute/arcache/internal/model"
	"github.com/tsubute/arcache/internal/pipeline"
	"github.com/tsubute/arcache/internal/report"
	"github.com/tsubute/arcache/internal/store"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [url...]",
		Short: "Fetch archives and ingest their entries into the cache",
		Long: `Run fetches each archive over HTTP, extracts its entries, and stores
every entry in the cache under a key derived from its payload digest.

Archives can be given as positional URLs, in the configuration file, or
both (positional arguments win). Failures are isolated per archive: one
bad descriptor never aborts the rest of the batch.

Examples:
  # Ingest a single archive
  arcache run https://example.com/data/2026-08.zip

  # Ingest several archives concurrently
  arcache run https://example.com/a.zip https://example.com/b.zip

  # Verify the download against a known digest
  arcache run --digest sha256:ab12... https://example.com/a.zip

  # Take the archive list from a configuration file
  arcache run -c batch.yaml

  # Output a JSON report
  arcache run --json https://example.com/a.zip

Configuration file (.arcache) example:
  workers: 4
  ttl: 72h
  store:
    backend: redis
    address: localhost:6379
  archives:
    - url: https://example.com/a.zip
      digest: sha256:ab12...
    - url: https://example.com/b.zip`,
		Args: cobra.ArbitraryArgs,
		RunE: runRunCmd,
	}

	// Batch behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrently processed archives")
	cmd.Flags().IntP("max-attempts", "a", config.DefaultMaxAttempts,
		"Fetch attempts per archive, including the first")
	cmd.Flags().DurationP("timeout", "t", config.DefaultAttemptTimeout,
		"Timeout for each fetch attempt")
	cmd.Flags().Duration("ttl", config.DefaultTTL,
		"Time-to-live for new cache entries (0 = never expire)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum archive download size in bytes")
	cmd.Flags().Int64("max-entry-size", config.DefaultMaxEntrySize,
		"Maximum declared uncompressed size of a single entry in bytes")
	cmd.Flags().Bool("allow-empty", false,
		"Treat archives with zero entries as success instead of failure")
	cmd.Flags().Bool("sweep", false,
		"Evict expired cache entries before the batch starts")
	cmd.Flags().StringP("digest", "d", "",
		"Expected archive digest (only valid with exactly one URL)")

	// Store flags
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

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .arcache in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	verbose := getVerboseFlag(cmd)
	cfg.Verbose = verbose
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runBatch(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and arguments.
// Precedence: flags > config file > built-in defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.New()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the config file first so explicit flags override it below.
	// If the user explicitly specified a path, a missing file is an error;
	// otherwise a missing file just means defaults.
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

	if cmd.Flags().Changed("workers") {
		if cfg.Workers, err = cmd.Flags().GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-attempts") {
		if cfg.MaxAttempts, err = cmd.Flags().GetInt("max-attempts"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timeout") {
		if cfg.AttemptTimeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("ttl") {
		if cfg.TTL, err = cmd.Flags().GetDuration("ttl"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-body-size") {
		if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-entry-size") {
		if cfg.MaxEntrySize, err = cmd.Flags().GetInt64("max-entry-size"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("allow-empty") {
		if cfg.AllowEmptyArchives, err = cmd.Flags().GetBool("allow-empty"); err != nil {
			return nil, err
		}
	}

	cfg.SweepBefore, err = cmd.Flags().GetBool("sweep")
	if err != nil {
		return nil, err
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

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	digest, err := cmd.Flags().GetString("digest")
	if err != nil {
		return nil, err
	}

	// Positional URLs override the config file's archive list.
	if len(args) > 0 {
		if digest != "" && len(args) != 1 {
			return nil, fmt.Errorf("--digest requires exactly one URL, got %d", len(args))
		}
		descriptors := make([]model.Descriptor, 0, len(args))
		for _, url := range args {
			descriptors = append(descriptors, model.Descriptor{
				URL:    url,
				Digest: digest,
			})
		}
		cfg.Descriptors = descriptors
	} else if digest != "" {
		return nil, fmt.Errorf("--digest requires a URL argument")
	}

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// All handlers are wrapped in a RedactHandler so credentials in URLs or
// headers never reach the log output.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := log.NewRedactHandler(slog.NewTextHandler(os.Stderr, opts))
	return slog.New(handler)
}

// openStore constructs the cache store selected by the configuration.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		return store.NewRedis(ctx, store.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case "memory":
		return store.NewMemory(), nil
	default:
		return store.NewSQLite(cfg.DBDir, store.DefaultSQLiteOptions())
	}
}

// runBatch executes the ingestion batch.
func runBatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting batch",
		"archives", len(cfg.Descriptors),
		"workers", cfg.Workers,
		"store", cfg.StoreBackend,
	)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	fetcher := fetch.New(
		fetch.WithMaxAttempts(cfg.MaxAttempts),
		fetch.WithAttemptTimeout(cfg.AttemptTimeout),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithLogger(logger),
		fetch.WithSink(log.NewSlogSink(logger)),
	)

	orch := pipeline.New(fetcher, st,
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithLogger(logger),
		pipeline.WithSink(log.NewSlogSink(logger)),
		pipeline.WithDefaultTTL(cfg.TTL),
		pipeline.WithMaxEntrySize(cfg.MaxEntrySize),
		pipeline.WithAllowEmptyArchives(cfg.AllowEmptyArchives),
		pipeline.WithSweepBefore(cfg.SweepBefore),
	)

	result, err := orch.Run(ctx, cfg.Descriptors)
	if err != nil {
		return err
	}

	if err := outputReport(cfg, result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d archives failed (%.0f%% of batch)",
			result.Failed, result.Total, result.FailureFraction()*100)
	}
	if result.Cancelled > 0 {
		return fmt.Errorf("batch cancelled: %d of %d archives never started",
			result.Cancelled, result.Total)
	}

	return nil
}

// outputReport writes the batch result in the requested format.
func outputReport(cfg *config.Config, result *model.Result) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	switch {
	case cfg.JSONReport:
		writer := report.NewJSONWriter(output, report.WithPrettyPrint())
		_, err := writer.Write(result)
		return err
	case cfg.MarkdownReport:
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(result)
		return err
	default:
		writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
		_, err := writer.Write(result)
		return err
	}
}
