// cmd/research-cli/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"business-research/internal/common/config"
	"business-research/internal/common/database"
	applogger "business-research/internal/common/logger"
	"business-research/internal/research"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	noCache    bool
	timeout    time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "research-cli",
	Short: "Resolve and research businesses from the command line",
	Long: `research-cli runs the business research engine outside of Camunda.

It resolves a business name and optional location to a canonical identity,
then gathers place details, website content and reviews. Results are written
to stdout as JSON; logs go to stderr.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = applogger.Build(applogger.Options{Level: level, Format: "console", Output: "stderr"})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file (default: configs/config.yaml lookup)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Skip the Redis resolution cache")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	registryCmd.AddCommand(registryValidateCmd)
	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryUpdateCmd)

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(registryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// buildService wires the research engine. The returned cleanup closes Redis
// when the cache is in use.
func buildService(ctx context.Context) (*research.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := applogger.NewZapAdapter(logger)

	if noCache || !cfg.Database.Redis.Enabled {
		service, err := research.NewFromConfig(ctx, cfg, nil, log)
		return service, func() {}, err
	}

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return nil, nil, err
	}
	if err := rdb.Ping(ctx); err != nil {
		_ = rdb.Close()
		logger.Warn("resolution cache unavailable, continuing without it", zap.Error(err))
		service, err := research.NewFromConfig(ctx, cfg, nil, log)
		return service, func() {}, err
	}

	service, err := research.NewFromConfig(ctx, cfg, rdb.Client, log)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return service, func() { _ = rdb.Close() }, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
