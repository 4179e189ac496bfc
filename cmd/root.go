package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agent-platform/tools/tzcompare/internal/config"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
	"github.com/agent-platform/tools/tzcompare/internal/store"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tzcompare",
	Short: "Compare the time across time zones side by side",
	Long: `tzcompare keeps a list of places and shows the time in each of them
next to your own, ordered by UTC offset and colored by the hour of day.
Scrub the home hour to see what time a meeting lands elsewhere.

Usage:
  tzcompare init            Create the configuration file
  tzcompare show            Live view of all locations
  tzcompare list            Print the locations once
  tzcompare add NAME LABEL  Add a location
  tzcompare note add REF    Annotate a location
  tzcompare settings        View or change display preferences
  tzcompare serve           Start the web dashboard
  tzcompare doctor          Check configuration and storage`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !verbose {
			log.SetFlags(0)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.tzcompare/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "timestamped logs, kept on stderr in the live view")
}

// loadConfig loads the config from cfgFile or the default path, creating it
// with defaults when missing.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrCreate(cfgFile)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openStore opens the configured database behind an async writer and loads
// the location store from it. The returned closer flushes pending writes.
func openStore(ctx context.Context, cfg *config.Config) (*locations.Store, func() error, error) {
	if store.DetectDialect(cfg.Database) == store.DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	kv, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	w := store.NewAsyncWriter(kv, time.Duration(cfg.FlushIntervalMS)*time.Millisecond)

	st, err := locations.Open(ctx, w, locations.WithHomeZone(cfg.HomeTimezone))
	if err != nil {
		w.Close()
		return nil, nil, err
	}
	return st, w.Close, nil
}

// withStore runs fn against the configured store and flushes afterwards.
func withStore(fn func(ctx context.Context, st *locations.Store) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	fnErr := fn(ctx, st)
	if err := closeStore(); err != nil && fnErr == nil {
		return fmt.Errorf("close database: %w", err)
	}
	return fnErr
}
