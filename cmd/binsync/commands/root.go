// Package commands implements CLI command handlers for binsync.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/binsync/binsync/pkg/config"
	"github.com/binsync/binsync/pkg/observability"
	"github.com/binsync/binsync/pkg/store"
)

// globalFlags holds the root command's persistent flags, threaded into
// every subcommand's RunE through loadRuntime.
type globalFlags struct {
	configPath string
	verbose    bool
	logLevel   string
}

// runtime bundles the collaborators every subcommand needs: parsed project
// config and an initialized logger. Subcommands that talk to the store
// additionally call connectClient.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
}

func loadRuntime(flags *globalFlags) (*runtime, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil && cfg == nil {
		return nil, fmt.Errorf("load config: %w", err)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (falling back to defaults)\n", err)

		cfg = &config.Config{
			MergeLevel:          config.MergeLevel(config.DefaultMergeLevel),
			LogLevel:            config.DefaultLogLevel,
			TableColoringWindow: config.DefaultTableColoringWindow,
			Store: config.StoreConfig{
				CacheSize:  config.DefaultStoreCacheSize,
				ReloadTime: config.DefaultStoreReloadTime,
			},
			Scheduler: config.SchedulerConfig{QueueCapacity: config.DefaultSchedulerQueueCap},
		}
	}

	logLevel := cfg.LogLevel
	if flags.logLevel != "" {
		logLevel = flags.logLevel
	}

	var level slog.Level
	if parseErr := level.UnmarshalText([]byte(logLevel)); parseErr != nil {
		level = slog.LevelInfo
	}

	if flags.verbose {
		level = slog.LevelDebug
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.LogLevel = level

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &runtime{cfg: cfg, logger: providers.Logger}, nil
}

// connectClient resolves a store.Client for path, surfacing any init
// warnings through the runtime logger rather than discarding them.
func connectClient(rt *runtime, path, user, fingerprint, remoteURL string, initEmpty bool) (*store.Client, error) {
	client, warnings, err := store.Connect(path, user, fingerprint, remoteURL, initEmpty, store.Config{
		CacheSize: rt.cfg.Store.CacheSize,
		Logger:    rt.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	for _, w := range warnings {
		rt.logger.Warn("connect", "warning", w)
	}

	return client, nil
}

// NewRootCommand builds the binsync CLI's root command and every
// subcommand. Per spec.md §1 this layer is deliberately thin: each
// subcommand resolves flags/config, constructs a Client or Controller,
// calls the corresponding method, and prints the result.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "binsync",
		Short: "BinSync - multi-user reverse-engineering synchronization",
		Long: `BinSync synchronizes decompiler artifacts (functions, structs,
comments, patches, globals, enums) across users sharing a binary,
through a versioned git-backed store.

Commands:
  connect      Bind a project directory to a store, creating it if needed
  status       Report the local store's connection state
  users        List every user with a branch in the store
  push         Push one artifact read from the decompiler into the store
  fill         Merge a remote artifact into the local master state
  force-push   Bulk-push a set of artifacts read live from the decompiler
  magic-fill   Converge every connected user's state into the local one`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a binsync.yaml config file")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose (debug-level) logging")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(newConnectCommand(flags))
	root.AddCommand(newStatusCommand(flags))
	root.AddCommand(newUsersCommand(flags))
	root.AddCommand(newPushCommand(flags))
	root.AddCommand(newFillCommand(flags))
	root.AddCommand(newForcePushCommand(flags))
	root.AddCommand(newMagicFillCommand(flags))
	root.AddCommand(newVersionCommand())

	return root
}

// mergeLevelFlag parses a --merge-level string into a config.MergeLevel,
// defaulting to the configured project default when raw is empty.
func mergeLevelFlag(raw string, cfg *config.Config) config.MergeLevel {
	if raw == "" {
		return cfg.MergeLevel
	}

	return config.MergeLevel(strings.TrimSpace(raw))
}
