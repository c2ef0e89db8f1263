// Package config provides configuration loading and validation for BinSync.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidMergeLevel     = errors.New("invalid merge level")
	ErrInvalidLogLevel       = errors.New("invalid log level")
	ErrInvalidCacheSize      = errors.New("store cache size must be positive")
	ErrInvalidReloadTime     = errors.New("store reload time must be positive")
	ErrInvalidQueueCapacity  = errors.New("scheduler queue capacity must be positive")
	ErrInvalidColoringWindow = errors.New("table coloring window must be positive")
)

// MergeLevel controls how fill_artifact reconciles a remote artifact against
// the local master state.
type MergeLevel string

const (
	// MergeOverwrite always takes the incoming artifact verbatim.
	MergeOverwrite MergeLevel = "overwrite"
	// MergeNonConflicting fills only empty local fields from the incoming artifact.
	MergeNonConflicting MergeLevel = "non_conflicting"
	// MergeInteractive requests a 3-way interactive merge; unimplemented,
	// falls back to MergeNonConflicting with a warning.
	MergeInteractive MergeLevel = "merge"
)

// Default configuration values.
const (
	defaultMergeLevel          = MergeNonConflicting
	defaultLogLevel            = "info"
	defaultTableColoringWindow = 5 * time.Minute
	defaultStoreCacheSize      = 32
	defaultStoreReloadTime     = 10 * time.Second
	defaultQueueCapacity       = 256
)

// Config holds all configuration for a BinSync project.
type Config struct {
	MergeLevel          MergeLevel      `mapstructure:"merge_level"`
	LogLevel            string          `mapstructure:"log_level"`
	TableColoringWindow time.Duration   `mapstructure:"table_coloring_window"`
	Store               StoreConfig     `mapstructure:"store"`
	Scheduler           SchedulerConfig `mapstructure:"scheduler"`
}

// StoreConfig holds client/store-specific configuration.
type StoreConfig struct {
	// CacheSize bounds the number of (branch, commit) -> State entries kept
	// in the client's LRU cache.
	CacheSize int `mapstructure:"cache_size"`

	// ReloadTime is the interval the updater routine polls the remote for
	// new user branches and commits.
	ReloadTime time.Duration `mapstructure:"reload_time"`

	// RemoteURL is the git remote the client pushes to and fetches from.
	RemoteURL string `mapstructure:"remote_url"`
}

// SchedulerConfig holds job-scheduler configuration.
type SchedulerConfig struct {
	// QueueCapacity must be positive. No scheduler reads it: scheduler.New
	// takes no capacity, its queue grows without bound, and schedule_job
	// never blocks.
	QueueCapacity int `mapstructure:"queue_capacity"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("binsync")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./.binsync")
		viperCfg.AddConfigPath("/etc/binsync")
	}

	viperCfg.SetEnvPrefix("BINSYNC")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	if validateErr := validateConfig(&cfg); validateErr != nil {
		return &cfg, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("merge_level", string(defaultMergeLevel))
	viperCfg.SetDefault("log_level", defaultLogLevel)
	viperCfg.SetDefault("table_coloring_window", defaultTableColoringWindow.String())

	viperCfg.SetDefault("store.cache_size", defaultStoreCacheSize)
	viperCfg.SetDefault("store.reload_time", defaultStoreReloadTime.String())
	viperCfg.SetDefault("store.remote_url", "")

	viperCfg.SetDefault("scheduler.queue_capacity", defaultQueueCapacity)
}

// validateConfig validates the configuration. On failure LoadConfig still
// returns the unmarshalled config alongside the error; the CLI then replaces
// it with the default configuration and prints a warning rather than exiting.
func validateConfig(cfg *Config) error {
	switch cfg.MergeLevel {
	case MergeOverwrite, MergeNonConflicting, MergeInteractive:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMergeLevel, cfg.MergeLevel)
	}

	switch cfg.LogLevel {
	case "debug", "info":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}

	if cfg.TableColoringWindow <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidColoringWindow, cfg.TableColoringWindow)
	}

	if cfg.Store.CacheSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, cfg.Store.CacheSize)
	}

	if cfg.Store.ReloadTime <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidReloadTime, cfg.Store.ReloadTime)
	}

	if cfg.Scheduler.QueueCapacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQueueCapacity, cfg.Scheduler.QueueCapacity)
	}

	return nil
}
