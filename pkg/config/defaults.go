// Package config provides YAML-based project configuration for BinSync.
package config

import (
	"time"

	"github.com/binsync/binsync/pkg/pipeline"
)

// Exported default values, re-stated here (rather than referencing the
// unexported package-level defaults directly) so the descriptor table below
// and the CLI's fallback configuration share one source for them.
const (
	DefaultMergeLevel          = string(MergeNonConflicting)
	DefaultLogLevel            = "info"
	DefaultStoreCacheSize      = 32
	DefaultSchedulerQueueCap   = 256
	DefaultTableColoringWindow = 5 * time.Minute
	DefaultStoreReloadTime     = 10 * time.Second
)

// Options describes every ProjectConfig field, with a flag name, help text
// and default, in the same table-driven style as a pipeline item's
// configuration options. No command in cmd/binsync reads this table; the
// CLI registers its flags by hand.
func Options() []pipeline.ConfigurationOption {
	return []pipeline.ConfigurationOption{
		{
			Name:        "merge_level",
			Flag:        "merge-level",
			Description: "Merge strategy for fill_artifact: overwrite, non_conflicting, or merge.",
			Type:        pipeline.StringConfigurationOption,
			Default:     DefaultMergeLevel,
		},
		{
			Name:        "log_level",
			Flag:        "log-level",
			Description: "Minimum log severity: debug or info.",
			Type:        pipeline.StringConfigurationOption,
			Default:     DefaultLogLevel,
		},
		{
			Name:        "table_coloring_window",
			Flag:        "table-coloring-window",
			Description: "How long a recently-synced row stays highlighted in the UI table.",
			Type:        pipeline.StringConfigurationOption,
			Default:     DefaultTableColoringWindow.String(),
		},
		{
			Name:        "store.cache_size",
			Flag:        "store-cache-size",
			Description: "Maximum (branch, commit) -> State entries kept in the client's LRU cache.",
			Type:        pipeline.IntConfigurationOption,
			Default:     DefaultStoreCacheSize,
		},
		{
			Name:        "store.reload_time",
			Flag:        "store-reload-time",
			Description: "Interval at which the updater routine polls the remote for new commits.",
			Type:        pipeline.StringConfigurationOption,
			Default:     DefaultStoreReloadTime.String(),
		},
		{
			Name:        "store.remote_url",
			Flag:        "store-remote-url",
			Description: "Git remote the client pushes to and fetches from.",
			Type:        pipeline.StringConfigurationOption,
			Default:     "",
		},
		{
			Name:        "scheduler.queue_capacity",
			Flag:        "scheduler-queue-capacity",
			Description: "Pending-job capacity per priority tier; validated as positive but not applied to the schedulers, whose queues are unbounded.",
			Type:        pipeline.IntConfigurationOption,
			Default:     DefaultSchedulerQueueCap,
		},
	}
}
