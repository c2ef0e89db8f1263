package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricPushesTotal     = "binsync.sync.pushes.total"
	metricFillsTotal      = "binsync.sync.fills.total"
	metricConflictsTotal  = "binsync.sync.conflicts.total"
	metricSyncDuration    = "binsync.sync.operation.duration.seconds"
	metricJobsQueuedTotal = "binsync.scheduler.jobs.queued.total"
	metricCacheHitsTotal  = "binsync.state.cache.hits.total"
	metricCacheMissTotal  = "binsync.state.cache.misses.total"

	attrArtifactKind = "artifact_kind"
	attrOperation    = "operation"
)

// SyncMetrics holds OTel instruments for BinSync sync-engine metrics.
type SyncMetrics struct {
	pushesTotal    metric.Int64Counter
	fillsTotal     metric.Int64Counter
	conflictsTotal metric.Int64Counter
	syncDuration   metric.Float64Histogram
	jobsQueued     metric.Int64Counter
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
}

// SyncStats holds the statistics for a single controller operation
// (push, fill, or magic fill), decoupled from controller internals.
type SyncStats struct {
	Operation       string
	ArtifactKind    string
	Pushed          int64
	Filled          int64
	Conflicts       int64
	Duration        time.Duration
	StateCacheHits  int64
	StateCacheMiss  int64
}

// NewSyncMetrics creates sync metric instruments from the given meter.
func NewSyncMetrics(mt metric.Meter) (*SyncMetrics, error) {
	pushes, err := mt.Int64Counter(metricPushesTotal,
		metric.WithDescription("Total artifacts pushed to a user branch"),
		metric.WithUnit("{artifact}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPushesTotal, err)
	}

	fills, err := mt.Int64Counter(metricFillsTotal,
		metric.WithDescription("Total artifacts filled into a client's native view"),
		metric.WithUnit("{artifact}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFillsTotal, err)
	}

	conflicts, err := mt.Int64Counter(metricConflictsTotal,
		metric.WithDescription("Total artifact merges resolved as conflicts"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricConflictsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricSyncDuration,
		metric.WithDescription("Duration of a push, fill, or magic-fill operation in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSyncDuration, err)
	}

	queued, err := mt.Int64Counter(metricJobsQueuedTotal,
		metric.WithDescription("Total jobs queued on the scheduler, by priority"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricJobsQueuedTotal, err)
	}

	hits, err := mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("State cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricCacheMissTotal,
		metric.WithDescription("State cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMissTotal, err)
	}

	return &SyncMetrics{
		pushesTotal:    pushes,
		fillsTotal:     fills,
		conflictsTotal: conflicts,
		syncDuration:   duration,
		jobsQueued:     queued,
		cacheHits:      hits,
		cacheMisses:    misses,
	}, nil
}

// RecordOperation records statistics for a completed controller operation.
// Safe to call on a nil receiver (no-op).
func (sm *SyncMetrics) RecordOperation(ctx context.Context, stats SyncStats) {
	if sm == nil {
		return
	}

	opAttrs := metric.WithAttributes(
		attribute.String(attrOperation, stats.Operation),
		attribute.String(attrArtifactKind, stats.ArtifactKind),
	)

	sm.pushesTotal.Add(ctx, stats.Pushed, opAttrs)
	sm.fillsTotal.Add(ctx, stats.Filled, opAttrs)
	sm.conflictsTotal.Add(ctx, stats.Conflicts, opAttrs)
	sm.syncDuration.Record(ctx, stats.Duration.Seconds(), opAttrs)
	sm.cacheHits.Add(ctx, stats.StateCacheHits)
	sm.cacheMisses.Add(ctx, stats.StateCacheMiss)
}

// RecordJobQueued increments the queued-job counter for the given priority label.
func (sm *SyncMetrics) RecordJobQueued(ctx context.Context, priority string) {
	if sm == nil {
		return
	}

	sm.jobsQueued.Add(ctx, 1, metric.WithAttributes(attribute.String("priority", priority)))
}
