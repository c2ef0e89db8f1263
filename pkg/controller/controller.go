// Package controller implements the merge/fill/push pipeline: the layer
// that sits between a decompiler's own artifact containers and a
// versioned store.Client, translating artifact-write callbacks into
// commits and remote state into decompiler writes.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/binsync/binsync/pkg/config"
	"github.com/binsync/binsync/pkg/gitlib"
	"github.com/binsync/binsync/pkg/observability"
	"github.com/binsync/binsync/pkg/scheduler"
	"github.com/binsync/binsync/pkg/state"
	"github.com/binsync/binsync/pkg/store"
)

// Controller owns one user's connection to the store plus the two
// schedulers named in the concurrency model: a push scheduler (decompiler
// callback -> commit) and a UI-update scheduler (remote state -> UI
// refresh). The store's own internal scheduler, used for get_state/users
// reads, is a third, separate instance owned by store.Client.
type Controller struct {
	client *store.Client

	decompiler DecompilerInterface
	progress   ProgressBar

	master   *state.State
	masterMu sync.Mutex

	mergeLevel config.MergeLevel
	autoCommit bool
	autoPush   bool
	reloadTime time.Duration

	pushSched *scheduler.Scheduler
	uiSched   *scheduler.Scheduler

	// syncMu is the sync-lock of spec.md §5: held for the duration of
	// fill_artifact's decompiler-write section. Non-reentrant by
	// construction — discover_and_import_user_defined_types writes structs
	// directly rather than recursing back into FillArtifact, so no call
	// path ever needs to re-acquire it.
	syncMu sync.Mutex

	uiCallback            func(map[string]*state.State)
	contextChangeCallback func(map[string]*state.State)

	logger  *slog.Logger
	metrics *observability.SyncMetrics

	stop    chan struct{}
	stopped chan struct{}
}

// Options bundles the collaborators and policy knobs New needs.
type Options struct {
	Client     *store.Client
	Decompiler DecompilerInterface
	Progress   ProgressBar

	MergeLevel config.MergeLevel
	AutoCommit bool
	AutoPush   bool
	ReloadTime time.Duration

	Logger  *slog.Logger
	Metrics *observability.SyncMetrics
}

// New builds a Controller around an already-connected store.Client and
// starts its push and UI-update worker threads. Call Close to stop them.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reloadTime := opts.ReloadTime
	if reloadTime <= 0 {
		reloadTime = 10 * time.Second
	}

	mergeLevel := opts.MergeLevel
	if mergeLevel == "" {
		mergeLevel = config.MergeNonConflicting
	}

	c := &Controller{
		client:     opts.Client,
		decompiler: opts.Decompiler,
		progress:   opts.Progress,
		mergeLevel: mergeLevel,
		autoCommit: opts.AutoCommit,
		autoPush:   opts.AutoPush,
		reloadTime: reloadTime,
		pushSched:  scheduler.New(),
		uiSched:    scheduler.New(),
		logger:     logger,
		metrics:    opts.Metrics,
	}

	c.pushSched.StartWorkerThread()
	c.uiSched.StartWorkerThread()
	c.StartUpdater()

	return c
}

// Close stops both worker threads and the underlying Client.
func (c *Controller) Close() {
	c.StopUpdater()
	c.pushSched.StopWorkerThread()
	c.uiSched.StopWorkerThread()
	c.client.Close()
}

// Status reports the underlying Client's connection state.
func (c *Controller) Status() store.Status {
	return c.client.Status()
}

// SetUICallback installs fn as the UI-update slot, called from the
// UI-update worker with every known user's State whenever the updater
// routine observes remote changes.
func (c *Controller) SetUICallback(fn func(map[string]*state.State)) {
	c.uiCallback = fn
}

// SetContextChangeCallback installs fn as the context-change slot.
func (c *Controller) SetContextChangeCallback(fn func(map[string]*state.State)) {
	c.contextChangeCallback = fn
}

// masterState returns the local user's in-memory State, guarded against
// concurrent access from the push worker and the updater thread.
func (c *Controller) masterState(ctx context.Context) (*state.State, error) {
	c.masterMu.Lock()
	defer c.masterMu.Unlock()

	if c.master != nil {
		return c.master, nil
	}

	s, err := c.client.GetState(ctx, "", gitlib.ZeroHash(), scheduler.Fast, false)
	if err != nil {
		return nil, err
	}

	c.master = s

	return c.master, nil
}
