package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/observability"
	"github.com/binsync/binsync/pkg/scheduler"
	"github.com/binsync/binsync/pkg/state"
	"github.com/binsync/binsync/pkg/syncerr"
)

// PushOptions tunes PushArtifact. A nil SetLastChange or MakeFunc means the
// spec default of true; CommitMsg empty means an auto-generated message.
type PushOptions struct {
	TargetState   *state.State
	CommitMsg     string
	SetLastChange *bool
	MakeFunc      *bool
	Blocking      bool
}

func boolDefault(p *bool, def bool) bool {
	if p == nil {
		return def
	}

	return *p
}

// PushArtifact is the decompiler -> store push path. It rejects a nil
// artifact, looks up the one State setter the concrete variant maps to
// (logging and returning false for an unsupported kind rather than
// failing), resolves a containing placeholder Function for a Comment whose
// address the decompiler reports as falling inside a function the target
// State doesn't know about yet, calls the setter, and — only if the setter
// actually changed something — schedules a commit on the push worker.
func (c *Controller) PushArtifact(ctx context.Context, a artifact.Artifact, opts PushOptions) (bool, error) {
	if a == nil {
		c.logger.Info("push_artifact: nil artifact")

		return false, nil
	}

	target := opts.TargetState
	if target == nil {
		var err error

		target, err = c.masterState(ctx)
		if err != nil {
			return false, fmt.Errorf("push_artifact: resolve target state: %w", err)
		}
	}

	makeFunc := boolDefault(opts.MakeFunc, true)
	setLastChange := boolDefault(opts.SetLastChange, true)

	if comment, ok := a.(artifact.Comment); ok && makeFunc {
		if err := c.ensureContainingFunction(target, comment.Addr); err != nil {
			return false, err
		}
	}

	changed, err := c.pushOne(target, a, setLastChange, opts.CommitMsg, opts.Blocking)
	if err != nil {
		return false, err
	}

	return changed, nil
}

// schedulePush runs (or schedules) a PushArtifact call for a, the way
// fill_artifact hands its merged result back to the push path. Like
// scheduleCommit, a blocking call runs inline rather than through
// ScheduleAndWaitJob, since FillArtifact may already be executing as a job
// on this scheduler.
func (c *Controller) schedulePush(target *state.State, a artifact.Artifact, opts PushOptions) {
	opts.TargetState = target

	run := func() {
		if _, err := c.PushArtifact(context.Background(), a, opts); err != nil {
			c.logger.Warn("fill_artifact: push failed", "error", err)
		}
	}

	if opts.Blocking {
		run()

		return
	}

	if err := c.pushSched.ScheduleJob(func() (any, error) { run(); return nil, nil }, scheduler.Fast); err != nil {
		c.logger.Warn("fill_artifact: schedule push failed", "error", err)
	}
}

// ensureContainingFunction pushes a placeholder Function at addr, sized per
// the decompiler's own notion of that function's extent, if addr already
// falls within a function the decompiler knows about but target doesn't yet.
func (c *Controller) ensureContainingFunction(target *state.State, addr uint64) error {
	if _, exists := target.FindFuncForAddr(addr); exists {
		return nil
	}

	size, hasSize := c.decompiler.FuncSizeAt(addr)
	if !hasSize {
		return nil
	}

	if _, err := c.pushOne(target, artifact.Function{Addr: addr, Size: size}, true, "", false); err != nil {
		return err
	}

	return nil
}

func (c *Controller) pushOne(target *state.State, a artifact.Artifact, stamp bool, commitMsg string, blocking bool) (bool, error) {
	var (
		result state.SetResult
		err    error
	)

	if stamp {
		result, err = setArtifact(target, a)
	} else {
		result, err = setArtifactPreserveLastChange(target, a)
	}

	if err != nil {
		if errors.Is(err, syncerr.ErrUnsupportedArtifact) {
			c.logger.Info("push_artifact: unsupported artifact", "kind", a.Kind(), "error", err)

			return false, nil
		}

		return false, fmt.Errorf("push_artifact: %w", err)
	}

	if result == state.Unchanged {
		return false, nil
	}

	msg := commitMsg
	if msg == "" {
		msg = fmt.Sprintf("Push %s %s", a.Kind(), a.Key())
	}

	c.scheduleCommit(target, msg, string(a.Kind()), blocking)

	return true, nil
}

// scheduleCommit runs (or schedules) a commit_state call. If auto-commit is
// disabled, it is a no-op — the edit already landed in target through the
// setter above, per spec.md §4.E's "push path" note.
//
// A blocking caller runs the commit inline rather than through
// ScheduleAndWaitJob: PushArtifact itself may already be executing as a job
// on this same single-worker scheduler (fill_artifact's push step schedules
// it there), and submit-and-wait from inside the worker that drains its own
// queue deadlocks. Running inline sidesteps that regardless of caller.
func (c *Controller) scheduleCommit(target *state.State, msg, artifactKind string, blocking bool) {
	if !c.autoCommit {
		return
	}

	commit := func() {
		if _, err := c.client.CommitState(target, msg); err != nil {
			c.logger.Warn("commit_state failed", "error", err)
		}

		c.metrics.RecordOperation(context.Background(), observability.SyncStats{
			Operation:    "push_artifact",
			ArtifactKind: artifactKind,
			Pushed:       1,
		})
	}

	if blocking {
		commit()

		return
	}

	if err := c.pushSched.ScheduleJob(func() (any, error) { commit(); return nil, nil }, scheduler.Fast); err != nil {
		c.logger.Warn("schedule commit_state failed", "error", err)
	}
}
