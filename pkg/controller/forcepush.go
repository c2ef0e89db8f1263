package controller

import (
	"context"
	"fmt"

	"github.com/binsync/binsync/pkg/artifact"
)

// ForcePushTarget names one artifact to force-push: an address for
// Function/FunctionHeader/StackVariable/Comment/GlobalVariable/Patch, or a
// name for Struct/Enum.
type ForcePushTarget struct {
	Kind artifact.Kind
	Addr uint64
	Name string
}

// ForcePush bulk-pushes targets read live from the decompiler (not from
// State, since the point is to publish whatever the decompiler currently
// holds), one blocking push_artifact call per target, reporting progress
// through the progress-bar collaborator. The pushes run in order on the
// caller's goroutine; none is queued on the push scheduler. A target the
// decompiler has nothing for is skipped, not an error.
func (c *Controller) ForcePush(ctx context.Context, targets []ForcePushTarget, gui bool) error {
	var firstErr error

	run := func(i int) {
		a, ok := c.resolveFromDecompiler(targets[i])
		if !ok {
			return
		}

		if _, err := c.PushArtifact(ctx, a, PushOptions{Blocking: true}); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("force_push: %s: %w", targets[i].Kind, err)
		}
	}

	if c.progress != nil {
		c.progress.Run(len(targets), "Force pushing", gui, run)
	} else {
		for i := range targets {
			run(i)
		}
	}

	return firstErr
}

// resolveFromDecompiler reads t's current value straight from the
// decompiler collaborator.
func (c *Controller) resolveFromDecompiler(t ForcePushTarget) (artifact.Artifact, bool) {
	switch t.Kind {
	case artifact.KindFunction:
		return c.decompiler.Function(t.Addr)

	case artifact.KindFunctionHeader:
		f, ok := c.decompiler.Function(t.Addr)
		if !ok || f.Header == nil {
			return nil, false
		}

		return *f.Header, true

	case artifact.KindStackVariable:
		// Not independently addressable from the decompiler interface by
		// (addr, offset) alone without a richer target; force-push treats
		// stack variables as part of their owning Function.
		return c.decompiler.Function(t.Addr)

	case artifact.KindComment:
		return c.decompiler.Comment(t.Addr)

	case artifact.KindGlobalVariable:
		return c.decompiler.GlobalVariable(t.Addr)

	case artifact.KindStruct:
		return c.decompiler.Struct(t.Name)

	case artifact.KindEnum:
		return c.decompiler.Enum(t.Name)

	case artifact.KindPatch:
		return c.decompiler.Patch(t.Addr)

	default:
		return nil, false
	}
}
