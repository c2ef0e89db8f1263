package controller

import (
	"fmt"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/config"
	"github.com/binsync/binsync/pkg/syncerr"
)

// mergeArtifacts implements merge_artifacts(a, b, level): b==nil returns a
// copy of a; OVERWRITE, a==nil, or a structurally equal to b returns a copy
// of b; NON_CONFLICTING (and MERGE, which has no interactive implementation
// and falls back with a logged warning) returns a's NonConflictMerge with b.
func (c *Controller) mergeArtifacts(a, b artifact.Artifact, level config.MergeLevel) (artifact.Artifact, error) {
	if b == nil {
		if a == nil {
			return nil, nil
		}

		return a.Copy(), nil
	}

	if level == config.MergeInteractive {
		c.logger.Warn("merge_level MERGE has no interactive implementation, falling back to non_conflicting")

		level = config.MergeNonConflicting
	}

	if level == config.MergeOverwrite || a == nil || a.Equal(b) {
		return b.Copy(), nil
	}

	return nonConflictMerge(a, b)
}

// nonConflictMerge dispatches a.NonConflictMerge(b) by the concrete
// variant, since Artifact's NonConflictMerge is not part of the common
// interface (each variant's signature differs in its auxiliary fields).
func nonConflictMerge(a, b artifact.Artifact) (artifact.Artifact, error) {
	switch av := a.(type) {
	case artifact.Function:
		bv, ok := b.(artifact.Function)
		if !ok {
			return nil, mismatchErr(a, b)
		}

		return av.NonConflictMerge(bv, artifact.MergeOptions{}), nil

	case artifact.FunctionHeader:
		bv, ok := b.(artifact.FunctionHeader)
		if !ok {
			return nil, mismatchErr(a, b)
		}

		merged := artifact.NonConflictMergeHeader(&av, &bv)

		return *merged, nil

	case artifact.StackVariable:
		bv, ok := b.(artifact.StackVariable)
		if !ok {
			return nil, mismatchErr(a, b)
		}

		return av.NonConflictMerge(bv), nil

	case artifact.FunctionArgument:
		bv, ok := b.(artifact.FunctionArgument)
		if !ok {
			return nil, mismatchErr(a, b)
		}

		return av.NonConflictMerge(bv), nil

	case artifact.Comment:
		bv, ok := b.(artifact.Comment)
		if !ok {
			return nil, mismatchErr(a, b)
		}

		return av.NonConflictMerge(bv), nil

	case artifact.Struct:
		bv, ok := b.(artifact.Struct)
		if !ok {
			return nil, mismatchErr(a, b)
		}

		return av.NonConflictMerge(bv, artifact.MergeOptions{}), nil

	case artifact.StructMember:
		bv, ok := b.(artifact.StructMember)
		if !ok {
			return nil, mismatchErr(a, b)
		}

		return av.NonConflictMerge(bv), nil

	case artifact.GlobalVariable:
		bv, ok := b.(artifact.GlobalVariable)
		if !ok {
			return nil, mismatchErr(a, b)
		}

		return av.NonConflictMerge(bv), nil

	case artifact.Enum:
		bv, ok := b.(artifact.Enum)
		if !ok {
			return nil, mismatchErr(a, b)
		}

		return av.NonConflictMerge(bv), nil

	case artifact.Patch:
		bv, ok := b.(artifact.Patch)
		if !ok {
			return nil, mismatchErr(a, b)
		}

		return av.NonConflictMerge(bv), nil

	default:
		return nil, fmt.Errorf("%w: %T", syncerr.ErrUnsupportedArtifact, a)
	}
}

func mismatchErr(a, b artifact.Artifact) error {
	return fmt.Errorf("%w: merge %T with %T", syncerr.ErrUnsupportedArtifact, a, b)
}

// clearLastChange returns a copy of a with LastChange reset to nil. Used on
// every merged artifact before it is written anywhere: a merged-in artifact
// must never appear "newer" than an untouched local edit.
func clearLastChange(a artifact.Artifact) artifact.Artifact {
	switch v := a.(type) {
	case artifact.Function:
		v.LastChange = nil

		return v
	case artifact.FunctionHeader:
		v.LastChange = nil

		return v
	case artifact.StackVariable:
		v.LastChange = nil

		return v
	case artifact.Comment:
		v.LastChange = nil

		return v
	case artifact.Struct:
		v.LastChange = nil

		return v
	case artifact.GlobalVariable:
		v.LastChange = nil

		return v
	case artifact.Enum:
		v.LastChange = nil

		return v
	case artifact.Patch:
		v.LastChange = nil

		return v
	default:
		return a
	}
}
