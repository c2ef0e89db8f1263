// Package artifact defines the BinSync artifact sum type: the ten kinds of
// reverse-engineering fact (functions, comments, structs, ...) that flow
// between a decompiler and the synchronized store.
//
// Dispatch over the variants is a compile-time tagged union: every variant
// implements Artifact through an unexported marker method, the same way
// gitlib.WorkerRequest closes a fixed set of request types over one
// interface. Callers type-switch on the concrete type rather than reflecting
// over field names.
package artifact

import "time"

// Kind tags a variant of Artifact. It is also the key used to look up the
// per-kind setter/getter in a State's containers.
type Kind string

// The ten Artifact variants.
const (
	KindFunction         Kind = "function"
	KindFunctionHeader   Kind = "function_header"
	KindStackVariable    Kind = "stack_variable"
	KindFunctionArgument Kind = "function_argument"
	KindComment          Kind = "comment"
	KindGlobalVariable   Kind = "global_variable"
	KindStruct           Kind = "struct"
	KindStructMember     Kind = "struct_member"
	KindEnum             Kind = "enum"
	KindPatch            Kind = "patch"
)

// Artifact is implemented by every variant in the sum type. Copy, Equal, and
// NonConflictMerge all operate structurally and ignore LastChange, per the
// "null last_change is a semantic flag, not a fresh edit" design note.
type Artifact interface {
	isArtifact()

	// Kind reports which variant this value is.
	Kind() Kind

	// Key returns the canonical identifier this artifact is stored under
	// (a hex address, a name, an offset-derived string, ...).
	Key() string

	// Copy returns a deep copy.
	Copy() Artifact

	// Equal reports structural equality, ignoring LastChange.
	Equal(other Artifact) bool
}

// MergeOptions tunes NonConflictMerge. Both fields default to false (merge
// everything); set a field true to skip that sub-tree, used by the
// controller's struct filler to break circular struct references by
// importing headers before members.
type MergeOptions struct {
	// SkipHeader omits FunctionHeader from a Function merge.
	SkipHeader bool
	// SkipMembers omits the members map from a Struct merge.
	SkipMembers bool
}

// mergeString returns a if it is non-empty, else b. Mirrors the
// "b only fills a field a leaves empty" rule for string-valued fields.
func mergeString(a, b string) string {
	if a != "" {
		return a
	}

	return b
}

// mergeUint64 returns a if it is non-zero, else b.
func mergeUint64(a, b uint64) uint64 {
	if a != 0 {
		return a
	}

	return b
}

func copyTimestamp(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	cp := *t

	return &cp
}
