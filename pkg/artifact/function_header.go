package artifact

import (
	"strconv"
	"time"
)

// FunctionHeader is a function's name, return type, and argument list. A
// FunctionHeader may only be stored against a Function that already exists;
// the State setter creates a placeholder Function of size 0 if necessary.
type FunctionHeader struct {
	Addr       uint64                   `toml:"addr"`
	Name       string                   `toml:"name"`
	ReturnType string                   `toml:"return_type"`
	Args       map[int]FunctionArgument `toml:"args"`
	LastChange *time.Time               `toml:"last_change,omitempty"`
}

func (FunctionHeader) isArtifact() {}

// Kind reports KindFunctionHeader.
func (FunctionHeader) Kind() Kind { return KindFunctionHeader }

// Key is the owning function's address, since a FunctionHeader is always
// attached to exactly one Function.
func (h FunctionHeader) Key() string { return strconv.FormatUint(h.Addr, 16) }

// Copy returns a deep copy of h.
func (h FunctionHeader) Copy() Artifact {
	cp := h
	cp.LastChange = copyTimestamp(h.LastChange)

	if h.Args != nil {
		cp.Args = make(map[int]FunctionArgument, len(h.Args))
		for k, v := range h.Args {
			cp.Args[k] = v
		}
	}

	return cp
}

// Equal reports structural equality, ignoring LastChange.
func (h FunctionHeader) Equal(other Artifact) bool {
	o, ok := other.(FunctionHeader)
	if !ok {
		return false
	}

	if h.Addr != o.Addr || h.Name != o.Name || h.ReturnType != o.ReturnType {
		return false
	}

	if len(h.Args) != len(o.Args) {
		return false
	}

	for k, v := range h.Args {
		ov, found := o.Args[k]
		if !found || !v.Equal(ov) {
			return false
		}
	}

	return true
}

// IsEmpty reports whether h carries no information at all, the sentinel a
// placeholder Function's header starts out as.
func (h FunctionHeader) IsEmpty() bool {
	return h.Name == "" && h.ReturnType == "" && len(h.Args) == 0
}

// NonConflictMergeHeader fills every empty scalar field of a from b, adds
// every argument entry of b whose index is absent from a (or merges the
// entry recursively when present in both). A nil a or b is treated as an
// all-empty header, matching nonconflict_merge(a, null) == a.
func NonConflictMergeHeader(a, b *FunctionHeader) *FunctionHeader {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		cp := b.Copy().(FunctionHeader) //nolint:forcetypeassert // Copy always returns the same concrete type
		cp.LastChange = nil

		return &cp
	case b == nil:
		cp := a.Copy().(FunctionHeader) //nolint:forcetypeassert // Copy always returns the same concrete type
		cp.LastChange = nil

		return &cp
	}

	merged := FunctionHeader{
		Addr:       a.Addr,
		Name:       mergeString(a.Name, b.Name),
		ReturnType: mergeString(a.ReturnType, b.ReturnType),
		Args:       make(map[int]FunctionArgument, len(a.Args)+len(b.Args)),
		LastChange: nil,
	}

	for k, v := range a.Args {
		merged.Args[k] = v
	}

	for k, v := range b.Args {
		if existing, found := merged.Args[k]; found {
			merged.Args[k] = existing.NonConflictMerge(v)
		} else {
			merged.Args[k] = v
		}
	}

	return &merged
}
