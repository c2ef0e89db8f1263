// Package state implements one user's branch snapshot: the six keyed
// artifact containers, dirty tracking, and the address-containment index
// used to answer find_func_for_addr in O(log n).
package state

import (
	"time"

	"github.com/binsync/binsync/pkg/alg/interval"
	"github.com/binsync/binsync/pkg/artifact"
)

// State is one user's branch at one commit: six keyed artifact containers
// plus the bookkeeping fields a push/pull cycle needs (dirty flag,
// last-push stamp). It is owned by exactly one Controller at a time; the
// merge pipeline copies artifacts across States rather than sharing them.
type State struct {
	User                 string
	Fingerprint          string
	SchemaVersion        int
	LastPushTime         *time.Time
	LastPushArtifactKey  string
	LastPushArtifactKind artifact.Kind
	LastCommitMessage    string

	dirty bool

	functions  map[uint64]artifact.Function
	comments   map[uint64]artifact.Comment
	structs    map[string]artifact.Struct
	patches    map[uint64]artifact.Patch
	globalVars map[uint64]artifact.GlobalVariable
	enums      map[string]artifact.Enum

	// addrIndex maps [addr, addr+size) to the owning function's address,
	// rebuilt incrementally as functions are inserted, resized, or removed.
	// It is never serialized; Parse rebuilds it from the functions container.
	addrIndex *interval.Tree[uint64, uint64]
}

const schemaVersion = 1

// New returns an empty State for user, with dirty == false (matching the
// post-parse invariant: a freshly constructed State behaves as just-parsed).
func New(user string) *State {
	return &State{
		User:          user,
		SchemaVersion: schemaVersion,
		functions:     make(map[uint64]artifact.Function),
		comments:      make(map[uint64]artifact.Comment),
		structs:       make(map[string]artifact.Struct),
		patches:       make(map[uint64]artifact.Patch),
		globalVars:    make(map[uint64]artifact.GlobalVariable),
		enums:         make(map[string]artifact.Enum),
		addrIndex:     interval.New[uint64, uint64](),
	}
}

// Dirty reports whether any setter has successfully changed this State
// since construction or the last MarkClean.
func (s *State) Dirty() bool { return s.dirty }

// MarkClean resets the dirty flag. Called after a successful commit or
// immediately after Parse, per the after-parse invariant.
func (s *State) MarkClean() { s.dirty = false }

func (s *State) rebuildAddrIndex() {
	s.addrIndex.Clear()

	for _, f := range s.functions {
		s.indexFunction(f)
	}
}

func (s *State) indexFunction(f artifact.Function) {
	high := f.Addr

	if f.Size > 0 {
		high = f.Addr + f.Size - 1
	}

	s.addrIndex.Insert(f.Addr, high, f.Addr)
}

func (s *State) unindexFunction(f artifact.Function) {
	high := f.Addr

	if f.Size > 0 {
		high = f.Addr + f.Size - 1
	}

	s.addrIndex.Delete(f.Addr, high, f.Addr)
}

// FindFuncForAddr returns the address of the Function whose [addr, addr+size)
// range contains x, and true, or zero and false if no such function exists.
// A placeholder function (size 0) only matches its own address exactly.
func (s *State) FindFuncForAddr(x uint64) (uint64, bool) {
	hits := s.addrIndex.QueryPoint(x)
	if len(hits) == 0 {
		return 0, false
	}

	return hits[0].Value, true
}

// Function returns the function at addr, if any.
func (s *State) Function(addr uint64) (artifact.Function, bool) {
	f, ok := s.functions[addr]

	return f, ok
}

// Functions returns every function, keyed by address.
func (s *State) Functions() map[uint64]artifact.Function {
	return cloneMap(s.functions)
}

// Comment returns the comment at addr, if any.
func (s *State) Comment(addr uint64) (artifact.Comment, bool) {
	c, ok := s.comments[addr]

	return c, ok
}

// Comments returns every comment, keyed by address.
func (s *State) Comments() map[uint64]artifact.Comment {
	return cloneMap(s.comments)
}

// Struct returns the struct named name, if any.
func (s *State) Struct(name string) (artifact.Struct, bool) {
	st, ok := s.structs[name]

	return st, ok
}

// Structs returns every struct, keyed by name.
func (s *State) Structs() map[string]artifact.Struct {
	return cloneMap(s.structs)
}

// Patch returns the patch at offset, if any.
func (s *State) Patch(offset uint64) (artifact.Patch, bool) {
	p, ok := s.patches[offset]

	return p, ok
}

// Patches returns every patch, keyed by offset.
func (s *State) Patches() map[uint64]artifact.Patch {
	return cloneMap(s.patches)
}

// GlobalVariable returns the global variable at addr, if any.
func (s *State) GlobalVariable(addr uint64) (artifact.GlobalVariable, bool) {
	g, ok := s.globalVars[addr]

	return g, ok
}

// GlobalVariables returns every global variable, keyed by address.
func (s *State) GlobalVariables() map[uint64]artifact.GlobalVariable {
	return cloneMap(s.globalVars)
}

// Enum returns the enum named name, if any.
func (s *State) Enum(name string) (artifact.Enum, bool) {
	e, ok := s.enums[name]

	return e, ok
}

// Enums returns every enum, keyed by name.
func (s *State) Enums() map[string]artifact.Enum {
	return cloneMap(s.enums)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	cp := make(map[K]V, len(m))
	for k, v := range m {
		cp[k] = v
	}

	return cp
}
