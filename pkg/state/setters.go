package state

import (
	"time"

	"github.com/binsync/binsync/pkg/artifact"
)

// SetResult reports what a setter did, so callers (the controller's push
// path in particular) can distinguish a real change from a no-op without
// re-comparing the artifact themselves.
type SetResult int

const (
	// Unchanged means the stored value already equaled the new one
	// structurally; the dirty flag and last-change time were not touched.
	Unchanged SetResult = iota
	// Changed means the container was updated and dirty was set.
	Changed
)

func now() *time.Time {
	t := time.Now().UTC()

	return &t
}

// SetFunction stores f, stamping LastChange unless the stored value is
// already structurally equal (the no-op-on-equal-set invariant). A push of
// a bare Function (addr+size only, as the decompiler first reports it)
// never clobbers a header or stack variables a prior setter already
// attached to the placeholder at this address.
func (s *State) SetFunction(f artifact.Function) SetResult {
	existing, hadExisting := s.functions[f.Addr]

	if f.Header == nil {
		f.Header = existing.Header
	}

	if len(f.StackVars) == 0 {
		f.StackVars = existing.StackVars
	}

	if hadExisting && existing.Equal(f) {
		return Unchanged
	}

	if hadExisting {
		s.unindexFunction(existing)
	}

	f.LastChange = now()
	s.functions[f.Addr] = f
	s.indexFunction(f)
	s.dirty = true

	return Changed
}

// ensureFunction returns the function at addr, creating a size-0 placeholder
// first if none exists, per the FunctionHeader/StackVariable setter
// invariant.
func (s *State) ensureFunction(addr uint64) artifact.Function {
	f, ok := s.functions[addr]
	if ok {
		return f
	}

	f = artifact.Function{Addr: addr, StackVars: map[int64]artifact.StackVariable{}}
	s.functions[addr] = f
	s.indexFunction(f)

	return f
}

// SetFunctionHeader attaches h to the function at h.Addr, creating a
// placeholder Function first if necessary.
func (s *State) SetFunctionHeader(h artifact.FunctionHeader) SetResult {
	f := s.ensureFunction(h.Addr)

	if f.Header != nil && f.Header.Equal(h) {
		return Unchanged
	}

	h.LastChange = now()
	f.Header = &h
	f.LastChange = now()
	s.functions[f.Addr] = f
	s.dirty = true

	return Changed
}

// SetStackVariable attaches v to the function at v.Addr, creating a
// placeholder Function first if necessary.
func (s *State) SetStackVariable(v artifact.StackVariable) SetResult {
	f := s.ensureFunction(v.Addr)

	if existing, ok := f.StackVars[v.Offset]; ok && existing.Equal(v) {
		return Unchanged
	}

	v.LastChange = now()

	if f.StackVars == nil {
		f.StackVars = map[int64]artifact.StackVariable{}
	}

	f.StackVars[v.Offset] = v
	f.LastChange = now()
	s.functions[f.Addr] = f
	s.dirty = true

	return Changed
}

// SetComment stores c.
func (s *State) SetComment(c artifact.Comment) SetResult {
	if existing, ok := s.comments[c.Addr]; ok && existing.Equal(c) {
		return Unchanged
	}

	c.LastChange = now()
	s.comments[c.Addr] = c
	s.dirty = true

	return Changed
}

// SetStruct stores st.
func (s *State) SetStruct(st artifact.Struct) SetResult {
	if existing, ok := s.structs[st.Name]; ok && existing.Equal(st) {
		return Unchanged
	}

	st.LastChange = now()
	s.structs[st.Name] = st
	s.dirty = true

	return Changed
}

// SetGlobalVariable stores g.
func (s *State) SetGlobalVariable(g artifact.GlobalVariable) SetResult {
	if existing, ok := s.globalVars[g.Addr]; ok && existing.Equal(g) {
		return Unchanged
	}

	g.LastChange = now()
	s.globalVars[g.Addr] = g
	s.dirty = true

	return Changed
}

// SetEnum stores e.
func (s *State) SetEnum(e artifact.Enum) SetResult {
	if existing, ok := s.enums[e.Name]; ok && existing.Equal(e) {
		return Unchanged
	}

	e.LastChange = now()
	s.enums[e.Name] = e
	s.dirty = true

	return Changed
}

// SetPatch stores p.
func (s *State) SetPatch(p artifact.Patch) SetResult {
	if existing, ok := s.patches[p.Offset]; ok && existing.Equal(p) {
		return Unchanged
	}

	p.LastChange = now()
	s.patches[p.Offset] = p
	s.dirty = true

	return Changed
}
