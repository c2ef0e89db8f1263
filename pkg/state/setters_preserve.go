package state

import "github.com/binsync/binsync/pkg/artifact"

// The SetXPreserveLastChange family stores an artifact exactly as given,
// without stamping LastChange to now — the set_last_change=false path
// push_artifact takes when committing an already-merged artifact, whose
// LastChange a prior merge_artifacts call has deliberately cleared to nil
// so it never appears "newer" than an untouched local edit.

// SetFunctionPreserveLastChange stores f without stamping LastChange.
func (s *State) SetFunctionPreserveLastChange(f artifact.Function) SetResult {
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

	s.functions[f.Addr] = f
	s.indexFunction(f)
	s.dirty = true

	return Changed
}

// SetFunctionHeaderPreserveLastChange attaches h without stamping LastChange.
func (s *State) SetFunctionHeaderPreserveLastChange(h artifact.FunctionHeader) SetResult {
	f := s.ensureFunction(h.Addr)

	if f.Header != nil && f.Header.Equal(h) {
		return Unchanged
	}

	f.Header = &h
	s.functions[f.Addr] = f
	s.dirty = true

	return Changed
}

// SetStackVariablePreserveLastChange attaches v without stamping LastChange.
func (s *State) SetStackVariablePreserveLastChange(v artifact.StackVariable) SetResult {
	f := s.ensureFunction(v.Addr)

	if existing, ok := f.StackVars[v.Offset]; ok && existing.Equal(v) {
		return Unchanged
	}

	if f.StackVars == nil {
		f.StackVars = map[int64]artifact.StackVariable{}
	}

	f.StackVars[v.Offset] = v
	s.functions[f.Addr] = f
	s.dirty = true

	return Changed
}

// SetCommentPreserveLastChange stores c without stamping LastChange.
func (s *State) SetCommentPreserveLastChange(c artifact.Comment) SetResult {
	if existing, ok := s.comments[c.Addr]; ok && existing.Equal(c) {
		return Unchanged
	}

	s.comments[c.Addr] = c
	s.dirty = true

	return Changed
}

// SetStructPreserveLastChange stores st without stamping LastChange.
func (s *State) SetStructPreserveLastChange(st artifact.Struct) SetResult {
	if existing, ok := s.structs[st.Name]; ok && existing.Equal(st) {
		return Unchanged
	}

	s.structs[st.Name] = st
	s.dirty = true

	return Changed
}

// SetGlobalVariablePreserveLastChange stores g without stamping LastChange.
func (s *State) SetGlobalVariablePreserveLastChange(g artifact.GlobalVariable) SetResult {
	if existing, ok := s.globalVars[g.Addr]; ok && existing.Equal(g) {
		return Unchanged
	}

	s.globalVars[g.Addr] = g
	s.dirty = true

	return Changed
}

// SetEnumPreserveLastChange stores e without stamping LastChange.
func (s *State) SetEnumPreserveLastChange(e artifact.Enum) SetResult {
	if existing, ok := s.enums[e.Name]; ok && existing.Equal(e) {
		return Unchanged
	}

	s.enums[e.Name] = e
	s.dirty = true

	return Changed
}

// SetPatchPreserveLastChange stores p without stamping LastChange.
func (s *State) SetPatchPreserveLastChange(p artifact.Patch) SetResult {
	if existing, ok := s.patches[p.Offset]; ok && existing.Equal(p) {
		return Unchanged
	}

	s.patches[p.Offset] = p
	s.dirty = true

	return Changed
}
