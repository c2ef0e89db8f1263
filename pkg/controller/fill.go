package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/config"
	"github.com/binsync/binsync/pkg/gitlib"
	"github.com/binsync/binsync/pkg/scheduler"
	"github.com/binsync/binsync/pkg/state"
	"github.com/binsync/binsync/pkg/syncerr"
	"github.com/binsync/binsync/pkg/toposort"
)

// FillOptions tunes FillArtifact. A nil Artifact/SourceState/MasterState is
// resolved by FillArtifact itself; a zero MergeLevel falls back to the
// Controller's configured default.
type FillOptions struct {
	Artifact    artifact.Artifact
	SourceState *state.State
	User        string
	MasterState *state.State
	MergeLevel  config.MergeLevel

	CommitMsg string
	Blocking  bool
}

// FillArtifact is the store -> decompiler fill path: it merges the master
// artifact with a source user's version of the same artifact, writes the
// merge into the decompiler under the sync-lock (resolving any user-defined
// struct types the merged artifact references along the way), and schedules
// the merged artifact back onto the push path with set_last_change=false so
// the commit it produces never looks like a fresh local edit.
//
// It returns false, nil (rather than an error) whenever the fill simply has
// nothing to do: a nil artifact on both sides, or an exception confined to
// the locked decompiler-write section — fill_exception is logged and
// swallowed there because the merged artifact must still reach the push
// path regardless of whether the decompiler accepted it.
func (c *Controller) FillArtifact(ctx context.Context, kind artifact.Kind, ids []string, opts FillOptions) (bool, error) {
	src := opts.SourceState
	if src == nil {
		s, err := c.client.GetState(ctx, opts.User, gitlib.ZeroHash(), scheduler.Medium, false)
		if err != nil {
			return false, fmt.Errorf("fill_artifact: resolve source state: %w", err)
		}

		src = s
	}

	master := opts.MasterState
	if master == nil {
		m, err := c.masterState(ctx)
		if err != nil {
			return false, fmt.Errorf("fill_artifact: resolve master state: %w", err)
		}

		master = m
	}

	level := c.mergeLevel
	if opts.MergeLevel != "" {
		level = opts.MergeLevel
	}

	masterArtifact := opts.Artifact

	if masterArtifact == nil {
		a, _, err := getArtifact(master, kind, ids)
		if err != nil {
			return false, fmt.Errorf("fill_artifact: resolve master artifact: %w", err)
		}

		masterArtifact = a
	}

	userArtifact, found, err := getArtifact(src, kind, ids)
	if err != nil {
		return false, fmt.Errorf("fill_artifact: resolve source artifact: %w", err)
	}

	if !found {
		return false, nil
	}

	merged, err := c.mergeArtifacts(masterArtifact, userArtifact, level)
	if err != nil {
		return false, fmt.Errorf("fill_artifact: %w", err)
	}

	if merged == nil {
		return false, nil
	}

	return c.applyMerged(merged, []*state.State{src}, master, opts.CommitMsg, opts.Blocking), nil
}

// applyMerged is the common tail of fill_artifact and a magic-fill round:
// clear last_change, write the merged artifact into the decompiler under
// the sync-lock (resolving any struct types it references from sources, in
// order), and schedule it back onto the push path with
// set_last_change=false.
func (c *Controller) applyMerged(merged artifact.Artifact, sources []*state.State, master *state.State, commitMsg string, blocking bool) bool {
	merged = clearLastChange(merged)

	fillOK := c.writeDecompilerLocked(merged, sources, master)

	noStamp := false
	c.schedulePush(master, merged, PushOptions{
		CommitMsg:     commitMsg,
		SetLastChange: &noStamp,
		Blocking:      blocking,
	})

	return fillOK
}

// writeDecompilerLocked holds the sync-lock for the type-import walk and the
// decompiler write, recovering from anything the decompiler collaborator
// panics with so a broken GUI callback can never abort the push that
// follows. Only a Function fill copies in-range comments, and only when
// exactly one source state contributed: the originating user of a regular
// fill, or the single user holding that function in a magic-fill round.
func (c *Controller) writeDecompilerLocked(merged artifact.Artifact, sources []*state.State, master *state.State) bool {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	if err := c.discoverAndImportUserDefinedTypes(merged, sources, master); err != nil {
		c.logger.Warn("discover_and_import_user_defined_types failed", "error", err)
	}

	if err := c.safeWriteToDecompiler(merged); err != nil {
		c.logger.LogAttrs(context.Background(), syncerr.Severity(syncerr.ErrFillException),
			"fill_artifact: decompiler write failed",
			slog.Any("error", err))

		return false
	}

	if f, ok := merged.(artifact.Function); ok && len(sources) == 1 {
		c.copyContainedComments(f, sources[0])
	}

	return true
}

// safeWriteToDecompiler recovers from a panic inside the decompiler
// collaborator, since DecompilerInterface is an external integration layer
// FillArtifact does not control.
func (c *Controller) safeWriteToDecompiler(a artifact.Artifact) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", syncerr.ErrFillException, r)
		}
	}()

	return c.writeToDecompiler(a)
}

// writeToDecompiler is the compile-time ARTIFACT_SET_MAP onto
// DecompilerInterface. FunctionHeader and StackVariable attach to the
// decompiler's existing Function at the same address (creating a
// placeholder if the decompiler has none), mirroring State's own
// ensureFunction behavior.
func (c *Controller) writeToDecompiler(a artifact.Artifact) error {
	switch v := a.(type) {
	case artifact.Function:
		c.decompiler.SetFunction(v)

	case artifact.FunctionHeader:
		f, ok := c.decompiler.Function(v.Addr)
		if !ok {
			f = artifact.Function{Addr: v.Addr}
		}

		h := v
		f.Header = &h
		c.decompiler.SetFunction(f)

	case artifact.StackVariable:
		f, ok := c.decompiler.Function(v.Addr)
		if !ok {
			f = artifact.Function{Addr: v.Addr}
		}

		if f.StackVars == nil {
			f.StackVars = map[int64]artifact.StackVariable{}
		}

		f.StackVars[v.Offset] = v
		c.decompiler.SetFunction(f)

	case artifact.Comment:
		c.decompiler.SetComment(v)

	case artifact.Struct:
		c.decompiler.SetStruct(v)

	case artifact.GlobalVariable:
		c.decompiler.SetGlobalVariable(v)

	case artifact.Enum:
		c.decompiler.SetEnum(v)

	case artifact.Patch:
		c.decompiler.SetPatch(v)

	default:
		return fmt.Errorf("%w: %T", syncerr.ErrUnsupportedArtifact, a)
	}

	return nil
}

// copyContainedComments copies every comment src holds whose address falls
// inside f's range into the decompiler, so filling a Function also surfaces
// the comments a user placed inside it.
func (c *Controller) copyContainedComments(f artifact.Function, src *state.State) {
	if f.Size == 0 {
		return
	}

	for addr, comment := range src.Comments() {
		if addr >= f.Addr && addr < f.Addr+f.Size {
			c.decompiler.SetComment(comment)
		}
	}
}

// findStructAcrossSources returns the first match for name across sources,
// in order — a regular fill has exactly one source user; a magic-fill round
// has every contributing user, searched in the same order they were merged.
func findStructAcrossSources(sources []*state.State, name string) (artifact.Struct, *state.State, bool) {
	for _, src := range sources {
		if st, ok := src.Struct(name); ok {
			return st, src, true
		}
	}

	return artifact.Struct{}, nil, false
}

// discoverAndImportUserDefinedTypes walks every type string merged
// references, and for each one the decompiler's own parser can't already
// resolve, imports the backing Struct from sources into master: a per-struct
// topological walk when every transitively referenced struct is resolvable
// somewhere, or a bulk import of every struct any source holds when it is
// not.
func (c *Controller) discoverAndImportUserDefinedTypes(merged artifact.Artifact, sources []*state.State, master *state.State) error {
	var seed []string

	for _, raw := range referencedTypeStrings(merged) {
		pt := c.decompiler.ParseType(raw)
		if !pt.IsUnknown {
			continue
		}

		if _, ok := master.Struct(pt.BaseType); ok {
			continue
		}

		if _, _, ok := findStructAcrossSources(sources, pt.BaseType); !ok {
			c.logger.Info("type import: struct not found in any source state", "type", pt.BaseType)

			continue
		}

		seed = append(seed, pt.BaseType)
	}

	if len(seed) == 0 {
		return nil
	}

	order, ok := c.resolveStructGraph(seed, sources, master)
	if !ok {
		return c.importAllStructs(sources, master)
	}

	return c.importStructsInOrder(order, sources, master)
}

// referencedTypeStrings lists every type string a might name a struct
// through: a Function's header return type and argument types plus every
// stack variable's type, a bare FunctionHeader or StackVariable's own type
// fields, a Struct's member types, or a GlobalVariable's type.
func referencedTypeStrings(a artifact.Artifact) []string {
	switch v := a.(type) {
	case artifact.Function:
		var types []string

		if v.Header != nil {
			types = append(types, v.Header.ReturnType)
			for _, arg := range v.Header.Args {
				types = append(types, arg.Type)
			}
		}

		for _, sv := range v.StackVars {
			types = append(types, sv.Type)
		}

		return types

	case artifact.FunctionHeader:
		types := []string{v.ReturnType}
		for _, arg := range v.Args {
			types = append(types, arg.Type)
		}

		return types

	case artifact.StackVariable:
		return []string{v.Type}

	case artifact.Struct:
		types := make([]string, 0, len(v.Members))
		for _, m := range v.Members {
			types = append(types, m.Type)
		}

		return types

	case artifact.GlobalVariable:
		return []string{v.Type}

	default:
		return nil
	}
}

// resolveStructGraph builds a struct-name -> referenced-struct-name
// dependency graph rooted at seed, returning the names in an order where
// every struct with no unresolved dependency of its own precedes whatever
// references it. It reports ok=false the moment any transitively
// referenced struct is resolvable in neither src nor master.
func (c *Controller) resolveStructGraph(seed []string, sources []*state.State, master *state.State) ([]string, bool) {
	graph := toposort.NewGraph()
	visited := map[string]bool{}

	var walk func(name string) bool

	walk = func(name string) bool {
		if visited[name] {
			return true
		}

		visited[name] = true
		graph.AddNode(name)

		st, _, ok := findStructAcrossSources(sources, name)
		if !ok {
			_, inMaster := master.Struct(name)

			return inMaster
		}

		for _, m := range st.Members {
			pt := c.decompiler.ParseType(m.Type)
			if !pt.IsUnknown || pt.BaseType == name {
				continue
			}

			if _, ok := master.Struct(pt.BaseType); ok {
				continue
			}

			graph.AddEdge(name, pt.BaseType)

			if !walk(pt.BaseType) {
				return false
			}
		}

		return true
	}

	for _, name := range seed {
		if !walk(name) {
			return nil, false
		}
	}

	order, ok := graph.Toposort()
	if !ok {
		// Every node is resolvable even though the graph is cyclic: the
		// header-before-members import below breaks the cycle regardless
		// of which order the members pass runs in.
		order = graph.BreadthSort()
	}

	return order, true
}

// importStructsInOrder imports each named struct from sources into master,
// header first (name and size only, via SkipMembers) across the whole
// order, then with members, also across the whole order — so a struct
// referencing one that comes later in the walk still finds a header to
// resolve against by the time the member pass runs.
func (c *Controller) importStructsInOrder(order []string, sources []*state.State, master *state.State) error {
	for _, name := range order {
		srcStruct, _, ok := findStructAcrossSources(sources, name)
		if !ok {
			continue
		}

		existing, hasExisting := master.Struct(name)

		var header artifact.Struct

		if hasExisting {
			header = existing.NonConflictMerge(srcStruct, artifact.MergeOptions{SkipMembers: true})
		} else {
			header = artifact.Struct{Name: srcStruct.Name, Size: srcStruct.Size}
		}

		master.SetStructPreserveLastChange(header)
	}

	for _, name := range order {
		srcStruct, _, ok := findStructAcrossSources(sources, name)
		if !ok {
			continue
		}

		existing, _ := master.Struct(name)
		full := existing.NonConflictMerge(srcStruct, artifact.MergeOptions{})
		full.LastChange = nil
		master.SetStructPreserveLastChange(full)
	}

	return nil
}

// importAllStructs is the bulk fallback discover_and_import_user_defined_types
// takes when the per-struct dependency walk can't fully resolve: every
// struct any source holds is imported into master, in a deterministic
// (sorted) order since there is no dependency graph to order it by. A name
// held by more than one source takes the first source's version, matching
// findStructAcrossSources' resolution order.
func (c *Controller) importAllStructs(sources []*state.State, master *state.State) error {
	seen := map[string]bool{}

	var names []string

	for _, src := range sources {
		for name := range src.Structs() {
			if !seen[name] {
				seen[name] = true

				names = append(names, name)
			}
		}
	}

	sort.Strings(names)

	return c.importStructsInOrder(names, sources, master)
}
