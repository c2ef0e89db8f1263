package commands

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/controller"
	"github.com/binsync/binsync/pkg/state"
	"github.com/binsync/binsync/pkg/syncerr"
)

// workspaceDecompiler is a controller.DecompilerInterface backed by a plain
// TOML file tree (the same on-disk layout a state.Dump/Parse round-trips),
// rather than a live IDA/Ghidra/Binja process. Per spec.md §1 the
// decompiler-integration layer has no concrete implementation in this
// module; this is the CLI's own stand-in, for driving push/fill/force-push
// against a directory a user edits by hand or scripts against, instead of
// shipping push/fill/force-push as commands that can never actually run.
type workspaceDecompiler struct {
	mu sync.Mutex

	fs *dirFileStore
	st *state.State

	binaryHash string
	binaryPath string

	watcherCb func(artifact.Artifact)
}

// openWorkspace loads dir as a workspace, creating a fresh empty one
// (seeded with metadata.toml) if it has none yet.
func openWorkspace(dir, user, binaryHash, binaryPath string) (*workspaceDecompiler, error) {
	fs := newDirFileStore(dir)

	st, err := state.Parse(fs)
	if err != nil {
		if !errors.Is(err, syncerr.ErrMetadataNotFound) {
			return nil, fmt.Errorf("parse workspace: %w", err)
		}

		st = state.New(user)
		st.Fingerprint = binaryHash

		if dumpErr := st.Dump(fs); dumpErr != nil {
			return nil, fmt.Errorf("seed workspace: %w", dumpErr)
		}
	}

	return &workspaceDecompiler{fs: fs, st: st, binaryHash: binaryHash, binaryPath: binaryPath}, nil
}

// persist writes the whole workspace state back to disk; the caller must
// hold mu.
func (w *workspaceDecompiler) persist() {
	if err := w.st.Dump(w.fs); err != nil {
		// The in-memory workspace view stays correct even if the disk
		// write failed; the next command to open this workspace will
		// simply not see this change.
		fmt.Fprintf(os.Stderr, "workspace: persist failed: %v\n", err)
	}
}

func (w *workspaceDecompiler) Functions() map[uint64]artifact.Function {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.Functions()
}

func (w *workspaceDecompiler) Function(addr uint64) (artifact.Function, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.Function(addr)
}

func (w *workspaceDecompiler) SetFunction(f artifact.Function) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.st.SetFunction(f)
	w.persist()
}

func (w *workspaceDecompiler) Comments() map[uint64]artifact.Comment {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.Comments()
}

func (w *workspaceDecompiler) Comment(addr uint64) (artifact.Comment, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.Comment(addr)
}

func (w *workspaceDecompiler) SetComment(c artifact.Comment) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.st.SetComment(c)
	w.persist()
}

func (w *workspaceDecompiler) GlobalVariables() map[uint64]artifact.GlobalVariable {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.GlobalVariables()
}

func (w *workspaceDecompiler) GlobalVariable(addr uint64) (artifact.GlobalVariable, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.GlobalVariable(addr)
}

func (w *workspaceDecompiler) SetGlobalVariable(g artifact.GlobalVariable) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.st.SetGlobalVariable(g)
	w.persist()
}

func (w *workspaceDecompiler) Structs() map[string]artifact.Struct {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.Structs()
}

func (w *workspaceDecompiler) Struct(name string) (artifact.Struct, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.Struct(name)
}

func (w *workspaceDecompiler) SetStruct(s artifact.Struct) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.st.SetStruct(s)
	w.persist()
}

func (w *workspaceDecompiler) Enums() map[string]artifact.Enum {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.Enums()
}

func (w *workspaceDecompiler) Enum(name string) (artifact.Enum, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.Enum(name)
}

func (w *workspaceDecompiler) SetEnum(e artifact.Enum) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.st.SetEnum(e)
	w.persist()
}

func (w *workspaceDecompiler) Patches() map[uint64]artifact.Patch {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.Patches()
}

func (w *workspaceDecompiler) Patch(offset uint64) (artifact.Patch, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.st.Patch(offset)
}

func (w *workspaceDecompiler) SetPatch(p artifact.Patch) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.st.SetPatch(p)
	w.persist()
}

func (w *workspaceDecompiler) BinaryHash() string { return w.binaryHash }
func (w *workspaceDecompiler) BinaryPath() string { return w.binaryPath }

func (w *workspaceDecompiler) FuncSizeAt(addr uint64) (uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.st.Function(addr)
	if !ok {
		return 0, false
	}

	return f.Size, true
}

func (w *workspaceDecompiler) ParseType(raw string) controller.ParsedType {
	return controller.ParseCType(raw)
}

// ActiveContext reports no active cursor: a file-tree workspace has no
// notion of where a user is currently looking.
func (w *workspaceDecompiler) ActiveContext() (uint64, bool) {
	return 0, false
}

func (w *workspaceDecompiler) StartArtifactWatchers(cb func(artifact.Artifact)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.watcherCb = cb
}
