package controller_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/controller"
	"github.com/binsync/binsync/pkg/store"
)

// fakeDecompiler is a minimal in-memory stand-in for a decompiler
// integration layer: plain maps behind a mutex, since the push/UI workers
// and the test goroutine all touch it concurrently.
type fakeDecompiler struct {
	mu sync.Mutex

	functions   map[uint64]artifact.Function
	comments    map[uint64]artifact.Comment
	globalVars  map[uint64]artifact.GlobalVariable
	structs     map[string]artifact.Struct
	enums       map[string]artifact.Enum
	patches     map[uint64]artifact.Patch
	funcSizes   map[uint64]uint64
	activeAddr  *uint64
	binaryHash  string
	binaryPath  string
	watcherCb   func(artifact.Artifact)
	parseCalled int
}

func newFakeDecompiler() *fakeDecompiler {
	return &fakeDecompiler{
		functions:  map[uint64]artifact.Function{},
		comments:   map[uint64]artifact.Comment{},
		globalVars: map[uint64]artifact.GlobalVariable{},
		structs:    map[string]artifact.Struct{},
		enums:      map[string]artifact.Enum{},
		patches:    map[uint64]artifact.Patch{},
		funcSizes:  map[uint64]uint64{},
	}
}

func (d *fakeDecompiler) Functions() map[uint64]artifact.Function {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[uint64]artifact.Function, len(d.functions))
	for k, v := range d.functions {
		out[k] = v
	}

	return out
}

func (d *fakeDecompiler) Function(addr uint64) (artifact.Function, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.functions[addr]

	return f, ok
}

func (d *fakeDecompiler) SetFunction(f artifact.Function) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.functions[f.Addr] = f
}

func (d *fakeDecompiler) Comments() map[uint64]artifact.Comment {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[uint64]artifact.Comment, len(d.comments))
	for k, v := range d.comments {
		out[k] = v
	}

	return out
}

func (d *fakeDecompiler) Comment(addr uint64) (artifact.Comment, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.comments[addr]

	return c, ok
}

func (d *fakeDecompiler) SetComment(c artifact.Comment) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.comments[c.Addr] = c
}

func (d *fakeDecompiler) GlobalVariables() map[uint64]artifact.GlobalVariable {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[uint64]artifact.GlobalVariable, len(d.globalVars))
	for k, v := range d.globalVars {
		out[k] = v
	}

	return out
}

func (d *fakeDecompiler) GlobalVariable(addr uint64) (artifact.GlobalVariable, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.globalVars[addr]

	return g, ok
}

func (d *fakeDecompiler) SetGlobalVariable(g artifact.GlobalVariable) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.globalVars[g.Addr] = g
}

func (d *fakeDecompiler) Structs() map[string]artifact.Struct {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]artifact.Struct, len(d.structs))
	for k, v := range d.structs {
		out[k] = v
	}

	return out
}

func (d *fakeDecompiler) Struct(name string) (artifact.Struct, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.structs[name]

	return s, ok
}

func (d *fakeDecompiler) SetStruct(s artifact.Struct) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.structs[s.Name] = s
}

func (d *fakeDecompiler) Enums() map[string]artifact.Enum {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]artifact.Enum, len(d.enums))
	for k, v := range d.enums {
		out[k] = v
	}

	return out
}

func (d *fakeDecompiler) Enum(name string) (artifact.Enum, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.enums[name]

	return e, ok
}

func (d *fakeDecompiler) SetEnum(e artifact.Enum) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.enums[e.Name] = e
}

func (d *fakeDecompiler) Patches() map[uint64]artifact.Patch {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[uint64]artifact.Patch, len(d.patches))
	for k, v := range d.patches {
		out[k] = v
	}

	return out
}

func (d *fakeDecompiler) Patch(offset uint64) (artifact.Patch, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.patches[offset]

	return p, ok
}

func (d *fakeDecompiler) SetPatch(p artifact.Patch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.patches[p.Offset] = p
}

func (d *fakeDecompiler) BinaryHash() string { return d.binaryHash }
func (d *fakeDecompiler) BinaryPath() string { return d.binaryPath }

func (d *fakeDecompiler) FuncSizeAt(addr uint64) (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	size, ok := d.funcSizes[addr]

	return size, ok
}

func (d *fakeDecompiler) ParseType(raw string) controller.ParsedType {
	d.mu.Lock()
	d.parseCalled++
	d.mu.Unlock()

	return controller.ParseCType(raw)
}

func (d *fakeDecompiler) ActiveContext() (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.activeAddr == nil {
		return 0, false
	}

	return *d.activeAddr, true
}

func (d *fakeDecompiler) StartArtifactWatchers(cb func(artifact.Artifact)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.watcherCb = cb
}

// fakeProgress runs every step inline, synchronously, recording what it saw.
type fakeProgress struct {
	mu    sync.Mutex
	descs []string
}

func (p *fakeProgress) Run(total int, desc string, _ bool, step func(i int)) {
	p.mu.Lock()
	p.descs = append(p.descs, desc)
	p.mu.Unlock()

	for i := 0; i < total; i++ {
		step(i)
	}
}

func newTestClient(t *testing.T, user string) *store.Client {
	t.Helper()

	dir := t.TempDir()

	c, _, err := store.Connect(dir, user, "fp-"+user, "", true, store.Config{CacheSize: 8})
	require.NoError(t, err)

	return c
}

func newTestController(t *testing.T, user string) (*controller.Controller, *fakeDecompiler, *fakeProgress, *store.Client) {
	t.Helper()

	dec := newFakeDecompiler()
	prog := &fakeProgress{}
	client := newTestClient(t, user)

	c := controller.New(controller.Options{
		Client:     client,
		Decompiler: dec,
		Progress:   prog,
		AutoCommit: true,
	})

	t.Cleanup(c.Close)

	return c, dec, prog, client
}

func TestNew_ConnectsAndReportsStatus(t *testing.T) {
	t.Parallel()

	c, _, _, _ := newTestController(t, "alice")

	require.Equal(t, store.StatusConnectedNoRemote, c.Status())
}
