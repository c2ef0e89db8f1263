package commands

import (
	"fmt"

	"github.com/binsync/binsync/pkg/controller"
)

// storeFlags are the connection flags every Controller-backed subcommand
// shares: where the store lives, who the local user is, and where the
// workspace stand-in for a live decompiler keeps its artifacts.
type storeFlags struct {
	path        string
	user        string
	fingerprint string
	remote      string
	workspace   string
	mergeLevel  string
}

func addStoreFlags(f *storeFlags, register func(p *string, name, value, usage string)) {
	register(&f.path, "path", ".", "project directory backing the store")
	register(&f.user, "user", "", "local username (required)")
	register(&f.fingerprint, "fingerprint", "", "binary fingerprint to bind or verify against")
	register(&f.remote, "remote", "", "git remote URL to register as origin")
	register(&f.workspace, "workspace", ".binsync-workspace", "directory standing in for the live decompiler's artifacts")
	register(&f.mergeLevel, "merge-level", "", "merge strategy: overwrite, non_conflicting, or merge (default: configured)")
}

// stdProgress reports bulk-operation progress as plain log lines, the
// headless counterpart to a GUI progress widget.
type stdProgress struct{}

func (stdProgress) Run(total int, desc string, _ bool, step func(i int)) {
	fmt.Printf("%s: 0/%d\n", desc, total)

	for i := 0; i < total; i++ {
		step(i)
	}

	fmt.Printf("%s: %d/%d done\n", desc, total, total)
}

// buildController connects the store, opens the workspace stand-in
// decompiler, and wires both into a Controller. The caller owns Close.
func buildController(rt *runtime, f *storeFlags) (*controller.Controller, error) {
	client, err := connectClient(rt, f.path, f.user, f.fingerprint, f.remote, true)
	if err != nil {
		return nil, err
	}

	ws, err := openWorkspace(f.workspace, f.user, f.fingerprint, f.path)
	if err != nil {
		client.Close()

		return nil, fmt.Errorf("open workspace: %w", err)
	}

	c := controller.New(controller.Options{
		Client:     client,
		Decompiler: ws,
		Progress:   stdProgress{},
		MergeLevel: mergeLevelFlag(f.mergeLevel, rt.cfg),
		AutoCommit: true,
		Logger:     rt.logger,
	})

	return c, nil
}
