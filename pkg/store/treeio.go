// Package store implements the versioned multi-branch Git store: one branch
// per user, commit/pull/push against a git2go-backed repository, and the
// tree-level primitives State's Dump/Parse read and write through.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/binsync/binsync/pkg/gitlib"
	"github.com/binsync/binsync/pkg/state"
)

// ErrReadOnly is returned by a TreeReader's WriteFile: a tree already
// committed to history cannot be mutated in place.
var ErrReadOnly = errors.New("store: tree reader is read-only")

// ErrWriteOnly is returned by a TreeWriterAdapter's ReadFile/ListFiles: a
// tree under construction has nothing to read back until it is written.
var ErrWriteOnly = errors.New("store: tree writer adapter is write-only")

// TreeReader adapts an existing gitlib.Tree into a read-only
// state.FileStore, used by get_state to Parse a State out of a historical
// commit's tree.
type TreeReader struct {
	repo  *gitlib.Repository
	tree  *gitlib.Tree
	files map[string][]byte
}

// NewTreeReader indexes every file in tree by path, up front, so ReadFile
// and ListFiles never touch libgit2 again after construction.
func NewTreeReader(repo *gitlib.Repository, tree *gitlib.Tree) (*TreeReader, error) {
	files, err := gitlib.TreeFiles(repo, tree)
	if err != nil {
		return nil, fmt.Errorf("list tree files: %w", err)
	}

	byPath := make(map[string][]byte, len(files))

	for _, f := range files {
		contents, contentsErr := f.Contents()
		if contentsErr != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, contentsErr)
		}

		byPath[f.Name] = contents
	}

	return &TreeReader{repo: repo, tree: tree, files: byPath}, nil
}

// WriteFile implements state.FileStore; a TreeReader never writes.
func (r *TreeReader) WriteFile(_ string, _ []byte) error {
	return ErrReadOnly
}

// ReadFile implements state.FileStore.
func (r *TreeReader) ReadFile(path string) ([]byte, error) {
	data, ok := r.files[path]
	if !ok {
		return nil, state.ErrFileNotFound
	}

	return data, nil
}

// ListFiles implements state.FileStore, returning every indexed path with
// the given prefix.
func (r *TreeReader) ListFiles(prefix string) ([]string, error) {
	var paths []string

	for path := range r.files {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}

	return paths, nil
}

// TreeWriterAdapter adapts a gitlib.TreeWriter into a write-only
// state.FileStore, used by commit_state to Dump a State into a tree that is
// then committed onto the local user's branch.
type TreeWriterAdapter struct {
	tw *gitlib.TreeWriter
}

// NewTreeWriterAdapter wraps tw.
func NewTreeWriterAdapter(tw *gitlib.TreeWriter) *TreeWriterAdapter {
	return &TreeWriterAdapter{tw: tw}
}

// WriteFile implements state.FileStore.
func (a *TreeWriterAdapter) WriteFile(path string, data []byte) error {
	a.tw.Add(path, data)

	return nil
}

// ReadFile implements state.FileStore; a TreeWriterAdapter never reads back
// what it has staged.
func (a *TreeWriterAdapter) ReadFile(_ string) ([]byte, error) {
	return nil, ErrWriteOnly
}

// ListFiles implements state.FileStore.
func (a *TreeWriterAdapter) ListFiles(_ string) ([]string, error) {
	return nil, ErrWriteOnly
}
