package gitlib

import (
	"fmt"
	"sort"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
)

// TreeWriter builds a git tree object from a flat set of file paths and
// contents, constructing the necessary intermediate directory trees.
type TreeWriter struct {
	repo  *Repository
	files map[string][]byte
}

// NewTreeWriter creates an empty tree writer for the given repository.
func NewTreeWriter(repo *Repository) *TreeWriter {
	return &TreeWriter{repo: repo, files: make(map[string][]byte)}
}

// Add stages a file at the given slash-separated path for inclusion in the
// written tree. Later calls with the same path overwrite earlier ones.
func (w *TreeWriter) Add(path string, contents []byte) {
	w.files[path] = contents
}

// Write builds the tree (and any intermediate subtrees) and returns it.
// An empty TreeWriter produces an empty tree.
func (w *TreeWriter) Write() (*Tree, error) {
	root := &dirNode{repo: w.repo, subs: make(map[string]*dirNode), blobs: make(map[string]Hash)}

	for path, contents := range w.files {
		hash, err := w.repo.WriteBlob(contents)
		if err != nil {
			return nil, fmt.Errorf("write blob for %s: %w", path, err)
		}

		root.insert(path, hash)
	}

	builder, err := root.build()
	if err != nil {
		return nil, err
	}

	oid, err := builder.Write()
	if err != nil {
		return nil, fmt.Errorf("write tree: %w", err)
	}

	return w.repo.LookupTree(HashFromOid(oid))
}

// dirNode accumulates blob and subtree entries for one directory level.
type dirNode struct {
	repo  *Repository
	subs  map[string]*dirNode
	blobs map[string]Hash
}

// insert places a blob hash at a slash-separated relative path within the
// directory tree, creating intermediate nodes as needed.
func (n *dirNode) insert(relPath string, hash Hash) {
	parts := strings.SplitN(relPath, "/", 2)
	if len(parts) == 1 {
		n.blobs[parts[0]] = hash

		return
	}

	sub, ok := n.subs[parts[0]]
	if !ok {
		sub = &dirNode{repo: n.repo, subs: make(map[string]*dirNode), blobs: make(map[string]Hash)}
		n.subs[parts[0]] = sub
	}

	sub.insert(parts[1], hash)
}

// build recursively constructs libgit2 tree builders bottom-up and returns
// the builder for this directory.
func (n *dirNode) build() (*git2go.TreeBuilder, error) {
	builder, err := n.repo.repo.TreeBuilder()
	if err != nil {
		return nil, fmt.Errorf("create tree builder: %w", err)
	}

	for name, hash := range n.blobs {
		if insertErr := builder.Insert(name, hash.ToOid(), git2go.FilemodeBlob); insertErr != nil {
			return nil, fmt.Errorf("insert blob %s: %w", name, insertErr)
		}
	}

	// Sort subdirectory names for deterministic tree construction.
	names := make([]string, 0, len(n.subs))
	for name := range n.subs {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		subBuilder, buildErr := n.subs[name].build()
		if buildErr != nil {
			return nil, buildErr
		}

		subOid, writeErr := subBuilder.Write()
		if writeErr != nil {
			return nil, fmt.Errorf("write subtree %s: %w", name, writeErr)
		}

		if insertErr := builder.Insert(name, subOid, git2go.FilemodeTree); insertErr != nil {
			return nil, fmt.Errorf("insert subtree %s: %w", name, insertErr)
		}
	}

	return builder, nil
}

// CreateCommit authors a new commit on top of the given parents, pointing at
// tree, and returns its hash. It does not move any branch ref.
func (r *Repository) CreateCommit(tree *Tree, author, committer Signature, message string, parents ...*Commit) (Hash, error) {
	gitAuthor := &git2go.Signature{Name: author.Name, Email: author.Email, When: author.When}
	gitCommitter := &git2go.Signature{Name: committer.Name, Email: committer.Email, When: committer.When}

	parentCommits := make([]*git2go.Commit, 0, len(parents))
	for _, p := range parents {
		parentCommits = append(parentCommits, p.commit)
	}

	oid, err := r.repo.CreateCommit("", gitAuthor, gitCommitter, message, tree.tree, parentCommits...)
	if err != nil {
		return Hash{}, fmt.Errorf("create commit: %w", err)
	}

	return HashFromOid(oid), nil
}

// CommitOnBranch authors a commit and moves the named branch to point at it,
// creating the branch if it does not exist. parent may be the zero Hash to
// author a root commit.
func (r *Repository) CommitOnBranch(branch string, tree *Tree, author, committer Signature, message string, parent Hash) (Hash, error) {
	var parents []*Commit

	if !parent.IsZero() {
		parentCommit, err := r.repo.LookupCommit(parent.ToOid())
		if err != nil {
			return Hash{}, fmt.Errorf("lookup parent commit: %w", err)
		}
		defer parentCommit.Free()

		parents = append(parents, &Commit{commit: parentCommit, repo: r})
	}

	hash, err := r.CreateCommit(tree, author, committer, message, parents...)
	if err != nil {
		return Hash{}, err
	}

	if moveErr := r.MoveBranch(branch, hash); moveErr != nil {
		return Hash{}, moveErr
	}

	return hash, nil
}
