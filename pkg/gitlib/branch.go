package gitlib

import (
	"errors"
	"fmt"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrBranchNotFound is returned when a requested branch does not exist.
var ErrBranchNotFound = errors.New("branch not found")

// Branches returns the names of all local branches.
func (r *Repository) Branches() ([]string, error) {
	iter, err := r.repo.NewBranchIterator(git2go.BranchLocal)
	if err != nil {
		return nil, fmt.Errorf("create branch iterator: %w", err)
	}
	defer iter.Free()

	var names []string

	for {
		branch, _, nextErr := iter.Next()
		if nextErr != nil {
			break
		}

		name, nameErr := branch.Name()

		branch.Free()

		if nameErr != nil {
			continue
		}

		names = append(names, name)
	}

	return names, nil
}

// BranchHead resolves the commit hash at the tip of a local branch.
func (r *Repository) BranchHead(name string) (Hash, error) {
	ref, err := r.repo.References.Lookup("refs/heads/" + name)
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// HasBranch reports whether a local branch with the given name exists.
func (r *Repository) HasBranch(name string) bool {
	_, err := r.BranchHead(name)

	return err == nil
}

// CreateBranch creates a new local branch pointing at the given commit.
func (r *Repository) CreateBranch(name string, target Hash) error {
	commit, err := r.repo.LookupCommit(target.ToOid())
	if err != nil {
		return fmt.Errorf("lookup target commit: %w", err)
	}
	defer commit.Free()

	branch, err := r.repo.CreateBranch(name, commit, false)
	if err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	defer branch.Free()

	return nil
}

// MoveBranch force-moves a local branch's ref to the given commit, creating
// it if it does not already exist.
func (r *Repository) MoveBranch(name string, target Hash) error {
	_, err := r.repo.References.Create("refs/heads/"+name, target.ToOid(), true, "binsync: update "+name)
	if err != nil {
		return fmt.Errorf("move branch %s: %w", name, err)
	}

	return nil
}

// UserBranchName returns the conventional per-user branch name for a given
// BinSync client identity.
func UserBranchName(user string) string {
	return "binsync/" + user
}

// UserFromBranchName extracts the BinSync user name from a branch name,
// returning false if the branch does not follow the binsync/<user> convention.
func UserFromBranchName(branch string) (string, bool) {
	const prefix = "binsync/"
	if !strings.HasPrefix(branch, prefix) {
		return "", false
	}

	return strings.TrimPrefix(branch, prefix), true
}
