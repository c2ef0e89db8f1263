package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// RemoteCallbacks configures authentication for remote operations.
// CredentialsCallback mirrors libgit2's credential-acquisition hook; leave
// nil to rely on the system's default credential helpers (SSH agent,
// credential.helper, etc.).
type RemoteCallbacks struct {
	CredentialsCallback git2go.CredentialsCallback
}

func (cb RemoteCallbacks) toGit2go() git2go.RemoteCallbacks {
	return git2go.RemoteCallbacks{
		CredentialsCallback: cb.CredentialsCallback,
	}
}

// AddRemote registers a remote with the given name and URL, replacing any
// existing remote of the same name.
func (r *Repository) AddRemote(name, url string) error {
	_ = r.repo.Remotes.Delete(name)

	_, err := r.repo.Remotes.Create(name, url)
	if err != nil {
		return fmt.Errorf("add remote %s: %w", name, err)
	}

	return nil
}

// FetchBranch fetches a single branch ref from the given remote.
func (r *Repository) FetchBranch(remoteName, branch string, cb RemoteCallbacks) error {
	remote, err := r.repo.Remotes.Lookup(remoteName)
	if err != nil {
		return fmt.Errorf("lookup remote %s: %w", remoteName, err)
	}
	defer remote.Free()

	refspec := fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remoteName, branch)

	opts := &git2go.FetchOptions{RemoteCallbacks: cb.toGit2go()}

	if fetchErr := remote.Fetch([]string{refspec}, opts, "binsync fetch"); fetchErr != nil {
		return fmt.Errorf("fetch %s from %s: %w", branch, remoteName, fetchErr)
	}

	return nil
}

// FetchAll fetches all refs matching the remote's configured refspecs.
func (r *Repository) FetchAll(remoteName string, cb RemoteCallbacks) error {
	remote, err := r.repo.Remotes.Lookup(remoteName)
	if err != nil {
		return fmt.Errorf("lookup remote %s: %w", remoteName, err)
	}
	defer remote.Free()

	opts := &git2go.FetchOptions{RemoteCallbacks: cb.toGit2go()}

	if fetchErr := remote.Fetch(nil, opts, "binsync fetch"); fetchErr != nil {
		return fmt.Errorf("fetch all from %s: %w", remoteName, fetchErr)
	}

	return nil
}

// PushBranch pushes a local branch to the remote, creating or updating the
// remote branch of the same name. With force set it uses a force-push
// ("+") refspec, which lets the push rewrite the remote branch's history.
func (r *Repository) PushBranch(remoteName, branch string, force bool, cb RemoteCallbacks) error {
	remote, err := r.repo.Remotes.Lookup(remoteName)
	if err != nil {
		return fmt.Errorf("lookup remote %s: %w", remoteName, err)
	}
	defer remote.Free()

	refspec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)
	if force {
		refspec = "+" + refspec
	}

	opts := &git2go.PushOptions{RemoteCallbacks: cb.toGit2go()}

	if pushErr := remote.Push([]string{refspec}, opts); pushErr != nil {
		return fmt.Errorf("push %s to %s: %w", branch, remoteName, pushErr)
	}

	return nil
}

// RemoteBranchHash resolves the hash of a branch as last fetched from a
// remote, via its remote-tracking ref.
func (r *Repository) RemoteBranchHash(remoteName, branch string) (Hash, error) {
	ref, err := r.repo.References.Lookup(fmt.Sprintf("refs/remotes/%s/%s", remoteName, branch))
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %s/%s", ErrBranchNotFound, remoteName, branch)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}
