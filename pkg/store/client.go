package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/binsync/binsync/pkg/alg/lru"
	"github.com/binsync/binsync/pkg/gitlib"
	"github.com/binsync/binsync/pkg/observability"
	"github.com/binsync/binsync/pkg/scheduler"
	"github.com/binsync/binsync/pkg/state"
	"github.com/binsync/binsync/pkg/syncerr"
)

// remoteName is the single remote BinSync pushes to and fetches from, per
// spec.md's single optional remote URL per Client.
const remoteName = "origin"

// User is one entry of Users()/AllStates(): the branch owner's name and the
// last time they pushed, read out of that branch's metadata.toml.
type User struct {
	Name         string
	LastPushTime *time.Time
}

// Status is the connection state reported by Client.Status.
type Status string

// The three statuses a Client can report.
const (
	StatusDisconnected      Status = "DISCONNECTED"
	StatusConnected         Status = "CONNECTED"
	StatusConnectedNoRemote Status = "CONNECTED_NO_REMOTE"
)

type cacheKey struct {
	branch string
	commit gitlib.Hash
}

// Client is the versioned multi-branch store: one git branch per user,
// built on a git2go-backed gitlib.Repository. The local user's branch is
// the only write target; every other branch is read-only. GetState and
// Users reads are scheduled through a single store-level priority queue.
// Update's fetch and push, and CommitState, run directly on the caller's
// goroutine and do not pass through that queue.
type Client struct {
	repo        *gitlib.Repository
	localUser   string
	localBranch string
	hasRemote   bool

	sched *scheduler.Scheduler
	cache *lru.Cache[cacheKey, *state.State]

	logger  *slog.Logger
	metrics *observability.SyncMetrics

	mu              sync.Mutex
	everPulled      bool
	lastPullAttempt *time.Time
	lastPushAttempt *time.Time
}

// Config bundles Connect's tuning knobs (spec.md §4.F's store.* keys).
type Config struct {
	CacheSize int
	Logger    *slog.Logger
	Metrics   *observability.SyncMetrics
}

// Connect opens (or initializes) the repository at path, binds or verifies
// the on-disk fingerprint, and registers remoteURL as the "origin" remote
// if given. It returns warning strings for recoverable conditions (a fresh
// branch had to be created) and a FingerprintMismatch error — the only
// init-time error this exercise treats as fatal to the caller — if the
// branch already exists and was bound to a different binary fingerprint.
func Connect(path, localUser, fingerprint, remoteURL string, initEmpty bool, cfg Config) (*Client, []string, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repo, err := openOrInitRepository(path, initEmpty)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 32
	}

	c := &Client{
		repo:        repo,
		localUser:   localUser,
		localBranch: gitlib.UserBranchName(localUser),
		sched:       scheduler.New(),
		cache:       lru.New[cacheKey, *state.State](lru.WithMaxEntries[cacheKey, *state.State](cacheSize)),
		logger:      logger,
		metrics:     cfg.Metrics,
	}

	var warnings []string

	if repo.HasBranch(c.localBranch) {
		head, headErr := repo.BranchHead(c.localBranch)
		if headErr != nil {
			return nil, nil, fmt.Errorf("connect: resolve branch head: %w", headErr)
		}

		existing, parseErr := c.getStateAt(c.localBranch, head)
		if parseErr != nil && !errors.Is(parseErr, syncerr.ErrMetadataNotFound) {
			return nil, nil, fmt.Errorf("connect: read existing state: %w", parseErr)
		}

		if parseErr == nil && existing.Fingerprint != "" && existing.Fingerprint != fingerprint {
			return nil, nil, syncerr.ErrFingerprintMismatch
		}
	} else {
		warnings = append(warnings, fmt.Sprintf("branch %s did not exist, creating it", c.localBranch))

		s := state.New(localUser)
		s.Fingerprint = fingerprint

		if _, commitErr := c.CommitState(s, "init"); commitErr != nil {
			return nil, nil, fmt.Errorf("connect: create initial branch: %w", commitErr)
		}
	}

	if remoteURL != "" {
		if addErr := repo.AddRemote(remoteName, remoteURL); addErr != nil {
			return nil, nil, fmt.Errorf("connect: add remote: %w", addErr)
		}

		c.hasRemote = true
	}

	c.sched.StartWorkerThread()

	return c, warnings, nil
}

func openOrInitRepository(path string, initEmpty bool) (*gitlib.Repository, error) {
	repo, err := gitlib.OpenRepository(path)
	if err == nil {
		return repo, nil
	}

	if !initEmpty {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	repo, err = gitlib.InitRepository(path)
	if err != nil {
		return nil, fmt.Errorf("init repository: %w", err)
	}

	return repo, nil
}

// Close stops the store-level scheduler and releases the repository.
func (c *Client) Close() {
	c.sched.StopWorkerThread()
	c.repo.Free()
}

// Status reports the connection state: no remote is configured, a remote
// is configured, or (for a nil Client) never connected at all.
func (c *Client) Status() Status {
	if c == nil {
		return StatusDisconnected
	}

	if c.hasRemote {
		return StatusConnected
	}

	return StatusConnectedNoRemote
}

// CommitState dumps state's full container set into a new tree rooted at
// the local user's branch, commits it with msg, and advances the branch
// head. This is a local operation only — it never touches the remote; see
// Update for the pull/push cycle.
func (c *Client) CommitState(target *state.State, msg string) (gitlib.Hash, error) {
	tw := gitlib.NewTreeWriter(c.repo)

	if err := target.Dump(NewTreeWriterAdapter(tw)); err != nil {
		return gitlib.Hash{}, fmt.Errorf("dump state: %w", err)
	}

	tree, err := tw.Write()
	if err != nil {
		return gitlib.Hash{}, fmt.Errorf("write tree: %w", err)
	}

	defer tree.Free()

	parent := gitlib.ZeroHash()

	if head, headErr := c.repo.BranchHead(c.localBranch); headErr == nil {
		parent = head
	}

	sig := gitlib.Signature{Name: target.User, Email: target.User + "@binsync.local", When: time.Now()}

	hash, err := c.repo.CommitOnBranch(c.localBranch, tree, sig, sig, msg, parent)
	if err != nil {
		return gitlib.Hash{}, fmt.Errorf("commit on branch %s: %w", c.localBranch, err)
	}

	target.MarkClean()

	return hash, nil
}

// getStateAt parses the State stored in branch's tree at commit, without
// going through the cache or the scheduler — the low-level primitive both
// GetState and Connect's fingerprint check build on.
func (c *Client) getStateAt(_ string, commit gitlib.Hash) (*state.State, error) {
	commitObj, err := c.repo.LookupCommit(commit)
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}

	defer commitObj.Free()

	tree, err := commitObj.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}

	defer tree.Free()

	reader, err := NewTreeReader(c.repo, tree)
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}

	s, err := state.Parse(reader)
	if err != nil {
		return nil, err //nolint:wrapcheck // already a well-known sentinel (MetadataNotFound) or wrapped
	}

	return s, nil
}

// GetState returns the parsed State for user's branch (the local user if
// user is empty) at commit (the branch head if the zero hash), scheduled
// through the store-level priority queue and served from the
// (branch, commit) LRU cache unless noCache is set.
func (c *Client) GetState(ctx context.Context, user string, commit gitlib.Hash, priority scheduler.Priority, noCache bool) (*state.State, error) {
	branch := c.localBranch
	if user != "" {
		branch = gitlib.UserBranchName(user)
	}

	result, err := c.sched.ScheduleAndWaitJob(ctx, func() (any, error) {
		return c.getStateScheduled(branch, commit, noCache)
	}, priority)
	if err != nil {
		return nil, err
	}

	s, ok := result.(*state.State)
	if !ok {
		return nil, fmt.Errorf("get_state: unexpected result type %T", result)
	}

	return s, nil
}

func (c *Client) getStateScheduled(branch string, commit gitlib.Hash, noCache bool) (*state.State, error) {
	resolved := commit

	if resolved.IsZero() {
		head, err := c.repo.BranchHead(branch)
		if err != nil {
			return nil, fmt.Errorf("resolve %s head: %w", branch, err)
		}

		resolved = head
	}

	key := cacheKey{branch: branch, commit: resolved}

	if !noCache {
		if cached, hit := c.cache.Get(key); hit {
			return cached, nil
		}
	}

	s, err := c.getStateAt(branch, resolved)
	if err != nil {
		return nil, err
	}

	if !noCache {
		c.cache.Put(key, s)
	}

	return s, nil
}

// Users enumerates every known binsync/<user> branch and returns one User
// per branch whose metadata could be read. A branch whose metadata is
// missing or unparseable is skipped and logged, not fatal to the others.
func (c *Client) Users(ctx context.Context, priority scheduler.Priority) ([]User, error) {
	result, err := c.sched.ScheduleAndWaitJob(ctx, func() (any, error) {
		return c.usersScheduled()
	}, priority)
	if err != nil {
		return nil, err
	}

	users, ok := result.([]User)
	if !ok {
		return nil, fmt.Errorf("users: unexpected result type %T", result)
	}

	return users, nil
}

func (c *Client) usersScheduled() ([]User, error) {
	branches, err := c.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	var users []User

	for _, branch := range branches {
		name, ok := gitlib.UserFromBranchName(branch)
		if !ok {
			continue
		}

		head, headErr := c.repo.BranchHead(branch)
		if headErr != nil {
			continue
		}

		s, parseErr := c.getStateAt(branch, head)
		if parseErr != nil {
			c.logger.LogAttrs(context.Background(), syncerr.Severity(parseErr), "skipping branch with unreadable metadata",
				slog.String("branch", branch), slog.Any("error", parseErr))

			continue
		}

		users = append(users, User{Name: name, LastPushTime: s.LastPushTime})
	}

	return users, nil
}

// AllStates returns the latest parsed State for every known user branch,
// in the same best-effort, skip-on-failure manner as Users.
func (c *Client) AllStates(ctx context.Context, priority scheduler.Priority) (map[string]*state.State, error) {
	users, err := c.Users(ctx, priority)
	if err != nil {
		return nil, err
	}

	states := make(map[string]*state.State, len(users))

	for _, u := range users {
		s, getErr := c.GetState(ctx, u.Name, gitlib.ZeroHash(), priority, false)
		if getErr != nil {
			c.logger.LogAttrs(context.Background(), syncerr.Severity(getErr), "skipping user in all_states",
				slog.String("user", u.Name), slog.Any("error", getErr))

			continue
		}

		states[u.Name] = s
	}

	return states, nil
}

// Update runs one pull/commit/push cycle: fetch the remote (if any); if
// localState is dirty and autoCommit is set, commit it; if autoPush is set
// and a remote is configured, push the local branch. last_pull_attempt_time
// and last_push_attempt_time are stamped on every call, whether or not a
// fetch or push is attempted and whatever its outcome. Every failure here is logged and swallowed per
// the store's failure policy — Update itself never returns a network or
// parse error to the caller.
func (c *Client) Update(localState *state.State, commitMsg string, autoCommit, autoPush bool) {
	c.stampPullAttempt()

	if c.hasRemote {
		if err := c.repo.FetchAll(remoteName, gitlib.RemoteCallbacks{}); err != nil {
			c.logNetworkFailure("pull", err)
		}
	}

	c.mu.Lock()
	c.everPulled = true
	c.mu.Unlock()

	if autoCommit && localState.Dirty() {
		msg := commitMsg
		if msg == "" {
			msg = "User edits"
		}

		if _, err := c.CommitState(localState, msg); err != nil {
			c.logger.Warn("commit_state failed during update", "error", err)
		}
	}

	c.stampPushAttempt()

	if autoPush && c.hasRemote {
		if err := c.repo.PushBranch(remoteName, c.localBranch, false, gitlib.RemoteCallbacks{}); err != nil {
			c.logNetworkFailure("push", err)
		}
	}
}

// EverPulled reports whether Update has run at least once, the signal the
// updater routine (spec.md §4.E) uses to choose between its first-ever-pull
// and steady-state reload_time-gated branches.
func (c *Client) EverPulled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.everPulled
}

// LastPullAttempt returns the time of the most recent pull attempt
// (successful or not), or nil if none has happened yet.
func (c *Client) LastPullAttempt() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastPullAttempt
}

// LastPushAttempt returns the time of the most recent push attempt
// (successful or not), or nil if none has happened yet.
func (c *Client) LastPushAttempt() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastPushAttempt
}

func (c *Client) stampPullAttempt() {
	now := time.Now().UTC()

	c.mu.Lock()
	c.lastPullAttempt = &now
	c.mu.Unlock()
}

func (c *Client) stampPushAttempt() {
	now := time.Now().UTC()

	c.mu.Lock()
	c.lastPushAttempt = &now
	c.mu.Unlock()
}

func (c *Client) logNetworkFailure(op string, err error) {
	wrapped := fmt.Errorf("%s: %w: %w", op, syncerr.ErrNetworkFailure, err)
	c.logger.LogAttrs(context.Background(), syncerr.Severity(syncerr.ErrNetworkFailure), "remote operation failed",
		slog.String("op", op), slog.Any("error", wrapped))

	c.metrics.RecordOperation(context.Background(), observability.SyncStats{Operation: op})
}

// ListFilesInTree is the list_files_in_tree tree-level primitive, exposed
// directly for callers (the Controller's struct-import walk) that need to
// enumerate a historical tree without going through State.Parse.
func (c *Client) ListFilesInTree(tree *gitlib.Tree) ([]*gitlib.File, error) {
	files, err := gitlib.TreeFiles(c.repo, tree)
	if err != nil {
		return nil, fmt.Errorf("list files in tree: %w", err)
	}

	return files, nil
}

// LoadFileFromTree is the load_file_from_tree tree-level primitive.
func (c *Client) LoadFileFromTree(tree *gitlib.Tree, path string) ([]byte, error) {
	entry, err := tree.EntryByPath(path)
	if err != nil {
		return nil, fmt.Errorf("load %s from tree: %w", path, err)
	}

	blob, err := c.repo.LookupBlob(entry.Hash())
	if err != nil {
		return nil, fmt.Errorf("load blob for %s: %w", path, err)
	}

	defer blob.Free()

	return blob.Contents(), nil
}

// AddData is the add_data tree-level primitive, staging path/bytes into a
// tree under construction.
func (c *Client) AddData(tw *gitlib.TreeWriter, path string, data []byte) {
	tw.Add(path, data)
}

// NewTreeWriter starts a new tree-under-construction rooted at this
// repository, for callers building a tree outside of CommitState (the
// Controller's struct-import path writes partial trees this way).
func (c *Client) NewTreeWriter() *gitlib.TreeWriter {
	return gitlib.NewTreeWriter(c.repo)
}

// CacheStats reports the (branch, commit) -> State LRU cache's hit/miss
// counters, surfaced through Observability per SPEC_FULL.md §4.B.1.
func (c *Client) CacheStats() lru.Stats {
	return c.cache.Stats()
}
