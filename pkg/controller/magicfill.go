package controller

import (
	"context"
	"sort"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/config"
	"github.com/binsync/binsync/pkg/scheduler"
	"github.com/binsync/binsync/pkg/state"
)

// magicFillKinds are the only variants magic fill converges: Struct and
// Comment are excluded, per spec.md §9 Design Note (b).
var magicFillKinds = []artifact.Kind{ //nolint:gochecknoglobals // fixed policy list
	artifact.KindFunction,
	artifact.KindGlobalVariable,
	artifact.KindEnum,
}

// MagicFillOptions tunes MagicFill. PreferenceUser, if it has a version of a
// given identifier, seeds that identifier's reduction; otherwise the first
// user (in sorted username order) that has one seeds it.
type MagicFillOptions struct {
	PreferenceUser string
	MergeLevel     config.MergeLevel
	Blocking       bool
}

// MagicFill is multi-user convergence: for every Function, GlobalVariable,
// and Enum identifier that exists in any connected user's state, it reduces
// every user's version of that identifier into one non-conflicting merge
// and fills the result into the local user. A failure merging or filling
// one identifier is logged and does not abort the round.
func (c *Controller) MagicFill(ctx context.Context, opts MagicFillOptions) error {
	level := opts.MergeLevel
	if level == config.MergeOverwrite || level == "" {
		level = config.MergeNonConflicting
	}

	states, err := c.client.AllStates(ctx, scheduler.Medium)
	if err != nil {
		return err
	}

	master, err := c.masterState(ctx)
	if err != nil {
		return err
	}

	users := make([]string, 0, len(states))
	for user := range states {
		users = append(users, user)
	}

	sort.Strings(users)

	orderedUsers := orderByPreference(users, opts.PreferenceUser)

	for _, kind := range magicFillKinds {
		c.magicFillKind(kind, orderedUsers, states, master, level, opts.Blocking)
	}

	return nil
}

// orderByPreference moves pref to the front of users, if it is itself a
// known user, leaving the rest in their existing (sorted) order. An unknown
// preference user is ignored rather than producing a lookup against a user
// with no state.
func orderByPreference(users []string, pref string) []string {
	found := false

	for _, u := range users {
		if u == pref {
			found = true

			break
		}
	}

	if pref == "" || !found {
		return users
	}

	ordered := make([]string, 0, len(users))
	ordered = append(ordered, pref)

	for _, u := range users {
		if u != pref {
			ordered = append(ordered, u)
		}
	}

	return ordered
}

func (c *Controller) magicFillKind(
	kind artifact.Kind,
	orderedUsers []string,
	states map[string]*state.State,
	master *state.State,
	level config.MergeLevel,
	blocking bool,
) {
	ids := unionIdentifiers(kind, orderedUsers, states)

	for _, id := range ids {
		merged, sources, err := c.reduceIdentifier(kind, id, orderedUsers, states, level)
		if err != nil {
			c.logger.Warn("magic_fill: reduce failed", "kind", kind, "id", id, "error", err)

			continue
		}

		if merged == nil {
			continue
		}

		commitMsg := "Magic Synced " + string(kind) + " " + merged.Key()

		c.applyMerged(merged, sources, master, commitMsg, blocking)
	}
}

// unionIdentifiers collects every identifier of kind present in any user's
// state, in a stable order: each user is visited in orderedUsers order, and
// within a user, identifiers are visited in the order getArtifact's own
// accessor yields (sorted, since each is a map range) — determinism here
// only needs to be stable across a single MagicFill call, not across calls.
func unionIdentifiers(kind artifact.Kind, orderedUsers []string, states map[string]*state.State) []string {
	seen := map[string]bool{}

	var ids []string

	add := func(id string) {
		if !seen[id] {
			seen[id] = true

			ids = append(ids, id)
		}
	}

	for _, user := range orderedUsers {
		s := states[user]

		switch kind {
		case artifact.KindFunction:
			keys := make([]uint64, 0, len(s.Functions()))
			for addr := range s.Functions() {
				keys = append(keys, addr)
			}

			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

			for _, addr := range keys {
				add(artifact.Function{Addr: addr}.Key())
			}

		case artifact.KindGlobalVariable:
			keys := make([]uint64, 0, len(s.GlobalVariables()))
			for addr := range s.GlobalVariables() {
				keys = append(keys, addr)
			}

			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

			for _, addr := range keys {
				add(artifact.GlobalVariable{Addr: addr}.Key())
			}

		case artifact.KindEnum:
			names := make([]string, 0, len(s.Enums()))
			for name := range s.Enums() {
				names = append(names, name)
			}

			sort.Strings(names)

			for _, name := range names {
				add(name)
			}
		}
	}

	return ids
}

// reduceIdentifier sequentially non-conflict-merges every orderedUsers'
// version of (kind, id), starting from the first user that has one, and
// returns the merged artifact plus the states it drew from — in the order
// they were merged, for discover_and_import_user_defined_types to search.
func (c *Controller) reduceIdentifier(
	kind artifact.Kind,
	id string,
	orderedUsers []string,
	states map[string]*state.State,
	level config.MergeLevel,
) (artifact.Artifact, []*state.State, error) {
	var (
		acc     artifact.Artifact
		sources []*state.State
	)

	for _, user := range orderedUsers {
		s := states[user]

		a, found, err := getArtifact(s, kind, []string{id})
		if err != nil {
			return nil, nil, err
		}

		if !found {
			continue
		}

		sources = append(sources, s)

		if acc == nil {
			acc = a.Copy()

			continue
		}

		merged, err := c.mergeArtifacts(acc, a, level)
		if err != nil {
			return nil, nil, err
		}

		acc = merged
	}

	return acc, sources, nil
}
