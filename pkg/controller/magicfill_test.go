package controller_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/controller"
	"github.com/binsync/binsync/pkg/gitlib"
	"github.com/binsync/binsync/pkg/scheduler"
	"github.com/binsync/binsync/pkg/store"
)

// Magic fill convergence: three users sharing one repository. With carol as
// the preference user, her non-empty name and argument win; bob's extra
// argument is folded in afterward; alice's value for an index carol already
// has is ignored.
func TestMagicFill_ConvergesWithPreference(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	aliceClient, _, err := store.Connect(dir, "alice", "fp", "", true, store.Config{CacheSize: 8})
	require.NoError(t, err)
	t.Cleanup(aliceClient.Close)

	bobClient, _, err := store.Connect(dir, "bob", "fp", "", false, store.Config{CacheSize: 8})
	require.NoError(t, err)

	carolClient, _, err := store.Connect(dir, "carol", "fp", "", false, store.Config{CacheSize: 8})
	require.NoError(t, err)

	header := func(name string, args map[int]artifact.FunctionArgument) artifact.FunctionHeader {
		return artifact.FunctionHeader{Addr: 0x500, Name: name, Args: args}
	}

	seed := func(client *store.Client, user string, h artifact.FunctionHeader) {
		s, getErr := client.GetState(context.Background(), user, gitlib.ZeroHash(), scheduler.Fast, true)
		require.NoError(t, getErr)

		s.SetFunction(artifact.Function{Addr: 0x500, Size: 0x10})
		s.SetFunctionHeader(h)

		_, commitErr := client.CommitState(s, "seed "+user)
		require.NoError(t, commitErr)
	}

	seed(aliceClient, "alice", header("a", map[int]artifact.FunctionArgument{
		0: {Index: 0, Name: "x", Type: "int"},
	}))
	seed(bobClient, "bob", header("", map[int]artifact.FunctionArgument{
		1: {Index: 1, Name: "y", Type: "int"},
	}))
	seed(carolClient, "carol", header("c_name_wins_if_preferred", map[int]artifact.FunctionArgument{
		0: {Index: 0, Name: "x", Type: "long"},
	}))

	bobClient.Close()
	carolClient.Close()

	dec := newFakeDecompiler()

	c := controller.New(controller.Options{
		Client:     aliceClient,
		Decompiler: dec,
		AutoCommit: true,
	})
	t.Cleanup(c.Close)

	err = c.MagicFill(context.Background(), controller.MagicFillOptions{
		PreferenceUser: "carol",
		Blocking:       true,
	})
	require.NoError(t, err)

	f, ok := dec.Function(0x500)
	require.True(t, ok)
	require.NotNil(t, f.Header)
	require.Equal(t, "c_name_wins_if_preferred", f.Header.Name)
	require.Equal(t, "long", f.Header.Args[0].Type)
	require.Equal(t, "int", f.Header.Args[1].Type)
	require.Nil(t, f.Header.LastChange)
}
