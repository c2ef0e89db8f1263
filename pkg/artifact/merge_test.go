package artifact_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binsync/binsync/pkg/artifact"
)

func TestNonConflictMergeHeader_NilOther(t *testing.T) {
	t.Parallel()

	a := &artifact.FunctionHeader{Addr: 0x1000, Name: "foo"}

	merged := artifact.NonConflictMergeHeader(a, nil)

	assert.True(t, merged.Equal(*a))
}

func TestNonConflictMergeHeader_NilSelf(t *testing.T) {
	t.Parallel()

	b := &artifact.FunctionHeader{Addr: 0x1000, Name: "foo"}

	merged := artifact.NonConflictMergeHeader(nil, b)

	assert.True(t, merged.Equal(*b))
}

func TestNonConflictMergeHeader_BothNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, artifact.NonConflictMergeHeader(nil, nil))
}

// TestNonConflictMergeHeader_TwoUserScenario mirrors the spec's worked
// example: alice has a name and arg 0, bob has no name and arg 1. The merge
// keeps alice's name (non-empty wins, b's empty name does not overwrite it)
// and unions the argument maps.
func TestNonConflictMergeHeader_TwoUserScenario(t *testing.T) {
	t.Parallel()

	alice := &artifact.FunctionHeader{
		Addr: 0x401000,
		Name: "foo",
		Args: map[int]artifact.FunctionArgument{
			0: {Index: 0, Name: "a", Type: "int"},
		},
	}
	bob := &artifact.FunctionHeader{
		Addr: 0x401000,
		Args: map[int]artifact.FunctionArgument{
			1: {Index: 1, Name: "b", Type: "char*"},
		},
	}

	merged := artifact.NonConflictMergeHeader(alice, bob)

	assert.Equal(t, "foo", merged.Name)
	assert.Len(t, merged.Args, 2)
	assert.Equal(t, "a", merged.Args[0].Name)
	assert.Equal(t, "b", merged.Args[1].Name)
	assert.Nil(t, merged.LastChange)
}

// TestNonConflictMergeHeader_MagicFillConvergence mirrors the spec's
// three-user worked example: carol (the preference user) already has a
// non-empty field, so alice's competing value for the same key is ignored
// while bob's disjoint key is still added.
func TestNonConflictMergeHeader_MagicFillConvergence(t *testing.T) {
	t.Parallel()

	carol := &artifact.FunctionHeader{
		Addr: 0x500,
		Name: "c_name_wins_if_preferred",
		Args: map[int]artifact.FunctionArgument{
			0: {Index: 0, Name: "x", Type: "long"},
		},
	}
	alice := &artifact.FunctionHeader{
		Addr: 0x500,
		Name: "a",
		Args: map[int]artifact.FunctionArgument{
			0: {Index: 0, Name: "x", Type: "int"},
		},
	}
	bob := &artifact.FunctionHeader{
		Addr: 0x500,
		Args: map[int]artifact.FunctionArgument{
			1: {Index: 1, Name: "y", Type: "int"},
		},
	}

	result := artifact.NonConflictMergeHeader(carol, alice)
	result = artifact.NonConflictMergeHeader(result, bob)

	assert.Equal(t, "c_name_wins_if_preferred", result.Name)
	assert.Len(t, result.Args, 2)
	assert.Equal(t, "long", result.Args[0].Type)
	assert.Equal(t, "int", result.Args[1].Type)
}

func TestStruct_NonConflictMerge_Idempotent(t *testing.T) {
	t.Parallel()

	a := artifact.Struct{
		Name: "s1",
		Size: 8,
		Members: map[uint64]artifact.StructMember{
			0: {Offset: 0, Name: "a", Type: "int", Size: 4},
		},
	}
	b := artifact.Struct{
		Name: "s1",
		Size: 8,
		Members: map[uint64]artifact.StructMember{
			4: {Offset: 4, Name: "b", Type: "int", Size: 4},
		},
	}

	once := a.NonConflictMerge(b, artifact.MergeOptions{})
	twice := once.NonConflictMerge(b, artifact.MergeOptions{})

	assert.True(t, once.Equal(twice))
}

func TestStruct_NonConflictMerge_SkipMembers(t *testing.T) {
	t.Parallel()

	a := artifact.Struct{Name: "s1", Size: 8}
	b := artifact.Struct{
		Name: "s1",
		Size: 8,
		Members: map[uint64]artifact.StructMember{
			0: {Offset: 0, Name: "a", Type: "int", Size: 4},
		},
	}

	merged := a.NonConflictMerge(b, artifact.MergeOptions{SkipMembers: true})

	assert.Empty(t, merged.Members)
}

func TestFunction_NonConflictMerge_UnionsStackVars(t *testing.T) {
	t.Parallel()

	a := artifact.Function{
		Addr: 0x401000,
		Size: 0,
		StackVars: map[int64]artifact.StackVariable{
			-4: {Addr: 0x401000, Offset: -4, Name: "a", Type: "int"},
		},
	}
	b := artifact.Function{
		Addr: 0x401000,
		Size: 64,
		StackVars: map[int64]artifact.StackVariable{
			-8: {Addr: 0x401000, Offset: -8, Name: "b", Type: "char*"},
		},
	}

	merged := a.NonConflictMerge(b, artifact.MergeOptions{})

	assert.Equal(t, uint64(64), merged.Size, "placeholder size is overlaid by b's real size")
	assert.Len(t, merged.StackVars, 2)
}

func TestEnum_NonConflictMerge_UnionsMembers(t *testing.T) {
	t.Parallel()

	a := artifact.Enum{Name: "color_t", Members: map[string]int64{"RED": 0}}
	b := artifact.Enum{Name: "color_t", Members: map[string]int64{"RED": 99, "BLUE": 2}}

	merged := a.NonConflictMerge(b)

	assert.Equal(t, int64(0), merged.Members["RED"], "existing key is not overwritten")
	assert.Equal(t, int64(2), merged.Members["BLUE"])
}

func TestPatch_NonConflictMerge_WholeByteRun(t *testing.T) {
	t.Parallel()

	a := artifact.Patch{Offset: 0x10}
	b := artifact.Patch{Offset: 0x10, Bytes: []byte{0x90, 0x90}}

	merged := a.NonConflictMerge(b)

	assert.Equal(t, []byte{0x90, 0x90}, merged.Bytes)
}
