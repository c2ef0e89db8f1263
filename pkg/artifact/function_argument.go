package artifact

import "strconv"

// FunctionArgument is one positional argument of a FunctionHeader.
type FunctionArgument struct {
	Index int    `toml:"index"`
	Name  string `toml:"name"`
	Type  string `toml:"type"`
}

func (FunctionArgument) isArtifact() {}

// Kind reports KindFunctionArgument.
func (FunctionArgument) Kind() Kind { return KindFunctionArgument }

// Key returns the argument's index as a decimal string.
func (a FunctionArgument) Key() string { return strconv.Itoa(a.Index) }

// Copy returns a copy of a. FunctionArgument has no reference fields.
func (a FunctionArgument) Copy() Artifact { return a }

// Equal reports whether a and other are the same argument.
func (a FunctionArgument) Equal(other Artifact) bool {
	o, ok := other.(FunctionArgument)
	if !ok {
		return false
	}

	return a.Index == o.Index && a.Name == o.Name && a.Type == o.Type
}

// NonConflictMerge fills every empty scalar field of a from b.
func (a FunctionArgument) NonConflictMerge(b FunctionArgument) FunctionArgument {
	return FunctionArgument{
		Index: a.Index,
		Name:  mergeString(a.Name, b.Name),
		Type:  mergeString(a.Type, b.Type),
	}
}
