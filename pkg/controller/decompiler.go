package controller

import "github.com/binsync/binsync/pkg/artifact"

// DecompilerInterface is the external decompiler-integration layer: the
// live artifact containers a GUI or headless tool exposes, mutable from
// the Controller, plus the handful of facts (binary identity, function
// sizing, type parsing) the merge pipeline needs from it. No concrete
// implementation lives in this module; tests use a fake.
type DecompilerInterface interface {
	Functions() map[uint64]artifact.Function
	Function(addr uint64) (artifact.Function, bool)
	SetFunction(artifact.Function)

	Comments() map[uint64]artifact.Comment
	Comment(addr uint64) (artifact.Comment, bool)
	SetComment(artifact.Comment)

	GlobalVariables() map[uint64]artifact.GlobalVariable
	GlobalVariable(addr uint64) (artifact.GlobalVariable, bool)
	SetGlobalVariable(artifact.GlobalVariable)

	Structs() map[string]artifact.Struct
	Struct(name string) (artifact.Struct, bool)
	SetStruct(artifact.Struct)

	Enums() map[string]artifact.Enum
	Enum(name string) (artifact.Enum, bool)
	SetEnum(artifact.Enum)

	Patches() map[uint64]artifact.Patch
	Patch(offset uint64) (artifact.Patch, bool)
	SetPatch(artifact.Patch)

	// BinaryHash identifies the binary under analysis; it seeds the
	// store's fingerprint binding at connect time.
	BinaryHash() string
	// BinaryPath is the binary's on-disk path.
	BinaryPath() string

	// FuncSizeAt reports the decompiler's own notion of a function's size
	// at addr, used by push_artifact to size a placeholder Function.
	FuncSizeAt(addr uint64) (uint64, bool)

	// ParseType parses a type string using the decompiler's own type
	// parser. A concrete decompiler may delegate to ParseCType, or to a
	// richer parser that also recognizes types the decompiler has learned
	// from the binary itself.
	ParseType(raw string) ParsedType

	// ActiveContext reports the address the user's cursor currently sits
	// on, if any.
	ActiveContext() (uint64, bool)

	// StartArtifactWatchers installs cb as the decompiler's artifact-write
	// callback, invoked whenever the user edits an artifact from the
	// decompiler thread.
	StartArtifactWatchers(cb func(artifact.Artifact))
}

// ProgressBar wraps a bulk operation with a description and a GUI-
// visibility flag, the collaborator force_push reports progress through.
type ProgressBar interface {
	// Run calls step once per unit of total, in order, after announcing
	// desc; gui indicates whether the implementation should surface a
	// visible widget rather than a headless log line.
	Run(total int, desc string, gui bool, step func(i int))
}
