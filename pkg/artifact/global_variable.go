package artifact

import (
	"strconv"
	"time"
)

// GlobalVariable is a named, typed variable at a fixed address outside any
// function's stack frame.
type GlobalVariable struct {
	Addr       uint64     `toml:"addr"`
	Name       string     `toml:"name"`
	Type       string     `toml:"type"`
	LastChange *time.Time `toml:"last_change,omitempty"`
}

func (GlobalVariable) isArtifact() {}

// Kind reports KindGlobalVariable.
func (GlobalVariable) Kind() Kind { return KindGlobalVariable }

// Key is the variable's address, hex-encoded.
func (g GlobalVariable) Key() string { return strconv.FormatUint(g.Addr, 16) }

// Copy returns a deep copy of g.
func (g GlobalVariable) Copy() Artifact {
	g.LastChange = copyTimestamp(g.LastChange)

	return g
}

// Equal reports structural equality, ignoring LastChange.
func (g GlobalVariable) Equal(other Artifact) bool {
	o, ok := other.(GlobalVariable)
	if !ok {
		return false
	}

	return g.Addr == o.Addr && g.Name == o.Name && g.Type == o.Type
}

// NonConflictMerge fills every empty scalar field of g from b.
func (g GlobalVariable) NonConflictMerge(b GlobalVariable) GlobalVariable {
	return GlobalVariable{
		Addr: g.Addr,
		Name: mergeString(g.Name, b.Name),
		Type: mergeString(g.Type, b.Type),
	}
}
