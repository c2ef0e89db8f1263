package artifact

import "time"

// Enum is a named set of integer-valued members.
type Enum struct {
	Name       string           `toml:"name"`
	Members    map[string]int64 `toml:"members"`
	LastChange *time.Time       `toml:"last_change,omitempty"`
}

func (Enum) isArtifact() {}

// Kind reports KindEnum.
func (Enum) Kind() Kind { return KindEnum }

// Key is the enum's name.
func (e Enum) Key() string { return e.Name }

// Copy returns a deep copy of e.
func (e Enum) Copy() Artifact {
	cp := e
	cp.LastChange = copyTimestamp(e.LastChange)

	if e.Members != nil {
		cp.Members = make(map[string]int64, len(e.Members))
		for k, v := range e.Members {
			cp.Members[k] = v
		}
	}

	return cp
}

// Equal reports structural equality, ignoring LastChange.
func (e Enum) Equal(other Artifact) bool {
	o, ok := other.(Enum)
	if !ok {
		return false
	}

	if e.Name != o.Name || len(e.Members) != len(o.Members) {
		return false
	}

	for k, v := range e.Members {
		ov, found := o.Members[k]
		if !found || v != ov {
			return false
		}
	}

	return true
}

// NonConflictMerge unions e's members with every member of b whose name is
// absent from e. Member values never conflict-merge: a name either names a
// value in e already, or it is added whole from b.
func (e Enum) NonConflictMerge(b Enum) Enum {
	merged := Enum{
		Name:    e.Name,
		Members: make(map[string]int64, len(e.Members)+len(b.Members)),
	}

	for k, v := range e.Members {
		merged.Members[k] = v
	}

	for k, v := range b.Members {
		if _, found := merged.Members[k]; !found {
			merged.Members[k] = v
		}
	}

	return merged
}
