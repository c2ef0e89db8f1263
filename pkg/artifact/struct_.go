package artifact

import "time"

// Struct is a named aggregate type with byte-offset-keyed members. Structs
// may reference each other by name in a member's Type; the controller's
// dependency-aware import walks these references and uses SkipMembers to
// import a header (name + size, no members) before the members themselves,
// breaking cycles.
type Struct struct {
	Name       string                  `toml:"name"`
	Size       uint64                  `toml:"size"`
	Members    map[uint64]StructMember `toml:"members"`
	LastChange *time.Time              `toml:"last_change,omitempty"`
}

func (Struct) isArtifact() {}

// Kind reports KindStruct.
func (Struct) Kind() Kind { return KindStruct }

// Key is the struct's name.
func (s Struct) Key() string { return s.Name }

// Copy returns a deep copy of s.
func (s Struct) Copy() Artifact {
	cp := s
	cp.LastChange = copyTimestamp(s.LastChange)

	if s.Members != nil {
		cp.Members = make(map[uint64]StructMember, len(s.Members))
		for k, v := range s.Members {
			cp.Members[k] = v
		}
	}

	return cp
}

// Equal reports structural equality, ignoring LastChange.
func (s Struct) Equal(other Artifact) bool {
	o, ok := other.(Struct)
	if !ok {
		return false
	}

	if s.Name != o.Name || s.Size != o.Size || len(s.Members) != len(o.Members) {
		return false
	}

	for k, v := range s.Members {
		ov, found := o.Members[k]
		if !found || !v.Equal(ov) {
			return false
		}
	}

	return true
}

// NonConflictMerge fills every empty scalar field of s from b and
// unions members keyed by offset, with per-entry NonConflictMerge. With
// opts.SkipMembers set, s's own members are kept untouched and b's are not
// imported, used to land a struct's header before its members are resolved.
func (s Struct) NonConflictMerge(b Struct, opts MergeOptions) Struct {
	merged := Struct{
		Name: s.Name,
		Size: mergeUint64(s.Size, b.Size),
	}

	if opts.SkipMembers {
		merged.Members = s.Members

		return merged
	}

	merged.Members = make(map[uint64]StructMember, len(s.Members)+len(b.Members))

	for k, v := range s.Members {
		merged.Members[k] = v
	}

	for k, v := range b.Members {
		if existing, found := merged.Members[k]; found {
			merged.Members[k] = existing.NonConflictMerge(v)
		} else {
			merged.Members[k] = v
		}
	}

	return merged
}
