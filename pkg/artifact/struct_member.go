package artifact

import "strconv"

// StructMember is one field of a Struct, keyed by byte offset.
type StructMember struct {
	Offset uint64 `toml:"offset"`
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Size   uint64 `toml:"size"`
}

func (StructMember) isArtifact() {}

// Kind reports KindStructMember.
func (StructMember) Kind() Kind { return KindStructMember }

// Key returns the member's offset as a decimal string.
func (m StructMember) Key() string { return strconv.FormatUint(m.Offset, 10) }

// Copy returns a copy of m. StructMember has no reference fields.
func (m StructMember) Copy() Artifact { return m }

// Equal reports whether m and other are the same member.
func (m StructMember) Equal(other Artifact) bool {
	o, ok := other.(StructMember)
	if !ok {
		return false
	}

	return m.Offset == o.Offset && m.Name == o.Name && m.Type == o.Type && m.Size == o.Size
}

// NonConflictMerge fills every empty/zero scalar field of m from b.
func (m StructMember) NonConflictMerge(b StructMember) StructMember {
	return StructMember{
		Offset: m.Offset,
		Name:   mergeString(m.Name, b.Name),
		Type:   mergeString(m.Type, b.Type),
		Size:   mergeUint64(m.Size, b.Size),
	}
}
