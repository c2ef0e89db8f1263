package artifact

import (
	"strconv"
	"time"
)

// Comment is free text attached to an address. Decompiled marks a comment
// synthesized by the decompiler itself (e.g. a renamed-variable note) rather
// than authored by a user.
type Comment struct {
	Addr       uint64     `toml:"addr"`
	Comment    string     `toml:"comment"`
	Decompiled bool       `toml:"decompiled"`
	LastChange *time.Time `toml:"last_change,omitempty"`
}

func (Comment) isArtifact() {}

// Kind reports KindComment.
func (Comment) Kind() Kind { return KindComment }

// Key is the comment's address, hex-encoded.
func (c Comment) Key() string { return strconv.FormatUint(c.Addr, 16) }

// Copy returns a deep copy of c.
func (c Comment) Copy() Artifact {
	c.LastChange = copyTimestamp(c.LastChange)

	return c
}

// Equal reports structural equality, ignoring LastChange.
func (c Comment) Equal(other Artifact) bool {
	o, ok := other.(Comment)
	if !ok {
		return false
	}

	return c.Addr == o.Addr && c.Comment == o.Comment && c.Decompiled == o.Decompiled
}

// NonConflictMerge overlays b's comment text onto c when c has none set.
// Magic fill excludes Comment entirely (per the controller's preference-user
// design note); this merge is still used by the plain two-user fill path.
func (c Comment) NonConflictMerge(b Comment) Comment {
	return Comment{
		Addr:       c.Addr,
		Comment:    mergeString(c.Comment, b.Comment),
		Decompiled: c.Decompiled || b.Decompiled,
	}
}
