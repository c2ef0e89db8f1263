package artifact

import (
	"bytes"
	"strconv"
	"time"
)

// Patch is a run of raw replacement bytes at a file offset.
type Patch struct {
	Offset     uint64     `toml:"offset"`
	Bytes      []byte     `toml:"bytes"`
	LastChange *time.Time `toml:"last_change,omitempty"`
}

func (Patch) isArtifact() {}

// Kind reports KindPatch.
func (Patch) Kind() Kind { return KindPatch }

// Key is the patch's offset, hex-encoded.
func (p Patch) Key() string { return strconv.FormatUint(p.Offset, 16) }

// Copy returns a deep copy of p.
func (p Patch) Copy() Artifact {
	cp := p
	cp.LastChange = copyTimestamp(p.LastChange)

	if p.Bytes != nil {
		cp.Bytes = append([]byte(nil), p.Bytes...)
	}

	return cp
}

// Equal reports structural equality, ignoring LastChange.
func (p Patch) Equal(other Artifact) bool {
	o, ok := other.(Patch)
	if !ok {
		return false
	}

	return p.Offset == o.Offset && bytes.Equal(p.Bytes, o.Bytes)
}

// NonConflictMerge takes b's bytes whole when p has none recorded yet; a
// patch's byte run is never merged byte-by-byte, since a partial overlay of
// two different replacement sequences has no well-defined meaning.
func (p Patch) NonConflictMerge(b Patch) Patch {
	merged := Patch{Offset: p.Offset, Bytes: p.Bytes}

	if len(merged.Bytes) == 0 {
		merged.Bytes = b.Bytes
	}

	return merged
}
