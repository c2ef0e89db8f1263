package state

import (
	"encoding/hex"
	"time"

	"github.com/binsync/binsync/pkg/artifact"
)

// The types in this file are the TOML wire shapes written under the
// on-disk layout (metadata.toml, functions/<addr>.toml, ...). They exist
// separately from the artifact package's domain types because several
// domain fields are int/uint64-keyed maps, which have no direct TOML table
// representation (TOML table keys are strings); the wire types flatten
// those maps to ordered slices instead; fromX/toX below convert.

type metadataDoc struct {
	User                 string     `toml:"user"`
	Fingerprint          string     `toml:"fingerprint,omitempty"`
	Version              int        `toml:"version"`
	LastPushTime         *time.Time `toml:"last_push_time,omitempty"`
	LastPushArtifactKey  string     `toml:"last_push_artifact,omitempty"`
	LastPushArtifactKind string     `toml:"last_push_artifact_type,omitempty"`
	LastCommitMessage    string     `toml:"last_commit_msg,omitempty"`
}

type functionArgumentDoc struct {
	Index int    `toml:"index"`
	Name  string `toml:"name"`
	Type  string `toml:"type"`
}

type functionHeaderDoc struct {
	Name       string                `toml:"name"`
	ReturnType string                `toml:"return_type"`
	LastChange *time.Time            `toml:"last_change,omitempty"`
	Arg        []functionArgumentDoc `toml:"arg"`
}

type stackVariableDoc struct {
	Offset     int64      `toml:"offset"`
	Name       string     `toml:"name"`
	Type       string     `toml:"type"`
	LastChange *time.Time `toml:"last_change,omitempty"`
}

type functionDoc struct {
	Addr       uint64             `toml:"addr"`
	Size       uint64             `toml:"size"`
	LastChange *time.Time         `toml:"last_change,omitempty"`
	Header     *functionHeaderDoc `toml:"header,omitempty"`
	StackVar   []stackVariableDoc `toml:"stack_var"`
}

func fromFunction(f artifact.Function) functionDoc {
	doc := functionDoc{Addr: f.Addr, Size: f.Size, LastChange: f.LastChange}

	if f.Header != nil {
		h := functionHeaderDoc{
			Name:       f.Header.Name,
			ReturnType: f.Header.ReturnType,
			LastChange: f.Header.LastChange,
		}

		for _, a := range f.Header.Args {
			h.Arg = append(h.Arg, functionArgumentDoc{Index: a.Index, Name: a.Name, Type: a.Type})
		}

		doc.Header = &h
	}

	for _, v := range f.StackVars {
		doc.StackVar = append(doc.StackVar, stackVariableDoc{
			Offset: v.Offset, Name: v.Name, Type: v.Type, LastChange: v.LastChange,
		})
	}

	return doc
}

func toFunction(doc functionDoc) artifact.Function {
	f := artifact.Function{
		Addr:       doc.Addr,
		Size:       doc.Size,
		LastChange: doc.LastChange,
		StackVars:  map[int64]artifact.StackVariable{},
	}

	if doc.Header != nil {
		h := artifact.FunctionHeader{
			Addr:       doc.Addr,
			Name:       doc.Header.Name,
			ReturnType: doc.Header.ReturnType,
			LastChange: doc.Header.LastChange,
			Args:       map[int]artifact.FunctionArgument{},
		}

		for _, a := range doc.Header.Arg {
			h.Args[a.Index] = artifact.FunctionArgument{Index: a.Index, Name: a.Name, Type: a.Type}
		}

		f.Header = &h
	}

	for _, v := range doc.StackVar {
		f.StackVars[v.Offset] = artifact.StackVariable{
			Addr: doc.Addr, Offset: v.Offset, Name: v.Name, Type: v.Type, LastChange: v.LastChange,
		}
	}

	return f
}

type structMemberDoc struct {
	Offset uint64 `toml:"offset"`
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Size   uint64 `toml:"size"`
}

type structDoc struct {
	Name       string            `toml:"name"`
	Size       uint64            `toml:"size"`
	LastChange *time.Time        `toml:"last_change,omitempty"`
	Member     []structMemberDoc `toml:"member"`
}

func fromStruct(st artifact.Struct) structDoc {
	doc := structDoc{Name: st.Name, Size: st.Size, LastChange: st.LastChange}

	for _, m := range st.Members {
		doc.Member = append(doc.Member, structMemberDoc{Offset: m.Offset, Name: m.Name, Type: m.Type, Size: m.Size})
	}

	return doc
}

func toStruct(doc structDoc) artifact.Struct {
	st := artifact.Struct{
		Name:       doc.Name,
		Size:       doc.Size,
		LastChange: doc.LastChange,
		Members:    map[uint64]artifact.StructMember{},
	}

	for _, m := range doc.Member {
		st.Members[m.Offset] = artifact.StructMember{Offset: m.Offset, Name: m.Name, Type: m.Type, Size: m.Size}
	}

	return st
}

type enumMemberDoc struct {
	Name  string `toml:"name"`
	Value int64  `toml:"value"`
}

type enumDoc struct {
	Name       string          `toml:"name"`
	LastChange *time.Time      `toml:"last_change,omitempty"`
	Member     []enumMemberDoc `toml:"member"`
}

func fromEnum(e artifact.Enum) enumDoc {
	doc := enumDoc{Name: e.Name, LastChange: e.LastChange}

	for name, value := range e.Members {
		doc.Member = append(doc.Member, enumMemberDoc{Name: name, Value: value})
	}

	return doc
}

func toEnum(doc enumDoc) artifact.Enum {
	e := artifact.Enum{Name: doc.Name, LastChange: doc.LastChange, Members: map[string]int64{}}

	for _, m := range doc.Member {
		e.Members[m.Name] = m.Value
	}

	return e
}

type patchDoc struct {
	Offset     uint64     `toml:"offset"`
	BytesHex   string     `toml:"bytes_hex"`
	LastChange *time.Time `toml:"last_change,omitempty"`
}

func fromPatch(p artifact.Patch) patchDoc {
	return patchDoc{Offset: p.Offset, BytesHex: hex.EncodeToString(p.Bytes), LastChange: p.LastChange}
}

func toPatch(doc patchDoc) (artifact.Patch, error) {
	raw, err := hex.DecodeString(doc.BytesHex)
	if err != nil {
		return artifact.Patch{}, err //nolint:wrapcheck // caller wraps with file context
	}

	return artifact.Patch{Offset: doc.Offset, Bytes: raw, LastChange: doc.LastChange}, nil
}

type commentsDoc struct {
	Comment []artifact.Comment `toml:"comment"`
}

type globalVarsDoc struct {
	GlobalVariable []artifact.GlobalVariable `toml:"global_variable"`
}
