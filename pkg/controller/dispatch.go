package controller

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/state"
	"github.com/binsync/binsync/pkg/syncerr"
)

// setArtifact is the compile-time ARTIFACT_SET_MAP: dispatch from a
// concrete Artifact variant to the one State setter that accepts it.
func setArtifact(s *state.State, a artifact.Artifact) (state.SetResult, error) {
	switch v := a.(type) {
	case artifact.Function:
		return s.SetFunction(v), nil
	case artifact.FunctionHeader:
		return s.SetFunctionHeader(v), nil
	case artifact.StackVariable:
		return s.SetStackVariable(v), nil
	case artifact.Comment:
		return s.SetComment(v), nil
	case artifact.Struct:
		return s.SetStruct(v), nil
	case artifact.GlobalVariable:
		return s.SetGlobalVariable(v), nil
	case artifact.Enum:
		return s.SetEnum(v), nil
	case artifact.Patch:
		return s.SetPatch(v), nil
	default:
		return 0, fmt.Errorf("%w: %T", syncerr.ErrUnsupportedArtifact, a)
	}
}

// setArtifactPreserveLastChange is setArtifact's set_last_change=false
// counterpart, used to commit an already-merged artifact whose LastChange
// has deliberately been cleared.
func setArtifactPreserveLastChange(s *state.State, a artifact.Artifact) (state.SetResult, error) {
	switch v := a.(type) {
	case artifact.Function:
		return s.SetFunctionPreserveLastChange(v), nil
	case artifact.FunctionHeader:
		return s.SetFunctionHeaderPreserveLastChange(v), nil
	case artifact.StackVariable:
		return s.SetStackVariablePreserveLastChange(v), nil
	case artifact.Comment:
		return s.SetCommentPreserveLastChange(v), nil
	case artifact.Struct:
		return s.SetStructPreserveLastChange(v), nil
	case artifact.GlobalVariable:
		return s.SetGlobalVariablePreserveLastChange(v), nil
	case artifact.Enum:
		return s.SetEnumPreserveLastChange(v), nil
	case artifact.Patch:
		return s.SetPatchPreserveLastChange(v), nil
	default:
		return 0, fmt.Errorf("%w: %T", syncerr.ErrUnsupportedArtifact, a)
	}
}

// getArtifact is the compile-time ARTIFACT_GET_MAP: resolve kind and ids
// (an address/name/offset, hex-encoded the same way the variant's Key()
// method encodes it, plus a stack offset for KindStackVariable) against s.
func getArtifact(s *state.State, kind artifact.Kind, ids []string) (artifact.Artifact, bool, error) {
	switch kind {
	case artifact.KindFunction:
		addr, err := parseAddr(first(ids))
		if err != nil {
			return nil, false, err
		}

		f, ok := s.Function(addr)

		return f, ok, nil

	case artifact.KindFunctionHeader:
		addr, err := parseAddr(first(ids))
		if err != nil {
			return nil, false, err
		}

		f, ok := s.Function(addr)
		if !ok || f.Header == nil {
			return nil, false, nil
		}

		return *f.Header, true, nil

	case artifact.KindStackVariable:
		if len(ids) < 2 {
			return nil, false, fmt.Errorf("%w: stack variable needs addr and offset", syncerr.ErrUnsupportedArtifact)
		}

		addr, err := parseAddr(ids[0])
		if err != nil {
			return nil, false, err
		}

		offset, err := strconv.ParseInt(ids[1], 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("parse stack offset %q: %w", ids[1], err)
		}

		f, ok := s.Function(addr)
		if !ok {
			return nil, false, nil
		}

		v, ok := f.StackVars[offset]

		return v, ok, nil

	case artifact.KindComment:
		addr, err := parseAddr(first(ids))
		if err != nil {
			return nil, false, err
		}

		c, ok := s.Comment(addr)

		return c, ok, nil

	case artifact.KindStruct:
		st, ok := s.Struct(first(ids))

		return st, ok, nil

	case artifact.KindGlobalVariable:
		addr, err := parseAddr(first(ids))
		if err != nil {
			return nil, false, err
		}

		g, ok := s.GlobalVariable(addr)

		return g, ok, nil

	case artifact.KindEnum:
		e, ok := s.Enum(first(ids))

		return e, ok, nil

	case artifact.KindPatch:
		offset, err := parseAddr(first(ids))
		if err != nil {
			return nil, false, err
		}

		p, ok := s.Patch(offset)

		return p, ok, nil

	default:
		return nil, false, fmt.Errorf("%w: %s", syncerr.ErrUnsupportedArtifact, kind)
	}
}

func first(ids []string) string {
	if len(ids) == 0 {
		return ""
	}

	return ids[0]
}

// parseAddr parses a hex-encoded (no "0x" prefix, matching the Key()
// encoding every address/offset-keyed Artifact uses) or "0x"-prefixed
// address string.
func parseAddr(s string) (uint64, error) {
	trimmed := strings.TrimPrefix(s, "0x")

	addr, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse address %q: %w", s, err)
	}

	return addr, nil
}
