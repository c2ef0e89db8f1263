package state

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/persist"
	"github.com/binsync/binsync/pkg/syncerr"
)

const (
	metadataPath    = "metadata.toml"
	functionsPrefix = "functions/"
	structsPrefix   = "structs/"
	commentsPath    = "comments.toml"
	patchesPath     = "patches.toml"
	globalVarsPath  = "global_vars.toml"
	enumsPath       = "enums.toml"

	addrHexDigits = 8
)

var codec = persist.NewTOMLCodec() //nolint:gochecknoglobals // stateless, safe for concurrent reuse

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	if err := codec.Encode(&buf, v); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	if err := codec.Decode(bytes.NewReader(data), v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	return nil
}

// addrFilename renders addr as the 8-hex-digit, lower-case, zero-padded
// filename stem the on-disk layout specifies.
func addrFilename(addr uint64) string {
	hexStr := strconv.FormatUint(addr, 16)
	if len(hexStr) < addrHexDigits {
		hexStr = strings.Repeat("0", addrHexDigits-len(hexStr)) + hexStr
	}

	return hexStr
}

// Dump serializes s into fs, one file per the on-disk layout: metadata.toml,
// one functions/<addr>.toml per function, one structs/<name>.toml per
// struct, and single-table files for comments/patches/global_vars/enums.
func (s *State) Dump(fs FileStore) error {
	meta := metadataDoc{
		User:                 s.User,
		Fingerprint:          s.Fingerprint,
		Version:              s.SchemaVersion,
		LastPushTime:         s.LastPushTime,
		LastPushArtifactKey:  s.LastPushArtifactKey,
		LastPushArtifactKind: string(s.LastPushArtifactKind),
		LastCommitMessage:    s.LastCommitMessage,
	}

	if err := writeDoc(fs, metadataPath, meta); err != nil {
		return err
	}

	for addr, f := range s.functions {
		path := functionsPrefix + addrFilename(addr) + ".toml"
		if err := writeDoc(fs, path, fromFunction(f)); err != nil {
			return err
		}
	}

	for name, st := range s.structs {
		path := structsPrefix + name + ".toml"
		if err := writeDoc(fs, path, fromStruct(st)); err != nil {
			return err
		}
	}

	comments := commentsDoc{}
	for _, c := range s.comments {
		comments.Comment = append(comments.Comment, c)
	}

	if err := writeDoc(fs, commentsPath, comments); err != nil {
		return err
	}

	globals := globalVarsDoc{}
	for _, g := range s.globalVars {
		globals.GlobalVariable = append(globals.GlobalVariable, g)
	}

	if err := writeDoc(fs, globalVarsPath, globals); err != nil {
		return err
	}

	var patches struct {
		Patch []patchDoc `toml:"patch"`
	}

	for _, p := range s.patches {
		patches.Patch = append(patches.Patch, fromPatch(p))
	}

	if err := writeDoc(fs, patchesPath, patches); err != nil {
		return err
	}

	var enums struct {
		Enum []enumDoc `toml:"enum"`
	}

	for _, e := range s.enums {
		enums.Enum = append(enums.Enum, fromEnum(e))
	}

	if err := writeDoc(fs, enumsPath, enums); err != nil {
		return err
	}

	return nil
}

func writeDoc(fs FileStore, path string, v any) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("dump %s: %w", path, err)
	}

	if err := fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// Parse reconstructs a State from fs, the inverse of Dump. A missing
// metadata.toml is a MetadataNotFound condition; every other file missing
// is parsed as an empty container.
func Parse(fs FileStore) (*State, error) {
	var meta metadataDoc

	metaBytes, err := fs.ReadFile(metadataPath)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil, syncerr.ErrMetadataNotFound
		}

		return nil, fmt.Errorf("read metadata: %w", err)
	}

	if err := decode(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	s := New(meta.User)
	s.Fingerprint = meta.Fingerprint
	s.SchemaVersion = meta.Version
	s.LastPushTime = meta.LastPushTime
	s.LastPushArtifactKey = meta.LastPushArtifactKey
	s.LastPushArtifactKind = artifact.Kind(meta.LastPushArtifactKind)
	s.LastCommitMessage = meta.LastCommitMessage

	if err := parseFunctions(fs, s); err != nil {
		return nil, err
	}

	if err := parseStructs(fs, s); err != nil {
		return nil, err
	}

	if err := parseComments(fs, s); err != nil {
		return nil, err
	}

	if err := parseGlobalVars(fs, s); err != nil {
		return nil, err
	}

	if err := parsePatches(fs, s); err != nil {
		return nil, err
	}

	if err := parseEnums(fs, s); err != nil {
		return nil, err
	}

	s.rebuildAddrIndex()
	s.MarkClean()

	return s, nil
}

func parseFunctions(fs FileStore, s *State) error {
	paths, err := fs.ListFiles(functionsPrefix)
	if err != nil {
		return fmt.Errorf("list functions: %w", err)
	}

	for _, path := range paths {
		data, readErr := fs.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", path, readErr)
		}

		var doc functionDoc

		if decodeErr := decode(data, &doc); decodeErr != nil {
			return fmt.Errorf("parse %s: %w", path, decodeErr)
		}

		f := toFunction(doc)
		s.functions[f.Addr] = f
	}

	return nil
}

func parseStructs(fs FileStore, s *State) error {
	paths, err := fs.ListFiles(structsPrefix)
	if err != nil {
		return fmt.Errorf("list structs: %w", err)
	}

	for _, path := range paths {
		data, readErr := fs.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", path, readErr)
		}

		var doc structDoc

		if decodeErr := decode(data, &doc); decodeErr != nil {
			return fmt.Errorf("parse %s: %w", path, decodeErr)
		}

		st := toStruct(doc)
		s.structs[st.Name] = st
	}

	return nil
}

func parseComments(fs FileStore, s *State) error {
	data, err := fs.ReadFile(commentsPath)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil
		}

		return fmt.Errorf("read comments: %w", err)
	}

	var doc commentsDoc

	if err := decode(data, &doc); err != nil {
		return fmt.Errorf("parse comments: %w", err)
	}

	for _, c := range doc.Comment {
		s.comments[c.Addr] = c
	}

	return nil
}

func parseGlobalVars(fs FileStore, s *State) error {
	data, err := fs.ReadFile(globalVarsPath)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil
		}

		return fmt.Errorf("read global_vars: %w", err)
	}

	var doc globalVarsDoc

	if err := decode(data, &doc); err != nil {
		return fmt.Errorf("parse global_vars: %w", err)
	}

	for _, g := range doc.GlobalVariable {
		s.globalVars[g.Addr] = g
	}

	return nil
}

func parsePatches(fs FileStore, s *State) error {
	data, err := fs.ReadFile(patchesPath)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil
		}

		return fmt.Errorf("read patches: %w", err)
	}

	var doc struct {
		Patch []patchDoc `toml:"patch"`
	}

	if err := decode(data, &doc); err != nil {
		return fmt.Errorf("parse patches: %w", err)
	}

	for _, pd := range doc.Patch {
		p, convErr := toPatch(pd)
		if convErr != nil {
			return fmt.Errorf("parse patch at offset %d: %w", pd.Offset, convErr)
		}

		s.patches[p.Offset] = p
	}

	return nil
}

func parseEnums(fs FileStore, s *State) error {
	data, err := fs.ReadFile(enumsPath)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil
		}

		return fmt.Errorf("read enums: %w", err)
	}

	var doc struct {
		Enum []enumDoc `toml:"enum"`
	}

	if err := decode(data, &doc); err != nil {
		return fmt.Errorf("parse enums: %w", err)
	}

	for _, ed := range doc.Enum {
		e := toEnum(ed)
		s.enums[e.Name] = e
	}

	return nil
}
