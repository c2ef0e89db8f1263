package controller

import "strings"

// ParsedType is the result of parsing a C-like type string: a base
// identifier plus the pointer/array/const qualifiers stripped off it, and
// whether the base identifier names one of the handful of built-in
// keywords discover_and_import_user_defined_types treats as already
// resolved.
type ParsedType struct {
	BaseType  string
	IsUnknown bool
	Pointer   bool
	Array     bool
	Const     bool
}

// builtinTypes are the base identifiers ParseCType never treats as a
// reference to a user-defined Struct. This is deliberately small: it is
// not a C type-grammar, only enough to separate "obviously built-in" from
// "might name a struct".
var builtinTypes = map[string]bool{ //nolint:gochecknoglobals // static lookup table
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"bool": true, "size_t": true, "ssize_t": true,
	"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
}

// ParseCType parses raw into a base identifier plus qualifiers. It
// recognizes a leading "const", a trailing run of "*" (pointer), a
// trailing "[...]" (array) and a leading "struct" keyword, and nothing
// else — no full expression parser,
// per the type-import walk's narrow purpose of naming a struct, not
// diffing source text.
func ParseCType(raw string) ParsedType {
	s := strings.TrimSpace(raw)

	var pt ParsedType

	if rest, ok := strings.CutPrefix(s, "const "); ok {
		pt.Const = true
		s = strings.TrimSpace(rest)
	}

	if idx := strings.IndexByte(s, '['); idx >= 0 {
		pt.Array = true
		s = strings.TrimSpace(s[:idx])
	}

	for strings.HasSuffix(s, "*") {
		pt.Pointer = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "*"))
	}

	s = strings.TrimSpace(strings.TrimPrefix(s, "struct "))

	pt.BaseType = s
	pt.IsUnknown = s != "" && !builtinTypes[s]

	return pt
}
