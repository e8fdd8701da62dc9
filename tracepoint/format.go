// Package tracepoint parses kernel tracepoint format descriptors and
// compiles them into byte-offset extraction programs for decoding
// binary sample payloads of either endianness.
package tracepoint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ArrayKind classifies how a field's bytes are laid out in a record.
type ArrayKind int

const (
	// ArrayNone is a plain scalar field.
	ArrayNone ArrayKind = iota
	// ArrayFixed is an inline array, e.g. "char comm[16]".
	ArrayFixed
	// ArrayTrailing is a zero-size trailing array, e.g. "u32 buf[]",
	// occupying the rest of the record.
	ArrayTrailing
	// ArrayDataLoc4 is a 4-byte __data_loc descriptor: the low 16
	// bits are an offset into the record, the high 16 bits a length.
	ArrayDataLoc4
)

func (k ArrayKind) String() string {
	switch k {
	case ArrayNone:
		return "none"
	case ArrayFixed:
		return "fixed"
	case ArrayTrailing:
		return "trailing"
	case ArrayDataLoc4:
		return "data_loc"
	default:
		return "invalid"
	}
}

// Field is one field of a tracepoint format.
type Field struct {
	Name   string
	Type   string
	Offset uint32
	Size   uint32
	Signed bool
	Array  ArrayKind
}

// Format is a parsed tracepoint format descriptor: the contents of a
// kernel events/<category>/<name>/format file.
type Format struct {
	Name     string
	ID       uint32
	PrintFmt string
	Fields   []Field
}

// FieldByName returns the field with the given name, or false if no
// such field exists.
func (f *Format) FieldByName(name string) (Field, bool) {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld, true
		}
	}
	return Field{}, false
}

var fixedArrayRE = regexp.MustCompile(`\[[0-9]+\]$`)

// ParseFormat parses the text of a tracepoint format file.
func ParseFormat(data []byte) (*Format, error) {
	f := &Format{}
	inFields := false

	for lineNo, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimRight(raw, "\r")
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "\t") {
			if !inFields {
				return nil, &FormatError{Line: lineNo + 1, Msg: "field line outside format block"}
			}
			fld, err := parseFieldLine(line[1:])
			if err != nil {
				if fe, ok := err.(*FormatError); ok && fe.Line == 0 {
					fe.Line = lineNo + 1
				}
				return nil, err
			}
			f.Fields = append(f.Fields, fld)
			continue
		}

		inFields = false
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &FormatError{Line: lineNo + 1, Msg: "missing ':'"}
		}
		val = strings.TrimPrefix(val, " ")

		switch key {
		case "name":
			f.Name = val
		case "ID":
			id, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, &FormatError{Line: lineNo + 1, Msg: fmt.Sprintf("bad ID %q", val)}
			}
			f.ID = uint32(id)
		case "format":
			inFields = true
		case "print fmt":
			f.PrintFmt = val
		default:
			return nil, &FormatError{Line: lineNo + 1, Msg: fmt.Sprintf("unknown key %q", key)}
		}
	}

	return f, nil
}

func parseFieldLine(line string) (Field, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 4 {
		return Field{}, &FormatError{Msg: fmt.Sprintf("expected 4 tab-separated subfields, got %d", len(parts))}
	}

	typeAndName, err := cutSubfield(parts[0], "field")
	if err != nil {
		return Field{}, err
	}
	offsetStr, err := cutSubfield(parts[1], "offset")
	if err != nil {
		return Field{}, err
	}
	sizeStr, err := cutSubfield(parts[2], "size")
	if err != nil {
		return Field{}, err
	}
	signedStr, err := cutSubfield(parts[3], "signed")
	if err != nil {
		return Field{}, err
	}

	offset, err := strconv.ParseUint(strings.TrimSuffix(offsetStr, ";"), 10, 32)
	if err != nil {
		return Field{}, &FormatError{Msg: fmt.Sprintf("bad offset %q", offsetStr)}
	}
	size, err := strconv.ParseUint(strings.TrimSuffix(sizeStr, ";"), 10, 32)
	if err != nil {
		return Field{}, &FormatError{Msg: fmt.Sprintf("bad size %q", sizeStr)}
	}

	var signed bool
	switch strings.TrimSuffix(signedStr, ";") {
	case "0":
		signed = false
	case "1":
		signed = true
	default:
		return Field{}, &FormatError{Msg: fmt.Sprintf("bad signed value %q", signedStr)}
	}

	typ, name := splitTypeName(strings.TrimSuffix(typeAndName, ";"))

	fld := Field{
		Name:   name,
		Type:   typ,
		Offset: uint32(offset),
		Size:   uint32(size),
		Signed: signed,
	}
	fld.Array = deriveArrayKind(typ, fld.Size)
	return fld, nil
}

// cutSubfield strips the "key:" prefix from s, verifying it matches
// key.
func cutSubfield(s, key string) (string, error) {
	prefix := key + ":"
	if !strings.HasPrefix(s, prefix) {
		return "", &FormatError{Msg: fmt.Sprintf("expected %q, got %q", prefix, s)}
	}
	return strings.TrimPrefix(s, prefix), nil
}

// splitTypeName splits "type+name" at the last space, moving a
// trailing "[N]" from name onto type.
func splitTypeName(s string) (typ, name string) {
	i := strings.LastIndex(s, " ")
	if i < 0 {
		return s, ""
	}
	typ, name = s[:i], s[i+1:]
	if idx := strings.LastIndex(name, "["); idx >= 0 && strings.HasSuffix(name, "]") {
		typ = typ + name[idx:]
		name = name[:idx]
	}
	return typ, name
}

func deriveArrayKind(typ string, size uint32) ArrayKind {
	switch {
	case strings.HasPrefix(typ, "__data_loc") && size == 4:
		return ArrayDataLoc4
	case strings.HasSuffix(typ, "[]") && size == 0:
		return ArrayTrailing
	case fixedArrayRE.MatchString(typ):
		return ArrayFixed
	default:
		return ArrayNone
	}
}
