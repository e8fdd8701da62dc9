package tracepoint

// Op is the compiled form of a Field: the positional instruction an
// Extractor uses to pull one value out of a record.
type Op struct {
	Offset uint32
	Size   uint32
	Signed bool
	Array  ArrayKind
}

// Extractor is an ordered, immutable sequence of Ops, positionally
// indexed by the consumer. It's built once per Format by Compile and
// is cheap to share across samples.
type Extractor struct {
	format string
	names  []string
	ops    []Op
}

// Compile resolves names against f's fields and returns an Extractor
// that reads them in that order. It fails on the first missing field.
func Compile(f *Format, names []string) (*Extractor, error) {
	byName := make(map[string]Field, len(f.Fields))
	for _, fld := range f.Fields {
		byName[fld.Name] = fld
	}

	ops := make([]Op, len(names))
	for i, n := range names {
		fld, ok := byName[n]
		if !ok {
			return nil, &SchemaError{Format: f.Name, Field: n}
		}
		ops[i] = Op{Offset: fld.Offset, Size: fld.Size, Signed: fld.Signed, Array: fld.Array}
	}

	return &Extractor{format: f.Name, names: names, ops: ops}, nil
}

// Index returns the position of the named field, or -1 if it was not
// compiled into this Extractor.
func (e *Extractor) Index(name string) int {
	for i, n := range e.names {
		if n == name {
			return i
		}
	}
	return -1
}
