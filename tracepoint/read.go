package tracepoint

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ErrShortRecord is returned by the Read* methods when a record is
// too short for the requested field.
type ErrShortRecord struct {
	Field string
	Need  int
	Have  int
}

func (e *ErrShortRecord) Error() string {
	return fmt.Sprintf("field %q needs %d bytes, record has %d", e.Field, e.Need, e.Have)
}

func (e *Extractor) assertScalar(i int, size uint32) {
	op := e.ops[i]
	if op.Array != ArrayNone || op.Size != size {
		panic(fmt.Sprintf("tracepoint: field %q: expected scalar of size %d, got array=%v size=%d", e.names[i], size, op.Array, op.Size))
	}
}

// ReadU8 reads an 8-bit unsigned field.
func (e *Extractor) ReadU8(record []byte, i int) (uint8, error) {
	e.assertScalar(i, 1)
	op := e.ops[i]
	if int(op.Offset)+1 > len(record) {
		return 0, &ErrShortRecord{Field: e.names[i], Need: int(op.Offset) + 1, Have: len(record)}
	}
	return record[op.Offset], nil
}

// ReadI8 reads an 8-bit signed field.
func (e *Extractor) ReadI8(record []byte, i int) (int8, error) {
	v, err := e.ReadU8(record, i)
	return int8(v), err
}

// ReadU16 reads a 16-bit unsigned field.
func (e *Extractor) ReadU16(record []byte, order binary.ByteOrder, i int) (uint16, error) {
	e.assertScalar(i, 2)
	op := e.ops[i]
	if int(op.Offset)+2 > len(record) {
		return 0, &ErrShortRecord{Field: e.names[i], Need: int(op.Offset) + 2, Have: len(record)}
	}
	return order.Uint16(record[op.Offset:]), nil
}

// ReadI16 reads a 16-bit signed field.
func (e *Extractor) ReadI16(record []byte, order binary.ByteOrder, i int) (int16, error) {
	v, err := e.ReadU16(record, order, i)
	return int16(v), err
}

// ReadU32 reads a 32-bit unsigned field.
func (e *Extractor) ReadU32(record []byte, order binary.ByteOrder, i int) (uint32, error) {
	e.assertScalar(i, 4)
	op := e.ops[i]
	if int(op.Offset)+4 > len(record) {
		return 0, &ErrShortRecord{Field: e.names[i], Need: int(op.Offset) + 4, Have: len(record)}
	}
	return order.Uint32(record[op.Offset:]), nil
}

// ReadI32 reads a 32-bit signed field.
func (e *Extractor) ReadI32(record []byte, order binary.ByteOrder, i int) (int32, error) {
	v, err := e.ReadU32(record, order, i)
	return int32(v), err
}

// ReadU64 reads a 64-bit unsigned field.
func (e *Extractor) ReadU64(record []byte, order binary.ByteOrder, i int) (uint64, error) {
	e.assertScalar(i, 8)
	op := e.ops[i]
	if int(op.Offset)+8 > len(record) {
		return 0, &ErrShortRecord{Field: e.names[i], Need: int(op.Offset) + 8, Have: len(record)}
	}
	return order.Uint64(record[op.Offset:]), nil
}

// ReadI64 reads a 64-bit signed field.
func (e *Extractor) ReadI64(record []byte, order binary.ByteOrder, i int) (int64, error) {
	v, err := e.ReadU64(record, order, i)
	return int64(v), err
}

// ReadBytes returns the byte range named by field i's array kind:
// None/Fixed return the size bytes at offset; Trailing returns
// everything from offset to the end of record; DataLoc4 reads a u32
// pointer at offset whose low 16 bits are an offset (from the start
// of record) and whose high 16 bits are a length, and returns that
// slice.
func (e *Extractor) ReadBytes(record []byte, order binary.ByteOrder, i int) ([]byte, error) {
	op := e.ops[i]
	name := e.names[i]

	switch op.Array {
	case ArrayNone, ArrayFixed:
		end := int(op.Offset) + int(op.Size)
		if end > len(record) {
			return nil, &ErrShortRecord{Field: name, Need: end, Have: len(record)}
		}
		return record[op.Offset:end], nil

	case ArrayTrailing:
		if int(op.Offset) > len(record) {
			return nil, &ErrShortRecord{Field: name, Need: int(op.Offset), Have: len(record)}
		}
		return record[op.Offset:], nil

	case ArrayDataLoc4:
		if int(op.Offset)+4 > len(record) {
			return nil, &ErrShortRecord{Field: name, Need: int(op.Offset) + 4, Have: len(record)}
		}
		ptr := order.Uint32(record[op.Offset:])
		off := int(ptr & 0xffff)
		ln := int(ptr >> 16)
		end := off + ln
		if off > len(record) || end > len(record) {
			return nil, &ErrShortRecord{Field: name, Need: end, Have: len(record)}
		}
		return record[off:end], nil

	default:
		panic(fmt.Sprintf("tracepoint: field %q: invalid array kind %v", name, op.Array))
	}
}

// ReadString returns the NUL-terminated string stored in field i,
// with any invalid UTF-8 replaced per the usual lossy-decode rule.
func (e *Extractor) ReadString(record []byte, order binary.ByteOrder, i int) (string, error) {
	b, err := e.ReadBytes(record, order, i)
	if err != nil {
		return "", err
	}
	if n := strings.IndexByte(string(b), 0); n >= 0 {
		b = b[:n]
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}
