package tracepoint

import (
	"encoding/binary"
	"testing"
)

const syntheticFormat = `name: synthetic
ID: 1
format:
	field:int irq;	offset:0;	size:4;	signed:1;
	field:__data_loc char[] name;	offset:4;	size:4;	signed:0;
	field:char comm[16];	offset:8;	size:16;	signed:1;
	field:u8 trailer[];	offset:24;	size:0;	signed:0;

print fmt: ""
`

func TestReadBytesDataLoc4(t *testing.T) {
	f := mustParse(t, syntheticFormat)
	ex, err := Compile(f, []string{"irq", "name", "comm", "trailer"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	record := make([]byte, 24)
	// pointer = 0x0010_0008: length 16, offset 8.
	binary.LittleEndian.PutUint32(record[4:], 0x00100008)
	for i := 8; i < 24; i++ {
		record[i] = byte(i)
	}

	got, err := ex.ReadBytes(record, binary.LittleEndian, ex.Index("name"))
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if len(got) != 16 {
		t.Fatalf("len(got) = %d, want 16", len(got))
	}
	if got[0] != 8 || got[15] != 23 {
		t.Errorf("ReadBytes returned wrong slice: %v", got)
	}
}

func TestReadStringFixedArray(t *testing.T) {
	f := mustParse(t, syntheticFormat)
	ex, err := Compile(f, []string{"irq", "name", "comm", "trailer"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	record := make([]byte, 24)
	copy(record[8:], "kworker/0:1\x00xxxx")

	got, err := ex.ReadString(record, binary.LittleEndian, ex.Index("comm"))
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != "kworker/0:1" {
		t.Errorf("ReadString = %q, want %q", got, "kworker/0:1")
	}
}

func TestReadBytesTrailing(t *testing.T) {
	f := mustParse(t, syntheticFormat)
	ex, err := Compile(f, []string{"irq", "name", "comm", "trailer"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	record := make([]byte, 30)
	for i := 24; i < 30; i++ {
		record[i] = byte(i)
	}

	got, err := ex.ReadBytes(record, binary.LittleEndian, ex.Index("trailer"))
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("len(got) = %d, want 6", len(got))
	}
}

func TestReadScalars(t *testing.T) {
	f := mustParse(t, syntheticFormat)
	ex, err := Compile(f, []string{"irq"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	record := make([]byte, 4)
	binary.LittleEndian.PutUint32(record, 0xfffffffb) // -5
	v, err := ex.ReadI32(record, binary.LittleEndian, ex.Index("irq"))
	if err != nil {
		t.Fatalf("ReadI32: %v", err)
	}
	if v != -5 {
		t.Errorf("ReadI32 = %d, want -5", v)
	}
}

func TestReadShortRecord(t *testing.T) {
	f := mustParse(t, syntheticFormat)
	ex, err := Compile(f, []string{"comm"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, err = ex.ReadBytes(make([]byte, 4), binary.LittleEndian, ex.Index("comm"))
	if err == nil {
		t.Fatal("ReadBytes succeeded on short record, want error")
	}
}
