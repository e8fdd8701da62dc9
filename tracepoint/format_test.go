package tracepoint

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const schedSwitchFormat = `name: sched_switch
ID: 314
format:
	field:unsigned short common_type;	offset:0;	size:2;	signed:0;
	field:unsigned char common_flags;	offset:2;	size:1;	signed:0;

	field:char prev_comm[16];	offset:8;	size:16;	signed:1;
	field:pid_t prev_pid;	offset:24;	size:4;	signed:1;
	field:long prev_state;	offset:32;	size:8;	signed:1;
	field:char next_comm[16];	offset:40;	size:16;	signed:1;
	field:pid_t next_pid;	offset:56;	size:4;	signed:1;
	field:int next_prio;	offset:60;	size:4;	signed:1;

print fmt: "prev_comm=%s prev_pid=%d"
`

const irqHandlerEntryFormat = `name: irq_handler_entry
ID: 29
format:
	field:unsigned short common_type;	offset:0;	size:2;	signed:0;

	field:int irq;	offset:8;	size:4;	signed:1;
	field:__data_loc char[] name;	offset:12;	size:4;	signed:0;

print fmt: "irq=%d name=%s"
`

func TestParseFormatSchedSwitch(t *testing.T) {
	got, err := ParseFormat([]byte(schedSwitchFormat))
	if err != nil {
		t.Fatalf("ParseFormat: %v", err)
	}

	want := &Format{
		Name:     "sched_switch",
		ID:       314,
		PrintFmt: `"prev_comm=%s prev_pid=%d"`,
		Fields: []Field{
			{Name: "common_type", Type: "unsigned short", Offset: 0, Size: 2, Signed: false, Array: ArrayNone},
			{Name: "common_flags", Type: "unsigned char", Offset: 2, Size: 1, Signed: false, Array: ArrayNone},
			{Name: "prev_comm", Type: "char[16]", Offset: 8, Size: 16, Signed: true, Array: ArrayFixed},
			{Name: "prev_pid", Type: "pid_t", Offset: 24, Size: 4, Signed: true, Array: ArrayNone},
			{Name: "prev_state", Type: "long", Offset: 32, Size: 8, Signed: true, Array: ArrayNone},
			{Name: "next_comm", Type: "char[16]", Offset: 40, Size: 16, Signed: true, Array: ArrayFixed},
			{Name: "next_pid", Type: "pid_t", Offset: 56, Size: 4, Signed: true, Array: ArrayNone},
			{Name: "next_prio", Type: "int", Offset: 60, Size: 4, Signed: true, Array: ArrayNone},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseFormat mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFormatDataLoc(t *testing.T) {
	got, err := ParseFormat([]byte(irqHandlerEntryFormat))
	if err != nil {
		t.Fatalf("ParseFormat: %v", err)
	}
	fld, ok := got.FieldByName("name")
	if !ok {
		t.Fatal("missing field \"name\"")
	}
	if fld.Array != ArrayDataLoc4 {
		t.Errorf("name field array kind = %v, want ArrayDataLoc4", fld.Array)
	}
}

func TestParseFormatErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"bad key", "bogus: value\n"},
		{"missing colon", "name sched_switch\n"},
		{"field outside format", "name: x\n\tfield:int a;\toffset:0;\tsize:4;\tsigned:0;\n"},
		{"bad signed", "name: x\nformat:\n\tfield:int a;\toffset:0;\tsize:4;\tsigned:2;\n"},
		{"bad id", "name: x\nID: notanumber\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseFormat([]byte(c.text)); err == nil {
				t.Errorf("ParseFormat(%q) succeeded, want error", c.text)
			}
		})
	}
}

func TestSplitTypeName(t *testing.T) {
	cases := []struct {
		in        string
		typ, name string
	}{
		{"char next_comm[16]", "char[16]", "next_comm"},
		{"int irq", "int", "irq"},
		{"__data_loc char[] name", "__data_loc char[]", "name"},
	}
	for _, c := range cases {
		typ, name := splitTypeName(c.in)
		if typ != c.typ || name != c.name {
			t.Errorf("splitTypeName(%q) = (%q, %q), want (%q, %q)", c.in, typ, name, c.typ, c.name)
		}
	}
}
