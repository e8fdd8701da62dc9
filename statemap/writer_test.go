package statemap

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lx7/perf2statemap/cpustate"
)

func TestBootstrapHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteHeader(NewHeader(0, nil)); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var got map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["host"] != nil {
		t.Errorf("host = %v, want nil", got["host"])
	}
	start, ok := got["start"].([]interface{})
	if !ok || len(start) != 2 || start[0] != float64(0) || start[1] != float64(0) {
		t.Errorf("start = %v, want [0,0]", got["start"])
	}
	states, ok := got["states"].(map[string]interface{})
	if !ok || len(states) != 6 {
		t.Fatalf("states = %v", got["states"])
	}
	for _, name := range []string{"Idle", "Irq", "Softirq", "Tasklet", "Kernel", "User"} {
		if _, ok := states[name]; !ok {
			t.Errorf("states missing %q", name)
		}
	}

	if !strings.Contains(lines[0], `"states":{"Idle":`) {
		t.Errorf("states key order not preserved: %s", lines[0])
	}
}

func TestWriteSlotTimeAsString(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	tag := "bash:42"
	if err := w.WriteSlot(cpustate.Slot{Entity: "1", Time: 1000, State: cpustate.User, Tag: &tag}); err != nil {
		t.Fatalf("WriteSlot: %v", err)
	}
	w.Flush()

	want := `{"time":"1000","entity":"1","state":5,"tag":"bash:42"}` + "\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteSlotNilTag(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteSlot(cpustate.Slot{Entity: "0", Time: 0, State: cpustate.Idle}); err != nil {
		t.Fatalf("WriteSlot: %v", err)
	}
	w.Flush()
	if !strings.Contains(buf.String(), `"tag":null`) {
		t.Errorf("got %q, want tag:null", buf.String())
	}
}

func TestWriteSlotEmptyTag(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	empty := ""
	if err := w.WriteSlot(cpustate.Slot{Entity: "0", Time: 500, State: cpustate.Idle, Tag: &empty}); err != nil {
		t.Fatalf("WriteSlot: %v", err)
	}
	w.Flush()
	if !strings.Contains(buf.String(), `"tag":""`) {
		t.Errorf("got %q, want tag:\"\"", buf.String())
	}
}

func TestNewHeaderClockSplit(t *testing.T) {
	h := NewHeader(1_700_000_000_500_000_000, nil)
	if h.Start != [2]uint64{1_700_000_000, 500_000_000} {
		t.Errorf("Start = %v, want [1700000000 500000000]", h.Start)
	}
}
