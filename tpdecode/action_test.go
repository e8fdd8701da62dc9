package tpdecode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lx7/perf2statemap/tracepoint"
)

func writeFormat(t *testing.T, sysroot, category, name, text string) {
	t.Helper()
	path := tracepoint.FormatPath(sysroot, category, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewTableAndActions(t *testing.T) {
	sysroot := t.TempDir()
	writeFormat(t, sysroot, "sched", "sched_switch", schedSwitchFormatText)
	writeFormat(t, sysroot, "irq", "irq_handler_entry", irqHandlerEntryFormatText)

	table, missing, err := NewTable(sysroot)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if len(missing) != len(tracepointDefs)-2 {
		t.Errorf("len(missing) = %d, want %d", len(missing), len(tracepointDefs)-2)
	}

	actions, unknown := table.Actions([]uint64{314, 29, 9999})
	if actions[0] != Switch || actions[1] != EnterIrq || actions[2] != Ignore {
		t.Errorf("actions = %v", actions)
	}
	if len(unknown) != 1 || unknown[0] != 9999 {
		t.Errorf("unknown = %v", unknown)
	}
}

func TestNewTableAllMissing(t *testing.T) {
	sysroot := t.TempDir()
	table, missing, err := NewTable(sysroot)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if len(missing) != len(tracepointDefs) {
		t.Errorf("len(missing) = %d, want %d", len(missing), len(tracepointDefs))
	}
	actions, unknown := table.Actions([]uint64{314})
	if actions[0] != Ignore {
		t.Errorf("actions = %v, want [Ignore]", actions)
	}
	if len(unknown) != 1 {
		t.Errorf("unknown = %v", unknown)
	}
}
