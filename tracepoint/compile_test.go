package tracepoint

import "testing"

func mustParse(t *testing.T, text string) *Format {
	t.Helper()
	f, err := ParseFormat([]byte(text))
	if err != nil {
		t.Fatalf("ParseFormat: %v", err)
	}
	return f
}

func TestCompile(t *testing.T) {
	f := mustParse(t, schedSwitchFormat)
	ex, err := Compile(f, []string{"prev_comm", "prev_pid", "next_comm", "next_pid", "next_prio"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if ex.Index("prev_pid") != 1 {
		t.Errorf("Index(prev_pid) = %d, want 1", ex.Index("prev_pid"))
	}
	if ex.Index("nonexistent") != -1 {
		t.Errorf("Index(nonexistent) = %d, want -1", ex.Index("nonexistent"))
	}
}

func TestCompileMissingField(t *testing.T) {
	f := mustParse(t, schedSwitchFormat)
	_, err := Compile(f, []string{"prev_comm", "no_such_field"})
	if err == nil {
		t.Fatal("Compile succeeded, want SchemaError")
	}
	if _, ok := err.(*SchemaError); !ok {
		t.Errorf("Compile error = %T, want *SchemaError", err)
	}
}
