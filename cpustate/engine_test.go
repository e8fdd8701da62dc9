package cpustate

import "testing"

func strp(s string) *string { return &s }

func TestEngineIdleToThread(t *testing.T) {
	e := NewEngine(2)
	slots, err := e.Apply(1, 1000, BeginThread{State: User, Comm: "bash", Pid: 42})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("len(slots) = %d, want 1", len(slots))
	}
	got := slots[0]
	if got.Entity != "1" || got.Time != 1000 || got.State != User || got.Tag == nil || *got.Tag != "bash:42" {
		t.Errorf("got %+v (tag %v)", got, derefOrNil(got.Tag))
	}
}

func TestEngineIRQNesting(t *testing.T) {
	e := NewEngine(1)
	if _, err := e.Apply(0, 0, BeginThread{State: User, Comm: "bash", Pid: 42}); err != nil {
		t.Fatalf("Apply BeginThread: %v", err)
	}
	slots, err := e.Apply(0, 100, BeginOther{State: Irq, Tag: "IRQ 7: eth0"})
	if err != nil {
		t.Fatalf("Apply BeginOther: %v", err)
	}
	if slots[0].State != Irq || *slots[0].Tag != "IRQ 7: eth0" || slots[0].Time != 100 {
		t.Errorf("after BeginOther: %+v", slots[0])
	}

	slots, err = e.Apply(0, 200, End{})
	if err != nil {
		t.Fatalf("Apply End: %v", err)
	}
	if slots[0].State != User || *slots[0].Tag != "bash:42" || slots[0].Time != 200 {
		t.Errorf("after End: %+v", slots[0])
	}
}

func TestEngineMigrate(t *testing.T) {
	e := NewEngine(4)
	if _, err := e.Apply(0, 0, BeginThread{State: User, Comm: "redis", Pid: 9}); err != nil {
		t.Fatalf("Apply BeginThread: %v", err)
	}

	slots, err := e.Apply(0, 500, Migrate{From: 0, To: 3})
	if err != nil {
		t.Fatalf("Apply Migrate: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("len(slots) = %d, want 2", len(slots))
	}
	to, from := slots[0], slots[1]
	if to.Entity != "3" || to.State != User || to.Tag == nil || *to.Tag != "redis:9" || to.Time != 500 {
		t.Errorf("to slot = %+v", to)
	}
	if from.Entity != "0" || from.State != Idle || from.Tag == nil || *from.Tag != "" || from.Time != 500 {
		t.Errorf("from slot = %+v", from)
	}
}

func TestEngineMigrateSameCPU(t *testing.T) {
	e := NewEngine(2)
	_, err := e.Apply(0, 0, Migrate{From: 1, To: 1})
	if err == nil {
		t.Fatal("Apply(Migrate{1,1}) succeeded, want ErrStructural")
	}
	if _, ok := err.(*ErrStructural); !ok {
		t.Errorf("err = %T, want *ErrStructural", err)
	}
}

func TestEngineInitialSlots(t *testing.T) {
	e := NewEngine(3)
	for c := 0; c < 3; c++ {
		s := e.Current(c)
		if s.State != Idle || s.Time != 0 || s.Tag != nil {
			t.Errorf("CPU %d initial slot = %+v, want zero Idle slot", c, s)
		}
	}
}

func derefOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
