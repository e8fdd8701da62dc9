package cpustate

import "strconv"

// Engine holds one (current, saved) Slot pair per CPU and applies
// Events to it in timestamp order.
//
// BeginOther nests one level deep: saved holds whatever was running
// before the nested context was entered, and the next End restores
// it. A second BeginOther before the matching End overwrites saved,
// so a softirq inside an IRQ loses the thread underneath it — that's
// a documented limitation of the one-level design, not a bug.
type Engine struct {
	current []Slot
	saved   []Slot
}

// NewEngine creates an Engine for the given number of CPUs, with
// every slot initialized to {entity: "<cpu>", time: 0, state: Idle,
// tag: nil}.
func NewEngine(numCPUs int) *Engine {
	e := &Engine{
		current: make([]Slot, numCPUs),
		saved:   make([]Slot, numCPUs),
	}
	for c := 0; c < numCPUs; c++ {
		e.current[c] = Slot{Entity: strconv.Itoa(c), State: Idle}
		e.saved[c] = e.current[c]
	}
	return e
}

// NumCPUs returns the number of CPUs the Engine was created with.
func (e *Engine) NumCPUs() int { return len(e.current) }

// Current returns CPU c's current slot.
func (e *Engine) Current(c int) Slot { return e.current[c] }

// Apply applies an event observed at time t on CPU cpu, and returns
// the slots that changed and must be emitted, in emission order.
//
// All slots but Migrate's are returned as a single-element slice. For
// Migrate, both the destination and source slots are returned, in
// that order.
func (e *Engine) Apply(cpu int32, t uint64, ev Event) ([]Slot, error) {
	switch ev := ev.(type) {
	case BeginThread:
		tag := ev.Comm + ":" + strconv.Itoa(int(ev.Pid))
		e.current[cpu] = Slot{
			Entity: e.current[cpu].Entity,
			Time:   t,
			State:  ev.State,
			Tag:    &tag,
		}
		return []Slot{e.current[cpu]}, nil

	case BeginOther:
		e.saved[cpu] = e.current[cpu]
		tag := ev.Tag
		e.current[cpu] = Slot{
			Entity: e.current[cpu].Entity,
			Time:   t,
			State:  ev.State,
			Tag:    &tag,
		}
		return []Slot{e.current[cpu]}, nil

	case End:
		restored := e.saved[cpu]
		restored.Time = t
		e.current[cpu] = restored
		return []Slot{e.current[cpu]}, nil

	case Migrate:
		if ev.From == ev.To {
			return nil, &ErrStructural{CPU: ev.From}
		}
		from, to := ev.From, ev.To

		movedTag := e.current[from].Tag
		e.current[to] = Slot{
			Entity: e.current[to].Entity,
			Time:   t,
			State:  e.current[from].State,
			Tag:    movedTag,
		}

		empty := ""
		e.current[from] = Slot{
			Entity: e.current[from].Entity,
			Time:   t,
			State:  Idle,
			Tag:    &empty,
		}

		return []Slot{e.current[to], e.current[from]}, nil

	default:
		panic("cpustate: unknown event type")
	}
}
