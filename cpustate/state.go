// Package cpustate reconstructs, per CPU, what the CPU was doing at
// any instant by replaying a stream of scheduling and interrupt
// events in timestamp order.
package cpustate

import "fmt"

// State is what a CPU is doing at a given instant. The numeric values
// are part of the output contract: they appear as the "value" field
// of the statemap header's state table.
type State uint8

const (
	Idle State = iota
	Irq
	Softirq
	Tasklet
	Kernel
	User
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Irq:
		return "Irq"
	case Softirq:
		return "Softirq"
	case Tasklet:
		return "Tasklet"
	case Kernel:
		return "Kernel"
	case User:
		return "User"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Slot is one CPU's current (or saved) snapshot.
type Slot struct {
	Entity string // decimal CPU index
	Time   uint64 // nanoseconds since the stream's first sample
	State  State
	Tag    *string // nil if none
}

// ErrStructural reports an impossible input: a Migrate event with
// from == to.
type ErrStructural struct {
	CPU int32
}

func (e *ErrStructural) Error() string {
	return fmt.Sprintf("cannot migrate CPU %d to itself", e.CPU)
}
