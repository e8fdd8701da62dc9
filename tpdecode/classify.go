// Package tpdecode decodes the raw tracepoint payloads of scheduler
// and interrupt samples into cpustate.Events, and maps perf event
// attributes to the Action each one should take.
package tpdecode

import (
	"strings"

	"github.com/lx7/perf2statemap/cpustate"
)

// Classify guesses a thread's state from its command name, applied to
// the new thread named by a sched_switch. It's a small, deliberately
// approximate prefix heuristic, not a real classifier: a kernel
// thread whose comm doesn't match one of these prefixes comes out as
// User. Don't try to make this more precise; it's documented as
// approximate by design.
func Classify(comm string) cpustate.State {
	switch {
	case strings.HasPrefix(comm, "swapper/"):
		return cpustate.Idle
	case strings.HasPrefix(comm, "migration/"):
		return cpustate.Idle
	case strings.HasPrefix(comm, "ksoftirqd/"):
		return cpustate.Softirq
	case strings.HasPrefix(comm, "irq/"):
		return cpustate.Irq
	case strings.HasPrefix(comm, "kworker/"), strings.HasPrefix(comm, "rcu_"):
		return cpustate.Kernel
	default:
		return cpustate.User
	}
}
