package tpdecode

import (
	"encoding/binary"
	"fmt"

	"github.com/lx7/perf2statemap/cpustate"
	"github.com/lx7/perf2statemap/tracepoint"
)

// decodeFunc turns one sample's raw tracepoint payload into a
// cpustate.Event, given the Extractor compiled for its tracepoint's
// Format.
type decodeFunc func(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error)

// fieldsFor lists, in order, the field names each decoder binds
// against a tracepoint's Format — see Compile.
var fieldsFor = map[Action][]string{
	Switch:       {"prev_comm", "prev_pid", "prev_state", "next_comm", "next_pid", "next_prio"},
	Migrate:      {"comm", "pid", "prio", "orig_cpu", "dest_cpu"},
	EnterIrq:     {"irq", "name"},
	ExitIrq:      {"irq", "ret"},
	EnterSoftirq: {"vec"},
	ExitSoftirq:  {"vec"},
	EnterTasklet: {"tasklet", "func"},
	ExitTasklet:  {"tasklet", "func"},
}

var decodeFuncs = map[Action]decodeFunc{
	Switch:       decodeSchedSwitch,
	Migrate:      decodeSchedMigrateTask,
	EnterIrq:     decodeIRQHandlerEntry,
	ExitIrq:      IRQHandlerExit,
	EnterSoftirq: decodeSoftirqEntry,
	ExitSoftirq:  SoftirqExit,
	EnterTasklet: decodeTaskletEntry,
	ExitTasklet:  TaskletExit,
}

// SchedSwitch decodes a sched:sched_switch sample.
func SchedSwitch(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	return decodeSchedSwitch(ex, order, raw)
}

func decodeSchedSwitch(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	if _, err := ex.ReadString(raw, order, ex.Index("prev_comm")); err != nil {
		return nil, err
	}
	if _, err := ex.ReadI32(raw, order, ex.Index("prev_pid")); err != nil {
		return nil, err
	}
	if _, err := ex.ReadI64(raw, order, ex.Index("prev_state")); err != nil {
		return nil, err
	}
	nextComm, err := ex.ReadString(raw, order, ex.Index("next_comm"))
	if err != nil {
		return nil, err
	}
	nextPid, err := ex.ReadI32(raw, order, ex.Index("next_pid"))
	if err != nil {
		return nil, err
	}
	if _, err := ex.ReadI32(raw, order, ex.Index("next_prio")); err != nil {
		return nil, err
	}

	return cpustate.BeginThread{
		State: Classify(nextComm),
		Comm:  nextComm,
		Pid:   nextPid,
	}, nil
}

// SchedMigrateTask decodes a sched:sched_migrate_task sample.
func SchedMigrateTask(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	return decodeSchedMigrateTask(ex, order, raw)
}

func decodeSchedMigrateTask(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	if _, err := ex.ReadString(raw, order, ex.Index("comm")); err != nil {
		return nil, err
	}
	if _, err := ex.ReadI32(raw, order, ex.Index("pid")); err != nil {
		return nil, err
	}
	if _, err := ex.ReadI32(raw, order, ex.Index("prio")); err != nil {
		return nil, err
	}
	origCPU, err := ex.ReadI32(raw, order, ex.Index("orig_cpu"))
	if err != nil {
		return nil, err
	}
	destCPU, err := ex.ReadI32(raw, order, ex.Index("dest_cpu"))
	if err != nil {
		return nil, err
	}

	return cpustate.Migrate{From: origCPU, To: destCPU}, nil
}

// IRQHandlerEntry decodes an irq:irq_handler_entry sample.
func IRQHandlerEntry(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	return decodeIRQHandlerEntry(ex, order, raw)
}

func decodeIRQHandlerEntry(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	irq, err := ex.ReadI32(raw, order, ex.Index("irq"))
	if err != nil {
		return nil, err
	}
	name, err := ex.ReadString(raw, order, ex.Index("name"))
	if err != nil {
		return nil, err
	}

	return cpustate.BeginOther{
		State: cpustate.Irq,
		Tag:   fmt.Sprintf("IRQ %d: %s", irq, name),
	}, nil
}

// IRQHandlerExit decodes an irq:irq_handler_exit sample.
func IRQHandlerExit(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	if _, err := ex.ReadI32(raw, order, ex.Index("irq")); err != nil {
		return nil, err
	}
	if _, err := ex.ReadI32(raw, order, ex.Index("ret")); err != nil {
		return nil, err
	}
	return cpustate.End{}, nil
}

// SoftirqEntry decodes an irq:softirq_entry sample.
func SoftirqEntry(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	return decodeSoftirqEntry(ex, order, raw)
}

func decodeSoftirqEntry(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	vec, err := ex.ReadI32(raw, order, ex.Index("vec"))
	if err != nil {
		return nil, err
	}
	return cpustate.BeginOther{State: cpustate.Softirq, Tag: fmt.Sprintf("Softirq %d", vec)}, nil
}

// SoftirqExit decodes an irq:softirq_exit sample.
func SoftirqExit(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	if _, err := ex.ReadI32(raw, order, ex.Index("vec")); err != nil {
		return nil, err
	}
	return cpustate.End{}, nil
}

// TaskletEntry decodes an irq:tasklet_entry sample.
func TaskletEntry(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	return decodeTaskletEntry(ex, order, raw)
}

func decodeTaskletEntry(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	tasklet, err := ex.ReadU64(raw, order, ex.Index("tasklet"))
	if err != nil {
		return nil, err
	}
	if _, err := ex.ReadU64(raw, order, ex.Index("func")); err != nil {
		return nil, err
	}
	return cpustate.BeginOther{State: cpustate.Tasklet, Tag: fmt.Sprintf("Tasklet 0x%x", tasklet)}, nil
}

// TaskletExit decodes an irq:tasklet_exit sample.
func TaskletExit(ex *tracepoint.Extractor, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	if _, err := ex.ReadU64(raw, order, ex.Index("tasklet")); err != nil {
		return nil, err
	}
	if _, err := ex.ReadU64(raw, order, ex.Index("func")); err != nil {
		return nil, err
	}
	return cpustate.End{}, nil
}
