package tpdecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/lx7/perf2statemap/cpustate"
	"github.com/lx7/perf2statemap/tracepoint"
)

// Action is what a sample with a given event attribute should cause
// the driver to do.
type Action int

const (
	Ignore Action = iota
	Switch
	Migrate
	EnterIrq
	ExitIrq
	EnterSoftirq
	ExitSoftirq
	EnterTasklet
	ExitTasklet
)

func (a Action) String() string {
	switch a {
	case Ignore:
		return "Ignore"
	case Switch:
		return "Switch"
	case Migrate:
		return "Migrate"
	case EnterIrq:
		return "EnterIrq"
	case ExitIrq:
		return "ExitIrq"
	case EnterSoftirq:
		return "EnterSoftirq"
	case ExitSoftirq:
		return "ExitSoftirq"
	case EnterTasklet:
		return "EnterTasklet"
	case ExitTasklet:
		return "ExitTasklet"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

type tracepointDef struct {
	category, name string
	action         Action
}

// tracepointDefs is the fixed action table from spec: every
// recognized tracepoint name paired with the Action it produces.
// sched_process_fork, the sched_stat_* family, sched_wakeup(_new),
// sched_waking and any other tracepoint not listed here map to
// Ignore.
var tracepointDefs = []tracepointDef{
	{"sched", "sched_switch", Switch},
	{"sched", "sched_migrate_task", Migrate},
	{"irq", "irq_handler_entry", EnterIrq},
	{"irq", "irq_handler_exit", ExitIrq},
	{"irq", "softirq_entry", EnterSoftirq},
	{"irq", "softirq_exit", ExitSoftirq},
	{"irq", "tasklet_entry", EnterTasklet},
	{"irq", "tasklet_exit", ExitTasklet},
}

type tableEntry struct {
	action    Action
	extractor *tracepoint.Extractor
}

// Table maps a sample's event-attribute Config — the kernel's numeric
// tracepoint ID — to the Action it should take and the Extractor
// compiled for that tracepoint's Format.
//
// spec.md's action mapper is indexed by perf event-attribute name
// ("irq:irq_handler_entry", ...), which in turn requires resolving
// the HEADER_EVENT_DESC feature section this package's perf.data
// reader doesn't implement. Every tracepoint's own format file already
// carries the same numeric ID the kernel assigns it (matching
// events/<cat>/<name>/id), and perf_event_attr.config is that ID for
// tracepoint events, so Table is built by matching on ID instead of
// name — same mapping, different key.
type Table struct {
	byID map[uint64]tableEntry
}

// NewTable reads the format files for every tracepoint this package
// recognizes and builds a Table from them. A tracepoint whose format
// file doesn't exist (the kernel wasn't built with it, or it's not
// currently traced) is skipped, not an error; its name is returned in
// missing for the caller to log. Any other read or parse failure is
// fatal.
func NewTable(sysroot string) (t *Table, missing []string, err error) {
	t = &Table{byID: make(map[uint64]tableEntry, len(tracepointDefs))}

	for _, def := range tracepointDefs {
		path := tracepoint.FormatPath(sysroot, def.category, def.name)
		format, err := tracepoint.ReadFormatFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				missing = append(missing, def.category+":"+def.name)
				continue
			}
			return nil, missing, fmt.Errorf("loading %s:%s tracepoint format: %w", def.category, def.name, err)
		}

		ex, err := tracepoint.Compile(format, fieldsFor[def.action])
		if err != nil {
			return nil, missing, fmt.Errorf("compiling %s:%s tracepoint: %w", def.category, def.name, err)
		}
		t.byID[uint64(format.ID)] = tableEntry{action: def.action, extractor: ex}
	}

	return t, missing, nil
}

// Actions returns, for each event-attribute Config in configs (in
// attribute-index order), the Action that attribute should take.
// Configs that don't match a known tracepoint ID map to Ignore and
// are also returned in unknown, for the caller to warn about once.
func (t *Table) Actions(configs []uint64) (actions []Action, unknown []uint64) {
	actions = make([]Action, len(configs))
	for i, c := range configs {
		if e, ok := t.byID[c]; ok {
			actions[i] = e.action
		} else {
			actions[i] = Ignore
			unknown = append(unknown, c)
		}
	}
	return actions, unknown
}

// Decode decodes a sample's raw tracepoint payload into a
// cpustate.Event, dispatching on the tracepoint ID in config. It
// returns (nil, nil) if config doesn't map to a recognized,
// non-Ignore tracepoint.
func (t *Table) Decode(config uint64, order binary.ByteOrder, raw []byte) (cpustate.Event, error) {
	e, ok := t.byID[config]
	if !ok || e.action == Ignore {
		return nil, nil
	}
	return decodeFuncs[e.action](e.extractor, order, raw)
}
