// Package statemap emits a per-entity state timeline in the
// "statemap" JSON-lines format: a header object describing the time
// origin and state palette, followed by one JSON object per state
// change.
package statemap

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"

	"github.com/lx7/perf2statemap/cpustate"
)

// namedState is one entry of the header's state palette.
type namedState struct {
	Name  string
	Color string
	Value int
}

// States is an ordered state palette. It marshals to a JSON object
// with its entries in declaration order rather than the sorted order
// encoding/json would otherwise give a Go map, since the downstream
// visualizer's corpus was generated with Idle/Irq/Softirq/Tasklet/
// Kernel/User order.
type States []namedState

func (s States) MarshalJSON() ([]byte, error) {
	type colorValue struct {
		Color string `json:"color"`
		Value int    `json:"value"`
	}
	buf := append([]byte(nil), '{')
	for i, ns := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		name, err := json.Marshal(ns.Name)
		if err != nil {
			return nil, err
		}
		cv, err := json.Marshal(colorValue{Color: ns.Color, Value: ns.Value})
		if err != nil {
			return nil, err
		}
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, cv...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// DefaultStates is the fixed CPU-state color/value table.
func DefaultStates() States {
	return States{
		{"Idle", "#e0e0e0", int(cpustate.Idle)},
		{"Irq", "#FF0000", int(cpustate.Irq)},
		{"Softirq", "#FF8000", int(cpustate.Softirq)},
		{"Tasklet", "#FFBF00", int(cpustate.Tasklet)},
		{"Kernel", "#2E4E00", int(cpustate.Kernel)},
		{"User", "#9BC362", int(cpustate.User)},
	}
}

// Header is the statemap stream's first line.
type Header struct {
	Start      [2]uint64 `json:"start"`
	Title      string    `json:"title"`
	Host       *string   `json:"host"`
	EntityKind string    `json:"entityKind"`
	States     States    `json:"states"`
}

// NewHeader builds the header for a run whose time origin is
// startNS nanoseconds (split into seconds and the nanosecond
// remainder), with the given optional hostname.
func NewHeader(startNS uint64, host *string) Header {
	const nsPerSec = 1_000_000_000
	return Header{
		Start:      [2]uint64{startNS / nsPerSec, startNS % nsPerSec},
		Title:      "CPU",
		Host:       host,
		EntityKind: "CPU",
		States:     DefaultStates(),
	}
}

// nsTime marshals as a decimal string rather than a JSON number, so
// that JavaScript's float64-based number type doesn't lose precision
// on large nanosecond timestamps.
type nsTime uint64

func (t nsTime) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, strconv.FormatUint(uint64(t), 10)), nil
}

// datum is one data line: a CPU's state at the moment it changed.
type datum struct {
	Time   nsTime  `json:"time"`
	Entity string  `json:"entity"`
	State  uint8   `json:"state"`
	Tag    *string `json:"tag"`
}

// Writer emits a statemap stream: a single WriteHeader call followed
// by any number of WriteSlot calls, in timeline order.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w in a buffered statemap Writer. Callers must call
// Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the stream's header line. It must be called
// exactly once, before any WriteSlot call.
func (w *Writer) WriteHeader(h Header) error {
	return w.writeLine(h)
}

// WriteSlot writes one CPU slot as a data line.
func (w *Writer) WriteSlot(s cpustate.Slot) error {
	return w.writeLine(datum{
		Time:   nsTime(s.Time),
		Entity: s.Entity,
		State:  uint8(s.State),
		Tag:    s.Tag,
	})
}

func (w *Writer) writeLine(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush flushes any buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
