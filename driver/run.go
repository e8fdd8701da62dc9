// Package driver owns the end-to-end run: open a perf.data capture,
// build the action table and CPU-state engine, replay the record
// stream through them, and stream the result out as a statemap.
package driver

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/lx7/perf2statemap/cpustate"
	"github.com/lx7/perf2statemap/perffile"
	"github.com/lx7/perf2statemap/statemap"
	"github.com/lx7/perf2statemap/tpdecode"
)

// Config configures one Run.
type Config struct {
	// Input is the path to the perf.data file to read.
	Input string
	// Output is the path to write the statemap to, or "" for stdout.
	Output string
	// Sysroot is prepended to tracepoint format file paths, for
	// reading formats captured from a different machine than the
	// one running this tool. "" means the host's own /sys.
	Sysroot string
	// Verbose enables additional diagnostic logging.
	Verbose bool
}

// Run executes one end-to-end conversion according to cfg.
func Run(cfg Config) error {
	f, err := perffile.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.Input, err)
	}
	defer f.Close()

	out := io.Writer(os.Stdout)
	if cfg.Output != "" {
		outFile, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", cfg.Output, err)
		}
		defer outFile.Close()
		out = outFile
	}

	numCPUs := f.Meta.CPUsAvail
	if numCPUs == 0 {
		return fmt.Errorf("perf.data has no CPU count metadata")
	}

	table, missing, err := tpdecode.NewTable(cfg.Sysroot)
	if err != nil {
		return fmt.Errorf("building tracepoint action table: %w", err)
	}
	for _, name := range missing {
		log.Printf("warning: tracepoint format for %s not found, samples for it will be ignored", name)
	}

	configs := make([]uint64, len(f.Events))
	for i, ev := range f.Events {
		configs[i] = ev.Config
	}
	actions, unknown := table.Actions(configs)
	for _, c := range unknown {
		log.Printf("warning: unrecognized tracepoint id %d, ignoring its samples", c)
	}

	recs, err := f.Records()
	if err != nil {
		return fmt.Errorf("reading records: %w", err)
	}

	writer := statemap.NewWriter(out)
	engine := cpustate.NewEngine(numCPUs)
	order := binary.LittleEndian

	var (
		headerWritten   bool
		firstSampleTime uint64
		warnedLost      bool
		sampleIndex     int
	)

	writeHeader := func() error {
		if headerWritten {
			return nil
		}
		startNS := clockOrigin(f.Meta.Clock, firstSampleTime)
		headerWritten = true
		return writer.WriteHeader(statemap.NewHeader(startNS, hostnamePtr(f.Meta.Hostname)))
	}

	for recs.Next() {
		switch r := recs.Record.(type) {
		case *perffile.RecordSample:
			// Records() delivers samples in non-decreasing time
			// order, so the first one we see here has the
			// capture's minimum timestamp, regardless of its
			// action.
			if !headerWritten {
				firstSampleTime = r.Time()
				if err := writeHeader(); err != nil {
					return fmt.Errorf("writing header: %w", err)
				}
			}
			sampleIndex++

			attrIdx := attrIndex(f.Events, r.Attr)
			if attrIdx < 0 || attrIdx >= len(actions) {
				continue
			}
			action := actions[attrIdx]
			if action == tpdecode.Ignore {
				continue
			}

			ev, err := table.Decode(r.Attr.Config, order, r.Raw)
			if err != nil {
				return &tpdecode.DecodeError{SampleIndex: sampleIndex, Action: action, Raw: r.Raw, Err: err}
			}
			if ev == nil {
				continue
			}

			t := r.Time() - firstSampleTime
			slots, err := engine.Apply(int32(r.CPU), t, ev)
			if err != nil {
				return fmt.Errorf("sample %d: %w", sampleIndex, err)
			}
			for _, s := range slots {
				if err := writer.WriteSlot(s); err != nil {
					return fmt.Errorf("writing sample %d: %w", sampleIndex, err)
				}
			}

		case *perffile.RecordLost, *perffile.RecordLostSamples:
			if !warnedLost {
				log.Printf("warning: capture has lost samples; output may be incomplete")
				warnedLost = true
			}

		case *perffile.RecordUnknown:
			if cfg.Verbose {
				log.Printf("ignoring record type %v", r.Type)
			}
		}
	}

	// No samples: still emit the header, taking the first-sample
	// time as 0 (the origin is 0 when there is no CLOCK_DATA).
	if err := writeHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}

// clockOrigin computes the wall-clock time of the stream's first
// sample from the CLOCK_DATA feature, per the formula: wall_clock_ns
// + (first_sample_time - clockid_time_ns). Absence of CLOCK_DATA is
// non-fatal; the origin defaults to 0.
func clockOrigin(clock *perffile.ClockData, firstSampleTime uint64) uint64 {
	if clock == nil {
		log.Printf("warning: no CLOCK_DATA feature; time origin defaults to 0")
		return 0
	}
	return clock.WallClockNS + (firstSampleTime - clock.ClockIDTimeNS)
}

func hostnamePtr(host string) *string {
	if host == "" {
		return nil
	}
	return &host
}

func attrIndex(events []*perffile.EventAttr, attr *perffile.EventAttr) int {
	for i, e := range events {
		if e == attr {
			return i
		}
	}
	return -1
}
