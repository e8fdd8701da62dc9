package perffile

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

// FileMeta holds the optional feature-section metadata recorded
// alongside a perf.data file's records.
type FileMeta struct {
	// Hostname is the hostname of the machine that recorded this
	// profile, or "" if unknown.
	Hostname string

	// CPUsAvail is the number of available CPUs of the machine
	// that recorded this profile, or 0 if unknown.
	CPUsAvail int

	// Clock is the HEADER_CLOCK_DATA feature, correlating the
	// sample clock with wall-clock time, or nil if the profile
	// doesn't carry one (e.g. it wasn't recorded with a `-k`
	// clock id, or was recorded by an older perf).
	Clock *ClockData
}

// ClockData is the decoded HEADER_CLOCK_DATA feature section. It lets
// a reader translate the monotonic-ish clock used to time-stamp
// samples back to wall-clock time.
type ClockData struct {
	Version       uint32 // always 1; any other value is an ErrClockDataVersion
	ClockID       uint32 // clockid_t used to record samples, e.g. CLOCK_MONOTONIC
	WallClockNS   uint64 // wall-clock time (CLOCK_REALTIME) at the sync point, in ns
	ClockIDTimeNS uint64 // ClockID reading at the same sync point, in ns
}

// ErrClockDataVersion is returned when a HEADER_CLOCK_DATA section
// declares a version this package doesn't understand.
type ErrClockDataVersion struct {
	Version uint32
}

func (e *ErrClockDataVersion) Error() string {
	return fmt.Sprintf("unsupported CLOCK_DATA version: %d", e.Version)
}

var featureParsers = map[feature]func(*FileMeta, bufDecoder) error{
	featureHostname:  stringFeature("Hostname"),
	featureNrCpus:    (*FileMeta).parseNrCPUs,
	featureClockData: (*FileMeta).parseClockData,
}

func (m *FileMeta) parse(f feature, sec fileSection, r io.ReaderAt) error {
	parser := featureParsers[f]
	if parser == nil {
		return nil
	}

	data, err := sec.data(r)
	if err != nil {
		return err
	}
	bd := bufDecoder{data, binary.LittleEndian}

	return parser(m, bd)
}

func stringFeature(name string) func(*FileMeta, bufDecoder) error {
	return func(m *FileMeta, bd bufDecoder) error {
		bd.u32() // Ignore length; string is \0-terminated
		str := bd.cstring()
		reflect.ValueOf(m).Elem().FieldByName(name).SetString(str)
		return nil
	}
}

func (m *FileMeta) parseNrCPUs(bd bufDecoder) error {
	_, m.CPUsAvail = int(bd.u32()), int(bd.u32())
	return nil
}

func (m *FileMeta) parseClockData(bd bufDecoder) error {
	version := bd.u32()
	if version != 1 {
		return &ErrClockDataVersion{Version: version}
	}
	m.Clock = &ClockData{
		Version:       version,
		ClockID:       bd.u32(),
		WallClockNS:   bd.u64(),
		ClockIDTimeNS: bd.u64(),
	}
	return nil
}
