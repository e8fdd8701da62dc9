package perffile

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// A Record is one record from a perf.data record stream.
type Record interface {
	// Time is this record's timestamp, or 0 if the record has no
	// timestamp.
	Time() uint64
}

// RecordSample is a PERF_RECORD_SAMPLE record: one occurrence of the
// event described by Attr.
type RecordSample struct {
	Attr *EventAttr
	CPU  uint32
	time uint64

	// Raw is the event's raw tracepoint payload, valid only if
	// Attr.SampleFormat has SampleFormatRaw set. It is a copy owned
	// by this record and stays valid after later calls to
	// Records.Next.
	Raw []byte
}

func (r *RecordSample) Time() uint64 { return r.time }

// RecordLost is a PERF_RECORD_LOST record: the kernel dropped one or
// more samples for the given event due to ring-buffer pressure.
type RecordLost struct {
	Attr    *EventAttr
	NumLost uint64
}

func (r *RecordLost) Time() uint64 { return 0 }

// RecordLostSamples is a PERF_RECORD_LOST_SAMPLES record, the
// newer-ABI equivalent of RecordLost.
type RecordLostSamples struct {
	NumLost uint64
}

func (r *RecordLostSamples) Time() uint64 { return 0 }

// RecordUnknown is any record type this package doesn't interpret
// (MMAP, COMM, FORK, EXIT, KSYMBOL, and the rest): its content is
// ignored, but its type is preserved for diagnostics.
type RecordUnknown struct {
	Type RecordType
}

func (r *RecordUnknown) Time() uint64 { return 0 }

// Records is an in-memory, time-ordered sequence of the records in a
// perf.data file. Typical usage is:
//
//	rs, err := file.Records()
//	for rs.Next() {
//	  switch r := rs.Record.(type) {
//	  ...
//	  }
//	}
type Records struct {
	recs []Record
	i    int

	// Record is the current record, set by the most recent
	// successful call to Next.
	Record Record
}

// Next advances to the next record and reports whether one was
// available.
func (rs *Records) Next() bool {
	if rs.i >= len(rs.recs) {
		return false
	}
	rs.Record = rs.recs[rs.i]
	rs.i++
	return true
}

// Records reads and decodes every record in the profile, in
// timestamp order.
//
// perf.data does not guarantee its on-disk record order matches
// timestamp order (the kernel interleaves per-CPU ring buffers as it
// flushes them), so this does two passes: decode every record in file
// order, then stable-sort by timestamp. Records without a timestamp
// (anything but RecordSample) sort as if they occurred at time 0,
// which is fine since this package never depends on their relative
// order.
func (f *File) Records() (*Records, error) {
	sr := newBufferedSectionReader(f.hdr.Data.sectionReader(f.r))
	var buf []byte
	var recs []Record

	for {
		var hdr recordHeader
		if err := binary.Read(sr, binary.LittleEndian, &hdr); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		rlen := int(hdr.Size) - 8
		if rlen < 0 {
			return nil, fmt.Errorf("bad record size %d", hdr.Size)
		}
		if rlen > len(buf) {
			buf = make([]byte, rlen)
		}
		body := buf[:rlen]
		if _, err := io.ReadFull(sr, body); err != nil {
			return nil, err
		}

		rec, err := f.decodeRecord(hdr, body)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recs = append(recs, rec)
		}
	}

	stableSortByTime(recs)
	return &Records{recs: recs}, nil
}

func (f *File) attrByID(id attrID) (*EventAttr, error) {
	if attr, ok := f.idToAttr[id]; ok {
		return attr, nil
	}
	if len(f.attrs) == 1 {
		return &f.attrs[0].Attr, nil
	}
	return nil, fmt.Errorf("event has unknown eventAttr ID %d", id)
}

func (f *File) decodeRecord(hdr recordHeader, body []byte) (Record, error) {
	bd := bufDecoder{body, binary.LittleEndian}

	switch hdr.Type {
	case RecordTypeSample:
		return f.parseSample(&bd)

	case RecordTypeLost:
		id := attrID(bd.u64())
		attr, err := f.attrByID(id)
		if err != nil {
			// A lost-samples marker for an event we can't
			// identify is still worth surfacing as a warning
			// upstream, not a fatal error.
			attr = nil
		}
		return &RecordLost{Attr: attr, NumLost: bd.u64()}, nil

	case RecordTypeLostSamples:
		return &RecordLostSamples{NumLost: bd.u64()}, nil

	default:
		return &RecordUnknown{Type: hdr.Type}, nil
	}
}

func (f *File) parseSample(bd *bufDecoder) (*RecordSample, error) {
	var id attrID
	if f.sampleIDOffset == -1 {
		id = 0
	} else {
		id = attrID(bd.order.Uint64(bd.buf[f.sampleIDOffset:]))
	}
	attr, err := f.attrByID(id)
	if err != nil {
		return nil, err
	}

	o := &RecordSample{Attr: attr}
	t := attr.SampleFormat

	bd.u64If(t&SampleFormatIdentifier != 0)
	bd.u64If(t&SampleFormatIP != 0)
	hasTID := t&SampleFormatTID != 0
	bd.i32If(hasTID) // pid
	bd.i32If(hasTID) // tid
	o.time = bd.u64If(t&SampleFormatTime != 0)
	bd.u64If(t&SampleFormatAddr != 0)
	bd.u64If(t&SampleFormatID != 0)
	bd.u64If(t&SampleFormatStreamID != 0)
	o.CPU = bd.u32If(t&SampleFormatCPU != 0)
	bd.u32If(t&SampleFormatCPU != 0) // res, reserved

	bd.u64If(t&SampleFormatPeriod != 0)

	if t&SampleFormatRead != 0 {
		n := 1
		if attr.ReadFormat&ReadFormatGroup != 0 {
			n = int(bd.u64())
		}
		times := 0 // time_enabled/time_running, present once
		if attr.ReadFormat&ReadFormatTotalTimeEnabled != 0 {
			times += 8
		}
		if attr.ReadFormat&ReadFormatTotalTimeRunning != 0 {
			times += 8
		}
		entry := 8 // value
		if attr.ReadFormat&ReadFormatID != 0 {
			entry += 8
		}
		bd.skip(times + n*entry)
	}

	if t&SampleFormatCallchain != 0 {
		n := int(bd.u64())
		bd.skip(n * 8)
	}

	if t&SampleFormatRaw != 0 {
		size := int(bd.u32())
		o.Raw = make([]byte, size)
		bd.bytes(o.Raw)
	}

	if t&SampleFormatBranchStack != 0 {
		n := int(bd.u64())
		bd.skip(n * 24)
	}

	if t&SampleFormatRegsUser != 0 {
		bd.u64() // abi
		bd.skip(weight(attr.SampleRegsUser) * 8)
	}

	if t&SampleFormatStackUser != 0 {
		size := int(bd.u64())
		bd.skip(size)
		if size > 0 {
			bd.u64() // dyn_size
		}
	}

	bd.u64If(t&SampleFormatWeight != 0 || t&SampleFormatWeightStruct != 0)
	bd.u64If(t&SampleFormatDataSrc != 0)
	bd.u64If(t&SampleFormatTransaction != 0)

	if t&SampleFormatRegsIntr != 0 {
		bd.u64() // abi
		bd.skip(weight(attr.SampleRegsIntr) * 8)
	}

	bd.u64If(t&SampleFormatPhysAddr != 0)
	bd.u64If(t&SampleFormatCGroup != 0)
	bd.u64If(t&SampleFormatDataPageSize != 0)
	bd.u64If(t&SampleFormatCodePageSize != 0)

	return o, nil
}

type byTime []Record

func (s byTime) Len() int           { return len(s) }
func (s byTime) Less(i, j int) bool { return s[i].Time() < s[j].Time() }
func (s byTime) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func stableSortByTime(recs []Record) {
	sort.Stable(byTime(recs))
}
