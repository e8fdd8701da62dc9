package perffile

import "io"

// perf_file_header from tools/perf/util/header.h. Only the fields this
// package actually interprets are kept; unknown trailing feature bits
// are simply not parsed.
type fileHeader struct {
	Magic    [8]byte
	Size     uint64      // Size of fileHeader on disk
	AttrSize uint64      // Size of fileAttr on disk
	Attrs    fileSection // Array of fileAttr
	Data     fileSection // Alternating recordHeader and record
	_        fileSection // event_types; ignored in v2

	Features [numFeatureBits / 64]uint64 // Bitmap of feature
}

func (h *fileHeader) hasFeature(f feature) bool {
	return h.Features[f/64]&(1<<(uint(f)%64)) != 0
}

const numFeatureBits = 256

// perf_file_section from tools/perf/util/header.h
type fileSection struct {
	Offset, Size uint64
}

func (s fileSection) sectionReader(r io.ReaderAt) *io.SectionReader {
	return io.NewSectionReader(r, int64(s.Offset), int64(s.Size))
}

func (s fileSection) data(r io.ReaderAt) ([]byte, error) {
	out := make([]byte, s.Size)
	n, err := r.ReadAt(out, int64(s.Offset))
	if n == len(out) {
		return out, nil
	}
	return nil, err
}

// HEADER_* enum from tools/perf/util/header.h. Every bit up to
// featureClockData is named so the iota values line up; only the bits
// with an entry in featureParsers are decoded, and parse() skips the
// rest of the 256-bit feature bitmap.
type feature int

const (
	featureReserved feature = iota // always cleared
	featureTracingData
	featureBuildID

	featureHostname
	featureOSRelease
	featureVersion
	featureArch
	featureNrCpus
	featureCPUDesc
	featureCPUID
	featureTotalMem
	featureCmdline
	featureEventDesc
	featureCPUTopology
	featureNUMATopology
	featureBranchStack
	featurePMUMappings
	featureGroupDesc
	featureAuxtrace
	featureStat
	featureCache
	featureSampleTime
	featureSampleTopology
	featureClockID
	featureDirFormat
	featureBPFProgInfo
	featureBPFBTF
	featureCompressed
	featureCPUPMUCaps
	featureClockData // HEADER_CLOCK_DATA: see ClockData in meta.go
)

// perf_file_attr from tools/perf/util/header.c
type fileAttr struct {
	Attr EventAttr
	IDs  fileSection // array of attrID, one per core/thread
}

// An EventType is a general class of performance event.
//
// This corresponds to the perf_type_id enum from
// include/uapi/linux/perf_event.h
type EventType uint32

const (
	EventTypeHardware EventType = iota
	EventTypeSoftware
	EventTypeTracepoint
	EventTypeHWCache
	EventTypeRaw
	EventTypeBreakpoint
)

type attrID uint64

// EventAttr describes an event and how it was recorded.
//
// This corresponds to the subset of the perf_event_attr struct from
// include/uapi/linux/perf_event.h that this package needs: for a
// tracepoint event, Config is the numeric tracepoint ID assigned by
// the kernel (the same value found in
// events/<category>/<name>/id), which is how samples are matched
// back to a tracepoint format.
type EventAttr struct {
	Type   EventType
	Config uint64

	// SampleFormat describes which optional fields are present in
	// each RecordSample with this attribute.
	SampleFormat SampleFormat
	ReadFormat   ReadFormat

	// SampleRegsUser and SampleRegsIntr are bitmasks of captured
	// registers; they're only needed to compute how many bytes to
	// skip over when SampleFormatRegsUser/RegsIntr is set; this
	// package never decodes register values.
	SampleRegsUser uint64
	SampleRegsIntr uint64
}

// A SampleFormat is a bitmask of the fields recorded by a sample.
//
// This corresponds to the perf_event_sample_format enum from
// include/uapi/linux/perf_event.h
type SampleFormat uint64

const (
	SampleFormatIP SampleFormat = 1 << iota
	SampleFormatTID
	SampleFormatTime
	SampleFormatAddr
	SampleFormatRead
	SampleFormatCallchain
	SampleFormatID
	SampleFormatCPU
	SampleFormatPeriod
	SampleFormatStreamID
	SampleFormatRaw
	SampleFormatBranchStack
	SampleFormatRegsUser
	SampleFormatStackUser
	SampleFormatWeight
	SampleFormatDataSrc
	SampleFormatIdentifier
	SampleFormatTransaction
	SampleFormatRegsIntr
	SampleFormatPhysAddr
	SampleFormatAux
	SampleFormatCGroup
	SampleFormatDataPageSize
	SampleFormatCodePageSize
	SampleFormatWeightStruct
)

// sampleIDOffset returns the byte offset of the ID field within an
// on-disk sample record with this sample format, or -1 if there is no
// ID field.
//
// See __perf_evsel__calc_id_pos in tools/perf/util/evsel.c.
func (s SampleFormat) sampleIDOffset() int {
	if s&SampleFormatIdentifier != 0 {
		return 0
	}
	if s&SampleFormatID == 0 {
		return -1
	}

	off := 0
	if s&SampleFormatIP != 0 {
		off += 8
	}
	if s&SampleFormatTID != 0 {
		off += 8
	}
	if s&SampleFormatTime != 0 {
		off += 8
	}
	if s&SampleFormatAddr != 0 {
		off += 8
	}
	return off
}

// ReadFormat is a bitmask of the fields recorded in a sample's read
// group, which this package skips over without decoding.
type ReadFormat uint64

const (
	ReadFormatTotalTimeEnabled ReadFormat = 1 << iota
	ReadFormatTotalTimeRunning
	ReadFormatID
	ReadFormatGroup
)

// EventFlags is a bitmask of boolean properties of an event. Only two
// flags are named; readFileAttr skips the flags word without decoding
// it.
type EventFlags uint64

const (
	EventFlagFreq            EventFlags = 1 << 10
	EventFlagWakeupWatermark EventFlags = 1 << 14
)

// perf_event_header from include/uapi/linux/perf_event.h
type recordHeader struct {
	Type RecordType
	Misc uint16
	Size uint16
}

// A RecordType indicates the type of a record in a profile.
type RecordType uint32

const (
	RecordTypeMmap RecordType = 1 + iota
	RecordTypeLost
	RecordTypeComm
	RecordTypeExit
	RecordTypeThrottle
	RecordTypeUnthrottle
	RecordTypeFork
	RecordTypeRead
	RecordTypeSample
	recordTypeMmap2
	RecordTypeAux
	RecordTypeItraceStart
	RecordTypeLostSamples
	RecordTypeSwitch
	RecordTypeSwitchCPUWide
	RecordTypeNamespaces
	RecordTypeKsymbol
	RecordTypeBPFEvent
	RecordTypeCGroup
	RecordTypeTextPoke
	RecordTypeAuxOutputHardwareID

	recordTypeUserStart RecordType = 64
)

func weight(x uint64) int {
	x -= (x >> 1) & 0x5555555555555555
	x = (x & 0x3333333333333333) + ((x >> 2) & 0x3333333333333333)
	x = (x + (x >> 4)) & 0x0f0f0f0f0f0f0f0f
	return int((x * 0x0101010101010101) >> 56)
}
