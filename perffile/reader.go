package perffile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"reflect"
)

// A File is a perf.data file: a sequence of records plus optional
// feature metadata.
type File struct {
	// Meta contains the optional feature-section metadata for this
	// profile, such as hostname and clock correlation.
	Meta FileMeta

	// Events lists the event attributes recorded in this profile,
	// in file order.
	Events []*EventAttr

	r      io.ReaderAt
	closer io.Closer
	hdr    fileHeader

	attrs          []fileAttr
	idToAttr       map[attrID]*EventAttr
	sampleIDOffset int // byte offset of attrID in a RecordSample
}

// New reads a perf.data file from r.
//
// The caller must keep r open as long as it is using the returned
// *File.
func New(r io.ReaderAt) (*File, error) {
	// See perf_session__read_header in tools/perf/util/header.c.
	file := &File{r: r, Events: make([]*EventAttr, 0)}

	sr := io.NewSectionReader(r, 0, 1024)
	if err := binary.Read(sr, binary.LittleEndian, &file.hdr); err != nil {
		return nil, err
	}
	switch string(file.hdr.Magic[:]) {
	case "PERFILE2":
		// Version 2, little endian.
	case "2ELIFREP":
		return nil, fmt.Errorf("big endian profiles not supported")
	case "PERFFILE":
		return nil, fmt.Errorf("version 1 profiles not supported")
	default:
		return nil, fmt.Errorf("bad or unsupported file magic %q", string(file.hdr.Magic[:]))
	}
	if file.hdr.Size != uint64(binary.Size(&file.hdr)) {
		return nil, fmt.Errorf("bad header size %d", file.hdr.Size)
	}
	if file.hdr.Data.Size == 0 {
		return nil, fmt.Errorf("truncated data file; was 'perf record' properly terminated?")
	}

	if file.hdr.AttrSize == 0 {
		return nil, fmt.Errorf("bad attr size 0")
	}
	nAttrs := int(file.hdr.Attrs.Size / file.hdr.AttrSize)
	if nAttrs == 0 {
		return nil, fmt.Errorf("no event types")
	} else if nAttrs > 64*1024 {
		return nil, fmt.Errorf("too many attrs or bad attr size")
	}
	file.attrs = make([]fileAttr, nAttrs)
	attrSR := file.hdr.Attrs.sectionReader(r)
	for i := 0; i < nAttrs; i++ {
		if err := readFileAttr(attrSR, &file.attrs[i], int(file.hdr.AttrSize)); err != nil {
			return nil, err
		}
		file.Events = append(file.Events, &file.attrs[i].Attr)
	}

	file.idToAttr = make(map[attrID]*EventAttr)
	for i := range file.attrs {
		var ids []attrID
		if err := readSlice(file.attrs[i].IDs.sectionReader(r), &ids); err != nil {
			return nil, err
		}
		for _, id := range ids {
			file.idToAttr[id] = &file.attrs[i].Attr
		}
	}

	firstEvent := &file.attrs[0].Attr
	file.sampleIDOffset = firstEvent.SampleFormat.sampleIDOffset()
	if len(file.attrs) > 1 && len(file.idToAttr) == 0 {
		return nil, fmt.Errorf("file has multiple EventAttrs, but no IDs")
	}

	// Load feature sections.
	sr = io.NewSectionReader(r, int64(file.hdr.Data.Offset+file.hdr.Data.Size), int64(numFeatureBits*binary.Size(fileSection{})))
	for bit := feature(0); bit < feature(numFeatureBits); bit++ {
		if !file.hdr.hasFeature(bit) {
			continue
		}
		var sec fileSection
		if err := binary.Read(sr, binary.LittleEndian, &sec); err != nil {
			return nil, err
		}
		if err := file.Meta.parse(bit, sec, file.r); err != nil {
			return nil, err
		}
	}

	return file, nil
}

// Open opens the named perf.data file using os.Open.
//
// The caller must call f.Close() on the returned file when done.
func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	ff, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	ff.closer = f
	return ff, nil
}

// readFileAttr reads one on-disk perf_event_attr and its trailing IDs
// section. perf_event_attr has grown several ABI versions over the
// years (see tools/perf/util/header.c); this package only decodes the
// fixed-layout prefix it actually uses and skips whatever follows.
func readFileAttr(sr *io.SectionReader, fa *fileAttr, attrSize int) error {
	var head [8]byte
	if _, err := io.ReadFull(sr, head[:]); err != nil {
		return err
	}
	size := binary.LittleEndian.Uint32(head[4:8])
	if size == 0 {
		size = 64 // Assume ABI v0.
	}
	if int(size) > attrSize {
		return fmt.Errorf("event attr size %d too large; more recent and unsupported format", size)
	}

	body := make([]byte, size-8)
	if _, err := io.ReadFull(sr, body); err != nil {
		return err
	}
	bd := bufDecoder{body, binary.LittleEndian}

	fa.Attr.Type = EventType(binary.LittleEndian.Uint32(head[0:4]))
	fa.Attr.Config = bd.u64()
	bd.u64() // sample_period/sample_freq; this package never uses it
	fa.Attr.SampleFormat = SampleFormat(bd.u64())
	fa.Attr.ReadFormat = ReadFormat(bd.u64())
	bd.u64() // flags; no flag bits this package consults
	bd.u32() // wakeup_events/wakeup_watermark
	bd.u32() // bp_type
	if len(bd.buf) >= 8 {
		bd.u64() // bp_addr/config1
	}
	if len(bd.buf) >= 8 {
		bd.u64() // bp_len/config2
	}
	if len(bd.buf) >= 8 {
		bd.u64() // branch_sample_type
	}
	if len(bd.buf) >= 8 {
		fa.Attr.SampleRegsUser = bd.u64()
	}
	if len(bd.buf) >= 4 {
		bd.u32() // sample_stack_user
	}
	if len(bd.buf) >= 4 {
		bd.u32() // clockid
	}
	if len(bd.buf) >= 8 {
		fa.Attr.SampleRegsIntr = bd.u64()
	}

	return binary.Read(sr, binary.LittleEndian, &fa.IDs)
}

// Close closes the File.
//
// If the File was created using New directly instead of Open, Close
// has no effect.
func (f *File) Close() error {
	var err error
	if f.closer != nil {
		err = f.closer.Close()
		f.closer = nil
	}
	return err
}

// readSlice reads an entire section into a slice. v must be a pointer
// to a slice; the slice itself may be nil. The section size must be
// an exact multiple of the size of the element type of v.
func readSlice(sr *io.SectionReader, v interface{}) error {
	vt := reflect.TypeOf(v)
	if vt.Kind() != reflect.Ptr || vt.Elem().Kind() != reflect.Slice {
		panic("v must be a pointer to a slice")
	}
	et := vt.Elem().Elem()
	esize := binary.Size(reflect.Zero(et).Interface())
	nelem := int(sr.Size() / int64(esize))
	if sr.Size()%int64(esize) != 0 {
		return fmt.Errorf("section size %d is not a multiple of element size %d", sr.Size(), esize)
	}

	reflect.ValueOf(v).Elem().Set(reflect.MakeSlice(vt.Elem(), nelem, nelem))

	return binary.Read(sr, binary.LittleEndian, v)
}
