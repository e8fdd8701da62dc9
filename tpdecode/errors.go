package tpdecode

import "fmt"

// DecodeError reports a failure decoding one sample's raw tracepoint
// payload: a short record, an out-of-range slice, or invalid UTF-8
// beyond lossy recovery. It carries enough context to diagnose which
// sample caused it without re-running the whole capture.
type DecodeError struct {
	SampleIndex int
	Action      Action
	Raw         []byte // the offending payload; Error prints at most its first 64 bytes
	Err         error
}

func (e *DecodeError) Error() string {
	raw := e.Raw
	const maxSnapshot = 64
	if len(raw) > maxSnapshot {
		raw = raw[:maxSnapshot]
	}
	return fmt.Sprintf("decode sample %d (action %v): %v (raw=% x%s)", e.SampleIndex, e.Action, e.Err, raw, ellipsis(len(e.Raw) > maxSnapshot))
}

func (e *DecodeError) Unwrap() error { return e.Err }

func ellipsis(more bool) string {
	if more {
		return "..."
	}
	return ""
}
