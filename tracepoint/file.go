package tracepoint

import (
	"fmt"
	"os"
	"path/filepath"
)

// FormatPath returns the path of a tracepoint's format file under the
// given sysroot ("" for the host's own /sys).
func FormatPath(sysroot, category, name string) string {
	if sysroot == "" {
		sysroot = "/"
	}
	return filepath.Join(sysroot, "sys", "kernel", "tracing", "events", category, name, "format")
}

// ReadFormatFile reads and parses a tracepoint format file from disk.
func ReadFormatFile(path string) (*Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tracepoint format: %w", err)
	}
	return ParseFormat(data)
}
