// Package stacktrace trims raw goroutine stacks down to the frames that
// belong to this module, keeping panic logs readable.
package stacktrace

import "strings"

// InternalPaths extracts "internal/..." source locations from a raw stack
// trace, one "path.go:line" entry per frame. It returns nil when the stack
// contains no module-local frames.
func InternalPaths(stack []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, "/internal/")
		if idx == -1 || !strings.Contains(line, ".go:") {
			continue
		}

		frame := line[idx+1:]
		if end := strings.IndexByte(frame, ' '); end != -1 {
			frame = frame[:end]
		}
		paths = append(paths, frame)
	}
	return paths
}
