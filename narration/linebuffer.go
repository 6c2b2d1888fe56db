package narration

import "strings"

// LineBuffer accumulates narration text deltas and splits off complete,
// trimmed, non-empty lines in stream order. The fragment after the last
// newline stays buffered until the next delta, or until Flush at stream end.
type LineBuffer struct {
	rest string
}

// Append adds a delta to the buffer and returns every complete line it
// unlocked, trimmed, with blank lines dropped.
func (b *LineBuffer) Append(delta string) []string {
	if delta == "" {
		return nil
	}
	b.rest += delta

	var lines []string
	for {
		idx := strings.IndexByte(b.rest, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(b.rest[:idx])
		b.rest = b.rest[idx+1:]
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Flush empties the buffer and returns the trailing fragment as a final
// line. The boolean is false when nothing non-blank remained.
func (b *LineBuffer) Flush() (string, bool) {
	line := strings.TrimSpace(b.rest)
	b.rest = ""
	return line, line != ""
}
