package command

// DefaultBufferSize is the longest accepted line, verb and arguments
// included.
const DefaultBufferSize = 64

// LineBuffer accumulates console input into lines. Bytes past the buffer
// size are dropped until the next terminator.
type LineBuffer struct {
	buf  []byte
	size int
}

// NewLineBuffer returns a buffer holding at most size bytes per line. A
// non-positive size means DefaultBufferSize.
func NewLineBuffer(size int) *LineBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &LineBuffer{buf: make([]byte, 0, size), size: size}
}

// Feed adds c into the buffer. It returns the completed line and true
// when c terminates a non-empty line.
func (b *LineBuffer) Feed(c byte) (string, bool) {
	if c == '\n' || c == '\r' {
		if len(b.buf) == 0 {
			return "", false
		}
		line := string(b.buf)
		b.buf = b.buf[:0]
		return line, true
	}

	if len(b.buf) < b.size {
		b.buf = append(b.buf, c)
	}
	return "", false
}

// FeedAll adds p and returns every line it completes.
func (b *LineBuffer) FeedAll(p []byte) []string {
	var lines []string
	for _, c := range p {
		if line, ok := b.Feed(c); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// Len returns the number of bytes buffered for the current line.
func (b *LineBuffer) Len() int {
	return len(b.buf)
}
