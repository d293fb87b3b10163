package bytelang

import "io"

// MemIO is a cursor over a fixed window of memory. Reading past the end
// yields 0 and writing past the end is dropped; neither is an error here.
type MemIO struct {
	buf    []byte
	cursor int
}

func NewMemIO(buf []byte) *MemIO {
	return &MemIO{buf: buf}
}

// AllocSize is the size of the whole window.
func (m *MemIO) AllocSize() int { return len(m.buf) }

// AvailableSize is the number of bytes between the cursor and the end.
func (m *MemIO) AvailableSize() int { return len(m.buf) - m.cursor }

func (m *MemIO) IsAvailable() bool { return m.cursor < len(m.buf) }

// Current returns the byte under the cursor without advancing, or 0 at the end.
func (m *MemIO) Current() byte {
	if !m.IsAvailable() {
		return 0
	}
	return m.buf[m.cursor]
}

// Next returns the byte under the cursor and advances, or 0 at the end.
func (m *MemIO) Next() byte {
	if !m.IsAvailable() {
		return 0
	}
	b := m.buf[m.cursor]
	m.cursor++
	return b
}

// Put stores b under the cursor and advances. Dropped at the end.
func (m *MemIO) Put(b byte) {
	if !m.IsAvailable() {
		return
	}
	m.buf[m.cursor] = b
	m.cursor++
}

func (m *MemIO) Reset() { m.cursor = 0 }

// Stream exposes a MemIO as an io.Reader that reports io.EOF at the end of
// the window, so in-memory programs can be fed to the interpreter.
type Stream struct {
	Input *MemIO
}

func NewStream(program []byte) *Stream {
	return &Stream{Input: NewMemIO(program)}
}

func (s *Stream) Read(p []byte) (int, error) {
	if !s.Input.IsAvailable() {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) && s.Input.IsAvailable() {
		p[n] = s.Input.Next()
		n++
	}
	return n, nil
}

// Available is the number of unread bytes.
func (s *Stream) Available() int { return s.Input.AvailableSize() }

func (s *Stream) Reset() { s.Input.Reset() }
