package bytelang

import (
	"io"
	"testing"
)

func TestMemIOBounds(t *testing.T) {
	buf := make([]byte, 3)
	m := NewMemIO(buf)

	if m.AllocSize() != 3 || m.AvailableSize() != 3 {
		t.Fatalf("Fresh MemIO sizes wrong: alloc %d, available %d", m.AllocSize(), m.AvailableSize())
	}

	m.Put(1)
	m.Put(2)
	m.Put(3)
	if m.AvailableSize() != 0 || m.IsAvailable() {
		t.Fatalf("Available size should be zero at end, got %d", m.AvailableSize())
	}

	m.Put(4)
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 {
		t.Errorf("Write past end modified memory: %v", buf)
	}
	if m.Next() != 0 || m.Current() != 0 {
		t.Errorf("Read past end should yield 0")
	}

	m.Reset()
	if m.Current() != 1 {
		t.Errorf("Current after reset = %d, expected 1", m.Current())
	}
	for i, want := range []byte{1, 2, 3} {
		if got := m.Next(); got != want {
			t.Errorf("Byte %d = %d, expected %d", i, got, want)
		}
		if m.AvailableSize() != 2-i {
			t.Errorf("Available after %d reads = %d", i+1, m.AvailableSize())
		}
	}
}

func TestStreamEOF(t *testing.T) {
	s := NewStream([]byte{0xAA, 0xBB, 0xCC})

	p := make([]byte, 2)
	n, err := s.Read(p)
	if n != 2 || err != nil || p[0] != 0xAA || p[1] != 0xBB {
		t.Fatalf("First read = %d, %v, %v", n, err, p)
	}
	n, err = s.Read(p)
	if n != 1 || err != nil || p[0] != 0xCC {
		t.Fatalf("Second read = %d, %v, %v", n, err, p)
	}
	n, err = s.Read(p)
	if n != 0 || err != io.EOF {
		t.Fatalf("Read at end = %d, %v, expected EOF", n, err)
	}

	s.Reset()
	if s.Available() != 3 {
		t.Errorf("Available after reset = %d", s.Available())
	}
}
