package port_reader

import (
	"io"
	"strings"
	"testing"
	"time"
)

func drain(t *testing.T, s *serialByteSource, n int) []byte {
	t.Helper()
	out := make([]byte, 0, n)
	deadline := time.Now().Add(2 * time.Second)
	for len(out) < n {
		if s.Available() {
			b, err := s.ReadByte()
			if err != nil {
				t.Fatalf("ReadByte: %v", err)
			}
			out = append(out, b)
			continue
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %d of %d bytes", len(out), n)
		}
		time.Sleep(time.Millisecond)
	}
	return out
}

func TestSerialByteSourceDeliversStream(t *testing.T) {
	payload := "/ISK5\\2M550T-1012\r\n!1A2B\r\n"
	s := newSerialByteSource(strings.NewReader(payload))
	defer s.stop()

	got := drain(t, s, len(payload))
	if string(got) != payload {
		t.Fatalf("stream mismatch:\ngot  %q\nwant %q", got, payload)
	}
}

func TestSerialByteSourceReportsErrorAfterDrain(t *testing.T) {
	s := newSerialByteSource(strings.NewReader("ab"))
	defer s.stop()

	// Buffered bytes stay readable before the EOF surfaces
	drain(t, s, 2)

	deadline := time.Now().Add(2 * time.Second)
	for s.Err() == nil {
		if time.Now().After(deadline) {
			t.Fatal("pump error never surfaced")
		}
		time.Sleep(time.Millisecond)
	}
	if s.Err() != io.EOF {
		t.Fatalf("Err() = %v, want io.EOF", s.Err())
	}
}

// StopReading races against the reader goroutine's stop check, the race
// detector flags anything short of atomic access.
func TestStopSignalConcurrentAccess(t *testing.T) {
	p := NewP1Reader("/dev/null", 115200)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			if p.stopSignal.Load() {
				return
			}
		}
	}()

	p.StopReading()
	<-done

	if !p.stopSignal.Load() {
		t.Fatal("stop signal not set after StopReading")
	}
}

func TestSerialByteSourceReadWithoutAvailable(t *testing.T) {
	s := newSerialByteSource(strings.NewReader(""))
	defer s.stop()

	if s.Available() {
		t.Fatal("empty source reports available")
	}
	if _, err := s.ReadByte(); err == nil {
		t.Fatal("expected error reading from an empty source")
	}
}
