package framer

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

// queueSource feeds a fixed byte sequence, one byte per ReadByte.
type queueSource struct {
	data []byte
	pos  int
}

func (q *queueSource) Available() bool {
	return q.pos < len(q.data)
}

func (q *queueSource) ReadByte() (byte, error) {
	b := q.data[q.pos]
	q.pos++
	return b, nil
}

type fakePin struct {
	asserts  int
	releases int
}

func (p *fakePin) Assert() error  { p.asserts++; return nil }
func (p *fakePin) Release() error { p.releases++; return nil }

const miniTelegram = "/ISK5\\2M550T-1012\r\n\r\n1-3:0.2.8(50)\r\n!1A2B\r\n"

func TestPollAssemblesTelegram(t *testing.T) {
	src := &queueSource{data: []byte(miniTelegram)}
	a := NewAssembler(src)

	if err := a.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !a.Ready() {
		t.Fatal("expected telegram to be ready")
	}
	if got := string(a.Frame()); got != miniTelegram {
		t.Fatalf("frame mismatch:\ngot  %q\nwant %q", got, miniTelegram)
	}
	if a.Len() != len(miniTelegram) {
		t.Fatalf("Len() = %d, want %d", a.Len(), len(miniTelegram))
	}
}

func TestPollDiscardsLeadingGarbage(t *testing.T) {
	src := &queueSource{data: append([]byte("xx\r\n!9F3E\r\n"), miniTelegram...)}
	a := NewAssembler(src)

	if err := a.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !a.Ready() {
		t.Fatal("expected telegram to be ready")
	}
	if got := string(a.Frame()); got != miniTelegram {
		t.Fatalf("frame starts at %q, want start marker", got[:1])
	}
}

func TestPollResyncsOnMidStreamStartMarker(t *testing.T) {
	src := &queueSource{data: append([]byte("/partial telegram without end"), miniTelegram...)}
	a := NewAssembler(src)

	if err := a.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !a.Ready() {
		t.Fatal("expected telegram to be ready")
	}
	if got := string(a.Frame()); got != miniTelegram {
		t.Fatalf("frame mismatch after resync:\ngot  %q\nwant %q", got, miniTelegram)
	}
}

func TestPollOverflowResetsToIdle(t *testing.T) {
	oversized := make([]byte, 0, BufferSize+100)
	oversized = append(oversized, startMarker)
	for len(oversized) < BufferSize+50 {
		oversized = append(oversized, 'A')
	}
	src := &queueSource{data: append(oversized, miniTelegram...)}
	a := NewAssembler(src)

	err := a.Poll()
	if !errors.Is(err, ErrFrameOverflow) {
		t.Fatalf("Poll = %v, want ErrFrameOverflow", err)
	}
	if a.Ready() || a.Len() != 0 {
		t.Fatalf("expected idle empty assembler after overflow, len=%d", a.Len())
	}

	// The stream recovers on the next start marker
	if err := a.Poll(); err != nil {
		t.Fatalf("Poll after overflow: %v", err)
	}
	if !a.Ready() || string(a.Frame()) != miniTelegram {
		t.Fatal("expected recovery on the telegram following the overflow")
	}
}

func TestPollNeverOverrunsBuffer(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := NewAssembler(nil)

	for i := 0; i < 50; i++ {
		stream := make([]byte, 4096)
		rng.Read(stream)
		switch i % 3 {
		case 1:
			// Guarantee a start marker mid-stream
			stream[len(stream)/2] = startMarker
		case 2:
			// Strip every start marker
			for j, b := range stream {
				if b == startMarker {
					stream[j] = 'x'
				}
			}
		}

		src := &queueSource{data: stream}
		a.src = src
		for src.Available() {
			err := a.Poll()
			if err != nil && !errors.Is(err, ErrFrameOverflow) {
				t.Fatalf("Poll: %v", err)
			}
			if a.Len() > BufferSize {
				t.Fatalf("buffer overrun: len=%d", a.Len())
			}
			if a.Ready() {
				a.Reset()
			}
		}
		a.Reset()
	}
}

func TestFlowControlPinLifecycle(t *testing.T) {
	pin := &fakePin{}
	src := &queueSource{data: []byte(miniTelegram)}
	a := NewAssemblerWithFlowControl(src, pin)

	if err := a.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if pin.asserts != 1 {
		t.Fatalf("pin asserted %d times, want 1", pin.asserts)
	}
	if pin.releases != 1 {
		t.Fatalf("pin released %d times, want exactly once at ready", pin.releases)
	}

	// Released pin stays released while the frame waits for the parser
	if err := a.Poll(); err != nil {
		t.Fatalf("Poll while ready: %v", err)
	}
	if pin.asserts != 1 {
		t.Fatal("pin must not be re-asserted while a frame is pending")
	}

	// After consumption the next poll requests the following telegram
	a.Reset()
	src.data = append(src.data, miniTelegram...)
	if err := a.Poll(); err != nil {
		t.Fatalf("Poll after reset: %v", err)
	}
	if pin.asserts != 2 {
		t.Fatalf("pin asserted %d times after reset, want 2", pin.asserts)
	}
}

func TestAssemblyTimeoutDiscardsStalledFrame(t *testing.T) {
	src := &queueSource{data: []byte("/stalled")}
	a := NewAssembler(src)
	a.SetAssemblyTimeout(time.Millisecond)

	if err := a.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	err := a.Poll()
	if !errors.Is(err, ErrAssemblyTimeout) {
		t.Fatalf("Poll = %v, want ErrAssemblyTimeout", err)
	}
	if a.Ready() || a.Len() != 0 {
		t.Fatal("expected idle empty assembler after timeout")
	}
}

func TestReadyIsTerminalUntilReset(t *testing.T) {
	src := &queueSource{data: append([]byte(miniTelegram), "/next"...)}
	a := NewAssembler(src)

	if err := a.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !a.Ready() {
		t.Fatal("expected ready")
	}
	before := src.pos
	if err := a.Poll(); err != nil {
		t.Fatalf("Poll while ready: %v", err)
	}
	if src.pos != before {
		t.Fatal("Poll consumed bytes while a frame was pending")
	}

	a.Reset()
	if a.Ready() || a.Len() != 0 {
		t.Fatal("Reset must clear the frame")
	}
	if err := a.Poll(); err != nil {
		t.Fatalf("Poll after reset: %v", err)
	}
	if got := string(a.Frame()); got != "/next" {
		t.Fatalf("frame after reset = %q, want %q", got, "/next")
	}
}
