package framer

import (
	"fmt"
	"time"
)

// NewAssembler creates an assembler without flow control. Make sure the data
// request line of the P1 connection is pulled high externally.
func NewAssembler(src ByteSource) *Assembler {
	return &Assembler{src: src}
}

// NewAssemblerWithFlowControl creates an assembler that paces the meter over
// the given pin: asserted before reception, released when a telegram is ready.
func NewAssemblerWithFlowControl(src ByteSource, pin FlowControlPin) *Assembler {
	return &Assembler{src: src, pin: pin}
}

// SetAssemblyTimeout limits how long a single telegram may stay in assembly.
// The protocol has no mid-frame keepalive, so without this a dead sender
// leaves a partial frame behind forever. Zero disables the limit.
func (a *Assembler) SetAssemblyTimeout(d time.Duration) {
	a.maxAssembly = d
}

// Poll consumes the currently available bytes and returns. Once a complete
// telegram is recognized no further bytes are consumed until Reset is called.
// A framing failure (oversized or stalled frame) discards the partial frame,
// returns the assembler to idle and is reported as an error.
func (a *Assembler) Poll() error {
	if a.state == stateReady {
		return nil
	}

	if a.pin != nil && !a.pinAsserted {
		if err := a.pin.Assert(); err != nil {
			return fmt.Errorf("framer: flow control assert failed: %w", err)
		}
		a.pinAsserted = true
	}

	if a.state == stateAssembling && a.maxAssembly > 0 &&
		time.Since(a.assemblyStart) > a.maxAssembly {
		a.n = 0
		a.state = stateIdle
		return ErrAssemblyTimeout
	}

	for a.src.Available() {
		b, err := a.src.ReadByte()
		if err != nil {
			return fmt.Errorf("framer: read failed: %w", err)
		}
		if err := a.accept(b); err != nil {
			return err
		}
		if a.state == stateReady {
			return nil
		}
	}
	return nil
}

func (a *Assembler) accept(b byte) error {
	switch a.state {
	case stateIdle:
		if b != startMarker {
			// Mid-telegram garbage, wait for the next start marker
			return nil
		}
		a.n = 0
		a.buf[a.n] = b
		a.n++
		a.state = stateAssembling
		a.assemblyStart = time.Now()

	case stateAssembling:
		if b == startMarker {
			// Resync on a fresh start marker, the previous frame is lost
			a.n = 0
			a.assemblyStart = time.Now()
		}
		if a.n >= BufferSize {
			a.n = 0
			a.state = stateIdle
			return ErrFrameOverflow
		}
		a.buf[a.n] = b
		a.n++
		if a.n > endLookback && a.buf[a.n-1-endLookback] == endMarker {
			a.state = stateReady
			a.releasePin()
		}
	}
	return nil
}

func (a *Assembler) releasePin() {
	if a.pin != nil && a.pinAsserted {
		a.pin.Release()
		a.pinAsserted = false
	}
}

// Ready reports whether a complete telegram is waiting to be parsed.
func (a *Assembler) Ready() bool {
	return a.state == stateReady
}

// Frame returns the assembled bytes so far. The slice aliases the internal
// buffer and is only stable while Ready; callers must not modify it.
func (a *Assembler) Frame() []byte {
	return a.buf[:a.n]
}

// Len returns the current buffer length. 0 after a Reset.
func (a *Assembler) Len() int {
	return a.n
}

// Reset clears the buffer and returns to idle. Called after the telegram has
// been parsed, at which point the next Poll re-asserts flow control.
func (a *Assembler) Reset() {
	a.n = 0
	a.state = stateIdle
}
