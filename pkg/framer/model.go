package framer

import (
	"errors"
	"time"
)

// BufferSize is the maximum telegram length. The P1 5.0.2 standard chapter
// 6.2 states a telegram can contain up to 1024 characters.
const BufferSize = 1024

const (
	startMarker = '/'
	endMarker   = '!'

	// The end marker is always followed by exactly 4 hex CRC characters and
	// a \r\n terminator, so a frame is complete once the byte six positions
	// behind the newest one is '!'.
	endLookback = 6
)

var (
	ErrFrameOverflow   = errors.New("framer: telegram exceeds buffer capacity")
	ErrAssemblyTimeout = errors.New("framer: telegram assembly timed out")
)

// ByteSource supplies telegram bytes from the serial transport.
// Available must not block; ReadByte is only called when Available is true.
type ByteSource interface {
	Available() bool
	ReadByte() (byte, error)
}

// FlowControlPin drives the data request line of the P1 port.
// Assert drives the line high so the meter starts sending. Release puts the
// line back into a high impedance state, pausing the meter. Driving it low
// is against the P1 standard.
type FlowControlPin interface {
	Assert() error
	Release() error
}

type state uint8

const (
	stateIdle state = iota
	stateAssembling
	stateReady
)

// Assembler collects serial bytes into complete P1 telegrams.
// It is pumped by calling Poll from a caller owned loop and never blocks:
// each Poll consumes only the bytes currently available.
type Assembler struct {
	src ByteSource
	pin FlowControlPin

	buf   [BufferSize]byte
	n     int
	state state

	pinAsserted bool

	// Guard against a stalled sender mid frame. Zero disables the guard.
	maxAssembly   time.Duration
	assemblyStart time.Time
}
