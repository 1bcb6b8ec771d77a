package port_reader

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rneurink/P1MeterParser/pkg/framer"
	"github.com/rneurink/P1MeterParser/pkg/types"
)

type P1Reader struct {
	port     string
	baudrate uint

	serialPort io.ReadWriteCloser
	source     *serialByteSource
	assembler  *framer.Assembler

	// Optional data request line, nil when the line is pulled high externally
	pin             framer.FlowControlPin
	assemblyTimeout time.Duration

	latestData *types.P1Data
	dataMutex  sync.RWMutex

	// Read by the reader goroutine, written by StopReading
	stopSignal atomic.Bool
}

// serialByteSource adapts the blocking serial port to the non-blocking
// framer.ByteSource capability. A pump goroutine drains the port into a
// buffered channel; Available and ReadByte never block.
type serialByteSource struct {
	bytes chan byte
	done  chan struct{}

	mu  sync.Mutex
	err error
}
