package port_reader

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jacobsa/go-serial/serial"

	"github.com/rneurink/P1MeterParser/pkg/framer"
	"github.com/rneurink/P1MeterParser/pkg/p1parser"
	"github.com/rneurink/P1MeterParser/pkg/types"
)

// Sleep between polls when no telegram completed. The meter sends one
// telegram per second, so this keeps latency low without spinning.
const pollInterval = 10 * time.Millisecond

// Initialize a new P1Reader client.
func NewP1Reader(port string, baudrate uint) *P1Reader {
	return &P1Reader{
		port:     port,
		baudrate: baudrate,
	}
}

// Initialize a new P1Reader that paces the meter over the data request line.
func NewP1ReaderWithFlowControl(port string, baudrate uint, pin framer.FlowControlPin) *P1Reader {
	reader := NewP1Reader(port, baudrate)
	reader.pin = pin
	return reader
}

// SetAssemblyTimeout forwards the stalled-frame guard to the assembler.
// Must be called before StartReading.
func (p *P1Reader) SetAssemblyTimeout(d time.Duration) {
	p.assemblyTimeout = d
}

// Start listening for telegrams. The meter sends one every second.
// Runs in goroutine. handleData() also runs in goroutine.
func (p *P1Reader) StartReading(
	handleData func(data *types.P1Data),
	handleError func(error),
) {
	p.stopSignal.Store(false)

	go func() {
		// Tolerance before we report error.
		consecutiveErrors := 0
		maxErrors := 10
		var lastError error

		// Initialize the connection
		if err := p.connect(); err != nil {
			handleError(err)
			return
		}

		for consecutiveErrors < maxErrors {
			// Check for Stop command
			if p.stopSignal.Load() {
				fmt.Println("Stop signal received, disconnecting")
				p.disconnect()
				return
			}

			// A dead port surfaces here, try to reopen it
			if err := p.source.Err(); err != nil {
				consecutiveErrors++
				lastError = err
				log.Printf("Serial port error (%d/%d): %v", consecutiveErrors, maxErrors, err)
				p.disconnect()
				time.Sleep(time.Second)
				if err := p.connect(); err != nil {
					log.Printf("Reconnect failed: %v", err)
				}
				continue
			}

			// Pump the assembler with whatever bytes arrived. Framing
			// errors (oversized or stalled frame) already reset the
			// assembler, the stream recovers on the next start marker.
			if err := p.assembler.Poll(); err != nil {
				log.Printf("Framing error, discarding partial telegram: %v", err)
			}

			if !p.assembler.Ready() {
				time.Sleep(pollInterval)
				continue
			}

			data := p1parser.Parse(p.assembler.Frame())
			p.assembler.Reset()

			p.dataMutex.Lock()
			p.latestData = data
			p.dataMutex.Unlock()

			go handleData(data)
			consecutiveErrors = 0
		}

		log.Printf("Too many consecutive errors (%d), stopping reader: %v", maxErrors, lastError)
		handleError(lastError)
		p.disconnect()
	}()
}

func (p *P1Reader) StopReading() {
	p.stopSignal.Store(true)
	p.disconnect()
}

func (p *P1Reader) GetLatestData() *types.P1Data {
	p.dataMutex.RLock()
	defer p.dataMutex.RUnlock()
	return p.latestData
}

// Open the connection to the P1 port and rebuild the decode pipeline.
func (p *P1Reader) connect() error {
	options := serial.OpenOptions{
		PortName:        p.port,
		BaudRate:        p.baudrate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}

	port, err := serial.Open(options)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	p.serialPort = port
	p.source = newSerialByteSource(port)
	if p.pin != nil {
		p.assembler = framer.NewAssemblerWithFlowControl(p.source, p.pin)
	} else {
		p.assembler = framer.NewAssembler(p.source)
	}
	if p.assemblyTimeout > 0 {
		p.assembler.SetAssemblyTimeout(p.assemblyTimeout)
	}

	log.Printf("Connected to P1 port on %s", p.port)
	return nil
}

func (p *P1Reader) disconnect() {
	if p.source != nil {
		p.source.stop()
	}
	if p.serialPort != nil {
		p.serialPort.Close()
		log.Println("Disconnected from P1 port")
	}
}

/***************** Byte source *****************/

func newSerialByteSource(r io.Reader) *serialByteSource {
	s := &serialByteSource{
		bytes: make(chan byte, 4*framer.BufferSize),
		done:  make(chan struct{}),
	}
	go s.pump(r)
	return s
}

func (s *serialByteSource) pump(r io.Reader) {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			select {
			case s.bytes <- b:
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
		select {
		case <-s.done:
			return
		default:
		}
	}
}

func (s *serialByteSource) Available() bool {
	return len(s.bytes) > 0
}

func (s *serialByteSource) ReadByte() (byte, error) {
	select {
	case b := <-s.bytes:
		return b, nil
	default:
		return 0, fmt.Errorf("no byte available")
	}
}

// Err reports a failed pump. Buffered bytes remain readable after it.
func (s *serialByteSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil && len(s.bytes) == 0 {
		return s.err
	}
	return nil
}

func (s *serialByteSource) stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
