package servobus

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

var (
	// ErrPortUnavailable means the serial port could not be opened.  Fatal at
	// start up.
	ErrPortUnavailable = errors.New("servo bus: serial port unavailable")
	// ErrWriteFailure means a packet could not be written or flushed.  It is
	// not retried here.
	ErrWriteFailure = errors.New("servo bus: write failed")
	// ErrTimeout means no valid response arrived before the deadline.
	ErrTimeout = errors.New("servo bus: timed out waiting for response")
)

const (
	DefaultBaudRate    = 1000000
	DefaultReadTimeout = 100 * time.Millisecond

	pollInterval = 5 * time.Millisecond
)

// Port is the part of a serial port the bus needs.  go.bug.st/serial ports
// satisfy it; tests use an in-memory fake.
type Port interface {
	io.ReadWriteCloser
	Drain() error
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
}

type Config struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

// Bus talks the half-duplex instruction/status protocol to every servo on
// one serial line.  It owns the port.
type Bus struct {
	port        Port
	readTimeout time.Duration
}

// Open opens the serial port at 8N1.
func Open(cfg Config) (*Bus, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrPortUnavailable, "%s at %d baud: %v", cfg.Port, cfg.BaudRate, err)
	}
	fmt.Printf("Servo bus: opened %s at %d baud\n", cfg.Port, cfg.BaudRate)
	b := New(port)
	if cfg.ReadTimeout > 0 {
		b.readTimeout = cfg.ReadTimeout
	}
	return b, nil
}

// New wraps an already open port.
func New(port Port) *Bus {
	return &Bus{
		port:        port,
		readTimeout: DefaultReadTimeout,
	}
}

func (b *Bus) Close() error {
	return b.port.Close()
}

// ReadTimeout is the timeout used by the register helpers.
func (b *Bus) ReadTimeout() time.Duration {
	return b.readTimeout
}

// WriteRegister writes data starting at address.  Servos don't acknowledge
// writes, so this returns as soon as the packet has been drained to the line.
func (b *Bus) WriteRegister(id ServoID, address byte, data []byte) error {
	params := make([]byte, 0, len(data)+1)
	params = append(params, address)
	params = append(params, data...)
	return b.send(id, InstrWrite, params)
}

// ReadRegister asks servo id for length bytes starting at address and waits
// up to timeout for a valid reply.  Anything that isn't a well formed, error
// free response from id is skipped.
func (b *Bus) ReadRegister(id ServoID, address, length byte, timeout time.Duration) ([]byte, error) {
	if err := b.port.ResetInputBuffer(); err != nil {
		fmt.Println("Servo bus: failed to reset input buffer:", err)
	}
	if err := b.send(id, InstrRead, []byte{address, length}); err != nil {
		return nil, err
	}
	params, err := b.await(id, int(length), timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "read servo %d register %#02x", id, address)
	}
	return params, nil
}

// Ping checks that servo id answers at all.
func (b *Bus) Ping(id ServoID, timeout time.Duration) error {
	if err := b.port.ResetInputBuffer(); err != nil {
		fmt.Println("Servo bus: failed to reset input buffer:", err)
	}
	if err := b.send(id, InstrPing, nil); err != nil {
		return err
	}
	if _, err := b.await(id, 0, timeout); err != nil {
		return errors.Wrapf(err, "ping servo %d", id)
	}
	return nil
}

func (b *Bus) send(id ServoID, instruction byte, params []byte) error {
	packet := EncodePacket(id, instruction, params)
	if _, err := b.port.Write(packet); err != nil {
		return errors.Wrapf(ErrWriteFailure, "servo %d: %v", id, err)
	}
	if err := b.port.Drain(); err != nil {
		return errors.Wrapf(ErrWriteFailure, "servo %d: flush: %v", id, err)
	}
	return nil
}

// await polls the port until a response of dataLen parameter bytes from id
// shows up.
func (b *Bus) await(id ServoID, dataLen int, timeout time.Duration) ([]byte, error) {
	if err := b.port.SetReadTimeout(pollInterval); err != nil {
		fmt.Println("Servo bus: failed to set read timeout:", err)
	}
	want := frameOverhead + dataLen
	deadline := time.Now().Add(timeout)
	var pending []byte
	chunk := make([]byte, 64)
	for {
		n, err := b.port.Read(chunk)
		if n > 0 {
			pending = append(pending, chunk[:n]...)
			var params []byte
			var ok bool
			params, pending, ok = scanFrames(pending, id, want)
			if ok {
				return params, nil
			}
		}
		if err != nil && err != io.EOF {
			fmt.Println("Servo bus: read error:", err)
		}
		if !time.Now().Before(deadline) {
			return nil, ErrTimeout
		}
		if n == 0 {
			time.Sleep(pollInterval)
		}
	}
}

var syncPair = []byte{sync0, sync1}

// scanFrames looks for a valid frame of exactly want bytes from id.  It
// returns the frame's parameters if one was found, and otherwise the bytes
// that could still be the start of one.
func scanFrames(buf []byte, id ServoID, want int) ([]byte, []byte, bool) {
	for {
		start := bytes.Index(buf, syncPair)
		if start < 0 {
			// Keep a trailing sync byte; its partner may be in the next read.
			if len(buf) > 0 && buf[len(buf)-1] == sync0 {
				return nil, buf[len(buf)-1:], false
			}
			return nil, buf[:0], false
		}
		buf = buf[start:]
		if len(buf) < want {
			return nil, buf, false
		}
		resp, err := DecodeResponse(buf[:want])
		if err == nil && resp.ID == id && resp.Error == 0 {
			return resp.Params, buf[want:], true
		}
		buf = buf[1:]
	}
}
