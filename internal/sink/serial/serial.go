// Package serial implements the Serial/Adalight output sink: a
// fixed-baud serial port speaking the Adalight header protocol, with
// port-open/configure split into per-platform files (termios on Linux,
// DCB on Windows).
package serial

import (
	"fmt"
	"math"

	"github.com/lumos-project/lumos/internal/colorspace"
)

// MaxStripLength is the largest N the Adalight wire format can carry: the
// length field is a single byte holding N-1.
const MaxStripLength = 256

// BaudRate is the fixed Adalight baud rate.
const BaudRate = 115200

// WriteTimeout is the fixed per-write timeout.
const WriteTimeout = 10 // milliseconds

// port is the platform-specific open serial handle, implemented in
// serial_linux.go / serial_windows.go / serial_stub.go.
type port interface {
	Write(buf []byte) (int, error)
	Close() error
}

// Sink drives one Adalight serial device.
type Sink struct {
	size int
	buf  []byte
	port port
}

// New opens portName at 115200 baud with a 10ms write timeout and prepares
// a Sink of the given strip length. size must be in [1, MaxStripLength].
func New(size int, portName string) (*Sink, error) {
	if size <= 0 || size > MaxStripLength {
		return nil, fmt.Errorf("serial: size must be in [1,%d], got %d", MaxStripLength, size)
	}

	p, err := openPort(portName, BaudRate)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", portName, err)
	}

	buf := make([]byte, 6+3*size)
	buf[0] = 'A'
	buf[1] = 'd'
	buf[2] = 'a'
	buf[3] = 0
	buf[4] = byte(size - 1)
	buf[5] = byte(size-1) ^ 0x55

	return &Sink{size: size, buf: buf, port: p}, nil
}

// Size returns the configured strip length.
func (s *Sink) Size() int { return s.size }

// Draw writes the full Adalight frame; a short write is an error.
func (s *Sink) Draw(vec []colorspace.RGB) error {
	if len(vec) != s.size {
		return fmt.Errorf("serial: expected %d colors, got %d", s.size, len(vec))
	}
	for i, c := range vec {
		s.buf[6+3*i] = scale8(c.R)
		s.buf[6+3*i+1] = scale8(c.G)
		s.buf[6+3*i+2] = scale8(c.B)
	}
	n, err := s.port.Write(s.buf)
	if err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	if n != len(s.buf) {
		return fmt.Errorf("serial: short write: expected %d bytes, wrote %d", len(s.buf), n)
	}
	return nil
}

// Close releases the serial port.
func (s *Sink) Close() error {
	return s.port.Close()
}

func scale8(c float32) byte {
	v := int(math.Round(float64(c) * 255))
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}
