// Package qmk implements the QMK/HID output sink: a raw HID output
// report sent to a keyboard's HID interface, found by VID and PID. The
// usage page/usage of the interface are not checked.
package qmk

import (
	"fmt"
	"sync"

	"github.com/lumos-project/lumos/internal/colorspace"
)

// QMK's raw-HID usage page/usage. Device matching does not use them:
// openDevice matches on VID/PID alone.
const (
	UsagePage = 0xFF60
	Usage     = 0x61
)

// apiMu serializes device enumeration and open across every QMK sink;
// draws themselves are not serialized through it.
var apiMu sync.Mutex

// handle is the platform-specific open device handle type, defined in
// hid_linux.go / hid_windows.go / hid_stub.go.

// Sink drives one QMK raw-HID device.
type Sink struct {
	size   int
	buf    []byte
	handle handle
}

// New opens the first HID interface matching (vid, pid) that can be
// opened, and prepares a Sink of the given strip length. On a keyboard
// with several HID interfaces this is not necessarily the raw-HID one.
func New(size int, vid, pid uint16) (*Sink, error) {
	if size <= 0 {
		return nil, fmt.Errorf("qmk: size must be positive, got %d", size)
	}

	apiMu.Lock()
	h, err := openDevice(vid, pid)
	apiMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("qmk: open vid=%#04x pid=%#04x: %w", vid, pid, err)
	}

	buf := make([]byte, 3+3*size)
	buf[0] = 0x00 // HID report number
	buf[1] = 0xED
	buf[2] = byte(size)

	return &Sink{size: size, buf: buf, handle: h}, nil
}

// Size returns the configured strip length.
func (s *Sink) Size() int { return s.size }

// Draw writes the full output report; a short write is an error.
func (s *Sink) Draw(vec []colorspace.RGB) error {
	if len(vec) != s.size {
		return fmt.Errorf("qmk: expected %d colors, got %d", s.size, len(vec))
	}
	fillBuffer(s.buf, vec)
	n, err := writeDevice(s.handle, s.buf)
	if err != nil {
		return fmt.Errorf("qmk: write: %w", err)
	}
	if n < len(s.buf) {
		return fmt.Errorf("qmk: short write: expected %d bytes, wrote %d", len(s.buf), n)
	}
	return nil
}

// Close releases the HID handle.
func (s *Sink) Close() error {
	return closeDevice(s.handle)
}

// fillBuffer writes vec's scaled RGB triples into buf starting at offset 3
// (after the report-number/command/count header), in place.
func fillBuffer(buf []byte, vec []colorspace.RGB) {
	for i, c := range vec {
		buf[3+3*i] = scale8(c.R)
		buf[3+3*i+1] = scale8(c.G)
		buf[3+3*i+2] = scale8(c.B)
	}
}

func scale8(c float32) byte {
	v := int(c*255 + 0.5)
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}
