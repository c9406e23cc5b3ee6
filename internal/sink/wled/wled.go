// Package wled implements the WLED/UDP output sink: a single UDP
// datagram per draw, using the DRGB realtime protocol.
package wled

import (
	"fmt"
	"math"
	"net"

	"github.com/lumos-project/lumos/internal/colorspace"
)

// drgbHeader is the two-byte DRGB protocol header: protocol id 2, timeout
// (seconds until WLED falls back to its own effects) also 2.
var drgbHeader = [2]byte{0x02, 0x02}

// Sink sends a device's color vector as one DRGB UDP datagram per Draw.
type Sink struct {
	size int
	buf  []byte
	conn *net.UDPConn
	addr *net.UDPAddr
}

// New creates a Sink of the given strip length targeting ip:port. It
// binds a local ephemeral UDP socket once and reuses it for every Draw.
func New(size int, ip string, port int) (*Sink, error) {
	if size <= 0 {
		return nil, fmt.Errorf("wled: size must be positive, got %d", size)
	}
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", ip, port))
	if err != nil {
		return nil, fmt.Errorf("wled: resolve %s:%d: %w", ip, port, err)
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("wled: bind local socket: %w", err)
	}

	buf := make([]byte, 2+3*size)
	buf[0], buf[1] = drgbHeader[0], drgbHeader[1]

	return &Sink{size: size, buf: buf, conn: conn, addr: addr}, nil
}

// Size returns the configured strip length.
func (s *Sink) Size() int { return s.size }

// Draw scales vec to 8-bit RGB triples and sends the whole buffer as one
// UDP datagram.
func (s *Sink) Draw(vec []colorspace.RGB) error {
	if len(vec) != s.size {
		return fmt.Errorf("wled: expected %d colors, got %d", s.size, len(vec))
	}
	for i, c := range vec {
		s.buf[2+3*i] = scale(c.R)
		s.buf[2+3*i+1] = scale(c.G)
		s.buf[2+3*i+2] = scale(c.B)
	}
	_, err := s.conn.WriteToUDP(s.buf, s.addr)
	return err
}

// Close releases the local UDP socket.
func (s *Sink) Close() error {
	return s.conn.Close()
}

func scale(c float32) byte {
	v := int(math.Round(float64(c) * 255))
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}
