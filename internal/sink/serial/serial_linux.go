//go:build linux

package serial

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// filePort wraps a termios-configured tty file descriptor.
type filePort struct {
	f *os.File
}

func openPort(name string, baud int) (port, error) {
	f, err := os.OpenFile(name, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}

	if err := configureTermios(f, baud); err != nil {
		f.Close()
		return nil, err
	}

	// Clear O_NONBLOCK now that the port is configured, so Write calls
	// block rather than returning EAGAIN immediately. VTIME (set in
	// configureTermios) bounds reads only, not writes.
	fd := int(f.Fd())
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err == nil {
		unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags&^unix.O_NONBLOCK)
	}

	return &filePort{f: f}, nil
}

func configureTermios(f *os.File, baud int) error {
	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	rate, ok := baudConstant(baud)
	if !ok {
		return fmt.Errorf("unsupported baud rate %d", baud)
	}

	unix.CfmakeRaw(t)
	t.Cflag |= unix.CREAD | unix.CLOCAL
	t.Ispeed = rate
	t.Ospeed = rate
	// VMIN=0, VTIME in deciseconds approximates the 10ms write timeout for
	// any reads this port might also perform; writes on a raw tty are not
	// separately time-bounded by termios, so timeout enforcement is a
	// best-effort OS-level setting.
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 1

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

func baudConstant(baud int) (uint32, bool) {
	switch baud {
	case 115200:
		return unix.B115200, true
	case 57600:
		return unix.B57600, true
	case 9600:
		return unix.B9600, true
	default:
		return 0, false
	}
}

func (p *filePort) Write(buf []byte) (int, error) {
	p.f.SetWriteDeadline(time.Now().Add(WriteTimeout * time.Millisecond))
	return p.f.Write(buf)
}

func (p *filePort) Close() error {
	return p.f.Close()
}
