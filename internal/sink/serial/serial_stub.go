//go:build !linux && !windows

package serial

import "fmt"

func openPort(name string, baud int) (port, error) {
	return nil, fmt.Errorf("serial: not supported on this platform")
}
