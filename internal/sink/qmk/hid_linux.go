//go:build linux

package qmk

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// handle is a Linux hidraw file descriptor, generalized from
// internal/driver/hid_linux.go's DeviceHandle.
type handle = *os.File

// openDevice enumerates /sys/class/hidraw for a device matching vid/pid.
// Linux hidraw does not expose usage page/usage directly through sysfs the
// way Windows' SetupDi* path strings do (it requires parsing the raw HID
// report descriptor via HIDIOCGRDESC), so this matches on VID/PID alone
// and opens the first candidate.
func openDevice(vid, pid uint16) (handle, error) {
	entries, err := os.ReadDir("/sys/class/hidraw")
	if err != nil {
		return nil, fmt.Errorf("read /sys/class/hidraw: %w (is hidraw loaded?)", err)
	}

	target := fmt.Sprintf("%04X:%04X", vid, pid)
	for _, entry := range entries {
		ueventPath := filepath.Join("/sys/class/hidraw", entry.Name(), "device", "uevent")
		data, err := os.ReadFile(ueventPath)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			if !strings.HasPrefix(line, "HID_ID=") {
				continue
			}
			parts := strings.Split(strings.TrimPrefix(line, "HID_ID="), ":")
			if len(parts) < 3 {
				continue
			}
			devVID, err1 := strconv.ParseUint(parts[1], 16, 16)
			devPID, err2 := strconv.ParseUint(parts[2], 16, 16)
			if err1 != nil || err2 != nil {
				continue
			}
			if fmt.Sprintf("%04X:%04X", uint16(devVID), uint16(devPID)) == target {
				path := filepath.Join("/dev", entry.Name())
				f, err := os.OpenFile(path, os.O_WRONLY, 0)
				if err != nil {
					return nil, fmt.Errorf("open %s: %w", path, err)
				}
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("no hidraw device found for vid=%#04x pid=%#04x", vid, pid)
}

func writeDevice(h handle, buf []byte) (int, error) {
	return h.Write(buf)
}

func closeDevice(h handle) error {
	if h == nil {
		return nil
	}
	return h.Close()
}
