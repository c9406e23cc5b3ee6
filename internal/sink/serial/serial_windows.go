//go:build windows

package serial

import (
	"fmt"
	"syscall"
	"unsafe"
)

const (
	genericRead  = 0x80000000
	genericWrite = 0x40000000
	openExisting = 3
	noSharing    = 0
)

type dcb struct {
	DCBlength uint32
	BaudRate  uint32
	flags     uint32
	wReserved uint16
	XonLim    uint16
	XoffLim   uint16
	ByteSize  byte
	Parity    byte
	StopBits  byte
	XonChar   byte
	XoffChar  byte
	ErrorChar byte
	EofChar   byte
	EvtChar   byte
	wReserved1 uint16
}

type commTimeouts struct {
	ReadIntervalTimeout         uint32
	ReadTotalTimeoutMultiplier  uint32
	ReadTotalTimeoutConstant    uint32
	WriteTotalTimeoutMultiplier uint32
	WriteTotalTimeoutConstant   uint32
}

var (
	modKernel32 = syscall.NewLazyDLL("kernel32.dll")

	procGetCommState   = modKernel32.NewProc("GetCommState")
	procSetCommState   = modKernel32.NewProc("SetCommState")
	procSetCommTimeouts = modKernel32.NewProc("SetCommTimeouts")
)

type handlePort struct {
	h syscall.Handle
}

func openPort(name string, baud int) (port, error) {
	// Ports above COM9 require the \\.\ prefix; applying it unconditionally
	// is harmless for lower-numbered ports too.
	path := `\\.\` + name
	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}

	h, err := syscall.CreateFile(pathPtr, genericRead|genericWrite, noSharing, nil, openExisting, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateFile: %w", err)
	}

	if err := configureDCB(h, baud); err != nil {
		syscall.CloseHandle(h)
		return nil, err
	}
	if err := configureTimeouts(h); err != nil {
		syscall.CloseHandle(h)
		return nil, err
	}

	return &handlePort{h: h}, nil
}

func configureDCB(h syscall.Handle, baud int) error {
	var state dcb
	state.DCBlength = uint32(unsafe.Sizeof(state))
	r, _, err := procGetCommState.Call(uintptr(h), uintptr(unsafe.Pointer(&state)))
	if r == 0 {
		return fmt.Errorf("GetCommState: %w", err)
	}

	state.BaudRate = uint32(baud)
	state.ByteSize = 8
	state.Parity = 0  // NOPARITY
	state.StopBits = 0 // ONESTOPBIT
	state.flags |= 1   // fBinary

	r, _, err = procSetCommState.Call(uintptr(h), uintptr(unsafe.Pointer(&state)))
	if r == 0 {
		return fmt.Errorf("SetCommState: %w", err)
	}
	return nil
}

func configureTimeouts(h syscall.Handle) error {
	timeouts := commTimeouts{
		WriteTotalTimeoutConstant: WriteTimeout,
	}
	r, _, err := procSetCommTimeouts.Call(uintptr(h), uintptr(unsafe.Pointer(&timeouts)))
	if r == 0 {
		return fmt.Errorf("SetCommTimeouts: %w", err)
	}
	return nil
}

func (p *handlePort) Write(buf []byte) (int, error) {
	var written uint32
	err := syscall.WriteFile(p.h, buf, &written, nil)
	return int(written), err
}

func (p *handlePort) Close() error {
	return syscall.CloseHandle(p.h)
}
