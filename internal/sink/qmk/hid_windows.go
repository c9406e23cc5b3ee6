//go:build windows

package qmk

import (
	"fmt"
	"strings"
	"syscall"
	"unsafe"
)

// handle is a Windows HANDLE, generalized from internal/driver/hid_windows.go.
type handle = syscall.Handle

var (
	modSetupApi = syscall.NewLazyDLL("setupapi.dll")

	procSetupDiGetClassDevsW             = modSetupApi.NewProc("SetupDiGetClassDevsW")
	procSetupDiEnumDeviceInterfaces      = modSetupApi.NewProc("SetupDiEnumDeviceInterfaces")
	procSetupDiGetDeviceInterfaceDetailW = modSetupApi.NewProc("SetupDiGetDeviceInterfaceDetailW")
	procSetupDiDestroyDeviceInfoList     = modSetupApi.NewProc("SetupDiDestroyDeviceInfoList")
)

const (
	digcfPresent         = 0x00000002
	digcfDeviceInterface = 0x00000010

	fileShareRead  = 0x00000001
	fileShareWrite = 0x00000002
	openExisting   = 3
	genericWrite   = 0x40000000
)

type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

var hidGUID = guid{0x4d1e55b2, 0xf16f, 0x11cf, [8]byte{0x88, 0xcb, 0x00, 0x11, 0x11, 0x00, 0x00, 0x30}}

type spDeviceInterfaceData struct {
	cbSize             uint32
	InterfaceClassGuid guid
	Flags              uint32
	Reserved           uintptr
}

type spDeviceInterfaceDetailData struct {
	cbSize     uint32
	DevicePath [512]uint16
}

// openDevice opens for writing the first HID interface whose path
// contains "vid_XXXX&pid_XXXX" and that can be opened. The interface's
// usage page/usage are not checked.
func openDevice(vid, pid uint16) (handle, error) {
	hDevInfo, _, _ := procSetupDiGetClassDevsW.Call(
		uintptr(unsafe.Pointer(&hidGUID)),
		0,
		0,
		digcfPresent|digcfDeviceInterface,
	)
	if hDevInfo == 0 || hDevInfo == ^uintptr(0) {
		return syscall.InvalidHandle, fmt.Errorf("SetupDiGetClassDevsW failed")
	}
	defer procSetupDiDestroyDeviceInfoList.Call(hDevInfo)

	var ifaceData spDeviceInterfaceData
	if unsafe.Sizeof(uintptr(0)) == 8 {
		ifaceData.cbSize = 32
	} else {
		ifaceData.cbSize = 28
	}

	target := strings.ToLower(fmt.Sprintf("vid_%04x&pid_%04x", vid, pid))

	for i := 0; ; i++ {
		r, _, _ := procSetupDiEnumDeviceInterfaces.Call(
			hDevInfo, 0, uintptr(unsafe.Pointer(&hidGUID)), uintptr(i), uintptr(unsafe.Pointer(&ifaceData)),
		)
		if r == 0 {
			break
		}

		var detailData spDeviceInterfaceDetailData
		if unsafe.Sizeof(uintptr(0)) == 8 {
			detailData.cbSize = 8
		} else {
			detailData.cbSize = 5
		}
		var reqSize uint32
		procSetupDiGetDeviceInterfaceDetailW.Call(
			hDevInfo, uintptr(unsafe.Pointer(&ifaceData)), uintptr(unsafe.Pointer(&detailData)),
			unsafe.Sizeof(detailData), uintptr(unsafe.Pointer(&reqSize)), 0,
		)

		path := syscall.UTF16ToString(detailData.DevicePath[:])
		if !strings.Contains(strings.ToLower(path), target) {
			continue
		}

		pathPtr, err := syscall.UTF16PtrFromString(path)
		if err != nil {
			continue
		}
		h, err := syscall.CreateFile(pathPtr, genericWrite, fileShareRead|fileShareWrite, nil, openExisting, 0, 0)
		if err != nil {
			continue
		}
		return h, nil
	}

	return syscall.InvalidHandle, fmt.Errorf("no HID interface found for vid=%#04x pid=%#04x", vid, pid)
}

func writeDevice(h handle, buf []byte) (int, error) {
	var written uint32
	err := syscall.WriteFile(h, buf, &written, nil)
	return int(written), err
}

func closeDevice(h handle) error {
	if h == syscall.InvalidHandle {
		return nil
	}
	return syscall.CloseHandle(h)
}
