//go:build windows

package wca

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
)

// comInitMutex protects COM initialization to prevent race conditions.
var comInitMutex sync.Mutex

// EnsureCOMInitialized ensures COM is initialized on the calling thread.
// Safe to call multiple times from the same thread.
//
// COM is thread-specific: the capture loop must call this on its own
// dedicated OS thread before touching any Core Audio interface, and the
// thread stays locked to the goroutine for the lifetime of that loop.
func EnsureCOMInitialized() error {
	comInitMutex.Lock()
	defer comInitMutex.Unlock()

	runtime.LockOSThread()

	err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	if err != nil {
		// S_FALSE (0x00000001, sometimes surfaced as 0x80000001) means COM
		// is already initialized on this thread, which is a success code.
		var oleErr *ole.OleError
		if errors.As(err, &oleErr) {
			if oleErr.Code() == 0x00000001 || oleErr.Code() == 0x80000001 {
				return nil
			}
		}
		runtime.UnlockOSThread()
		return fmt.Errorf("CoInitializeEx failed: %w", err)
	}
	return nil
}

// CreateDeviceEnumerator creates an IMMDeviceEnumerator instance.
func CreateDeviceEnumerator() (*wca.IMMDeviceEnumerator, error) {
	var mmde *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &mmde); err != nil {
		return nil, fmt.Errorf("failed to create device enumerator: %w", err)
	}
	return mmde, nil
}

// GetDefaultRenderDevice retrieves the default audio render (output)
// endpoint, the device loopback capture falls back to when no name is
// configured.
func GetDefaultRenderDevice(mmde *wca.IMMDeviceEnumerator) (*wca.IMMDevice, error) {
	var mmd *wca.IMMDevice
	if err := mmde.GetDefaultAudioEndpoint(wca.ERender, wca.EConsole, &mmd); err != nil {
		return nil, fmt.Errorf("failed to get default audio device: %w", err)
	}
	return mmd, nil
}

// FindRenderDevice finds the first active render endpoint whose friendly
// name contains nameSubstring (case-insensitive). An empty substring
// selects the default render device. The caller owns the returned device
// and must release it with SafeReleaseMMDevice.
func FindRenderDevice(mmde *wca.IMMDeviceEnumerator, nameSubstring string) (*wca.IMMDevice, error) {
	if nameSubstring == "" {
		return GetDefaultRenderDevice(mmde)
	}

	var mmdc *wca.IMMDeviceCollection
	if err := mmde.EnumAudioEndpoints(wca.ERender, wca.DEVICE_STATE_ACTIVE, &mmdc); err != nil {
		return nil, fmt.Errorf("failed to enumerate render endpoints: %w", err)
	}
	defer SafeReleaseMMDeviceCollection(&mmdc)

	var count uint32
	if err := mmdc.GetCount(&count); err != nil {
		return nil, fmt.Errorf("failed to count render endpoints: %w", err)
	}

	want := strings.ToLower(nameSubstring)
	for i := uint32(0); i < count; i++ {
		var mmd *wca.IMMDevice
		if err := mmdc.Item(i, &mmd); err != nil {
			continue
		}
		name, err := deviceFriendlyName(mmd)
		if err != nil {
			SafeReleaseMMDevice(&mmd)
			continue
		}
		if strings.Contains(strings.ToLower(name), want) {
			return mmd, nil
		}
		SafeReleaseMMDevice(&mmd)
	}
	return nil, fmt.Errorf("no active render endpoint matches %q", nameSubstring)
}

// deviceFriendlyName reads PKEY_Device_FriendlyName from the device's
// property store.
func deviceFriendlyName(mmd *wca.IMMDevice) (string, error) {
	var ps *wca.IPropertyStore
	if err := mmd.OpenPropertyStore(wca.STGM_READ, &ps); err != nil {
		return "", fmt.Errorf("failed to open property store: %w", err)
	}
	defer SafeReleasePropertyStore(&ps)

	var pv wca.PROPVARIANT
	if err := ps.GetValue(&wca.PKEY_Device_FriendlyName, &pv); err != nil {
		return "", fmt.Errorf("failed to read friendly name: %w", err)
	}
	return pv.String(), nil
}

// SafeReleaseMMDevice safely releases an IMMDevice interface.
func SafeReleaseMMDevice(ptr **wca.IMMDevice) {
	if ptr != nil && *ptr != nil {
		(*ptr).Release()
		*ptr = nil
	}
}

// SafeReleaseMMDeviceEnumerator safely releases an IMMDeviceEnumerator interface.
func SafeReleaseMMDeviceEnumerator(ptr **wca.IMMDeviceEnumerator) {
	if ptr != nil && *ptr != nil {
		(*ptr).Release()
		*ptr = nil
	}
}

// SafeReleaseMMDeviceCollection safely releases an IMMDeviceCollection interface.
func SafeReleaseMMDeviceCollection(ptr **wca.IMMDeviceCollection) {
	if ptr != nil && *ptr != nil {
		(*ptr).Release()
		*ptr = nil
	}
}

// SafeReleasePropertyStore safely releases an IPropertyStore interface.
func SafeReleasePropertyStore(ptr **wca.IPropertyStore) {
	if ptr != nil && *ptr != nil {
		(*ptr).Release()
		*ptr = nil
	}
}

// SafeReleaseAudioClient safely releases an IAudioClient interface.
func SafeReleaseAudioClient(ptr **wca.IAudioClient) {
	if ptr != nil && *ptr != nil {
		(*ptr).Release()
		*ptr = nil
	}
}

// SafeReleaseAudioCaptureClient safely releases an IAudioCaptureClient interface.
func SafeReleaseAudioCaptureClient(ptr **wca.IAudioCaptureClient) {
	if ptr != nil && *ptr != nil {
		(*ptr).Release()
		*ptr = nil
	}
}
