//go:build windows

package wca

import (
	"log"
	"sync"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
)

// IIDIMMNotificationClient is the interface ID for IMMNotificationClient
var IIDIMMNotificationClient = ole.NewGUID("{7991EEC9-7E89-4D85-8390-6C703CEC60C0}")

// EDataFlow values for audio endpoint direction
const (
	ERender  = 0 // Audio rendering (playback)
	ECapture = 1 // Audio capture (recording)
	EAll     = 2 // Both render and capture
)

// ERole values for audio endpoint role
const (
	EConsole       = 0 // Games, system sounds, voice commands
	EMultimedia    = 1 // Music, movies, narration
	ECommunication = 2 // Voice communications
)

// DeviceNotifier surfaces render-endpoint changes (default device switched,
// device removed or disabled) through subscriber channels, so a loopback
// capture loop bound to a now-stale endpoint can tear itself down and
// reopen against the current one instead of polling dead buffers forever.
// Implemented over IMMNotificationClient.
type DeviceNotifier struct {
	mu          sync.RWMutex
	mmde        *wca.IMMDeviceEnumerator
	client      *notificationClient
	subscribers []chan struct{}
	started     bool
}

// One notifier per process; every capture loop shares it.
var (
	globalDeviceNotifier *DeviceNotifier
	deviceNotifierMu     sync.Mutex
)

// notificationClient implements the IMMNotificationClient COM interface.
type notificationClient struct {
	lpVtbl   *notificationClientVtbl
	refCount uint32
	notifier *DeviceNotifier
}

type notificationClientVtbl struct {
	QueryInterface         uintptr
	AddRef                 uintptr
	Release                uintptr
	OnDeviceStateChanged   uintptr
	OnDeviceAdded          uintptr
	OnDeviceRemoved        uintptr
	OnDefaultDeviceChanged uintptr
	OnPropertyValueChanged uintptr
}

// GetDeviceNotifier returns the process-wide notifier, creating and
// registering it on first call.
func GetDeviceNotifier() (*DeviceNotifier, error) {
	deviceNotifierMu.Lock()
	defer deviceNotifierMu.Unlock()

	if globalDeviceNotifier != nil {
		return globalDeviceNotifier, nil
	}

	dn := &DeviceNotifier{
		subscribers: make([]chan struct{}, 0),
	}

	if err := dn.start(); err != nil {
		return nil, err
	}

	globalDeviceNotifier = dn
	return globalDeviceNotifier, nil
}

func (dn *DeviceNotifier) start() error {
	dn.mu.Lock()
	defer dn.mu.Unlock()

	if dn.started {
		return nil
	}

	if err := EnsureCOMInitialized(); err != nil {
		return err
	}

	mmde, err := CreateDeviceEnumerator()
	if err != nil {
		return err
	}
	dn.mmde = mmde
	dn.client = newNotificationClient(dn)

	// RegisterEndpointNotificationCallback is at vtable offset 6.
	hr, _, _ := syscall.SyscallN(
		dn.mmde.VTable().RegisterEndpointNotificationCallback,
		uintptr(unsafe.Pointer(dn.mmde)),
		uintptr(unsafe.Pointer(dn.client)),
	)
	if hr != 0 {
		// Capture still works without proactive notifications; the loop's
		// own silence detection eventually notices a dead endpoint.
		log.Printf("wca: RegisterEndpointNotificationCallback failed: 0x%08X", hr)
	}

	dn.started = true
	return nil
}

// Subscribe returns a buffered channel that receives one signal per device
// change; a full channel means the subscriber has an unread notification
// pending, which is equivalent.
func (dn *DeviceNotifier) Subscribe() <-chan struct{} {
	dn.mu.Lock()
	defer dn.mu.Unlock()

	ch := make(chan struct{}, 1)
	dn.subscribers = append(dn.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (dn *DeviceNotifier) Unsubscribe(ch <-chan struct{}) {
	dn.mu.Lock()
	defer dn.mu.Unlock()

	for i, sub := range dn.subscribers {
		if sub == ch {
			dn.subscribers = append(dn.subscribers[:i], dn.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (dn *DeviceNotifier) notifySubscribers() {
	dn.mu.RLock()
	defer dn.mu.RUnlock()

	for _, ch := range dn.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func newNotificationClient(notifier *DeviceNotifier) *notificationClient {
	client := &notificationClient{
		refCount: 1,
		notifier: notifier,
	}

	client.lpVtbl = &notificationClientVtbl{
		QueryInterface:         syscall.NewCallback(queryInterface),
		AddRef:                 syscall.NewCallback(addRef),
		Release:                syscall.NewCallback(release),
		OnDeviceStateChanged:   syscall.NewCallback(onDeviceStateChanged),
		OnDeviceAdded:          syscall.NewCallback(onDeviceAdded),
		OnDeviceRemoved:        syscall.NewCallback(onDeviceRemoved),
		OnDefaultDeviceChanged: syscall.NewCallback(onDefaultDeviceChanged),
		OnPropertyValueChanged: syscall.NewCallback(onPropertyValueChanged),
	}

	return client
}

func queryInterface(this *notificationClient, riid *ole.GUID, ppvObject *unsafe.Pointer) uintptr {
	if ole.IsEqualGUID(riid, ole.IID_IUnknown) || ole.IsEqualGUID(riid, IIDIMMNotificationClient) {
		*ppvObject = unsafe.Pointer(this)
		this.refCount++
		return 0 // S_OK
	}
	*ppvObject = nil
	return 0x80004002 // E_NOINTERFACE
}

func addRef(this *notificationClient) uintptr {
	this.refCount++
	return uintptr(this.refCount)
}

func release(this *notificationClient) uintptr {
	this.refCount--
	return uintptr(this.refCount)
}

func onDeviceStateChanged(this *notificationClient, _ *uint16, dwNewState uint32) uintptr {
	if this.notifier != nil {
		log.Printf("wca: audio device state changed (state: %d)", dwNewState)
		this.notifier.notifySubscribers()
	}
	return 0 // S_OK
}

func onDeviceAdded(_ *notificationClient, _ *uint16) uintptr {
	// A newly added device never invalidates an open capture stream.
	return 0 // S_OK
}

func onDeviceRemoved(this *notificationClient, _ *uint16) uintptr {
	if this.notifier != nil {
		log.Printf("wca: audio device removed")
		this.notifier.notifySubscribers()
	}
	return 0 // S_OK
}

func onDefaultDeviceChanged(this *notificationClient, flow uint32, role uint32, _ *uint16) uintptr {
	if this.notifier != nil {
		// Only render (playback) endpoints feed loopback capture.
		if flow == ERender || flow == EAll {
			log.Printf("wca: default audio device changed (flow: %d, role: %d)", flow, role)
			this.notifier.notifySubscribers()
		}
	}
	return 0 // S_OK
}

func onPropertyValueChanged(_ *notificationClient, _ *uint16, _ uintptr) uintptr {
	return 0 // S_OK
}

// Stop unregisters the notification client and releases its COM resources.
func (dn *DeviceNotifier) Stop() {
	dn.mu.Lock()
	defer dn.mu.Unlock()

	if !dn.started {
		return
	}

	if dn.mmde != nil && dn.client != nil {
		hr, _, _ := syscall.SyscallN(
			dn.mmde.VTable().UnregisterEndpointNotificationCallback,
			uintptr(unsafe.Pointer(dn.mmde)),
			uintptr(unsafe.Pointer(dn.client)),
		)
		if hr != 0 {
			log.Printf("wca: UnregisterEndpointNotificationCallback failed: 0x%08X", hr)
		}
	}

	for _, ch := range dn.subscribers {
		close(ch)
	}
	dn.subscribers = nil

	if dn.mmde != nil {
		dn.mmde.Release()
		dn.mmde = nil
	}

	dn.started = false
}
