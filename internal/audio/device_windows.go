//go:build windows

package audio

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"

	comwca "github.com/lumos-project/lumos/internal/wca"
)

const (
	wasapiSampleRate = 44100
	wasapiChannels   = 2

	refTimesPerSec = 10000000 // 100ns units

	// eventWaitTimeout is the bounded wait on the WASAPI ready event; a
	// timeout with no buffer available is how "no playback" is detected.
	eventWaitTimeout = 100 // milliseconds

	waitObject0 = 0x00000000
	waitTimeout = 0x00000102
)

// wasapiCapturer captures a render endpoint in loopback mode via go-wca's
// IAudioClient/IAudioCaptureClient, requesting 32-bit float stereo at
// 44.1kHz to match the rest of the pipeline's fixed buffer math. The loop
// blocks on the client's ready event with a 100ms timeout; a timeout while
// active is reported as the stream stopping. A device-change notification
// from the shared DeviceNotifier ends the capture call so the retry loop
// in Capture reopens against the endpoint that is now current.
type wasapiCapturer struct{}

func newPlatformCapturer() platformCapturer { return &wasapiCapturer{} }

func (c *wasapiCapturer) sampleRate() int { return wasapiSampleRate }
func (c *wasapiCapturer) channels() int   { return wasapiChannels }

// capture opens the first active render endpoint whose friendly name
// contains deviceName (the default render device when deviceName is
// empty) and streams its loopback PCM until ctx is done, the stream
// errors, or the endpoint configuration changes.
func (c *wasapiCapturer) capture(ctx context.Context, deviceName string, raw chan<- rawEvent) error {
	if err := comwca.EnsureCOMInitialized(); err != nil {
		return err
	}

	mmde, err := comwca.CreateDeviceEnumerator()
	if err != nil {
		return err
	}
	defer comwca.SafeReleaseMMDeviceEnumerator(&mmde)

	mmd, err := comwca.FindRenderDevice(mmde, deviceName)
	if err != nil {
		return err
	}
	defer comwca.SafeReleaseMMDevice(&mmd)

	var audioClient *wca.IAudioClient
	if err := mmd.Activate(wca.IID_IAudioClient, wca.CLSCTX_ALL, nil, &audioClient); err != nil {
		return fmt.Errorf("Activate IAudioClient failed: %w", err)
	}
	defer comwca.SafeReleaseAudioClient(&audioClient)

	var wfx *wca.WAVEFORMATEX
	if err := audioClient.GetMixFormat(&wfx); err != nil {
		return fmt.Errorf("GetMixFormat failed: %w", err)
	}
	wfx.WFormatTag = 3 // WAVE_FORMAT_IEEE_FLOAT
	wfx.WBitsPerSample = 32
	wfx.NChannels = wasapiChannels
	wfx.NSamplesPerSec = wasapiSampleRate
	wfx.NBlockAlign = (wfx.WBitsPerSample / 8) * wfx.NChannels
	wfx.NAvgBytesPerSec = wfx.NSamplesPerSec * uint32(wfx.NBlockAlign)
	wfx.CbSize = 0

	bufferDuration := wca.REFERENCE_TIME(refTimesPerSec / 30)
	initErr := audioClient.Initialize(
		wca.AUDCLNT_SHAREMODE_SHARED,
		wca.AUDCLNT_STREAMFLAGS_EVENTCALLBACK|wca.AUDCLNT_STREAMFLAGS_LOOPBACK,
		bufferDuration, 0, wfx, nil,
	)
	ole.CoTaskMemFree(uintptr(unsafe.Pointer(wfx)))
	if initErr != nil {
		return fmt.Errorf("Initialize failed: %w", initErr)
	}

	readyEvent := wca.CreateEventExA(0, 0, 0, wca.EVENT_MODIFY_STATE|wca.SYNCHRONIZE)
	if readyEvent == 0 {
		return fmt.Errorf("CreateEventExA failed")
	}
	defer wca.CloseHandle(readyEvent)

	if err := audioClient.SetEventHandle(readyEvent); err != nil {
		return fmt.Errorf("SetEventHandle failed: %w", err)
	}

	var captureClient *wca.IAudioCaptureClient
	if err := audioClient.GetService(wca.IID_IAudioCaptureClient, &captureClient); err != nil {
		return fmt.Errorf("GetService IAudioCaptureClient failed: %w", err)
	}
	defer comwca.SafeReleaseAudioCaptureClient(&captureClient)

	if err := audioClient.Start(); err != nil {
		return fmt.Errorf("Start failed: %w", err)
	}
	defer audioClient.Stop()

	var deviceChanged <-chan struct{}
	if notifier, err := comwca.GetDeviceNotifier(); err == nil {
		deviceChanged = notifier.Subscribe()
		defer notifier.Unsubscribe(deviceChanged)
	}

	isActive := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deviceChanged:
			return fmt.Errorf("audio endpoint configuration changed")
		default:
		}

		switch wca.WaitForSingleObject(readyEvent, eventWaitTimeout) {
		case waitObject0:
		case waitTimeout:
			if isActive {
				isActive = false
				if !send(ctx, raw, rawEvent{kind: stopped}) {
					return nil
				}
			}
			continue
		default:
			return fmt.Errorf("wait on capture event failed")
		}

		for {
			var pData *byte
			var numFrames uint32
			var flags uint32
			if err := captureClient.GetBuffer(&pData, &numFrames, &flags, nil, nil); err != nil {
				break
			}
			if numFrames == 0 {
				_ = captureClient.ReleaseBuffer(numFrames)
				break
			}

			if !isActive {
				isActive = true
				if !send(ctx, raw, rawEvent{kind: started}) {
					_ = captureClient.ReleaseBuffer(numFrames)
					return nil
				}
			}

			samples := int(numFrames) * wasapiChannels
			data := unsafe.Slice((*float32)(unsafe.Pointer(pData)), samples)
			buf := make([]float32, samples)
			copy(buf, data)
			_ = captureClient.ReleaseBuffer(numFrames)

			if !send(ctx, raw, rawEvent{kind: bufferProduced, buffer: buf}) {
				return nil
			}
		}
	}
}

func send(ctx context.Context, raw chan<- rawEvent, ev rawEvent) bool {
	select {
	case raw <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
