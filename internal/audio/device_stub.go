//go:build !windows

package audio

import (
	"context"
	"fmt"
)

// stubCapturer reports that audio capture is unavailable on this platform,
// matching internal/wca/wca_stub.go's build-tag stub pattern (WASAPI is
// Windows-only; no cross-platform loopback API is wired in).
type stubCapturer struct{}

func newPlatformCapturer() platformCapturer { return &stubCapturer{} }

func (c *stubCapturer) sampleRate() int { return wasapiSampleRate }
func (c *stubCapturer) channels() int   { return wasapiChannels }

const wasapiSampleRate = 44100
const wasapiChannels = 2

func (c *stubCapturer) capture(ctx context.Context, deviceName string, raw chan<- rawEvent) error {
	return fmt.Errorf("audio capture is not supported on this platform")
}
