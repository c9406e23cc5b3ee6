// Package capture defines the external monitor-capture collaborator
// contract: a Frame type plus a FrameProducer interface the render
// service orchestrator drives. The real platform grabber lives outside
// this repository; this package only hosts the contract and a stub
// implementation for tests.
package capture

import (
	"github.com/lumos-project/lumos/internal/colorspace"
	"github.com/lumos-project/lumos/internal/latest"
)

// Frame is one captured, possibly downscaled, frame of pixels in
// row-major order.
type Frame struct {
	Pixels      []colorspace.RGB
	Width       int
	Height      int
	Downscaling int // >=1; sampling Rects are defined in pre-downscale coordinates.
}

// At returns the pixel at (x, y); out-of-bounds coordinates return the zero RGB.
func (f Frame) At(x, y int) colorspace.RGB {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return colorspace.RGB{}
	}
	return f.Pixels[y*f.Width+x]
}

// EventKind discriminates a FrameEvent.
type EventKind int

const (
	// EventCaptured carries a freshly captured Frame.
	EventCaptured EventKind = iota
	// EventStopped indicates the capturer is not currently producing frames
	// (stopped, not merely between frames); device runners should fall back
	// to each device's fallback_color instead of sampling.
	EventStopped
)

// FrameEvent is the sum type published on the frame latest-value channel:
// either a captured Frame, or a Stopped marker.
type FrameEvent struct {
	Kind  EventKind
	Frame Frame
}

// DisplayInfo describes one enumerable monitor.
type DisplayInfo struct {
	Index     int
	Name      string
	Width     int
	Height    int
	X, Y      int
	IsPrimary bool
}

// FrameProducer is the external collaborator: an OS-thread-affine capture
// loop that the orchestrator starts/stops and retargets by monitor index.
// Real implementations run on a dedicated goroutine because platform
// capture APIs hold thread-affine handles; only the interface is in scope
// here.
type FrameProducer interface {
	// SetMonitor retargets capture to the given monitor index. Safe to call
	// while running or stopped; takes effect on the next Start.
	SetMonitor(index int)

	// SetDecimation sets the downscaling factor applied to future frames.
	SetDecimation(factor int)

	// Start begins producing frames. Idempotent if already running.
	Start() error

	// Stop halts production; subsequent reads observe EventStopped.
	Stop()

	// Events returns the latest-value channel of frame events.
	Events() *latest.Value[FrameEvent]
}
