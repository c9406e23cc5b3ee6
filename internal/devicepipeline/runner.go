package devicepipeline

import (
	"context"
	"log"

	"github.com/lumos-project/lumos/internal/capture"
	"github.com/lumos-project/lumos/internal/colorspace"
	"github.com/lumos-project/lumos/internal/geom"
	"github.com/lumos-project/lumos/internal/latest"
)

// Sink is an output sink for a color vector: a physical device such as a
// WLED strip, a QMK keyboard or an Adalight serial controller. The set of
// implementations is closed (internal/sink/wled, qmk, serial).
type Sink interface {
	// Draw pushes vec to the device. Transient I/O errors are returned,
	// logged by the caller and never terminate the runner.
	Draw(vec []colorspace.RGB) error
	// Size returns the sink's fixed strip length.
	Size() int
	// Close releases the sink's OS resources (socket, HID handle, serial
	// port). Called once, when the runner terminates.
	Close() error
}

// Runner drives one device's Chain against its output Sink. It
// subscribes independently to the shared frame and audio latest-value
// channels and to one of the service's two per-orientation region
// channels; the frame channel sets the cadence, the other two are polled
// without blocking each tick.
type Runner struct {
	name  string
	chain *Chain
	sink  Sink

	frames  *latest.Sub[capture.FrameEvent]
	audio   *latest.Sub[float32]
	regions *latest.Sub[geom.Rect]
}

// NewRunner creates a Runner for spec, reading frames from frames, audio
// intensity from audio, and its sampling region from regions. The three
// latest-value cells are owned by the orchestrator/service and shared
// across every device runner; only the Sub views are per-runner.
func NewRunner(spec Spec, sink Sink, frames *latest.Value[capture.FrameEvent], audio *latest.Value[float32], regions *latest.Value[geom.Rect]) *Runner {
	return &Runner{
		name:    spec.Name,
		chain:   NewChain(spec),
		sink:    sink,
		frames:  frames.SubscribeFromZero(),
		audio:   audio.SubscribeFromZero(),
		regions: regions.SubscribeFromZero(),
	}
}

// Run blocks, processing frames and drawing to the sink until ctx is
// cancelled (device reconfiguration or shutdown). The sink is closed
// before Run returns. A draw error is logged and the loop continues; it
// never terminates the runner.
func (r *Runner) Run(ctx context.Context) {
	defer func() {
		if err := r.sink.Close(); err != nil {
			log.Printf("devicepipeline: closing sink for %q: %v", r.name, err)
		}
	}()

	lastIntensity := float32(1.0)
	if region, ok := r.regions.TryGet(); ok {
		r.chain.SetRegion(region)
	}

	for {
		ev, err := r.frames.Get(ctx)
		if err != nil {
			return
		}

		if region, ok := r.regions.TryGet(); ok {
			r.chain.SetRegion(region)
		}
		if intensity, ok := r.audio.TryGet(); ok {
			lastIntensity = intensity
		}

		vec := r.chain.Process(ev, lastIntensity)
		if err := r.sink.Draw(vec); err != nil {
			log.Printf("devicepipeline: draw error for %q: %v", r.name, err)
		}
	}
}
