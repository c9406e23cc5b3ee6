package devicepipeline

import (
	"github.com/lumos-project/lumos/internal/capture"
	"github.com/lumos-project/lumos/internal/colorspace"
	"github.com/lumos-project/lumos/internal/geom"
	"github.com/lumos-project/lumos/internal/sampler"
)

// Chain holds one device's immutable transform Spec plus its mutable
// sampling region (retargeted by the orchestrator on profile transitions)
// and runs one frame through the full stage sequence: fallback injection,
// sampling, RGB->HSV, HSV offsets, audio modulation, HSV->RGB, gamma.
type Chain struct {
	spec   Spec
	region geom.Rect
}

// NewChain creates a Chain for spec. The region starts empty; SetRegion
// must be called (typically with the service's default region) before the
// first Process call produces anything but fallback color.
func NewChain(spec Spec) *Chain {
	return &Chain{spec: spec}
}

// SetRegion updates the sampling region used by future Process calls.
// Called from the device runner loop whenever its region latest-value
// channel reports a new value.
func (c *Chain) SetRegion(r geom.Rect) {
	c.region = r
}

// Process runs one frame event through the chain, returning a
// StripLength-length RGB vector ready for the output sink. intensity is
// the most recently observed audio intensity (1.0 if none has ever been
// received), used only when the device configures audio modulation.
func (c *Chain) Process(ev capture.FrameEvent, intensity float32) []colorspace.RGB {
	n := c.spec.StripLength

	var sampled []colorspace.RGB
	if ev.Kind == capture.EventStopped {
		sampled = make([]colorspace.RGB, n)
		for i := range sampled {
			sampled[i] = c.spec.FallbackColor
		}
	} else {
		sampled = sampler.Sample(ev.Frame, c.region, n, c.spec.Sampling, c.spec.FallbackColor)
	}

	out := make([]colorspace.RGB, n)
	for i, rgb := range sampled {
		hsv := colorspace.RGBToHSV(rgb)
		hsv = colorspace.OffsetHSV(hsv, c.spec.HSVOffset.DH, c.spec.HSVOffset.DS, c.spec.HSVOffset.DV)
		if c.spec.AudioAmount > 0 {
			hsv.V = hsv.V * (intensity*c.spec.AudioAmount + (1 - c.spec.AudioAmount))
		}
		rgbOut := colorspace.HSVToRGB(hsv)
		out[i] = colorspace.Gamma(rgbOut, c.spec.Gamma)
	}
	return out
}
