// Package devicepipeline implements the per-device color transform chain
// and the device runner: the lazy sample->HSV->offset->audio-modulate->
// RGB->gamma mapping and the goroutine that drives it against a device's
// output sink, one vector per captured frame.
package devicepipeline

import (
	"github.com/lumos-project/lumos/internal/colorspace"
	"github.com/lumos-project/lumos/internal/sampler"
)

// Spec describes one configured device: how to sample, what color
// transforms to apply and in what order, parsed from a control-plane
// DeviceSpec and owned by the orchestrator until replaced wholesale.
type Spec struct {
	Name string

	// StripLength is the fixed output vector length N.
	StripLength int

	// Sampling selects which axis a captured frame's sampling region is
	// divided along.
	Sampling sampler.Orientation

	// HSVOffset is added to every sampled element after RGB->HSV. The zero
	// value (all deltas 0) is a no-op.
	HSVOffset HSVOffset

	// AudioAmount is the audio-modulation mix in [0,1]. <= 0 means no audio
	// modulation is applied at all.
	AudioAmount float32

	// Gamma is the per-channel exponent applied last.
	Gamma float32

	// FallbackColor is emitted (repeated StripLength times) whenever the
	// frame source is stopped, or whenever a region yields no pixels.
	FallbackColor colorspace.RGB
}

// HSVOffset is an additive (Δh, Δs, Δv) adjustment; Δh wraps mod 360,
// Δs/Δv clamp to [0,1].
type HSVOffset struct {
	DH, DS, DV float32
}
