// Package colorspace implements the RGB<->HSV conversions, hue/saturation/
// value offsetting, gamma correction and optional 8-corner calibration used
// by the device color transform chain.
package colorspace

import "math"

// RGB is a color in linear [0,1] RGB space.
type RGB struct {
	R, G, B float32
}

// HSV is a color in hue ([0,360)), saturation and value ([0,1]) space.
type HSV struct {
	H, S, V float32
}

// RGBToHSV converts an RGB color to HSV. The degenerate case (max == 0,
// i.e. black) returns H=0 rather than NaN.
func RGBToHSV(c RGB) HSV {
	min := minOf3(c.R, c.G, c.B)
	max := maxOf3(c.R, c.G, c.B)

	var out HSV
	out.V = max
	delta := max - min

	if delta < 0.00001 {
		out.S = 0
		out.H = 0
		return out
	}

	if max > 0 {
		out.S = delta / max
	} else {
		out.S = 0
		out.H = 0
		return out
	}

	switch {
	case c.R >= max:
		out.H = (c.G - c.B) / delta
	case c.G >= max:
		out.H = 2 + (c.B-c.R)/delta
	default:
		out.H = 4 + (c.R-c.G)/delta
	}

	out.H *= 60
	if out.H < 0 {
		out.H += 360
	}
	return out
}

// HSVToRGB converts an HSV color back to RGB.
func HSVToRGB(c HSV) RGB {
	if c.S <= 0 {
		return RGB{R: c.V, G: c.V, B: c.V}
	}

	hh := c.H
	if hh >= 360 {
		hh = 0
	}
	hh /= 60

	i := float32(math.Floor(float64(hh)))
	ff := hh - i

	p := c.V * (1 - c.S)
	q := c.V * (1 - c.S*ff)
	t := c.V * (1 - c.S*(1-ff))

	switch int(i) {
	case 0:
		return RGB{R: c.V, G: t, B: p}
	case 1:
		return RGB{R: q, G: c.V, B: p}
	case 2:
		return RGB{R: p, G: c.V, B: t}
	case 3:
		return RGB{R: p, G: q, B: c.V}
	case 4:
		return RGB{R: t, G: p, B: c.V}
	default:
		return RGB{R: c.V, G: p, B: q}
	}
}

// OffsetHSV applies an additive hue/saturation/value delta, wrapping hue
// into [0,360) and clamping saturation/value to [0,1]. It is a no-op when
// all three deltas are zero.
func OffsetHSV(c HSV, dh, ds, dv float32) HSV {
	if dh == 0 && ds == 0 && dv == 0 {
		return c
	}

	h := c.H + dh
	h = float32(math.Mod(float64(h), 360))
	if h < 0 {
		h += 360
	}

	return HSV{
		H: h,
		S: clamp01(c.S + ds),
		V: clamp01(c.V + dv),
	}
}

// Gamma applies per-channel gamma correction: c' = c^g.
func Gamma(c RGB, g float32) RGB {
	if g == 1 {
		return c
	}
	return RGB{
		R: powf(c.R, g),
		G: powf(c.G, g),
		B: powf(c.B, g),
	}
}

func powf(base, exp float32) float32 {
	if base <= 0 {
		return 0
	}
	return float32(math.Pow(float64(base), float64(exp)))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minOf3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxOf3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
