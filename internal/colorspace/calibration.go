package colorspace

// Cube is an 8-corner trilinear color calibration profile: per-channel
// gamma followed by a weighted blend of per-corner channel adjustments.
// It is not wired into any devicepipeline.Spec field (the control plane
// has no calibration message) — reserved for direct construction and
// tests, matching the upstream project which never hooks it into its
// runtime chain either.
type Cube struct {
	GammaR, GammaG, GammaB float32

	Black, White          RGB
	Red, Green, Blue      RGB
	Cyan, Magenta, Yellow RGB
}

// Apply runs gamma correction followed by the 8-corner weighted adjustment.
func (c Cube) Apply(color RGB) RGB {
	color.R = powf(color.R, c.GammaR)
	color.G = powf(color.G, c.GammaG)
	color.B = powf(color.B, c.GammaB)

	nrng := (1 - color.R) * (1 - color.G)
	rng := color.R * (1 - color.G)
	nrg := (1 - color.R) * color.G
	rg := color.R * color.G

	black := nrng * (1 - color.B)
	white := rg * color.B
	red := rng * (1 - color.B)
	green := nrg * (1 - color.B)
	blue := nrng * color.B
	cyan := nrg * color.B
	magenta := rng * color.B
	yellow := rg * (1 - color.B)

	oBlack := adjustChannel(black, c.Black)
	oWhite := adjustChannel(white, c.White)
	oRed := adjustChannel(red, c.Red)
	oGreen := adjustChannel(green, c.Green)
	oBlue := adjustChannel(blue, c.Blue)
	oCyan := adjustChannel(cyan, c.Cyan)
	oMagenta := adjustChannel(magenta, c.Magenta)
	oYellow := adjustChannel(yellow, c.Yellow)

	return RGB{
		R: oBlack.R + oWhite.R + oRed.R + oGreen.R + oBlue.R + oCyan.R + oMagenta.R + oYellow.R,
		G: oBlack.G + oWhite.G + oRed.G + oGreen.G + oBlue.G + oCyan.G + oMagenta.G + oYellow.G,
		B: oBlack.B + oWhite.B + oRed.B + oGreen.B + oBlue.B + oCyan.B + oMagenta.B + oYellow.B,
	}
}

func adjustChannel(weight float32, adj RGB) RGB {
	return RGB{
		R: min1(weight * adj.R),
		G: min1(weight * adj.G),
		B: min1(weight * adj.B),
	}
}

func min1(v float32) float32 {
	if v > 1 {
		return 1
	}
	return v
}
