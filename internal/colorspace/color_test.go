package colorspace

import "testing"

func within(a, b, tol float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestRGBToHSV(t *testing.T) {
	hsv := RGBToHSV(RGB{R: 224.0 / 255.0, G: 173.0 / 255.0, B: 114.0 / 255.0})

	if !within(hsv.H, 32, 1.0) {
		t.Errorf("H = %v, want ~32", hsv.H)
	}
	if !within(hsv.S, 49.0/100.0, 0.01) {
		t.Errorf("S = %v, want ~0.49", hsv.S)
	}
	if !within(hsv.V, 88.0/100.0, 0.01) {
		t.Errorf("V = %v, want ~0.88", hsv.V)
	}
}

func TestHSVToRGB(t *testing.T) {
	rgb := HSVToRGB(HSV{H: 32, S: 49.0 / 100.0, V: 88.0 / 100.0})

	if !within(rgb.R, 224.0/255.0, 0.01) {
		t.Errorf("R = %v, want ~0.878", rgb.R)
	}
	if !within(rgb.G, 173.0/255.0, 0.01) {
		t.Errorf("G = %v, want ~0.678", rgb.G)
	}
	if !within(rgb.B, 114.0/255.0, 0.01) {
		t.Errorf("B = %v, want ~0.447", rgb.B)
	}
}

func TestRGBToHSV_Black(t *testing.T) {
	hsv := RGBToHSV(RGB{R: 0, G: 0, B: 0})
	if hsv.H != 0 || hsv.S != 0 || hsv.V != 0 {
		t.Errorf("black should map to H=0,S=0,V=0, got %+v", hsv)
	}
}

func TestRoundTrip(t *testing.T) {
	colors := []RGB{
		{R: 1, G: 0, B: 0},
		{R: 0, G: 1, B: 0},
		{R: 0, G: 0, B: 1},
		{R: 1, G: 1, B: 1},
		{R: 1, G: 1, B: 0},
		{R: 0, G: 1, B: 1},
		{R: 1, G: 0, B: 1},
	}

	for _, c := range colors {
		hsv := RGBToHSV(c)
		rgb := HSVToRGB(hsv)
		if rgb.R != c.R || rgb.G != c.G || rgb.B != c.B {
			t.Errorf("round trip failed for %+v: got %+v via %+v", c, rgb, hsv)
		}
	}
}

func TestOffsetHSV_HueWrap(t *testing.T) {
	c := HSV{H: 370, S: 0.5, V: 0.5}
	out := OffsetHSV(c, 0, 0, 0)
	// Input already out of [0,360); a zero-delta call is a documented no-op
	// and returns the value unmodified.
	if out != c {
		t.Errorf("zero-delta OffsetHSV should be a no-op, got %+v", out)
	}

	wrapped := OffsetHSV(HSV{H: 350, S: 0.5, V: 0.5}, 20, 0, 0)
	if !within(wrapped.H, 10, 0.001) {
		t.Errorf("H = %v, want 10 (350+20 mod 360)", wrapped.H)
	}
}

func TestOffsetHSV_NegativeWrap(t *testing.T) {
	out := OffsetHSV(HSV{H: 10, S: 0.5, V: 0.5}, -20, 0, 0)
	if !within(out.H, 350, 0.001) {
		t.Errorf("H = %v, want 350 (10-20 mod 360)", out.H)
	}
}

func TestOffsetHSV_Clamp(t *testing.T) {
	out := OffsetHSV(HSV{H: 0, S: 0.9, V: 0.9}, 0, 0.5, 0.5)
	if out.S != 1 || out.V != 1 {
		t.Errorf("S,V should clamp to 1, got %+v", out)
	}
}

func TestGamma(t *testing.T) {
	out := Gamma(RGB{R: 0.5, G: 0.5, B: 0.5}, 2)
	want := float32(0.25)
	if !within(out.R, want, 0.001) || !within(out.G, want, 0.001) || !within(out.B, want, 0.001) {
		t.Errorf("Gamma(0.5, 2) = %+v, want all 0.25", out)
	}
}

func TestGamma_Identity(t *testing.T) {
	c := RGB{R: 0.3, G: 0.6, B: 0.9}
	if out := Gamma(c, 1); out != c {
		t.Errorf("Gamma(c, 1) should be identity, got %+v", out)
	}
}
