package testutil

import "testing"

func TestCompareBuffers_Identical(t *testing.T) {
	buf := []byte{1, 2, 3, 255, 0}
	diff := CompareBuffers(buf, buf)

	if !diff.Identical {
		t.Error("identical buffers should be marked identical")
	}
	if diff.DifferentBytes != 0 {
		t.Errorf("DifferentBytes = %d, want 0", diff.DifferentBytes)
	}
}

func TestCompareBuffers_Different(t *testing.T) {
	expected := []byte{10, 20, 30}
	actual := []byte{10, 25, 30}

	diff := CompareBuffers(expected, actual)

	if diff.Identical {
		t.Error("differing buffers should not be marked identical")
	}
	if diff.DifferentBytes != 1 {
		t.Errorf("DifferentBytes = %d, want 1", diff.DifferentBytes)
	}
	if diff.MaxDelta != 5 {
		t.Errorf("MaxDelta = %d, want 5", diff.MaxDelta)
	}
}

func TestCompareBuffers_SizeMismatch(t *testing.T) {
	diff := CompareBuffers(make([]byte, 3), make([]byte, 5))
	if !diff.SizeMismatch {
		t.Error("should detect size mismatch")
	}
}

func TestCompareBuffersWithTolerance(t *testing.T) {
	expected := []byte{100, 100, 100}
	actual := []byte{102, 98, 100}

	if !CompareBuffersWithTolerance(expected, actual, 2) {
		t.Error("should pass with tolerance 2")
	}
	if CompareBuffersWithTolerance(expected, actual, 1) {
		t.Error("should fail with tolerance 1")
	}
}

func TestBufferDiff_RMS(t *testing.T) {
	diff := CompareBuffers([]byte{0, 0}, []byte{3, 4})
	// sqrt((9+16)/2) = sqrt(12.5)
	got := diff.RMS()
	if got < 3.53 || got > 3.54 {
		t.Errorf("RMS() = %f, want ~3.535", got)
	}
}

func TestBufferToHex(t *testing.T) {
	got := BufferToHex([]byte{0x02, 0x02, 0xff})
	want := "02 02 ff"
	if got != want {
		t.Errorf("BufferToHex() = %q, want %q", got, want)
	}
}

func TestBufferToHex_Empty(t *testing.T) {
	if got := BufferToHex(nil); got != "" {
		t.Errorf("BufferToHex(nil) = %q, want empty", got)
	}
}
