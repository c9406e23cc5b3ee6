package audio

import "testing"

func TestSink_EmitsFixedSizeBuffers(t *testing.T) {
	s := NewSink(4)

	if _, ready := s.Receive([]float32{1, 2}); ready {
		t.Fatalf("expected no emission before reaching output size")
	}
	buf, ready := s.Receive([]float32{3, 4, 5})
	if !ready {
		t.Fatalf("expected emission once output size reached")
	}
	if len(buf) != 4 {
		t.Fatalf("len = %d, want 4", len(buf))
	}
	want := []float32{1, 2, 3, 4}
	for i, v := range want {
		if buf[i] != v {
			t.Errorf("buf[%d] = %v, want %v", i, buf[i], v)
		}
	}

	// the leftover sample (5) carries over to the next call.
	buf2, ready2 := s.Receive([]float32{6, 7, 8})
	if !ready2 {
		t.Fatalf("expected second emission")
	}
	want2 := []float32{5, 6, 7, 8}
	for i, v := range want2 {
		if buf2[i] != v {
			t.Errorf("buf2[%d] = %v, want %v", i, buf2[i], v)
		}
	}
}

func TestSink_OversizedInputStillBuffers(t *testing.T) {
	s := NewSink(2)
	buf, ready := s.Receive([]float32{1, 2, 3, 4, 5})
	if !ready {
		t.Fatalf("expected emission")
	}
	if len(buf) != 2 || buf[0] != 1 || buf[1] != 2 {
		t.Fatalf("got %v, want [1 2]", buf)
	}
	buf2, ready2 := s.Receive(nil)
	if !ready2 || buf2[0] != 3 || buf2[1] != 4 {
		t.Fatalf("got %v, want [3 4]", buf2)
	}
}
