package audio

import "log"

// Sink aggregates variably-sized PCM chunks into an append-only FIFO and
// emits fixed-size buffers, one at a time, with the remainder carried over
// to the next call. Unlike internal/shared/util.RingBuffer
// (overwrite-oldest-when-full), this needs drain-from-front FIFO
// semantics, so it's a plain slice used as a growable queue rather than a
// fixed circular buffer.
type Sink struct {
	outputSize int
	buffer     []float32
}

// NewSink creates a Sink that emits buffers of outputSize floats at a time.
// The internal FIFO is pre-allocated to 2*outputSize capacity.
func NewSink(outputSize int) *Sink {
	if outputSize <= 0 {
		outputSize = 1
	}
	return &Sink{
		outputSize: outputSize,
		buffer:     make([]float32, 0, 2*outputSize),
	}
}

// Size returns the buffer length Receive emits.
func (s *Sink) Size() int {
	return s.outputSize
}

// Receive appends samples to the FIFO and, once outputSize samples are
// buffered, returns the first outputSize of them (the rest remain queued
// for the next call). Returns (nil, false) if not enough samples have
// accumulated yet.
//
// Repeatedly passing more than outputSize samples per call fills the
// buffer faster than it drains; a warning is logged but the excess is
// still buffered.
func (s *Sink) Receive(samples []float32) ([]float32, bool) {
	if len(samples) > s.outputSize {
		log.Printf("audio: sink received %d samples in one call, more than its %d output size; buffering anyway", len(samples), s.outputSize)
	}
	s.buffer = append(s.buffer, samples...)
	if len(s.buffer) < s.outputSize {
		return nil, false
	}
	out := make([]float32, s.outputSize)
	copy(out, s.buffer[:s.outputSize])
	s.buffer = append(s.buffer[:0], s.buffer[s.outputSize:]...)
	return out, true
}
