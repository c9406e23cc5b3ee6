package audio

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// rawKind discriminates the low-level events a platform capturer reports;
// distinct from Event, which is what the Sink/Normalizer/Gate stage
// produces from the raw PCM this delivers.
type rawKind int

const (
	started rawKind = iota
	bufferProduced
	stopped
)

type rawEvent struct {
	kind   rawKind
	buffer []float32
}

// platformCapturer opens a named output device in WASAPI loopback mode and
// streams raw PCM events until ctx is done or the stream errors.
// Implemented per-OS in device_windows.go / device_stub.go.
type platformCapturer interface {
	capture(ctx context.Context, deviceName string, raw chan<- rawEvent) error
	sampleRate() int
	channels() int
}

// Capture runs the full per-device pipeline (platform PCM capture -> Sink
// framing -> RMS -> Normalizer -> lifecycle framing -> Gate) and returns a
// channel of gated intensity events for deviceName. On any capture error
// it logs, waits 1s, and reopens the device; the constant 1s delay never
// escalates, unlike the frame producer's capped fault retries in
// internal/render. ctx cancellation stops the loop and closes the
// returned channel.
func Capture(ctx context.Context, deviceName string) <-chan Event {
	out := make(chan Event, 64)
	go func() {
		defer close(out)
		gate := NewGate(DefaultGateThreshold, DefaultGateTimeout)
		policy := backoff.WithContext(backoff.NewConstantBackOff(time.Second), ctx)
		_ = backoff.RetryNotify(func() error {
			runCaptureOnce(ctx, deviceName, out, gate)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("capture for %q ended", deviceName)
		}, policy, func(err error, delay time.Duration) {
			log.Printf("audio: %v, retrying in %v", err, delay)
		})
	}()
	return out
}

func runCaptureOnce(ctx context.Context, deviceName string, out chan<- Event, gate *Gate) {
	pc := newPlatformCapturer()
	raw := make(chan rawEvent, 64)

	errCh := make(chan error, 1)
	go func() {
		errCh <- pc.capture(ctx, deviceName, raw)
	}()

	outputSize := pc.sampleRate() * pc.channels() / 30
	sink := NewSink(outputSize)
	norm := NewNormalizer(1)

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				log.Printf("audio: capture error for %q: %v", deviceName, err)
			}
			return
		case r, ok := <-raw:
			if !ok {
				return
			}
			switch r.kind {
			case started:
				emit(ctx, out, gate, Event{Kind: Activated})
			case stopped:
				emit(ctx, out, gate, Event{Kind: Deactivated})
			case bufferProduced:
				framed, ready := sink.Receive(r.buffer)
				if !ready {
					continue
				}
				mean := RMSMean(framed)
				intensity := norm.Push(mean, len(r.buffer))
				emit(ctx, out, gate, Event{Kind: ValueProduced, Value: intensity})
			}
		}
	}
}

func emit(ctx context.Context, out chan<- Event, gate *Gate, ev Event) {
	select {
	case out <- gate.Apply(ev):
	case <-ctx.Done():
	}
}
