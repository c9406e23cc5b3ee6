package audio

import (
	"context"
	"sync"
	"time"

	"github.com/lumos-project/lumos/internal/latest"
)

// HeartbeatInterval is the cadence at which Selector emits the "unmodulated"
// constant 1.0 when no configured source is active.
const HeartbeatInterval = 200 * time.Millisecond

// Source pairs a configured audio device's event stream with its position
// in the configuration list, which determines arbitration priority.
type Source struct {
	Name   string
	Events <-chan Event
}

type indexedEvent struct {
	idx int
	ev  Event
}

// Selector arbitrates between several sources' event streams: the first
// source (in configuration order) with an active stream wins, and its
// ValueProduced events alone drive the published intensity. When no
// source is active, a constant 1.0 is published every HeartbeatInterval.
type Selector struct {
	out *latest.Value[float32]
}

// NewSelector creates a Selector whose output starts at the unmodulated
// heartbeat value.
func NewSelector() *Selector {
	return &Selector{out: latest.New[float32](1.0)}
}

// Output returns the latest-value cell device runners poll for the
// current intensity.
func (s *Selector) Output() *latest.Value[float32] {
	return s.out
}

// Run fans in every source's events and drives Output until ctx is done.
func (s *Selector) Run(ctx context.Context, sources []Source) {
	active := make([]bool, len(sources))
	combined := make(chan indexedEvent)

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, events <-chan Event) {
			defer wg.Done()
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return
					}
					select {
					case combined <- indexedEvent{idx: i, ev: ev}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(i, src.Events)
	}

	firstActive := func() int {
		for i, a := range active {
			if a {
				return i
			}
		}
		return -1
	}

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case ie := <-combined:
			switch ie.ev.Kind {
			case Activated:
				active[ie.idx] = true
			case Deactivated:
				active[ie.idx] = false
			case ValueProduced:
				if firstActive() == ie.idx {
					s.out.Set(ie.ev.Value)
				}
			}
		case <-heartbeat.C:
			if firstActive() == -1 {
				s.out.Set(1.0)
			}
		}
	}
}
