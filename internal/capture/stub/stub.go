// Package stub provides an in-memory capture.FrameProducer for tests:
// callers push frames directly instead of grabbing real monitor pixels.
package stub

import (
	"sync"

	"github.com/lumos-project/lumos/internal/capture"
	"github.com/lumos-project/lumos/internal/latest"
)

// Producer is a test double for capture.FrameProducer.
type Producer struct {
	mu         sync.Mutex
	monitor    int
	decimation int
	running    bool
	events     *latest.Value[capture.FrameEvent]
}

// New creates a stopped stub producer.
func New() *Producer {
	return &Producer{
		decimation: 1,
		events:     latest.New(capture.FrameEvent{Kind: capture.EventStopped}),
	}
}

func (p *Producer) SetMonitor(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.monitor = index
}

func (p *Producer) Monitor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.monitor
}

func (p *Producer) SetDecimation(factor int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decimation = factor
}

func (p *Producer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
	return nil
}

func (p *Producer) Stop() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	p.events.Set(capture.FrameEvent{Kind: capture.EventStopped})
}

func (p *Producer) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Producer) Events() *latest.Value[capture.FrameEvent] {
	return p.events
}

// PushFrame publishes a captured frame event, as a real producer would
// after grabbing one frame. A no-op while stopped, matching the contract
// that a stopped producer only ever yields EventStopped.
func (p *Producer) PushFrame(f capture.Frame) {
	if !p.Running() {
		return
	}
	f.Downscaling = p.decimationOrOne(f.Downscaling)
	p.events.Set(capture.FrameEvent{Kind: capture.EventCaptured, Frame: f})
}

func (p *Producer) decimationOrOne(existing int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing > 0 {
		return existing
	}
	if p.decimation > 0 {
		return p.decimation
	}
	return 1
}
