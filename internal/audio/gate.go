package audio

import "time"

// DefaultGateThreshold and DefaultGateTimeout are the noise gate's fixed
// parameters.
const (
	DefaultGateThreshold float32       = 0.001
	DefaultGateTimeout   time.Duration = 2 * time.Second
)

// Gate adds noise-gate framing on top of a device's own Activated/Deactivated
// events: some devices keep signaling "playing" while emitting continuous
// silence, so the gate synthesizes its own Deactivated after a sustained
// run of near-zero values, and Activated on the first value above threshold
// afterward.
type Gate struct {
	threshold      float32
	timeout        time.Duration
	isActive       bool
	silenceStarted time.Time
	silenceRunning bool
	now            func() time.Time
}

// NewGate creates a Gate with the given threshold and timeout.
func NewGate(threshold float32, timeout time.Duration) *Gate {
	return &Gate{threshold: threshold, timeout: timeout, now: time.Now}
}

// Apply runs one event through the gate, returning the event to forward
// downstream. Activated/Deactivated events from the source reset the
// gate's own state and pass through unchanged. A ValueProduced event at or
// below threshold may be rewritten to Deactivated once the gate's timeout
// has elapsed since silence began; a value above threshold may be rewritten
// to Activated if the gate was previously inactive. In both rewrite cases
// the original value is replaced by the lifecycle event for that tick, not
// emitted alongside it.
func (g *Gate) Apply(ev Event) Event {
	switch ev.Kind {
	case Activated:
		g.isActive = true
		g.silenceRunning = false
		return ev
	case Deactivated:
		g.isActive = false
		g.silenceRunning = false
		return ev
	}

	if ev.Value <= g.threshold {
		if g.isActive {
			if g.silenceRunning {
				if g.now().Sub(g.silenceStarted) >= g.timeout {
					g.isActive = false
					g.silenceRunning = false
					return Event{Kind: Deactivated}
				}
			} else {
				g.silenceRunning = true
				g.silenceStarted = g.now()
			}
		}
		return ev
	}

	g.silenceRunning = false
	if !g.isActive {
		g.isActive = true
		return Event{Kind: Activated}
	}
	return ev
}
