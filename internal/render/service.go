// Package render implements the render service orchestrator: the
// top-level owner of the frame producer, the audio pipeline and the set
// of device runners, and the arbitration logic that decides which
// monitor/region is captured as window focus and profiles change. The
// orchestrator is a single-threaded select loop; everything it owns is
// torn down and joined before Run returns.
package render

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lumos-project/lumos/internal/audio"
	"github.com/lumos-project/lumos/internal/capture"
	"github.com/lumos-project/lumos/internal/devicepipeline"
	"github.com/lumos-project/lumos/internal/geom"
	"github.com/lumos-project/lumos/internal/latest"
	"github.com/lumos-project/lumos/internal/profiles"
	"github.com/lumos-project/lumos/internal/protocol"
	"github.com/lumos-project/lumos/internal/sampler"
)

// FocusEvent is the external window-focus notifier's delivered tuple:
// which monitor currently has the focused window, and that window's
// title, used to resolve application profiles.
type FocusEvent struct {
	MonitorIndex int
	WindowTitle  string
}

// MonitorInfo describes one configured monitor's bounds, needed to resolve
// an ApplicationProfile's proportion-based MonitorDistance fields.
type MonitorInfo struct {
	Width, Height int
}

// startAttempts is how many times in all (the first try included) the
// frame producer's Start is attempted before the orchestrator gives up
// and logs.
const startAttempts = 3

// Service owns the frame producer, the audio worker and the set of
// device runners, and arbitrates which profile's regions are active.
// Exactly one Service exists per process; Run drives its single-threaded
// cooperative select loop until the context is cancelled or a Shutdown
// command arrives.
type Service struct {
	frames   capture.FrameProducer
	monitors map[int]MonitorInfo

	horRegion  *latest.Value[geom.Rect]
	verRegion  *latest.Value[geom.Rect]
	defaultHor geom.Rect
	defaultVer geom.Rect

	audioOut *latest.Value[float32]

	arb         *profiles.Arbitrator
	profileList []profiles.ApplicationProfile

	devicesCancel context.CancelFunc
	devicesWG     sync.WaitGroup

	audioCancel context.CancelFunc
	audioWG     sync.WaitGroup

	// statusMu guards the fields Status reports, refreshed by setDevices;
	// read by Status from a different goroutine (e.g. the tray's periodic
	// poll).
	statusMu    sync.Mutex
	deviceCount int
}

// NewService creates a Service. frames is the platform frame producer
// (its real implementation lives outside this repository); monitors maps
// monitor index to its resolved pixel bounds, used to resolve profile
// regions; defaultHor/defaultVer are the sampling regions published when
// no profile is active anywhere.
func NewService(frames capture.FrameProducer, monitors map[int]MonitorInfo, defaultHor, defaultVer geom.Rect) *Service {
	return &Service{
		frames:     frames,
		monitors:   monitors,
		horRegion:  latest.New(defaultHor),
		verRegion:  latest.New(defaultVer),
		defaultHor: defaultHor,
		defaultVer: defaultVer,
		audioOut:   latest.New[float32](1.0),
		arb:        profiles.NewArbitrator(),
	}
}

// Status reports the number of currently configured device runners, for
// display in the tray menu.
func (s *Service) Status() (deviceCount int) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.deviceCount
}

// Run drives the orchestrator's select loop until ctx is cancelled,
// commands closes, or a Shutdown command arrives. It joins every device
// runner and the audio worker before returning, so no write to an output
// sink is in flight once Run exits.
func (s *Service) Run(ctx context.Context, commands <-chan protocol.Command, focus <-chan FocusEvent) {
	defer s.shutdown()

	s.retarget(ctx)
	s.setAudioDevices(ctx, nil)

	for {
		select {
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			s.handleCommand(ctx, cmd)
			if cmd.Kind == protocol.CommandShutdown {
				return
			}
		case ev, ok := <-focus:
			if !ok {
				focus = nil
				continue
			}
			s.handleFocusEvent(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) handleCommand(ctx context.Context, cmd protocol.Command) {
	switch cmd.Kind {
	case protocol.CommandDevices:
		log.Printf("render: starting %d device(s)", len(cmd.Devices))
		s.setDevices(ctx, cmd.Devices)
	case protocol.CommandProfiles:
		log.Printf("render: received %d profile(s)", len(cmd.Profiles))
		s.profileList = cmd.Profiles
	case protocol.CommandAudioDevices:
		log.Printf("render: reconfiguring audio devices: %v", cmd.AudioDevices)
		s.setAudioDevices(ctx, cmd.AudioDevices)
	case protocol.CommandShutdown:
		log.Printf("render: shutdown requested")
	}
}

// setDevices atomically replaces the device runner set: the old set is
// torn down (cancelled and joined, which closes every sink) before the
// new one is started.
func (s *Service) setDevices(ctx context.Context, instances []protocol.DeviceInstance) {
	s.teardownDevices()

	runCtx, cancel := context.WithCancel(ctx)
	s.devicesCancel = cancel

	for _, inst := range instances {
		region := s.horRegion
		if inst.Spec.Sampling == sampler.Vertical {
			region = s.verRegion
		}
		runner := devicepipeline.NewRunner(inst.Spec, inst.Sink, s.frames.Events(), s.audioOut, region)
		s.devicesWG.Add(1)
		go func() {
			defer s.devicesWG.Done()
			runner.Run(runCtx)
		}()
	}

	s.statusMu.Lock()
	s.deviceCount = len(instances)
	s.statusMu.Unlock()
}

func (s *Service) teardownDevices() {
	if s.devicesCancel != nil {
		s.devicesCancel()
	}
	s.devicesWG.Wait()
	s.devicesCancel = nil
}

// setAudioDevices tears down the previous audio worker and starts a new
// one fed from deviceNames. An empty list is valid: the Selector still
// runs, emitting the unmodulated 1.0 heartbeat.
func (s *Service) setAudioDevices(ctx context.Context, deviceNames []string) {
	s.teardownAudio()

	runCtx, cancel := context.WithCancel(ctx)
	s.audioCancel = cancel

	sources := make([]audio.Source, len(deviceNames))
	for i, name := range deviceNames {
		sources[i] = audio.Source{Name: name, Events: audio.Capture(runCtx, name)}
	}

	sel := audio.NewSelector()
	s.audioWG.Add(2)
	go func() {
		defer s.audioWG.Done()
		sel.Run(runCtx, sources)
	}()
	go func() {
		defer s.audioWG.Done()
		forwardIntensity(runCtx, sel.Output(), s.audioOut)
	}()
}

func (s *Service) teardownAudio() {
	if s.audioCancel != nil {
		s.audioCancel()
	}
	s.audioWG.Wait()
	s.audioCancel = nil
}

// forwardIntensity relays every value published on src to dst until ctx
// is done. The orchestrator keeps a single long-lived audioOut cell so
// device runners' Sub subscriptions survive an audio reconfiguration;
// each reconfiguration only replaces the Selector feeding it.
func forwardIntensity(ctx context.Context, src *latest.Value[float32], dst *latest.Value[float32]) {
	sub := src.SubscribeFromZero()
	for {
		v, err := sub.Get(ctx)
		if err != nil {
			return
		}
		dst.Set(v)
	}
}

// handleFocusEvent resolves the profile for ev's window title against
// ev's monitor, records it in the arbitrator, and retargets capture.
func (s *Service) handleFocusEvent(ctx context.Context, ev FocusEvent) {
	mon, ok := s.monitors[ev.MonitorIndex]
	if !ok {
		log.Printf("render: focus event for unknown monitor %d, ignoring", ev.MonitorIndex)
		return
	}

	active, matched := profiles.Resolve(s.profileList, ev.WindowTitle, mon.Width, mon.Height)
	s.arb.SetActive(ev.MonitorIndex, active, matched)
	s.retarget(ctx)
}

// retarget applies the current highest-priority active profile (or the
// default regions, if none) to the frame producer and the two region
// channels.
func (s *Service) retarget(ctx context.Context) {
	monitorIndex, active, ok := s.arb.Highest()
	if !ok {
		s.frames.Stop()
		s.horRegion.Set(s.defaultHor)
		s.verRegion.Set(s.defaultVer)
		return
	}

	log.Printf("render: activating profile %d on monitor %d", active.Profile.ID, monitorIndex)
	s.frames.SetMonitor(monitorIndex)
	if active.HasHorizontalRegion {
		s.horRegion.Set(active.HorizontalRegion)
	}
	if active.HasVerticalRegion {
		s.verRegion.Set(active.VerticalRegion)
	}
	s.startFrameProducer(ctx)
}

// startFrameProducer starts the frame producer, making up to
// startAttempts attempts with a 1s constant backoff between them
// before giving up and logging.
func (s *Service) startFrameProducer(ctx context.Context) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), uint64(startAttempts-1)), ctx)
	err := backoff.RetryNotify(s.frames.Start, policy, func(err error, delay time.Duration) {
		log.Printf("render: frame producer start failed: %v, retrying in %v", err, delay)
	})
	if err != nil {
		log.Printf("render: frame producer failed to start after %d attempts: %v", startAttempts, err)
	}
}

// shutdown tears down every device runner and the audio worker and stops
// the frame producer. Called once, when Run returns.
func (s *Service) shutdown() {
	s.teardownDevices()
	s.teardownAudio()
	s.frames.Stop()
}
