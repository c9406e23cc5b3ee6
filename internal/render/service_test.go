package render

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/lumos-project/lumos/internal/capture"
	stubcapture "github.com/lumos-project/lumos/internal/capture/stub"
	"github.com/lumos-project/lumos/internal/colorspace"
	"github.com/lumos-project/lumos/internal/devicepipeline"
	"github.com/lumos-project/lumos/internal/geom"
	"github.com/lumos-project/lumos/internal/profiles"
	"github.com/lumos-project/lumos/internal/protocol"
	"github.com/lumos-project/lumos/internal/sampler"
	"github.com/lumos-project/lumos/internal/testutil"
)

func newTestService() (*Service, *stubcapture.Producer) {
	producer := stubcapture.New()
	monitors := map[int]MonitorInfo{
		0: {Width: 2560, Height: 1440},
		1: {Width: 1920, Height: 1080},
	}
	svc := NewService(producer, monitors, geom.Rect{Width: 2560, Height: 600}, geom.Rect{Width: 400, Height: 1440})
	return svc, producer
}

// Two profiles of differing priority, active on different monitors; the
// frame producer must follow the higher-priority one and switch atomically
// when it's removed.
func TestArbitrationSwitchesToHighestPriority(t *testing.T) {
	svc, producer := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	commands := make(chan protocol.Command, 4)
	focus := make(chan FocusEvent, 4)
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, commands, focus)
		close(done)
	}()

	p1 := profiles.ApplicationProfile{
		ID: 1, Priority: 1, TitleRegex: regexp.MustCompile("Game A"),
		Areas: []profiles.MonitorAreaSpec{{Direction: profiles.DirectionHorizontal, Width: profiles.ProportionDistance(1), Height: profiles.ProportionDistance(1)}},
	}
	p2 := profiles.ApplicationProfile{
		ID: 2, Priority: 5, TitleRegex: regexp.MustCompile("Game B"),
		Areas: []profiles.MonitorAreaSpec{{Direction: profiles.DirectionHorizontal, Width: profiles.ProportionDistance(1), Height: profiles.ProportionDistance(1)}},
	}
	commands <- protocol.Command{Kind: protocol.CommandProfiles, Profiles: []profiles.ApplicationProfile{p1, p2}}
	time.Sleep(20 * time.Millisecond)

	focus <- FocusEvent{MonitorIndex: 0, WindowTitle: "Game A"}
	time.Sleep(20 * time.Millisecond)
	if got := producer.Monitor(); got != 0 {
		t.Fatalf("monitor after P1 focus = %d, want 0", got)
	}
	if !producer.Running() {
		t.Fatal("expected frame producer running after P1 activates")
	}

	focus <- FocusEvent{MonitorIndex: 1, WindowTitle: "Game B"}
	time.Sleep(20 * time.Millisecond)
	if got := producer.Monitor(); got != 1 {
		t.Fatalf("monitor after P2 (higher priority) focus = %d, want 1", got)
	}

	// Removing monitor 1's focus (window title no longer matches anything)
	// drops back to P1 on monitor 0.
	focus <- FocusEvent{MonitorIndex: 1, WindowTitle: "Desktop"}
	time.Sleep(20 * time.Millisecond)
	if got := producer.Monitor(); got != 0 {
		t.Fatalf("monitor after P2 deactivation = %d, want back to 0", got)
	}

	commands <- protocol.Command{Kind: protocol.CommandShutdown}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after shutdown command")
	}
}

// Replacing the device list while runners are executing must not crash or
// leave phantom writes; only the new runner set keeps drawing.
func TestDeviceReconfigurationIsSafe(t *testing.T) {
	svc, producer := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	commands := make(chan protocol.Command, 4)
	focus := make(chan FocusEvent)
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, commands, focus)
		close(done)
	}()

	if err := producer.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	oldSink := testutil.NewTestClient(3)
	oldSpec := devicepipeline.Spec{Name: "old", StripLength: 3, Sampling: sampler.Horizontal, Gamma: 1}
	commands <- protocol.Command{Kind: protocol.CommandDevices, Devices: []protocol.DeviceInstance{{Spec: oldSpec, Sink: oldSink}}}
	time.Sleep(20 * time.Millisecond)

	producer.PushFrame(capture.Frame{
		Pixels: []colorspace.RGB{{R: 1}, {R: 1}, {R: 1}, {R: 1}},
		Width:  2, Height: 2, Downscaling: 1,
	})
	if err := oldSink.WaitForFrames(1, 500*time.Millisecond); err != nil {
		t.Fatalf("old sink never drew: %v", err)
	}

	newSink := testutil.NewTestClient(3)
	newSpec := devicepipeline.Spec{Name: "new", StripLength: 3, Sampling: sampler.Horizontal, Gamma: 1}
	commands <- protocol.Command{Kind: protocol.CommandDevices, Devices: []protocol.DeviceInstance{{Spec: newSpec, Sink: newSink}}}
	time.Sleep(20 * time.Millisecond)

	producer.PushFrame(capture.Frame{
		Pixels: []colorspace.RGB{{G: 1}, {G: 1}, {G: 1}, {G: 1}},
		Width:  2, Height: 2, Downscaling: 1,
	})
	if err := newSink.WaitForFrames(1, 500*time.Millisecond); err != nil {
		t.Fatalf("new sink never drew: %v", err)
	}

	oldCountBefore := oldSink.FrameCount()
	time.Sleep(30 * time.Millisecond)
	if oldSink.FrameCount() != oldCountBefore {
		t.Fatalf("old sink kept drawing after reconfiguration: %d -> %d", oldCountBefore, oldSink.FrameCount())
	}

	commands <- protocol.Command{Kind: protocol.CommandShutdown}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after shutdown command")
	}
}

// Shutdown joins every spawned task before Run returns, with no
// goroutines left racing the closed sinks.
func TestShutdownJoinsEverything(t *testing.T) {
	svc, producer := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	commands := make(chan protocol.Command, 4)
	focus := make(chan FocusEvent)
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, commands, focus)
		close(done)
	}()

	sink := testutil.NewTestClient(2)
	spec := devicepipeline.Spec{Name: "dev", StripLength: 2, Sampling: sampler.Horizontal, Gamma: 1}
	commands <- protocol.Command{Kind: protocol.CommandDevices, Devices: []protocol.DeviceInstance{{Spec: spec, Sink: sink}}}
	time.Sleep(20 * time.Millisecond)

	commands <- protocol.Command{Kind: protocol.CommandShutdown}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return; device runner or audio worker leaked")
	}

	if producer.Running() {
		t.Fatal("frame producer still running after shutdown")
	}
}
