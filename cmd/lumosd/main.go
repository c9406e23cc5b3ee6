// Command lumosd is the render service process: it wires the
// control-plane websocket server to a render.Service and runs until a
// shutdown command or Ctrl-C.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	stubcapture "github.com/lumos-project/lumos/internal/capture/stub"
	"github.com/lumos-project/lumos/internal/controlplane"
	"github.com/lumos-project/lumos/internal/geom"
	"github.com/lumos-project/lumos/internal/metrics"
	"github.com/lumos-project/lumos/internal/render"
	"github.com/lumos-project/lumos/internal/tray"
)

func main() {
	port := flag.Int("port", controlplane.DefaultPort, "control-plane websocket port")
	monitorsFlag := flag.String("monitors", "0:1920x1080", "comma-separated monitor list as index:WIDTHxHEIGHT")
	defaultHorFlag := flag.String("default-hor-region", "0,0,1920,1080", "default horizontal sampling region as left,top,width,height")
	defaultVerFlag := flag.String("default-ver-region", "0,0,1920,1080", "default vertical sampling region as left,top,width,height")
	noTray := flag.Bool("no-tray", false, "disable the system tray icon")
	flag.Parse()

	setupLogging()

	log.Println("========================================")
	log.Println("lumos render service starting")
	log.Printf("control plane: ws://127.0.0.1:%d", *port)
	log.Println("========================================")

	monitors, err := parseMonitors(*monitorsFlag)
	if err != nil {
		log.Fatalf("invalid -monitors: %v", err)
	}
	defaultHor, err := parseRect(*defaultHorFlag)
	if err != nil {
		log.Fatalf("invalid -default-hor-region: %v", err)
	}
	defaultVer, err := parseRect(*defaultVerFlag)
	if err != nil {
		log.Fatalf("invalid -default-ver-region: %v", err)
	}

	// The platform frame grabber is an external collaborator out of scope
	// for this repository: lumosd wires a no-op stub here so the render
	// pipeline and control plane run end to end, but every device runner
	// sees EventStopped (and draws fallback colors) until a real
	// capture.FrameProducer is substituted.
	frames := stubcapture.New()

	svc := render.NewService(frames, monitors, defaultHor, defaultVer)

	server := controlplane.NewServer(*port)
	if err := server.Start(); err != nil {
		log.Fatalf("failed to start control plane: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// The window-focus notifier is likewise an external collaborator;
	// lumosd has no source of focus events wired in, so profiles never
	// activate on their own until one is plugged in here.
	focusEvents := make(chan render.FocusEvent)

	serviceDone := make(chan struct{})
	go func() {
		svc.Run(ctx, server.Commands(), focusEvents)
		close(serviceDone)
	}()

	trayQuit := make(chan struct{})
	var trayMgr *tray.Manager
	if !*noTray {
		trayMgr = startTray(svc, *port, trayQuit)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		log.Println("received interrupt, shutting down...")
	case <-trayQuit:
		log.Println("tray exit requested, shutting down...")
	case <-serviceDone:
		log.Println("render service stopped")
	}

	cancel()
	<-serviceDone

	if err := server.Stop(); err != nil {
		log.Printf("error stopping control plane: %v", err)
	}
	if trayMgr != nil {
		trayMgr.Quit()
	}

	log.Println("lumos render service stopped")
}

// startTray wires a tray.Manager whose status line is refreshed from the
// render service's device count and the host's CPU/memory usage.
// Choosing "Exit" from the tray menu signals quit rather than exiting the
// process directly, so the caller can still shut down the control plane
// and render service gracefully.
func startTray(svc *render.Service, port int, quit chan<- struct{}) *tray.Manager {
	controlURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	mgr := tray.NewManager(controlURL, func() {
		close(quit)
	})

	cpu := metrics.NewGopsutilCPU()
	mem := metrics.NewGopsutilMemory()
	go func() {
		mgr.WaitReady()
		tray.ShowNotification("Lumos", "Render service running")
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			percent, err := cpu.Percent(0, false)
			cpuPercent := 0.0
			if err == nil && len(percent) > 0 {
				cpuPercent = percent[0]
			}
			memPercent, err := mem.UsedPercent()
			if err != nil {
				memPercent = 0
			}
			deviceCount := svc.Status()
			mgr.UpdateStatus(deviceCount, deviceCount, cpuPercent, memPercent)
		}
	}()
	go mgr.Run()
	return mgr
}

// setupLogging points the standard logger at stdout. NO_COLOR is
// honored trivially: this binary never emits ANSI color codes in the
// first place.
func setupLogging() {
	_ = os.Getenv("NO_COLOR")
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime)
}

// parseMonitors parses "idx:WIDTHxHEIGHT[,idx:WIDTHxHEIGHT...]" into a
// monitor map, standing in until a real display-enumeration collaborator
// is wired in.
func parseMonitors(s string) (map[int]render.MonitorInfo, error) {
	out := make(map[int]render.MonitorInfo)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idxPart, dims, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q: expected idx:WIDTHxHEIGHT", entry)
		}
		idx, err := strconv.Atoi(idxPart)
		if err != nil {
			return nil, fmt.Errorf("entry %q: invalid monitor index: %w", entry, err)
		}
		widthPart, heightPart, ok := strings.Cut(dims, "x")
		if !ok {
			return nil, fmt.Errorf("entry %q: expected WIDTHxHEIGHT", entry)
		}
		width, err := strconv.Atoi(widthPart)
		if err != nil {
			return nil, fmt.Errorf("entry %q: invalid width: %w", entry, err)
		}
		height, err := strconv.Atoi(heightPart)
		if err != nil {
			return nil, fmt.Errorf("entry %q: invalid height: %w", entry, err)
		}
		out[idx] = render.MonitorInfo{Width: width, Height: height}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no monitors configured")
	}
	return out, nil
}

// parseRect parses "left,top,width,height" into a geom.Rect.
func parseRect(s string) (geom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rect{}, fmt.Errorf("expected left,top,width,height, got %q", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geom.Rect{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = v
	}
	return geom.Rect{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]}, nil
}
