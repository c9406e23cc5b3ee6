// Package tray provides an optional system tray icon for lumosd, showing
// render service status and offering a quick way to trigger shutdown.
package tray

import (
	"fmt"
	"log"
	"os/exec"
	"reflect"
	"runtime"

	"github.com/getlantern/systray"
)

// Manager owns the system tray icon and menu for the render service.
type Manager struct {
	controlURL string

	onExit func()

	menuStatus *systray.MenuItem
	menuOpen   *systray.MenuItem
	menuExit   *systray.MenuItem

	readyChan chan struct{}
}

// NewManager creates a tray manager. controlURL is opened by the "Open
// control panel" menu item (the control-plane websocket endpoint's http
// origin, e.g. "http://127.0.0.1:9901"); it may be empty to hide that item.
func NewManager(controlURL string, onExit func()) *Manager {
	return &Manager{
		controlURL: controlURL,
		onExit:     onExit,
		readyChan:  make(chan struct{}),
	}
}

// Run starts the system tray and blocks until Quit is called.
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onQuit)
}

func (m *Manager) onReady() {
	systray.SetIcon(getIcon())
	systray.SetTitle("Lumos")
	systray.SetTooltip("Lumos ambient render service")

	m.menuStatus = systray.AddMenuItem("No devices active", "Current render status")
	m.menuStatus.Disable()
	systray.AddSeparator()

	if m.controlURL != "" {
		m.menuOpen = systray.AddMenuItem("Open Control Panel", "Open the control-plane endpoint in a browser")
	}
	m.menuExit = systray.AddMenuItem("Exit", "Stop the render service")

	close(m.readyChan)
	go m.handleMenuClicks()
}

func (m *Manager) onQuit() {
	if m.onExit != nil {
		m.onExit()
	}
}

func (m *Manager) handleMenuClicks() {
	cases := make([]reflect.SelectCase, 0, 2)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(m.menuExit.ClickedCh)})
	if m.menuOpen != nil {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(m.menuOpen.ClickedCh)})
	}

	for {
		chosen, _, _ := reflect.Select(cases)
		switch chosen {
		case 0:
			systray.Quit()
			return
		case 1:
			if err := openBrowser(m.controlURL); err != nil {
				log.Printf("tray: failed to open control panel: %v", err)
			}
		}
	}
}

// UpdateStatus refreshes the disabled status line, e.g.
// "3/5 devices active, CPU 4.2%, mem 61%".
func (m *Manager) UpdateStatus(activeDevices, totalDevices int, cpuPercent, memPercent float64) {
	if m.menuStatus == nil {
		return
	}
	m.menuStatus.SetTitle(fmt.Sprintf("%d/%d devices active, CPU %.1f%%, mem %.0f%%", activeDevices, totalDevices, cpuPercent, memPercent))
}

// Quit stops the system tray.
func (m *Manager) Quit() {
	systray.Quit()
}

// WaitReady blocks until the tray menu has been constructed.
func (m *Manager) WaitReady() {
	<-m.readyChan
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// getIcon returns the tray icon bytes. lumosd ships without a bundled icon
// asset; an empty slice falls back to the platform default tray glyph.
func getIcon() []byte {
	return []byte{}
}
