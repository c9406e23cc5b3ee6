package tray

import "testing"

func TestNewManager(t *testing.T) {
	exitCalled := false
	m := NewManager("http://127.0.0.1:9901", func() { exitCalled = true })

	if m == nil {
		t.Fatal("NewManager() returned nil")
	}
	if m.controlURL != "http://127.0.0.1:9901" {
		t.Errorf("controlURL = %s, want http://127.0.0.1:9901", m.controlURL)
	}

	m.onExit()
	if !exitCalled {
		t.Error("onExit callback was not called")
	}
}

func TestNewManager_NilExit(t *testing.T) {
	m := NewManager("", nil)
	m.onQuit() // must not panic with nil onExit
}

func TestUpdateStatus_BeforeReady(t *testing.T) {
	m := NewManager("", nil)
	// menuStatus is nil until onReady runs; UpdateStatus must be a no-op, not a panic.
	m.UpdateStatus(2, 5, 12.5, 40)
}

func TestGetIcon(t *testing.T) {
	if icon := getIcon(); icon == nil {
		t.Error("getIcon() should never return nil")
	}
}
