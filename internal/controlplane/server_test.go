package controlplane

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/lumos-project/lumos/internal/protocol"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := NewServer(0)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s, fmt.Sprintf("ws://%s", s.Addr().String())
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func TestServer_DeliversParsedCommands(t *testing.T) {
	s, url := startTestServer(t)
	conn := dial(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"subject":"audio-devices","contents":["Speakers"]}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case cmd := <-s.Commands():
		if cmd.Kind != protocol.CommandAudioDevices {
			t.Fatalf("Kind = %v, want CommandAudioDevices", cmd.Kind)
		}
		if len(cmd.AudioDevices) != 1 || cmd.AudioDevices[0] != "Speakers" {
			t.Fatalf("AudioDevices = %v", cmd.AudioDevices)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no command delivered")
	}
}

// A malformed message is logged and dropped; the connection stays open and
// later messages still go through.
func TestServer_MalformedMessageDoesNotKillConnection(t *testing.T) {
	s, url := startTestServer(t)
	conn := dial(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{not json`)); err != nil {
		t.Fatalf("Write malformed: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"subject":"shutdown"}`)); err != nil {
		t.Fatalf("Write shutdown: %v", err)
	}

	select {
	case cmd := <-s.Commands():
		if cmd.Kind != protocol.CommandShutdown {
			t.Fatalf("Kind = %v, want CommandShutdown", cmd.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown command never delivered")
	}
}

func TestServer_StopClosesCommands(t *testing.T) {
	s, _ := startTestServer(t)
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case _, ok := <-s.Commands():
		if ok {
			t.Fatal("expected Commands to be closed after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("Commands not closed after Stop")
	}

	// Stop is idempotent.
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
