package testutil

import (
	"testing"
	"time"

	"github.com/lumos-project/lumos/internal/colorspace"
)

func drawUniform(c *TestClient, col colorspace.RGB) {
	vec := make([]colorspace.RGB, c.Size())
	for i := range vec {
		vec[i] = col
	}
	_ = c.Draw(vec)
}

func TestCalculateTimingStats_NotEnoughFrames(t *testing.T) {
	client := NewTestClient(3)

	stats := client.CalculateTimingStats()
	if stats.FrameCount != 0 {
		t.Errorf("expected 0 frames, got %d", stats.FrameCount)
	}

	drawUniform(client, colorspace.RGB{})
	stats = client.CalculateTimingStats()
	if stats.FrameCount != 1 {
		t.Errorf("expected 1 frame, got %d", stats.FrameCount)
	}
	if len(stats.Intervals) != 0 {
		t.Error("should have no intervals with only 1 frame")
	}
}

func TestCalculateTimingStats_MultipleFrames(t *testing.T) {
	client := NewTestClient(3)

	for i := 0; i < 5; i++ {
		drawUniform(client, colorspace.RGB{})
		time.Sleep(10 * time.Millisecond)
	}

	stats := client.CalculateTimingStats()

	if stats.FrameCount != 5 {
		t.Errorf("expected 5 frames, got %d", stats.FrameCount)
	}
	if len(stats.Intervals) != 4 {
		t.Errorf("expected 4 intervals, got %d", len(stats.Intervals))
	}
	if stats.AvgInterval < 5*time.Millisecond || stats.AvgInterval > 50*time.Millisecond {
		t.Errorf("average interval out of expected range: %v", stats.AvgInterval)
	}
	if stats.AverageFPS <= 0 {
		t.Error("AverageFPS should be positive")
	}
}

func TestVerifyFrameRate(t *testing.T) {
	client := NewTestClient(3)
	for i := 0; i < 10; i++ {
		drawUniform(client, colorspace.RGB{})
		time.Sleep(15 * time.Millisecond)
	}

	if err := client.VerifyFrameRate(15, 50); err != nil {
		t.Errorf("VerifyFrameRate() unexpected error: %v", err)
	}
	if err := client.VerifyFrameRate(1000, 10); err == nil {
		t.Error("VerifyFrameRate() expected error for unreachable rate")
	}
}

func TestVerifyMinimumFrames(t *testing.T) {
	client := NewTestClient(3)
	drawUniform(client, colorspace.RGB{})
	drawUniform(client, colorspace.RGB{})

	if err := client.VerifyMinimumFrames(2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := client.VerifyMinimumFrames(3); err == nil {
		t.Error("expected error when too few frames recorded")
	}
}

func TestWaitForFrames(t *testing.T) {
	client := NewTestClient(3)
	go func() {
		for i := 0; i < 3; i++ {
			time.Sleep(5 * time.Millisecond)
			drawUniform(client, colorspace.RGB{})
		}
	}()

	if err := client.WaitForFrames(3, time.Second); err != nil {
		t.Errorf("WaitForFrames() error: %v", err)
	}
}

func TestWaitForFrames_Timeout(t *testing.T) {
	client := NewTestClient(3)
	if err := client.WaitForFrames(1, 20*time.Millisecond); err == nil {
		t.Error("expected timeout error")
	}
}

func TestWaitForFrameMatching(t *testing.T) {
	client := NewTestClient(3)
	go func() {
		drawUniform(client, colorspace.RGB{})
		time.Sleep(5 * time.Millisecond)
		drawUniform(client, colorspace.RGB{R: 1, G: 1, B: 1})
	}()

	f, err := client.WaitForFrameMatching(func(fr Frame) bool {
		return len(fr.Data) == 3 && fr.Data[0].R == 1
	}, time.Second)
	if err != nil {
		t.Fatalf("WaitForFrameMatching() error: %v", err)
	}
	if f.Data[0].R != 1 {
		t.Errorf("matched wrong frame: %v", f.Data)
	}
}

func TestTimingStats_String(t *testing.T) {
	client := NewTestClient(3)
	for i := 0; i < 3; i++ {
		drawUniform(client, colorspace.RGB{})
		time.Sleep(2 * time.Millisecond)
	}
	s := client.CalculateTimingStats().String()
	if s == "" {
		t.Error("String() returned empty")
	}
}
