package testutil

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// TimingStats provides statistical analysis of recorded frame timing.
type TimingStats struct {
	FrameCount     int
	TotalDuration  time.Duration
	MinInterval    time.Duration
	MaxInterval    time.Duration
	AvgInterval    time.Duration
	MedianInterval time.Duration
	StdDev         time.Duration
	Intervals      []time.Duration

	AverageFPS float64
	MinFPS     float64
	MaxFPS     float64
}

// CalculateTimingStats analyzes the inter-draw timing of a recording sink.
func (c *TestClient) CalculateTimingStats() *TimingStats {
	frames := c.Frames()
	if len(frames) < 2 {
		return &TimingStats{FrameCount: len(frames)}
	}

	stats := &TimingStats{FrameCount: len(frames)}

	intervals := make([]time.Duration, len(frames)-1)
	for i := 1; i < len(frames); i++ {
		intervals[i-1] = frames[i].Timestamp.Sub(frames[i-1].Timestamp)
	}
	stats.Intervals = intervals
	stats.TotalDuration = frames[len(frames)-1].Timestamp.Sub(frames[0].Timestamp)

	stats.MinInterval = intervals[0]
	stats.MaxInterval = intervals[0]
	var totalNanos int64
	for _, interval := range intervals {
		if interval < stats.MinInterval {
			stats.MinInterval = interval
		}
		if interval > stats.MaxInterval {
			stats.MaxInterval = interval
		}
		totalNanos += interval.Nanoseconds()
	}
	stats.AvgInterval = time.Duration(totalNanos / int64(len(intervals)))

	sortedIntervals := make([]time.Duration, len(intervals))
	copy(sortedIntervals, intervals)
	sort.Slice(sortedIntervals, func(i, j int) bool { return sortedIntervals[i] < sortedIntervals[j] })

	mid := len(sortedIntervals) / 2
	if len(sortedIntervals)%2 == 0 {
		stats.MedianInterval = (sortedIntervals[mid-1] + sortedIntervals[mid]) / 2
	} else {
		stats.MedianInterval = sortedIntervals[mid]
	}

	var varianceSum float64
	avgNanos := float64(stats.AvgInterval.Nanoseconds())
	for _, interval := range intervals {
		diff := float64(interval.Nanoseconds()) - avgNanos
		varianceSum += diff * diff
	}
	variance := varianceSum / float64(len(intervals))
	stats.StdDev = time.Duration(math.Sqrt(variance))

	if stats.AvgInterval > 0 {
		stats.AverageFPS = float64(time.Second) / float64(stats.AvgInterval)
	}
	if stats.MaxInterval > 0 {
		stats.MinFPS = float64(time.Second) / float64(stats.MaxInterval)
	}
	if stats.MinInterval > 0 {
		stats.MaxFPS = float64(time.Second) / float64(stats.MinInterval)
	}

	return stats
}

// VerifyFrameRate checks that the average draw rate is within tolerancePercent of expectedIntervalMs.
func (c *TestClient) VerifyFrameRate(expectedIntervalMs int, tolerancePercent float64) error {
	stats := c.CalculateTimingStats()
	if stats.FrameCount < 2 {
		return fmt.Errorf("not enough frames to calculate frame rate (have %d)", stats.FrameCount)
	}

	expectedInterval := time.Duration(expectedIntervalMs) * time.Millisecond
	tolerance := time.Duration(float64(expectedInterval) * tolerancePercent / 100)

	minAcceptable := expectedInterval - tolerance
	maxAcceptable := expectedInterval + tolerance

	if stats.AvgInterval < minAcceptable || stats.AvgInterval > maxAcceptable {
		return fmt.Errorf(
			"frame rate out of bounds: expected %v (±%.0f%%), got avg=%v (min=%v, max=%v)",
			expectedInterval, tolerancePercent, stats.AvgInterval, stats.MinInterval, stats.MaxInterval,
		)
	}
	return nil
}

// VerifyMinimumFrames checks that at least minFrames draws were recorded.
func (c *TestClient) VerifyMinimumFrames(minFrames int) error {
	if count := c.FrameCount(); count < minFrames {
		return fmt.Errorf("expected at least %d frames, got %d", minFrames, count)
	}
	return nil
}

// WaitForFrames blocks until count draws have been recorded or timeout elapses.
func (c *TestClient) WaitForFrames(count int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.FrameCount() >= count {
			return nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for %d frames (got %d)", count, c.FrameCount())
}

// WaitForFrameMatching blocks until a recorded frame satisfies predicate or timeout elapses.
func (c *TestClient) WaitForFrameMatching(predicate func(Frame) bool, timeout time.Duration) (*Frame, error) {
	deadline := time.Now().Add(timeout)
	lastChecked := 0

	for time.Now().Before(deadline) {
		frames := c.Frames()
		for i := lastChecked; i < len(frames); i++ {
			if predicate(frames[i]) {
				return &frames[i], nil
			}
		}
		lastChecked = len(frames)
		time.Sleep(5 * time.Millisecond)
	}
	return nil, fmt.Errorf("timeout waiting for matching frame")
}

// String returns a human-readable summary of timing stats.
func (s *TimingStats) String() string {
	return fmt.Sprintf(
		"Frames: %d, Duration: %v, Avg: %v (%.1f FPS), Min: %v, Max: %v, StdDev: %v",
		s.FrameCount, s.TotalDuration, s.AvgInterval, s.AverageFPS,
		s.MinInterval, s.MaxInterval, s.StdDev,
	)
}
