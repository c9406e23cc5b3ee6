// Package testutil provides helpers for testing device output pipelines:
// byte-buffer comparison and frame-timing analysis shared by the render
// and sink test suites.
package testutil

import (
	"fmt"
	"math"
	"strings"
)

// BufferDiff describes the difference between two device output buffers
// (e.g. two WLED/QMK/Adalight frame payloads of the same device).
type BufferDiff struct {
	Identical      bool
	DifferentBytes int
	TotalBytes     int
	MaxDelta       int
	SumSqDelta     float64
	SizeMismatch   bool
}

// CompareBuffers compares two output buffers byte-for-byte.
func CompareBuffers(expected, actual []byte) *BufferDiff {
	diff := &BufferDiff{TotalBytes: len(expected)}

	if len(expected) != len(actual) {
		diff.SizeMismatch = true
		return diff
	}
	if len(expected) == 0 {
		diff.Identical = true
		return diff
	}

	for i := range expected {
		delta := absDiff(int(expected[i]), int(actual[i]))
		if delta != 0 {
			diff.DifferentBytes++
		}
		if delta > diff.MaxDelta {
			diff.MaxDelta = delta
		}
		diff.SumSqDelta += float64(delta) * float64(delta)
	}

	diff.Identical = diff.DifferentBytes == 0
	return diff
}

// CompareBuffersWithTolerance reports whether every byte of actual is
// within tolerance of the corresponding byte of expected. Useful for
// comparing gamma-corrected or calibrated output where rounding differs
// by at most a few LSBs from a hand-computed expectation.
func CompareBuffersWithTolerance(expected, actual []byte, tolerance int) bool {
	diff := CompareBuffers(expected, actual)
	return !diff.SizeMismatch && diff.MaxDelta <= tolerance
}

// RMS returns the root-mean-square byte delta between two buffers of equal length.
func (d *BufferDiff) RMS() float64 {
	if d.TotalBytes == 0 {
		return 0
	}
	return math.Sqrt(d.SumSqDelta / float64(d.TotalBytes))
}

// BufferToHex renders a buffer as a space-separated hex dump, useful for
// diagnosing wire-protocol mismatches in test failure output.
func BufferToHex(buf []byte) string {
	var sb strings.Builder
	for i, b := range buf {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
