// Package sampler reduces a captured Frame to a fixed-length vector of
// section-mean colors over a rectangular region, oriented horizontally or
// vertically. Sections are independent, so large section counts fan out
// across a worker pool.
package sampler

import (
	"runtime"
	"sync"

	"github.com/lumos-project/lumos/internal/capture"
	"github.com/lumos-project/lumos/internal/colorspace"
	"github.com/lumos-project/lumos/internal/geom"
)

// Orientation selects which axis of region is divided into N sections.
type Orientation int

const (
	// Horizontal divides the region's width into N adjacent column bands,
	// each spanning the region's full height.
	Horizontal Orientation = iota
	// Vertical divides the region's height into N adjacent row bands,
	// each spanning the region's full width.
	Vertical
)

// parallelThreshold is the section count above which Sample fans sections
// out across a worker pool instead of computing them serially in the
// calling goroutine; small N isn't worth the goroutine overhead.
const parallelThreshold = 8

// Sample reduces frame to an n-length slice of per-section mean colors
// over region, oriented per orient. region is divided by frame.Downscaling
// (floor for left/top, integer divide for width/height) and clamped to
// the frame's bounds before sectioning. Returns n copies of fallback when
// the resulting region has no area, and an empty slice when n <= 0.
func Sample(frame capture.Frame, region geom.Rect, n int, orient Orientation, fallback colorspace.RGB) []colorspace.RGB {
	if n <= 0 {
		return []colorspace.RGB{}
	}
	out := make([]colorspace.RGB, n)

	clamped := region.Scale(frame.Downscaling).Clamp(frame.Width, frame.Height)
	if clamped.Empty() {
		for i := range out {
			out[i] = fallback
		}
		return out
	}

	sectionFn := horizontalSection
	if orient == Vertical {
		sectionFn = verticalSection
	}

	if n < parallelThreshold {
		for i := 0; i < n; i++ {
			out[i] = sectionFn(frame, clamped, n, i)
		}
		return out
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	indices := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				out[i] = sectionFn(frame, clamped, n, i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()
	return out
}

// sectionBounds returns the [start, end) offset of section i of n equal
// divisions of a span of length total, using ceil(i*total/n) boundaries
// computed from exact integer ratios so adjacent sections differ in
// width by at most one pixel.
func sectionBounds(total, n, i int) (start, end int) {
	return ceilDiv(i*total, n), ceilDiv((i+1)*total, n)
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func horizontalSection(frame capture.Frame, region geom.Rect, n, i int) colorspace.RGB {
	start, end := sectionBounds(region.Width, n, i)
	left := region.Left + start
	right := region.Left + end
	return meanColor(frame, left, right, region.Top, region.Bottom())
}

func verticalSection(frame capture.Frame, region geom.Rect, n, i int) colorspace.RGB {
	start, end := sectionBounds(region.Height, n, i)
	top := region.Top + start
	bottom := region.Top + end
	return meanColor(frame, region.Left, region.Right(), top, bottom)
}

// meanColor sums pixel values over [left,right) x [top,bottom) using
// float64 accumulators (Frame pixels are already normalized [0,1] per
// colorspace.RGB, so 64-bit floats fill the overflow/precision role a
// 64-bit integer accumulator would over raw byte sums) and divides by the
// pixel count to get the section's mean.
func meanColor(frame capture.Frame, left, right, top, bottom int) colorspace.RGB {
	var sumR, sumG, sumB float64
	var count int64
	for y := top; y < bottom; y++ {
		for x := left; x < right; x++ {
			p := frame.At(x, y)
			sumR += float64(p.R)
			sumG += float64(p.G)
			sumB += float64(p.B)
			count++
		}
	}
	if count == 0 {
		return colorspace.RGB{}
	}
	inv := 1 / float64(count)
	return colorspace.RGB{
		R: float32(sumR * inv),
		G: float32(sumG * inv),
		B: float32(sumB * inv),
	}
}
