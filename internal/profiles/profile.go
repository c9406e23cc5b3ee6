// Package profiles implements application profiles and profile
// arbitration: the window-focus-triggered policy that picks which
// monitor's region to capture and which sampling rects feed the device
// runners. A profile matches focused-window titles by regex and carries
// one or more candidate capture areas, resolved against concrete monitor
// dimensions on demand.
package profiles

import (
	"regexp"

	"github.com/lumos-project/lumos/internal/geom"
)

// Direction selects which sampling orientations a MonitorAreaSpec applies to.
type Direction int

const (
	DirectionHorizontal Direction = iota
	DirectionVertical
	DirectionBoth
)

// MonitorDistance is either an absolute pixel count or a proportion of the
// monitor's total width/height, resolved against concrete monitor
// dimensions by ToPixels.
type MonitorDistance struct {
	IsProportion bool
	Pixels       int
	Proportion   float32 // in [0,1], only meaningful when IsProportion
}

// PixelDistance returns a MonitorDistance expressed as an absolute pixel count.
func PixelDistance(px int) MonitorDistance {
	return MonitorDistance{Pixels: px}
}

// ProportionDistance returns a MonitorDistance expressed as a proportion in [0,1].
func ProportionDistance(p float32) MonitorDistance {
	return MonitorDistance{IsProportion: true, Proportion: p}
}

// ToPixels resolves d against total (the monitor's width or height).
func (d MonitorDistance) ToPixels(total int) int {
	if d.IsProportion {
		return int(d.Proportion * float32(total))
	}
	return d.Pixels
}

// Resolution is an optional monitor-dimension filter on a MonitorAreaSpec.
type Resolution struct {
	Width, Height int
}

// MonitorAreaSpec describes one candidate capture region within a profile,
// optionally restricted to monitors of a specific resolution.
type MonitorAreaSpec struct {
	// Resolution, if non-nil, restricts this area to monitors of exactly
	// this width/height; nil means "valid for all resolutions".
	Resolution               *Resolution
	Direction                Direction
	Left, Top, Width, Height MonitorDistance
}

// AppliesTo reports whether this area may be used for orient.
func (a MonitorAreaSpec) AppliesTo(orient Direction) bool {
	if a.Direction == DirectionBoth {
		return true
	}
	return a.Direction == orient
}

// ToPixels resolves this area to a concrete Rect given the monitor's
// current width/height.
func (a MonitorAreaSpec) ToPixels(monitorWidth, monitorHeight int) geom.Rect {
	return geom.Rect{
		Left:   a.Left.ToPixels(monitorWidth),
		Top:    a.Top.ToPixels(monitorHeight),
		Width:  a.Width.ToPixels(monitorWidth),
		Height: a.Height.ToPixels(monitorHeight),
	}
}

// ApplicationProfile specifies the desktop capture region to use when a
// window matching TitleRegex is focused. Profiles are intended for
// full-screen windows: the profile's static regions, not the window's
// actual position, determine what is captured.
type ApplicationProfile struct {
	ID         int
	Priority   int
	TitleRegex *regexp.Regexp
	Areas      []MonitorAreaSpec
}

// matchArea returns the best area in p.Areas applicable to orient for a
// monitor of the given dimensions: an exact-resolution match wins over a
// universal (resolution-unrestricted) one.
func (p ApplicationProfile) matchArea(orient Direction, monitorWidth, monitorHeight int) (MonitorAreaSpec, bool) {
	var universal MonitorAreaSpec
	haveUniversal := false

	for _, area := range p.Areas {
		if !area.AppliesTo(orient) {
			continue
		}
		if area.Resolution != nil {
			if area.Resolution.Width == monitorWidth && area.Resolution.Height == monitorHeight {
				return area, true
			}
			continue
		}
		universal = area
		haveUniversal = true
	}
	return universal, haveUniversal
}

// MatchHorizontal finds the horizontal-capable area matching a monitor of
// the given dimensions, if any.
func (p ApplicationProfile) MatchHorizontal(monitorWidth, monitorHeight int) (MonitorAreaSpec, bool) {
	return p.matchArea(DirectionHorizontal, monitorWidth, monitorHeight)
}

// MatchVertical finds the vertical-capable area matching a monitor of the
// given dimensions, if any.
func (p ApplicationProfile) MatchVertical(monitorWidth, monitorHeight int) (MonitorAreaSpec, bool) {
	return p.matchArea(DirectionVertical, monitorWidth, monitorHeight)
}

// ActiveProfile pairs a matched ApplicationProfile with its resolved
// sampling Rects for the monitor it is currently active on. Either region
// may be absent if no area in the profile matched that monitor's
// resolution/direction.
type ActiveProfile struct {
	Profile             ApplicationProfile
	HorizontalRegion    geom.Rect
	HasHorizontalRegion bool
	VerticalRegion      geom.Rect
	HasVerticalRegion   bool
}

// Resolve finds the profile whose TitleRegex matches title among
// profiles, and resolves its regions against a monitor of the given
// dimensions. Returns (ActiveProfile{}, false) if no profile matches.
func Resolve(profiles []ApplicationProfile, title string, monitorWidth, monitorHeight int) (ActiveProfile, bool) {
	for _, p := range profiles {
		if !p.TitleRegex.MatchString(title) {
			continue
		}
		active := ActiveProfile{Profile: p}
		if area, ok := p.MatchHorizontal(monitorWidth, monitorHeight); ok {
			active.HorizontalRegion = area.ToPixels(monitorWidth, monitorHeight)
			active.HasHorizontalRegion = true
		}
		if area, ok := p.MatchVertical(monitorWidth, monitorHeight); ok {
			active.VerticalRegion = area.ToPixels(monitorWidth, monitorHeight)
			active.HasVerticalRegion = true
		}
		return active, true
	}
	return ActiveProfile{}, false
}
