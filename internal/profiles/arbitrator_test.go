package profiles

import (
	"regexp"
	"testing"
)

func profileWithPriority(id, priority int) ApplicationProfile {
	return ApplicationProfile{ID: id, Priority: priority, TitleRegex: regexp.MustCompile(".*")}
}

// With P1 (priority 1) on monitor 0 and P2 (priority 5) on monitor 1,
// arbitration picks monitor 1/P2; removing P2 switches atomically to
// monitor 0/P1.
func TestArbitrationHighestPriorityWins(t *testing.T) {
	a := NewArbitrator()
	p1 := ActiveProfile{Profile: profileWithPriority(1, 1)}
	p2 := ActiveProfile{Profile: profileWithPriority(2, 5)}

	a.SetActive(0, p1, true)
	a.SetActive(1, p2, true)

	idx, active, ok := a.Highest()
	if !ok || idx != 1 || active.Profile.ID != 2 {
		t.Fatalf("got idx=%d id=%d ok=%v, want idx=1 id=2 ok=true", idx, active.Profile.ID, ok)
	}

	a.SetActive(1, ActiveProfile{}, false)

	idx, active, ok = a.Highest()
	if !ok || idx != 0 || active.Profile.ID != 1 {
		t.Fatalf("got idx=%d id=%d ok=%v, want idx=0 id=1 ok=true", idx, active.Profile.ID, ok)
	}
}

func TestArbitrationTieBreaksByMonitorIndex(t *testing.T) {
	a := NewArbitrator()
	a.SetActive(5, ActiveProfile{Profile: profileWithPriority(1, 3)}, true)
	a.SetActive(2, ActiveProfile{Profile: profileWithPriority(2, 3)}, true)

	idx, _, ok := a.Highest()
	if !ok || idx != 2 {
		t.Fatalf("got idx=%d, want 2 (lowest monitor index wins ties)", idx)
	}
}

func TestArbitrationEmpty(t *testing.T) {
	a := NewArbitrator()
	if _, _, ok := a.Highest(); ok {
		t.Fatal("expected ok=false with no active profiles")
	}
}

func TestMonitorDistanceToPixels(t *testing.T) {
	if got := PixelDistance(10).ToPixels(1920); got != 10 {
		t.Fatalf("pixel distance = %d, want 10", got)
	}
	if got := ProportionDistance(0.5).ToPixels(1920); got != 960 {
		t.Fatalf("proportion distance = %d, want 960", got)
	}
}

func TestProfileResolvePicksResolutionSpecificArea(t *testing.T) {
	p := ApplicationProfile{
		ID:         1,
		TitleRegex: regexp.MustCompile("^Game$"),
		Areas: []MonitorAreaSpec{
			{Direction: DirectionHorizontal, Left: PixelDistance(0), Top: PixelDistance(0), Width: PixelDistance(1920), Height: PixelDistance(1080)},
			{
				Direction:  DirectionHorizontal,
				Resolution: &Resolution{Width: 2560, Height: 1440},
				Left:       PixelDistance(100), Top: PixelDistance(0), Width: PixelDistance(2560), Height: PixelDistance(1440),
			},
		},
	}

	active, ok := Resolve([]ApplicationProfile{p}, "Game", 2560, 1440)
	if !ok {
		t.Fatal("expected match")
	}
	if !active.HasHorizontalRegion || active.HorizontalRegion.Left != 100 {
		t.Fatalf("got region %+v, want the 2560x1440-specific area (left=100)", active.HorizontalRegion)
	}

	active, ok = Resolve([]ApplicationProfile{p}, "Game", 1920, 1080)
	if !ok {
		t.Fatal("expected match")
	}
	if active.HorizontalRegion.Left != 0 {
		t.Fatalf("got region %+v, want the universal area (left=0)", active.HorizontalRegion)
	}
}

func TestProfileResolveNoMatch(t *testing.T) {
	p := ApplicationProfile{TitleRegex: regexp.MustCompile("^Game$")}
	if _, ok := Resolve([]ApplicationProfile{p}, "Notepad", 1920, 1080); ok {
		t.Fatal("expected no match")
	}
}
