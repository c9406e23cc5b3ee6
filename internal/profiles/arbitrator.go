package profiles

import "sort"

// Arbitrator tracks which ActiveProfile, if any, is active per monitor and
// picks the single highest-priority one across all monitors. Priority ties
// are broken by ascending monitor index so repeated evaluations of the
// same state always pick the same winner.
type Arbitrator struct {
	active map[int]ActiveProfile
}

// NewArbitrator creates an empty Arbitrator.
func NewArbitrator() *Arbitrator {
	return &Arbitrator{active: make(map[int]ActiveProfile)}
}

// SetActive records the active profile for monitorIndex, or clears it when
// active is (ActiveProfile{}, false).
func (a *Arbitrator) SetActive(monitorIndex int, active ActiveProfile, ok bool) {
	if !ok {
		delete(a.active, monitorIndex)
		return
	}
	a.active[monitorIndex] = active
}

// Highest returns the monitor index and ActiveProfile with the greatest
// Priority across every monitor currently holding an active profile. Ties
// are broken by ascending monitor index. Returns ok=false if no monitor
// currently has an active profile.
func (a *Arbitrator) Highest() (monitorIndex int, profile ActiveProfile, ok bool) {
	if len(a.active) == 0 {
		return 0, ActiveProfile{}, false
	}

	indices := make([]int, 0, len(a.active))
	for idx := range a.active {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	best := indices[0]
	for _, idx := range indices[1:] {
		if a.active[idx].Profile.Priority > a.active[best].Profile.Priority {
			best = idx
		}
	}
	return best, a.active[best], true
}
