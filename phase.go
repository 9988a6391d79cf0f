package galactic

import "strings"

// Phase identifies one named point in a processing pass where phase-aware
// modules may execute. Phases are single bits so they compose into a
// PhaseSet.
type Phase uint8

const (
	// PhaseHalo runs once per processing unit against the central entity.
	PhaseHalo Phase = 1 << iota
	// PhaseGalaxy runs once per entity, iterated by the driver.
	PhaseGalaxy
	// PhasePost runs after all per-entity work of a pass.
	PhasePost
	// PhaseFinal runs once before the context is discarded.
	PhaseFinal
)

// AllPhases is the set of every defined phase.
const AllPhases = PhaseSet(PhaseHalo | PhaseGalaxy | PhasePost | PhaseFinal)

// String returns the conventional upper-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseHalo:
		return "HALO"
	case PhaseGalaxy:
		return "GALAXY"
	case PhasePost:
		return "POST"
	case PhaseFinal:
		return "FINAL"
	default:
		return "INVALID"
	}
}

// valid reports whether p is exactly one defined phase bit.
func (p Phase) valid() bool {
	switch p {
	case PhaseHalo, PhaseGalaxy, PhasePost, PhaseFinal:
		return true
	}
	return false
}

// PhaseSet is a bitmask of phases a module declares support for.
type PhaseSet uint8

// Has reports whether the set contains phase p.
func (s PhaseSet) Has(p Phase) bool {
	return s&PhaseSet(p) != 0
}

// IsEmpty reports whether no phase bit is set.
func (s PhaseSet) IsEmpty() bool {
	return s&AllPhases == 0
}

// String lists the contained phases, pipe-separated.
func (s PhaseSet) String() string {
	if s.IsEmpty() {
		return "NONE"
	}
	var names []string
	for _, p := range []Phase{PhaseHalo, PhaseGalaxy, PhasePost, PhaseFinal} {
		if s.Has(p) {
			names = append(names, p.String())
		}
	}
	return strings.Join(names, "|")
}

// phaseCapability reports whether module m implements the capability
// interface matching phase p. The Registry rejects modules whose declared
// phase set is wider than their implemented capabilities.
func phaseCapability(m Module, p Phase) bool {
	switch p {
	case PhaseHalo:
		_, ok := m.(HaloProcessor)
		return ok
	case PhaseGalaxy:
		_, ok := m.(GalaxyProcessor)
		return ok
	case PhasePost:
		_, ok := m.(PostProcessor)
		return ok
	case PhaseFinal:
		_, ok := m.(FinalProcessor)
		return ok
	}
	return false
}
