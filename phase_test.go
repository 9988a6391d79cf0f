package galactic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseStrings(t *testing.T) {
	assert.Equal(t, "HALO", PhaseHalo.String())
	assert.Equal(t, "GALAXY", PhaseGalaxy.String())
	assert.Equal(t, "POST", PhasePost.String())
	assert.Equal(t, "FINAL", PhaseFinal.String())
	assert.Equal(t, "INVALID", Phase(0).String())
	assert.Equal(t, "INVALID", (PhaseHalo | PhaseGalaxy).String())
}

func TestPhaseSet(t *testing.T) {
	s := PhaseSet(PhaseHalo | PhaseFinal)
	assert.True(t, s.Has(PhaseHalo))
	assert.True(t, s.Has(PhaseFinal))
	assert.False(t, s.Has(PhaseGalaxy))
	assert.False(t, s.IsEmpty())
	assert.Equal(t, "HALO|FINAL", s.String())

	assert.True(t, PhaseSet(0).IsEmpty())
	assert.Equal(t, "NONE", PhaseSet(0).String())
	assert.Equal(t, "HALO|GALAXY|POST|FINAL", AllPhases.String())
}
