package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	// Bucharest Piata Unirii to Cluj-Napoca city centre, roughly 324 km
	d := DistanceKm(44.4268, 26.1025, 46.7712, 23.6236)
	assert.InDelta(t, 324, d, 5)

	assert.InDelta(t, 0, DistanceKm(52.3676, 4.9041, 52.3676, 4.9041), 1e-9)
}

func TestWithinRadius(t *testing.T) {
	// two points about 1.1 km apart along a meridian
	assert.True(t, WithinRadius(44.4268, 26.1025, 2, 44.4368, 26.1025))
	assert.False(t, WithinRadius(44.4268, 26.1025, 1, 44.4368, 26.1025))
}
