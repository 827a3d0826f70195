package kinematics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	t.Run("zero for identical positions", func(t *testing.T) {
		t.Parallel()
		positions := []Position{
			{},
			{Lat: 10, Lon: 10, Alt: 50},
			{Lat: -33.9, Lon: 151.2, Alt: 120},
		}
		for _, p := range positions {
			assert.Zero(t, Distance(p, p))
		}
	})

	t.Run("pure altitude delta", func(t *testing.T) {
		t.Parallel()
		a := Position{Lat: 10, Lon: 10, Alt: 0}
		b := Position{Lat: 10, Lon: 10, Alt: 50}
		assert.InDelta(t, 50, Distance(a, b), 1e-9)
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		t.Parallel()
		a := Position{Lat: 0, Lon: 0}
		b := Position{Lat: 1, Lon: 0}
		assert.InDelta(t, 111320, Distance(a, b), 1e-6)
	})

	t.Run("longitude scales with latitude magnitude", func(t *testing.T) {
		t.Parallel()
		a := Position{Lat: 10, Lon: 0}
		b := Position{Lat: 10, Lon: 1}
		assert.InDelta(t, 111320*10, Distance(a, b), 1e-6)

		// Southern hemisphere uses |lat|.
		a = Position{Lat: -10, Lon: 0}
		b = Position{Lat: -10, Lon: 1}
		assert.InDelta(t, 111320*10, Distance(a, b), 1e-6)
	})
}

func TestInterpolate(t *testing.T) {
	t.Parallel()

	a := Position{Lat: 10, Lon: 20, Alt: 0}
	b := Position{Lat: 11, Lon: 21, Alt: 100}

	t.Run("endpoints are exact", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, a, Interpolate(a, b, 0))
		assert.Equal(t, b, Interpolate(a, b, 1))
	})

	t.Run("progress is clamped", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, a, Interpolate(a, b, -0.5))
		assert.Equal(t, b, Interpolate(a, b, 1.5))
	})

	t.Run("coordinates are monotonic in progress", func(t *testing.T) {
		t.Parallel()
		prev := a
		for progress := 0.1; progress <= 1.0; progress += 0.1 {
			p := Interpolate(a, b, progress)
			assert.GreaterOrEqual(t, p.Lat, prev.Lat)
			assert.GreaterOrEqual(t, p.Lon, prev.Lon)
			assert.GreaterOrEqual(t, p.Alt, prev.Alt)
			prev = p
		}
	})

	t.Run("midpoint", func(t *testing.T) {
		t.Parallel()
		p := Interpolate(a, b, 0.5)
		assert.InDelta(t, 10.5, p.Lat, 1e-9)
		assert.InDelta(t, 20.5, p.Lon, 1e-9)
		assert.InDelta(t, 50, p.Alt, 1e-9)
	})
}
