package qibla

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name        string
		lat, lng    float64
		wantBearing float64
		wantDistKm  float64
	}{
		// Reference values from published qibla tables, within half a degree.
		{name: "London", lat: 51.5074, lng: -0.1278, wantBearing: 118.99, wantDistKm: 4790},
		{name: "New York", lat: 40.7128, lng: -74.0060, wantBearing: 58.48, wantDistKm: 10300},
		{name: "Jakarta", lat: -6.2088, lng: 106.8456, wantBearing: 295.15, wantDistKm: 7920},
		{name: "Cairo", lat: 30.0444, lng: 31.2357, wantBearing: 136.14, wantDistKm: 1290},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Compute(tt.lat, tt.lng)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantBearing, d.Bearing, 0.5)
			assert.InDelta(t, tt.wantDistKm, d.DistanceKm, tt.wantDistKm*0.02)
			assert.GreaterOrEqual(t, d.Bearing, 0.0)
			assert.Less(t, d.Bearing, 360.0)
		})
	}
}

func TestCompute_AtKaaba(t *testing.T) {
	d, err := Compute(KaabaLatitude, KaabaLongitude)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.Bearing)
	assert.Equal(t, 0.0, d.DistanceKm)
}

func TestCompute_DueDirections(t *testing.T) {
	// Same meridian, south of the Kaaba: straight north.
	d, err := Compute(0, KaabaLongitude)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d.Bearing, 1e-6)

	// Same meridian, north of the Kaaba: straight south.
	d, err = Compute(60, KaabaLongitude)
	require.NoError(t, err)
	assert.InDelta(t, 180.0, d.Bearing, 1e-6)
}

func TestCompute_InvalidCoordinates(t *testing.T) {
	cases := [][2]float64{
		{91, 0}, {-90.5, 0}, {0, 181}, {0, -180.01},
		{math.NaN(), 0}, {0, math.Inf(1)},
	}
	for _, c := range cases {
		_, err := Compute(c[0], c[1])
		assert.ErrorIs(t, err, ErrInvalidCoordinates, "lat=%v lng=%v", c[0], c[1])
	}
}

func TestCompute_Boundaries(t *testing.T) {
	for _, c := range [][2]float64{{90, 0}, {-90, 0}, {0, 180}, {0, -180}} {
		_, err := Compute(c[0], c[1])
		assert.NoError(t, err)
	}
}
