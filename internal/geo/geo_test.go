package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLambert72_CentralMeridian(t *testing.T) {
	p := lambert72.project(radians(50.5), radians(lambertLon0))
	assert.InDelta(t, lambertX0, p[0], 1e-6)

	phi, lambda := lambert72.unproject(p)
	assert.InDelta(t, 50.5, degrees(phi), 1e-9)
	assert.InDelta(t, lambertLon0, degrees(lambda), 1e-9)
}

func TestToWGS84_Gent(t *testing.T) {
	// the default box lies over the centre of Gent
	ll := ToWGS84(orb.Point{104843.5303, 193922.9061})

	assert.InDelta(t, 51.05, ll.Lat, 0.05)
	assert.InDelta(t, 3.72, ll.Lon, 0.05)
}

func TestRoundTrip(t *testing.T) {
	points := []orb.Point{
		{104843.5303, 193922.9061},
		{150000, 170000},
		{250000, 60000},
		{30000, 210000},
	}
	for _, p := range points {
		back := FromWGS84(ToWGS84(p))
		assert.InDelta(t, p[0], back[0], 0.01)
		assert.InDelta(t, p[1], back[1], 0.01)
	}
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("102843.5303, 191922.9061,106843.5303,195922.9061")
	require.NoError(t, err)
	assert.Equal(t, DefaultBBox, b)

	_, err = ParseBBox("1,2,3")
	assert.Error(t, err)

	_, err = ParseBBox("1,2,x,4")
	assert.Error(t, err)

	_, err = ParseBBox("10,0,5,20")
	assert.Error(t, err)
}

func TestBBox_Contains(t *testing.T) {
	assert.True(t, DefaultBBox.Contains(orb.Point{104000, 192000}))
	assert.True(t, DefaultBBox.Contains(orb.Point{DefaultBBox.Left, DefaultBBox.Top}))
	assert.False(t, DefaultBBox.Contains(orb.Point{101000, 192000}))
}

func TestBBox_WGS84Corners(t *testing.T) {
	from, to := DefaultBBox.WGS84()

	assert.Less(t, from.Lat, to.Lat)
	assert.Less(t, from.Lon, to.Lon)
	assert.InDelta(t, 0.036, to.Lat-from.Lat, 0.005)
}
