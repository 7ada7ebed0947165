package polyline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadewalk/shadewalk/pkg/geo"
	"github.com/shadewalk/shadewalk/pkg/polyline"
)

// Reference example from the encoded-polyline format documentation.
const referenceEncoded = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var referenceCoords = []geo.Coordinate{
	{Lat: 38.5, Lon: -120.2},
	{Lat: 40.7, Lon: -120.95},
	{Lat: 43.252, Lon: -126.453},
}

func TestDecode_Reference(t *testing.T) {
	coords := polyline.Decode(referenceEncoded)
	require.Len(t, coords, 3)

	for i, expected := range referenceCoords {
		assert.InDelta(t, expected.Lat, coords[i].Lat, 1e-5)
		assert.InDelta(t, expected.Lon, coords[i].Lon, 1e-5)
	}
}

func TestEncode_Reference(t *testing.T) {
	assert.Equal(t, referenceEncoded, polyline.Encode(referenceCoords))
}

func TestRoundTrip(t *testing.T) {
	coords := []geo.Coordinate{
		{Lat: 35.6812, Lon: 139.7671},
		{Lat: 35.6815, Lon: 139.7685},
		{Lat: 35.6809, Lon: 139.7702},
	}

	decoded := polyline.Decode(polyline.Encode(coords))
	require.Len(t, decoded, len(coords))
	for i := range coords {
		assert.InDelta(t, coords[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, coords[i].Lon, decoded[i].Lon, 1e-5)
	}
}

func TestDecode_Empty(t *testing.T) {
	assert.Nil(t, polyline.Decode(""))
	assert.Equal(t, "", polyline.Encode(nil))
}

func TestLength(t *testing.T) {
	// 0.001 degrees of longitude near Tokyo is roughly 90 m.
	coords := []geo.Coordinate{
		{Lat: 35.6812, Lon: 139.7671},
		{Lat: 35.6812, Lon: 139.7681},
	}

	assert.InDelta(t, 90, polyline.Length(coords), 5)
	assert.Zero(t, polyline.Length(coords[:1]))
	assert.Zero(t, polyline.Length(nil))
}

func TestSample_Spacing(t *testing.T) {
	// A straight ~90 m west-east line sampled every 10 m.
	coords := []geo.Coordinate{
		{Lat: 35.6812, Lon: 139.7671},
		{Lat: 35.6812, Lon: 139.7681},
	}

	sampled := polyline.Sample(coords, 10)
	require.GreaterOrEqual(t, len(sampled), 9)

	assert.Equal(t, coords[0], sampled[0])
	assert.Equal(t, coords[1], sampled[len(sampled)-1])

	// Interior samples are evenly spaced at the requested interval.
	for i := 2; i < len(sampled)-1; i++ {
		assert.InDelta(t, 10, geo.Haversine(sampled[i-1], sampled[i]), 0.5)
	}
}

func TestSample_Degenerate(t *testing.T) {
	assert.Nil(t, polyline.Sample(nil, 10))

	coords := []geo.Coordinate{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}
	assert.Equal(t, coords, polyline.Sample(coords, 0))

	// Interval longer than the line collapses to the endpoints.
	short := polyline.Sample(coords, 1e9)
	assert.Equal(t, []geo.Coordinate{coords[0], coords[1]}, short)
}

func TestInterpolate(t *testing.T) {
	a := geo.Coordinate{Lat: 0, Lon: 0}
	b := geo.Coordinate{Lat: 10, Lon: 20}

	mid := polyline.Interpolate(a, b, 0.5)
	assert.InDelta(t, 5.0, mid.Lat, 1e-9)
	assert.InDelta(t, 10.0, mid.Lon, 1e-9)

	assert.Equal(t, a, polyline.Interpolate(a, b, 0))
	assert.Equal(t, b, polyline.Interpolate(a, b, 1))
}
