package metadata

import (
	"testing"

	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatitudeDMS(t *testing.T) {
	dms := Coordinate{Latitude: 42.12345}.LatitudeDMS()

	assert.Equal(t, 42.0, dms.Degrees)
	assert.Equal(t, 7.0, dms.Minutes)
	assert.InDelta(t, 24.42, dms.Seconds, 1e-9)
	assert.Equal(t, "N", dms.Ref)
	assert.InDelta(t, 42.12345, dms.Decimal(), 1e-5)
}

func TestHemisphereReferences(t *testing.T) {
	tests := []struct {
		name           string
		coord          Coordinate
		latRef, lngRef string
	}{
		{"north west", Coordinate{40, -73}, "N", "W"},
		{"south east", Coordinate{-33.86, 151.2}, "S", "E"},
		{"origin", Coordinate{0, 0}, "N", "E"},
		{"south on the meridian", Coordinate{-10.0, 0}, "S", "E"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.latRef, tt.coord.LatitudeDMS().Ref)
			assert.Equal(t, tt.lngRef, tt.coord.LongitudeDMS().Ref)
		})
	}
}

func TestSouthernLatitudeMagnitude(t *testing.T) {
	dms := Coordinate{Latitude: -10.0}.LatitudeDMS()

	assert.Equal(t, "S", dms.Ref)
	assert.Equal(t, 10.0, dms.Degrees)
	assert.Zero(t, dms.Minutes)
	assert.Zero(t, dms.Seconds)
	assert.Equal(t, -10.0, dms.Decimal())
}

func TestRoundTrip(t *testing.T) {
	for _, v := range []float64{42.12345, -73.98765, 0.00001, 179.99999, -89.5} {
		c := Coordinate{Latitude: v / 2, Longitude: v}
		assert.InDelta(t, v/2, c.LatitudeDMS().Decimal(), 1e-5, "lat %v", v/2)
		assert.InDelta(t, v, c.LongitudeDMS().Decimal(), 1e-5, "lng %v", v)
	}
}

func TestSecondsCarry(t *testing.T) {
	dms := Coordinate{Latitude: 10.9999999999}.LatitudeDMS()
	assert.Equal(t, 11.0, dms.Degrees)
	assert.Equal(t, 0.0, dms.Minutes)
	assert.Equal(t, 0.0, dms.Seconds)
}

func TestRationals(t *testing.T) {
	rationals, err := Coordinate{Latitude: 42.12345}.LatitudeDMS().Rationals()
	require.NoError(t, err)

	assert.Equal(t, []exifcommon.Rational{
		{Numerator: 42, Denominator: 1},
		{Numerator: 7, Denominator: 1},
		{Numerator: 1221, Denominator: 50},
	}, rationals)
	assert.InDelta(t, 24.42, RationalValue(rationals[2]), 1e-12)
	assert.Equal(t, 0.0, RationalValue(exifcommon.Rational{}))
}

func TestToRationalRejectsNegative(t *testing.T) {
	_, err := ToRational(-1)
	assert.Error(t, err)
}

func TestCoordinateValidate(t *testing.T) {
	assert.NoError(t, Coordinate{40, -73}.Validate())
	assert.Error(t, Coordinate{91, 0}.Validate())
	assert.Error(t, Coordinate{0, -181}.Validate())
}
