package metadata

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// Coordinate is a signed decimal-degree position
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// DMS is one axis of a coordinate in degrees, minutes and seconds. Ref is
// the hemisphere letter: N or S for latitude, E or W for longitude.
type DMS struct {
	Degrees float64
	Minutes float64
	Seconds float64
	Ref     string
}

// secondsScale fixes seconds to five decimal places
const secondsScale = 1e5

// LatitudeDMS converts the latitude axis
func (c Coordinate) LatitudeDMS() DMS {
	return toDMS(c.Latitude, "N", "S")
}

// LongitudeDMS converts the longitude axis
func (c Coordinate) LongitudeDMS() DMS {
	return toDMS(c.Longitude, "E", "W")
}

// Validate rejects positions outside the valid latitude and longitude ranges
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
	}
	return nil
}

// toDMS truncates degrees and minutes and rounds seconds to five decimals.
// A rounding carry into 60 seconds is folded back into minutes and degrees.
func toDMS(value float64, positive, negative string) DMS {
	ref := positive
	if value < 0 {
		ref = negative
	}

	abs := math.Abs(value)
	deg := math.Trunc(abs)
	rem := (abs - deg) * 60
	min := math.Trunc(rem)
	sec := math.Round((rem-min)*60*secondsScale) / secondsScale

	if sec >= 60 {
		sec -= 60
		min++
	}
	if min >= 60 {
		min -= 60
		deg++
	}

	return DMS{Degrees: deg, Minutes: min, Seconds: sec, Ref: ref}
}

// Decimal converts back to signed decimal degrees
func (d DMS) Decimal() float64 {
	v := d.Degrees + d.Minutes/60 + d.Seconds/3600
	if d.Ref == "S" || d.Ref == "W" {
		return -v
	}
	return v
}

// Rationals expresses each component as an exact unsigned rational, the
// form EXIF stores GPS positions in.
func (d DMS) Rationals() ([]exifcommon.Rational, error) {
	out := make([]exifcommon.Rational, 0, 3)
	for _, part := range []float64{d.Degrees, d.Minutes, d.Seconds} {
		r, err := ToRational(part)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ToRational converts the shortest decimal representation of x into a
// reduced fraction.
func ToRational(x float64) (exifcommon.Rational, error) {
	if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return exifcommon.Rational{}, fmt.Errorf("cannot express %v as an unsigned rational", x)
	}

	r, ok := new(big.Rat).SetString(strconv.FormatFloat(x, 'f', -1, 64))
	if !ok {
		return exifcommon.Rational{}, fmt.Errorf("invalid number %v", x)
	}

	num, den := r.Num(), r.Denom()
	if !num.IsUint64() || !den.IsUint64() || num.Uint64() > math.MaxUint32 || den.Uint64() > math.MaxUint32 {
		return exifcommon.Rational{}, fmt.Errorf("rational %s overflows 32 bits", r.String())
	}
	return exifcommon.Rational{Numerator: uint32(num.Uint64()), Denominator: uint32(den.Uint64())}, nil
}

// RationalValue returns the float value of r
func RationalValue(r exifcommon.Rational) float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}
