// Package solar computes the sun's position and rise/set times for a given
// instant and location, using the NOAA declination/hour-angle ephemeris.
// Results are accurate to a fraction of a degree, which is sufficient for
// shadow projection at street scale.
package solar

import (
	"math"
	"time"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi

	// zenithOfficial is the solar zenith angle at official sunrise/sunset,
	// accounting for atmospheric refraction and the solar disc radius.
	zenithOfficial = 90.833
)

// Position represents the sun's position in the sky.
// Azimuth uses compass convention: 0 = north, increasing clockwise.
type Position struct {
	AltitudeRad float64
	AzimuthRad  float64
	AltitudeDeg float64
	AzimuthDeg  float64
}

// AboveHorizon reports whether the sun is above the horizon.
func (p Position) AboveHorizon() bool {
	return p.AltitudeDeg > 0
}

// Times holds the sun event times for a calendar date at a location.
type Times struct {
	Sunrise   time.Time
	Sunset    time.Time
	SolarNoon time.Time

	// PolarDay and PolarNight indicate that the sun never sets or never
	// rises on the given date; Sunrise and Sunset are zero in that case.
	PolarDay   bool
	PolarNight bool
}

// fractionalYear returns the fractional year angle (radians) for the given UTC time.
func fractionalYear(t time.Time) float64 {
	t = t.UTC()
	day := float64(t.YearDay())
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	daysInYear := 365.0
	if isLeapYear(t.Year()) {
		daysInYear = 366.0
	}
	return 2 * math.Pi / daysInYear * (day - 1 + (hour-12)/24)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// equationOfTime returns the equation of time in minutes for the fractional year angle.
func equationOfTime(gamma float64) float64 {
	return 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))
}

// declination returns the solar declination in radians for the fractional year angle.
func declination(gamma float64) float64 {
	return 0.006918 -
		0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)
}

// PositionAt computes the sun's position at the given time and location.
// The computation is purely deterministic; NaN coordinates are a caller bug.
func PositionAt(t time.Time, lat, lon float64) Position {
	t = t.UTC()
	gamma := fractionalYear(t)
	eqTime := equationOfTime(gamma)
	decl := declination(gamma)

	// True solar time in minutes, from UTC clock time plus the longitude
	// and equation-of-time corrections.
	clockMinutes := float64(t.Hour())*60 + float64(t.Minute()) + float64(t.Second())/60
	trueSolarTime := math.Mod(clockMinutes+eqTime+4*lon+1440, 1440)

	// Hour angle in degrees: solar noon = 0, morning negative.
	hourAngle := trueSolarTime/4 - 180
	haRad := hourAngle * degToRad

	latRad := lat * degToRad

	cosZenith := math.Sin(latRad)*math.Sin(decl) +
		math.Cos(latRad)*math.Cos(decl)*math.Cos(haRad)
	cosZenith = clampUnit(cosZenith)
	zenith := math.Acos(cosZenith)

	altitude := math.Pi/2 - zenith

	// Azimuth from north, clockwise.
	azimuth := 0.0
	sinZenith := math.Sin(zenith)
	if sinZenith > 1e-9 {
		cosAz := (math.Sin(decl) - math.Sin(latRad)*cosZenith) /
			(math.Cos(latRad) * sinZenith)
		azimuth = math.Acos(clampUnit(cosAz))
		if hourAngle > 0 {
			azimuth = 2*math.Pi - azimuth
		}
	}

	return Position{
		AltitudeRad: altitude,
		AzimuthRad:  azimuth,
		AltitudeDeg: altitude * radToDeg,
		AzimuthDeg:  azimuth * radToDeg,
	}
}

// TimesFor computes sunrise, sunset and solar noon (UTC) for the calendar
// date of t at the given location.
func TimesFor(t time.Time, lat, lon float64) Times {
	t = t.UTC()
	noonGuess := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	gamma := fractionalYear(noonGuess)
	eqTime := equationOfTime(gamma)
	decl := declination(gamma)

	latRad := lat * degToRad

	// Hour angle of official sunrise/sunset.
	cosHA := math.Cos(zenithOfficial*degToRad)/(math.Cos(latRad)*math.Cos(decl)) -
		math.Tan(latRad)*math.Tan(decl)

	noonMinutes := 720 - 4*lon - eqTime
	result := Times{
		SolarNoon: minutesToTime(t, noonMinutes),
	}

	switch {
	case cosHA < -1:
		result.PolarDay = true
		return result
	case cosHA > 1:
		result.PolarNight = true
		return result
	}

	haDeg := math.Acos(cosHA) * radToDeg
	result.Sunrise = minutesToTime(t, 720-4*(lon+haDeg)-eqTime)
	result.Sunset = minutesToTime(t, 720-4*(lon-haDeg)-eqTime)
	return result
}

// minutesToTime converts minutes past UTC midnight on t's date into a time.
func minutesToTime(t time.Time, minutes float64) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(minutes * float64(time.Minute)))
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
