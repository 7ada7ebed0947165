// Package uv models UV intensity, dose, and safe exposure for a given UV
// index and Fitzpatrick skin type. Formulas follow the UV-dose literature
// the app's safety guidance is based on; the shade reduction factors are
// tunable policy constants, not physical law.
package uv

import (
	"math"
)

// SkinType is a Fitzpatrick skin phototype.
type SkinType int

const (
	SkinTypeI SkinType = iota + 1
	SkinTypeII
	SkinTypeIII
	SkinTypeIV
	SkinTypeV
	SkinTypeVI
)

// baseMinutes is the safe exposure time at UV index 1 per skin type,
// derived from minimal erythema dose thresholds.
var baseMinutes = map[SkinType]float64{
	SkinTypeI:   67,
	SkinTypeII:  100,
	SkinTypeIII: 200,
	SkinTypeIV:  300,
	SkinTypeV:   400,
	SkinTypeVI:  500,
}

// UnlimitedExposure is the sentinel returned by SafeExposureMinutes when the
// UV index is zero or negative (no meaningful UV load).
const UnlimitedExposure = math.MaxFloat64

// Level is a WHO UV index band.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
	LevelVeryHigh Level = "VERY_HIGH"
	LevelExtreme  Level = "EXTREME"
)

// RiskBand classifies accumulated exposure relative to the safe limit.
type RiskBand string

const (
	RiskNone     RiskBand = "NONE"
	RiskLow      RiskBand = "LOW"
	RiskModerate RiskBand = "MODERATE"
	RiskHigh     RiskBand = "HIGH"
	RiskVeryHigh RiskBand = "VERY_HIGH"
)

// ShadeType identifies what is casting shade, for UV attenuation purposes.
type ShadeType string

const (
	ShadeBuilding ShadeType = "BUILDING"
	ShadeTree     ShadeType = "TREE"
	ShadeAwning   ShadeType = "AWNING"
	ShadeUmbrella ShadeType = "UMBRELLA"
)

// reductionFactors gives the fraction of ambient UV blocked per shade type.
var reductionFactors = map[ShadeType]float64{
	ShadeBuilding: 0.85,
	ShadeTree:     0.50,
	ShadeAwning:   0.70,
	ShadeUmbrella: 0.60,
}

// Intensity converts a UV index to irradiance in W/m² using the empirical
// linear fit 15.1*uvi + 35.5.
func Intensity(uvIndex float64) float64 {
	return 15.1*uvIndex + 35.5
}

// Dose returns the UV dose for an exposure duration in seconds:
// intensity^(4/3) * seconds.
func Dose(uvIndex, exposureSeconds float64) float64 {
	return math.Pow(Intensity(uvIndex), 4.0/3.0) * exposureSeconds
}

// SafeExposureMinutes returns the safe exposure time in minutes for the
// given UV index and skin type. A UV index of zero or below yields the
// UnlimitedExposure sentinel rather than a division error. Unknown skin
// types fall back to the most sensitive type.
func SafeExposureMinutes(uvIndex float64, skin SkinType) float64 {
	if uvIndex <= 0 {
		return UnlimitedExposure
	}
	base, ok := baseMinutes[skin]
	if !ok {
		base = baseMinutes[SkinTypeI]
	}
	return base / uvIndex
}

// Exposure is the result of evaluating accumulated sun exposure.
type Exposure struct {
	IsSafe           bool
	RemainingMinutes float64
	Risk             RiskBand
}

// EvaluateExposure classifies elapsed exposure against the safe limit for
// the given UV index and skin type.
func EvaluateExposure(uvIndex float64, skin SkinType, elapsedMinutes float64) Exposure {
	safe := SafeExposureMinutes(uvIndex, skin)
	if safe == UnlimitedExposure {
		return Exposure{
			IsSafe:           true,
			RemainingMinutes: UnlimitedExposure,
			Risk:             RiskNone,
		}
	}

	ratio := elapsedMinutes / safe
	remaining := safe - elapsedMinutes
	if remaining < 0 {
		remaining = 0
	}

	var risk RiskBand
	switch {
	case ratio < 0.5:
		risk = RiskNone
	case ratio < 0.75:
		risk = RiskLow
	case ratio < 1.0:
		risk = RiskModerate
	case ratio < 1.5:
		risk = RiskHigh
	default:
		risk = RiskVeryHigh
	}

	return Exposure{
		IsSafe:           ratio < 1.0,
		RemainingMinutes: remaining,
		Risk:             risk,
	}
}

// ClassifyLevel maps a UV index to its WHO band.
func ClassifyLevel(uvIndex float64) Level {
	switch {
	case uvIndex <= 2:
		return LevelLow
	case uvIndex <= 5:
		return LevelModerate
	case uvIndex <= 7:
		return LevelHigh
	case uvIndex <= 10:
		return LevelVeryHigh
	default:
		return LevelExtreme
	}
}

// EffectiveIndex returns the UV index experienced along a path where
// shadeRatio of the time is spent under the given shade type:
// shadeRatio*uvi*(1-reduction) + (1-shadeRatio)*uvi.
func EffectiveIndex(uvIndex, shadeRatio float64, shade ShadeType) float64 {
	reduction, ok := reductionFactors[shade]
	if !ok {
		reduction = reductionFactors[ShadeBuilding]
	}
	if shadeRatio < 0 {
		shadeRatio = 0
	}
	if shadeRatio > 1 {
		shadeRatio = 1
	}
	return shadeRatio*uvIndex*(1-reduction) + (1-shadeRatio)*uvIndex
}

// ReductionFactor exposes the per-shade-type UV reduction constant.
func ReductionFactor(shade ShadeType) float64 {
	if r, ok := reductionFactors[shade]; ok {
		return r
	}
	return reductionFactors[ShadeBuilding]
}
