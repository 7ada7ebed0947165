package models

// SunResponse is the response for GET /v1/sun.
type SunResponse struct {
	Time     Timestamp `json:"time"`
	Location Point     `json:"location"`

	AltitudeDeg  float64 `json:"altitudeDeg"`
	AzimuthDeg   float64 `json:"azimuthDeg"`
	AboveHorizon bool    `json:"aboveHorizon"`

	// Sunrise, Sunset and SolarNoon are for the calendar date of Time at
	// the location. Sunrise and Sunset are omitted on polar days/nights.
	Sunrise   *Timestamp `json:"sunrise,omitempty"`
	Sunset    *Timestamp `json:"sunset,omitempty"`
	SolarNoon Timestamp  `json:"solarNoon"`

	PolarDay   bool `json:"polarDay,omitempty"`
	PolarNight bool `json:"polarNight,omitempty"`
}

// ShadowsResponse is the response for GET /v1/shadows.
type ShadowsResponse struct {
	Time   Timestamp `json:"time"`
	Bounds GeoBox    `json:"bounds"`

	SunAltitudeDeg float64 `json:"sunAltitudeDeg"`
	SunAzimuthDeg  float64 `json:"sunAzimuthDeg"`
	AboveHorizon   bool    `json:"aboveHorizon"`

	BuildingCount int             `json:"buildingCount"`
	Shadows       []ShadowPolygon `json:"shadows"`
	ShadePercent  float64         `json:"shadePercent"`

	// Source names the building data provider the footprints came from.
	Source string `json:"source"`
}

// ShadowPolygon is one building's projected shadow.
type ShadowPolygon struct {
	BuildingID string  `json:"buildingId"`
	Vertices   []Point `json:"vertices"`
	Opacity    float64 `json:"opacity"`
}

// UVExposureResponse is the response for GET /v1/uv/exposure.
type UVExposureResponse struct {
	UVIndex   float64 `json:"uvIndex"`
	Level     string  `json:"level"`
	Intensity float64 `json:"intensityWm2"`

	SkinType int `json:"skinType"`

	// SafeExposureMinutes is omitted when exposure is unlimited (uvIndex <= 0).
	SafeExposureMinutes *float64 `json:"safeExposureMinutes,omitempty"`

	ElapsedMinutes   float64  `json:"elapsedMinutes"`
	IsSafe           bool     `json:"isSafe"`
	RemainingMinutes *float64 `json:"remainingMinutes,omitempty"`
	Risk             string   `json:"risk"`

	// EffectiveUVIndex is present when shadeRatio was supplied: the index
	// experienced along a path partially under the given shade type.
	ShadeType        string   `json:"shadeType,omitempty"`
	ShadeRatio       *float64 `json:"shadeRatio,omitempty"`
	EffectiveUVIndex *float64 `json:"effectiveUvIndex,omitempty"`
}
