package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shadewalk/shadewalk/internal/api/models"
	"github.com/shadewalk/shadewalk/internal/api/response"
	"github.com/shadewalk/shadewalk/internal/solar"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

// SunHandler handles solar position endpoints.
type SunHandler struct{}

// NewSunHandler creates a new SunHandler.
func NewSunHandler() *SunHandler {
	return &SunHandler{}
}

// GetSun handles GET /v1/sun - solar position and sun times for a location.
// Query parameters: lat, lon (required), time (RFC 3339, defaults to now).
func (h *SunHandler) GetSun(w http.ResponseWriter, r *http.Request) {
	lat, lon, fieldErrs := parseLatLon(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid location", fieldErrs)
		return
	}

	at, err := parseTimeParam(r, "time")
	if err != nil {
		response.BadRequest(w, r, "invalid time", []models.FieldError{
			{Field: "time", Message: "must be RFC 3339"},
		})
		return
	}

	pos := solar.PositionAt(at, lat, lon)
	times := solar.TimesFor(at, lat, lon)

	resp := models.SunResponse{
		Time:         models.Timestamp(at),
		Location:     models.Point{Lat: lat, Lon: lon},
		AltitudeDeg:  pos.AltitudeDeg,
		AzimuthDeg:   pos.AzimuthDeg,
		AboveHorizon: pos.AboveHorizon(),
		SolarNoon:    models.Timestamp(times.SolarNoon),
		PolarDay:     times.PolarDay,
		PolarNight:   times.PolarNight,
	}
	if !times.Sunrise.IsZero() {
		t := models.Timestamp(times.Sunrise)
		resp.Sunrise = &t
	}
	if !times.Sunset.IsZero() {
		t := models.Timestamp(times.Sunset)
		resp.Sunset = &t
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	response.JSON(w, r, http.StatusOK, resp)
}

// parseLatLon parses the required lat and lon query parameters.
func parseLatLon(r *http.Request) (lat, lon float64, errs []models.FieldError) {
	var err error
	lat, err = strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		errs = append(errs, models.FieldError{Field: "lat", Message: "must be a number in [-90, 90]"})
	}
	lon, err = strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		errs = append(errs, models.FieldError{Field: "lon", Message: "must be a number in [-180, 180]"})
	}
	return lat, lon, errs
}

// parseTimeParam parses an optional RFC 3339 time query parameter,
// defaulting to now.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(time.RFC3339, raw)
}

// parseBoundsParams parses minLat, maxLat, minLon, maxLon query parameters.
func parseBoundsParams(r *http.Request) (geo.BoundingBox, []models.FieldError) {
	var (
		bounds geo.BoundingBox
		errs   []models.FieldError
	)
	parse := func(name string, dst *float64) {
		v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
		if err != nil {
			errs = append(errs, models.FieldError{Field: name, Message: "must be a number"})
			return
		}
		*dst = v
	}
	parse("minLat", &bounds.MinLat)
	parse("maxLat", &bounds.MaxLat)
	parse("minLon", &bounds.MinLon)
	parse("maxLon", &bounds.MaxLon)

	if len(errs) == 0 && (bounds.MinLat >= bounds.MaxLat || bounds.MinLon >= bounds.MaxLon) {
		errs = append(errs, models.FieldError{Field: "bounds", Message: "min must be less than max"})
	}
	return bounds, errs
}
