package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/shadewalk/shadewalk/internal/api/models"
	"github.com/shadewalk/shadewalk/internal/api/response"
	"github.com/shadewalk/shadewalk/internal/shade"
	"github.com/shadewalk/shadewalk/internal/shadow"
	"github.com/shadewalk/shadewalk/internal/solar"
)

// ShadowHandler handles shadow projection endpoints.
type ShadowHandler struct {
	buildings BuildingSource
	logger    zerolog.Logger
}

// NewShadowHandler creates a new ShadowHandler.
func NewShadowHandler(source BuildingSource, logger zerolog.Logger) *ShadowHandler {
	return &ShadowHandler{buildings: source, logger: logger}
}

// GetShadows handles GET /v1/shadows - shadow polygons for an area.
// Query parameters: minLat, maxLat, minLon, maxLon (required),
// time (RFC 3339, defaults to now).
func (h *ShadowHandler) GetShadows(w http.ResponseWriter, r *http.Request) {
	bounds, fieldErrs := parseBoundsParams(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid bounds", fieldErrs)
		return
	}

	at, err := parseTimeParam(r, "time")
	if err != nil {
		response.BadRequest(w, r, "invalid time", []models.FieldError{
			{Field: "time", Message: "must be RFC 3339"},
		})
		return
	}

	snap, err := h.buildings.GetBuildings(r.Context(), bounds)
	if err != nil {
		h.logger.Error().Err(err).Msg("building lookup failed")
		response.ServiceUnavailable(w, r, "building data temporarily unavailable")
		return
	}

	center := bounds.Center()
	sun := solar.PositionAt(at, center.Lat, center.Lon)

	resp := models.ShadowsResponse{
		Time:           models.Timestamp(at),
		Bounds:         models.GeoBox{MinLat: bounds.MinLat, MinLon: bounds.MinLon, MaxLat: bounds.MaxLat, MaxLon: bounds.MaxLon},
		SunAltitudeDeg: sun.AltitudeDeg,
		SunAzimuthDeg:  sun.AzimuthDeg,
		AboveHorizon:   sun.AboveHorizon(),
		BuildingCount:  len(snap.Buildings),
		Shadows:        []models.ShadowPolygon{},
		Source:         snap.Source,
	}

	if sun.AboveHorizon() {
		polys := shadow.ProjectAll(snap.Buildings, sun, center.Lat)
		field := shade.NewField(polys)
		resp.ShadePercent = field.RegionShadePercent(bounds, shade.DefaultGridResolution)

		resp.Shadows = make([]models.ShadowPolygon, len(polys))
		for i, p := range polys {
			vertices := make([]models.Point, len(p.Vertices))
			for j, v := range p.Vertices {
				vertices[j] = models.Point{Lat: v.Lat, Lon: v.Lon}
			}
			resp.Shadows[i] = models.ShadowPolygon{
				BuildingID: p.BuildingID,
				Vertices:   vertices,
				Opacity:    p.Opacity,
			}
		}
	} else {
		// Nothing casts a shadow without direct sun; the whole area counts
		// as shaded for exposure purposes.
		resp.ShadePercent = 100
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	response.JSON(w, r, http.StatusOK, resp)
}
