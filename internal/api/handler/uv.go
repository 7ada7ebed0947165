package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shadewalk/shadewalk/internal/api/models"
	"github.com/shadewalk/shadewalk/internal/api/response"
	"github.com/shadewalk/shadewalk/internal/uv"
)

// UVHandler handles UV exposure endpoints.
type UVHandler struct{}

// NewUVHandler creates a new UVHandler.
func NewUVHandler() *UVHandler {
	return &UVHandler{}
}

// GetExposure handles GET /v1/uv/exposure - safe exposure evaluation.
// Query parameters: uvIndex (required), skinType (1-6, default 3),
// elapsedMinutes (default 0), shadeType, shadeRatio (0-1).
func (h *UVHandler) GetExposure(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	uvIndex, err := strconv.ParseFloat(q.Get("uvIndex"), 64)
	if err != nil {
		response.BadRequest(w, r, "invalid uvIndex", []models.FieldError{
			{Field: "uvIndex", Message: "must be a number"},
		})
		return
	}

	skinType := 3
	if raw := q.Get("skinType"); raw != "" {
		skinType, err = strconv.Atoi(raw)
		if err != nil || skinType < 1 || skinType > 6 {
			response.BadRequest(w, r, "invalid skinType", []models.FieldError{
				{Field: "skinType", Message: "must be an integer in [1, 6]"},
			})
			return
		}
	}

	elapsed := 0.0
	if raw := q.Get("elapsedMinutes"); raw != "" {
		elapsed, err = strconv.ParseFloat(raw, 64)
		if err != nil || elapsed < 0 {
			response.BadRequest(w, r, "invalid elapsedMinutes", []models.FieldError{
				{Field: "elapsedMinutes", Message: "must be a non-negative number"},
			})
			return
		}
	}

	skin := uv.SkinType(skinType)
	exposure := uv.EvaluateExposure(uvIndex, skin, elapsed)

	resp := models.UVExposureResponse{
		UVIndex:        uvIndex,
		Level:          string(uv.ClassifyLevel(uvIndex)),
		Intensity:      uv.Intensity(uvIndex),
		SkinType:       skinType,
		ElapsedMinutes: elapsed,
		IsSafe:         exposure.IsSafe,
		Risk:           string(exposure.Risk),
	}

	if safe := uv.SafeExposureMinutes(uvIndex, skin); safe != uv.UnlimitedExposure {
		resp.SafeExposureMinutes = &safe
		remaining := exposure.RemainingMinutes
		resp.RemainingMinutes = &remaining
	}

	if raw := q.Get("shadeRatio"); raw != "" {
		ratio, err := strconv.ParseFloat(raw, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			response.BadRequest(w, r, "invalid shadeRatio", []models.FieldError{
				{Field: "shadeRatio", Message: "must be a number in [0, 1]"},
			})
			return
		}
		shadeType := parseShadeType(q.Get("shadeType"))
		effective := uv.EffectiveIndex(uvIndex, ratio, shadeType)

		resp.ShadeType = string(shadeType)
		resp.ShadeRatio = &ratio
		resp.EffectiveUVIndex = &effective
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, resp)
}

// parseShadeType maps a query value to a shade type, defaulting to building
// shade.
func parseShadeType(raw string) uv.ShadeType {
	switch strings.ToUpper(raw) {
	case string(uv.ShadeTree):
		return uv.ShadeTree
	case string(uv.ShadeAwning):
		return uv.ShadeAwning
	case string(uv.ShadeUmbrella):
		return uv.ShadeUmbrella
	default:
		return uv.ShadeBuilding
	}
}
