package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shadewalk/shadewalk/internal/analysis"
	"github.com/shadewalk/shadewalk/internal/api/models"
	"github.com/shadewalk/shadewalk/internal/api/response"
	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/internal/coolwalk"
	"github.com/shadewalk/shadewalk/internal/pathfind"
	"github.com/shadewalk/shadewalk/internal/routing"
	"github.com/shadewalk/shadewalk/internal/shade"
	"github.com/shadewalk/shadewalk/internal/shadow"
	"github.com/shadewalk/shadewalk/internal/solar"
	"github.com/shadewalk/shadewalk/pkg/geo"
	"github.com/shadewalk/shadewalk/pkg/polyline"
)

// boundsPaddingDeg widens building lookups beyond the route bounding box so
// shadows cast from just outside it are still seen. Roughly 500 m, matching
// the maximum shadow length.
const boundsPaddingDeg = 0.005

var (
	errAlphaMissing  = errors.New("alpha or uvIndex is required")
	errAlphaTooSmall = errors.New("alpha must be at least 1")
)

// BuildingSource provides building footprints for an area.
// *buildings.Service satisfies this.
type BuildingSource interface {
	GetBuildings(ctx context.Context, bounds geo.BoundingBox) (*buildings.Snapshot, error)
}

// DirectionsSource provides candidate walking routes between two points.
// *routing.Service satisfies this.
type DirectionsSource interface {
	GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error)
}

// RouteHandler handles shade analysis, shade-optimal pathfinding and route
// ranking endpoints.
type RouteHandler struct {
	buildings  BuildingSource
	directions DirectionsSource
	analyzer   *analysis.Analyzer
	logger     zerolog.Logger
}

// NewRouteHandler creates a new RouteHandler. directions may be nil, in
// which case clients must supply candidate routes themselves.
func NewRouteHandler(source BuildingSource, directions DirectionsSource, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{
		buildings:  source,
		directions: directions,
		analyzer:   analysis.NewAnalyzer(),
		logger:     logger,
	}
}

// Analyze handles POST /v1/routes:analyze - shade analysis of candidate routes.
func (h *RouteHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var input models.RouteAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	paths, ids, ok := h.resolveCandidates(w, r, input.Routes, input.Origin, input.Destination, input.MaxAlternatives)
	if !ok {
		return
	}

	at := timeOrNow(input.Time)
	bounds := lookupBounds(paths, input.Bounds)

	snap, ok := h.fetchBuildings(w, r, bounds)
	if !ok {
		return
	}

	analyses := make([]*analysis.RouteAnalysis, len(paths))
	results := make([]models.RouteAnalysis, len(paths))
	for i, path := range paths {
		id := ids[i]
		a := h.analyzer.Analyze(id, path, snap.Buildings, at)
		analyses[i] = a
		results[i] = models.RouteAnalysis{
			ID:              id,
			DistanceMeters:  a.DistanceMeters,
			SunMeters:       a.Route.SunMeters(),
			ShadeMeters:     a.Route.ShadeMeters(),
			ShadePercentage: a.ShadePercentage,
			UVExposure:      a.UVExposure,
			IsRecommended:   a.IsRecommended,
			Score:           h.analyzer.RouteScore(a),
		}
	}

	resp := models.RouteAnalyzeResponse{
		GeneratedAt:   models.Timestamp(time.Now()),
		At:            models.Timestamp(at),
		BuildingCount: len(snap.Buildings),
		Analyses:      results,
		BestIndex:     h.analyzer.CompareRoutes(analyses),
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, resp)
}

// ShadePath handles POST /v1/routes:shade-path - shade-optimal pathfinding.
func (h *RouteHandler) ShadePath(w http.ResponseWriter, r *http.Request) {
	var input models.ShadePathRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	origin := geo.Coordinate{Lat: input.Origin.Lat, Lon: input.Origin.Lon}
	dest := geo.Coordinate{Lat: input.Destination.Lat, Lon: input.Destination.Lon}
	var fieldErrs []models.FieldError
	if !origin.Valid() {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "origin", Message: "invalid coordinate"})
	}
	if !dest.Valid() {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "destination", Message: "invalid coordinate"})
	}
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid coordinates", fieldErrs)
		return
	}

	at := timeOrNow(input.Time)
	bounds := lookupBounds([][]geo.Coordinate{{origin, dest}}, nil)

	snap, ok := h.fetchBuildings(w, r, bounds)
	if !ok {
		return
	}

	center := bounds.Center()
	sun := solar.PositionAt(at, center.Lat, center.Lon)

	var field *shade.Field
	if sun.AboveHorizon() {
		field = shade.NewField(shadow.ProjectAll(snap.Buildings, sun, center.Lat))
	} else {
		field = shade.NewField(nil)
	}

	opts := pathfind.Options{PrioritizeShade: true}
	if input.PrioritizeShade != nil {
		opts.PrioritizeShade = *input.PrioritizeShade
	}
	opts.MaxDetourRatio = input.MaxDetourRatio
	if input.MaxIterations != nil {
		opts.MaxIterations = *input.MaxIterations
	}

	finder := pathfind.NewFinder(field, snap.Buildings)
	result := finder.FindPath(origin, dest, opts)

	path := make([]models.Point, len(result.Path))
	for i, c := range result.Path {
		path[i] = models.Point{Lat: c.Lat, Lon: c.Lon}
	}

	resp := models.ShadePathResponse{
		GeneratedAt:      models.Timestamp(time.Now()),
		Path:             path,
		Polyline:         polyline.Encode(result.Path),
		DistanceMeters:   result.DistanceMeters,
		EstimatedMinutes: result.EstimatedMinutes,
		ShadePercent:     result.ShadePercent,
		Fallback:         result.Fallback,
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// Rank handles POST /v1/routes:rank - experienced-length route ranking.
func (h *RouteHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var input models.RouteRankRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	paths, ids, ok := h.resolveCandidates(w, r, input.Routes, input.Origin, input.Destination, input.MaxAlternatives)
	if !ok {
		return
	}

	alpha, err := resolveAlpha(input)
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "alpha", Message: "provide alpha >= 1, or uvIndex to derive it"},
		})
		return
	}

	at := timeOrNow(input.Time)
	bounds := lookupBounds(paths, input.Bounds)

	snap, ok := h.fetchBuildings(w, r, bounds)
	if !ok {
		return
	}

	routes := make([]*coolwalk.Route, len(paths))
	for i, path := range paths {
		a := h.analyzer.Analyze(ids[i], path, snap.Buildings, at)
		routes[i] = a.Route
	}

	optimal := coolwalk.FindOptimal(routes, alpha)
	shortest := shortestRoute(routes)

	rankings := make([]models.RouteRank, len(optimal.Rankings))
	for i, rk := range optimal.Rankings {
		route := routes[rk.RouteIndex]
		rankings[i] = models.RouteRank{
			ID:                ids[rk.RouteIndex],
			RouteIndex:        rk.RouteIndex,
			Rank:              rk.Rank,
			DistanceMeters:    route.TotalMeters(),
			ShadeRatio:        route.ShadeRatio(),
			ExperiencedMeters: rk.ExperiencedMeters,
			WalkabilityScore:  coolwalk.CoolWalkability(route, shortest, alpha).Score,
		}
	}

	resp := models.RouteRankResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		Alpha:       alpha,
		BestIndex:   optimal.BestIndex,
		Rankings:    rankings,
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// fetchBuildings loads footprints for the bounds, writing an error response
// and returning ok=false on failure.
func (h *RouteHandler) fetchBuildings(w http.ResponseWriter, r *http.Request, bounds geo.BoundingBox) (*buildings.Snapshot, bool) {
	snap, err := h.buildings.GetBuildings(r.Context(), bounds)
	if err != nil {
		h.logger.Error().Err(err).Msg("building lookup failed")
		response.ServiceUnavailable(w, r, "building data temporarily unavailable")
		return nil, false
	}
	return snap, true
}

// resolveCandidates returns the candidate paths and their IDs, either from
// the supplied route inputs or from the directions provider. On failure it
// writes the error response and returns ok=false.
func (h *RouteHandler) resolveCandidates(w http.ResponseWriter, r *http.Request,
	inputs []models.RouteInput, origin, dest *models.Point, maxAlternatives *int,
) ([][]geo.Coordinate, []string, bool) {
	if len(inputs) > 0 {
		paths, fieldErrs := decodeRoutes(inputs)
		if len(fieldErrs) > 0 {
			response.BadRequest(w, r, "invalid routes", fieldErrs)
			return nil, nil, false
		}
		return paths, routeIDs(inputs), true
	}

	if origin == nil || dest == nil {
		response.BadRequest(w, r, "no candidate routes", []models.FieldError{
			{Field: "routes", Message: "supply routes, or origin and destination"},
		})
		return nil, nil, false
	}
	if h.directions == nil {
		response.ServiceUnavailable(w, r, "no directions provider configured")
		return nil, nil, false
	}

	req := routing.DirectionsRequest{
		Origin:      geo.Coordinate{Lat: origin.Lat, Lon: origin.Lon},
		Destination: geo.Coordinate{Lat: dest.Lat, Lon: dest.Lon},
	}
	if maxAlternatives != nil {
		req.MaxAlternatives = *maxAlternatives
	}

	dirs, err := h.directions.GetDirections(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrInvalidCoordinates):
			response.BadRequest(w, r, "invalid origin or destination", nil)
		case errors.Is(err, routing.ErrNoRouteFound):
			response.NotFound(w, r, "no route between the given points")
		default:
			h.logger.Error().Err(err).Msg("directions lookup failed")
			response.ServiceUnavailable(w, r, "directions temporarily unavailable")
		}
		return nil, nil, false
	}
	if len(dirs.Routes) == 0 {
		response.NotFound(w, r, "no route between the given points")
		return nil, nil, false
	}

	paths := make([][]geo.Coordinate, len(dirs.Routes))
	ids := make([]string, len(dirs.Routes))
	for i := range dirs.Routes {
		paths[i] = dirs.Routes[i].Geometry()
		ids[i] = "route_" + uuid.New().String()[:12]
	}
	return paths, ids, true
}

// decodeRoutes converts route inputs to coordinate paths.
func decodeRoutes(inputs []models.RouteInput) ([][]geo.Coordinate, []models.FieldError) {
	var errs []models.FieldError
	paths := make([][]geo.Coordinate, len(inputs))
	for i, in := range inputs {
		var coords []geo.Coordinate
		switch {
		case in.Polyline != "":
			coords = polyline.Decode(in.Polyline)
		case len(in.Coordinates) > 0:
			coords = make([]geo.Coordinate, len(in.Coordinates))
			for j, p := range in.Coordinates {
				coords[j] = geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
			}
		}

		if len(coords) < 2 {
			errs = append(errs, models.FieldError{
				Field:   "routes",
				Message: "route needs a polyline or at least two coordinates",
			})
			continue
		}
		for _, c := range coords {
			if !c.Valid() {
				errs = append(errs, models.FieldError{Field: "routes", Message: "coordinate out of range"})
				break
			}
		}
		paths[i] = coords
	}
	return paths, errs
}

// lookupBounds returns the explicit bounds, or the padded bounding box of
// all route coordinates.
func lookupBounds(paths [][]geo.Coordinate, explicit *models.GeoBox) geo.BoundingBox {
	if explicit != nil {
		return geo.BoundingBox{
			MinLat: explicit.MinLat, MaxLat: explicit.MaxLat,
			MinLon: explicit.MinLon, MaxLon: explicit.MaxLon,
		}
	}

	bounds := geo.BoundingBox{MinLat: 90, MaxLat: -90, MinLon: 180, MaxLon: -180}
	for _, path := range paths {
		for _, c := range path {
			if c.Lat < bounds.MinLat {
				bounds.MinLat = c.Lat
			}
			if c.Lat > bounds.MaxLat {
				bounds.MaxLat = c.Lat
			}
			if c.Lon < bounds.MinLon {
				bounds.MinLon = c.Lon
			}
			if c.Lon > bounds.MaxLon {
				bounds.MaxLon = c.Lon
			}
		}
	}
	bounds.MinLat -= boundsPaddingDeg
	bounds.MaxLat += boundsPaddingDeg
	bounds.MinLon -= boundsPaddingDeg
	bounds.MaxLon += boundsPaddingDeg
	return bounds
}

// resolveAlpha returns the explicit alpha or derives one from the UV index
// and skin sensitivity.
func resolveAlpha(input models.RouteRankRequest) (float64, error) {
	if input.Alpha != nil {
		if *input.Alpha < 1 {
			return 0, errAlphaTooSmall
		}
		return *input.Alpha, nil
	}
	if input.UVIndex != nil {
		sensitivity := 3
		if input.SkinSensitivity != nil {
			sensitivity = *input.SkinSensitivity
		}
		return coolwalk.RecommendedAlpha(*input.UVIndex, sensitivity), nil
	}
	return 0, errAlphaMissing
}

// shortestRoute returns the physically shortest route.
func shortestRoute(routes []*coolwalk.Route) *coolwalk.Route {
	shortest := routes[0]
	for _, r := range routes[1:] {
		if r.TotalMeters() < shortest.TotalMeters() {
			shortest = r
		}
	}
	return shortest
}

// routeIDs returns the client-supplied route IDs, generating one for every
// route that arrived without.
func routeIDs(inputs []models.RouteInput) []string {
	ids := make([]string, len(inputs))
	for i, in := range inputs {
		if in.ID != "" {
			ids[i] = in.ID
			continue
		}
		ids[i] = "route_" + uuid.New().String()[:12]
	}
	return ids
}

func timeOrNow(t *models.Timestamp) time.Time {
	if t != nil {
		return t.Time()
	}
	return time.Now()
}
