package models

// RouteInput is one candidate walking route supplied by the client, either
// as an encoded polyline or as an explicit coordinate list.
type RouteInput struct {
	ID          string  `json:"id,omitempty"`
	Polyline    string  `json:"polyline,omitempty"`
	Coordinates []Point `json:"coordinates,omitempty"`
}

// RouteAnalyzeRequest is the request body for POST /v1/routes:analyze.
// Candidate routes are either supplied in Routes or, when Routes is empty,
// fetched from the configured directions provider between Origin and
// Destination.
type RouteAnalyzeRequest struct {
	Routes []RouteInput `json:"routes,omitempty"`

	Origin      *Point `json:"origin,omitempty"`
	Destination *Point `json:"destination,omitempty"`

	// MaxAlternatives is the number of alternative routes to request from
	// the directions provider on top of the primary one.
	MaxAlternatives *int `json:"maxAlternatives,omitempty"`

	// Time of the walk. Defaults to now.
	Time *Timestamp `json:"time,omitempty"`

	// Bounds for the building lookup. Defaults to the routes' bounding box
	// with a margin for shadows cast from outside it.
	Bounds *GeoBox `json:"bounds,omitempty"`
}

// RouteAnalyzeResponse is the response for POST /v1/routes:analyze.
type RouteAnalyzeResponse struct {
	GeneratedAt   Timestamp       `json:"generatedAt"`
	At            Timestamp       `json:"at"`
	BuildingCount int             `json:"buildingCount"`
	Analyses      []RouteAnalysis `json:"analyses"`
	BestIndex     int             `json:"bestIndex"`
}

// RouteAnalysis is the shade evaluation of one route.
type RouteAnalysis struct {
	ID              string  `json:"id"`
	DistanceMeters  float64 `json:"distanceMeters"`
	SunMeters       float64 `json:"sunMeters"`
	ShadeMeters     float64 `json:"shadeMeters"`
	ShadePercentage float64 `json:"shadePercentage"`
	UVExposure      float64 `json:"uvExposure"`
	IsRecommended   bool    `json:"isRecommended"`
	Score           float64 `json:"score"`
}

// ShadePathRequest is the request body for POST /v1/routes:shade-path.
type ShadePathRequest struct {
	Origin      Point `json:"origin"`
	Destination Point `json:"destination"`

	// Time of the walk. Defaults to now.
	Time *Timestamp `json:"time,omitempty"`

	// PrioritizeShade halves the traversal cost of shaded cells.
	// Defaults to true.
	PrioritizeShade *bool `json:"prioritizeShade,omitempty"`

	MaxDetourRatio *float64 `json:"maxDetourRatio,omitempty"`
	MaxIterations  *int     `json:"maxIterations,omitempty"`
}

// ShadePathResponse is the response for POST /v1/routes:shade-path.
type ShadePathResponse struct {
	GeneratedAt      Timestamp `json:"generatedAt"`
	Path             []Point   `json:"path"`
	Polyline         string    `json:"polyline"`
	DistanceMeters   float64   `json:"distanceMeters"`
	EstimatedMinutes float64   `json:"estimatedMinutes"`
	ShadePercent     float64   `json:"shadePercent"`

	// Fallback is true when the search budget was exhausted and the path
	// is a straight-line interpolation.
	Fallback bool `json:"fallback"`
}

// RouteRankRequest is the request body for POST /v1/routes:rank.
// Candidate routes follow the same rules as RouteAnalyzeRequest.
type RouteRankRequest struct {
	Routes []RouteInput `json:"routes,omitempty"`

	Origin          *Point `json:"origin,omitempty"`
	Destination     *Point `json:"destination,omitempty"`
	MaxAlternatives *int   `json:"maxAlternatives,omitempty"`

	Time   *Timestamp `json:"time,omitempty"`
	Bounds *GeoBox    `json:"bounds,omitempty"`

	// Alpha is the sun aversion factor: meters walked in sun count as
	// alpha experienced meters. When absent it is derived from UVIndex
	// and SkinSensitivity.
	Alpha *float64 `json:"alpha,omitempty"`

	UVIndex         *float64 `json:"uvIndex,omitempty"`
	SkinSensitivity *int     `json:"skinSensitivity,omitempty"`
}

// RouteRankResponse is the response for POST /v1/routes:rank.
type RouteRankResponse struct {
	GeneratedAt Timestamp   `json:"generatedAt"`
	Alpha       float64     `json:"alpha"`
	BestIndex   int         `json:"bestIndex"`
	Rankings    []RouteRank `json:"rankings"`
}

// RouteRank is one route's position in the experienced-length ranking.
type RouteRank struct {
	ID                string  `json:"id"`
	RouteIndex        int     `json:"routeIndex"`
	Rank              int     `json:"rank"`
	DistanceMeters    float64 `json:"distanceMeters"`
	ShadeRatio        float64 `json:"shadeRatio"`
	ExperiencedMeters float64 `json:"experiencedMeters"`

	// WalkabilityScore compares this route against the shortest candidate.
	WalkabilityScore float64 `json:"walkabilityScore"`
}
