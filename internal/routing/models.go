// Package routing retrieves candidate walking routes from external
// directions providers. The engine never computes street-network routes
// itself; it asks a provider for alternatives and evaluates their shade.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/shadewalk/shadewalk/pkg/geo"
	"github.com/shadewalk/shadewalk/pkg/polyline"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for walking-directions providers.
type Provider interface {
	// GetDirections retrieves walking routes between two points.
	// Returns multiple route alternatives when available.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// DirectionsRequest is the request for candidate walking routes.
type DirectionsRequest struct {
	Origin      geo.Coordinate
	Destination geo.Coordinate

	// MaxAlternatives is the number of alternative routes to request on top
	// of the primary one (default: 2). More alternatives give the shade
	// ranker more to choose from.
	MaxAlternatives int
}

// DirectionsResponse is the response containing route alternatives.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is a single candidate route as returned by the provider, before any
// shade evaluation.
type Route struct {
	GeometryPolyline string // Encoded polyline (precision 5)
	DistanceMeters   int
	DurationSeconds  int
	Summary          string
	BoundingBox      *geo.BoundingBox
	Instructions     []Instruction
}

// Geometry decodes the route's polyline into coordinates.
func (r *Route) Geometry() []geo.Coordinate {
	return polyline.Decode(r.GeometryPolyline)
}

// Instruction is a turn-by-turn instruction.
type Instruction struct {
	Text           string
	DistanceMeters int
	DurationSecs   int
	Type           int // provider-specific instruction type code
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
