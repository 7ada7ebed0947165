// Package overpass provides a client for the OpenStreetMap Overpass API,
// used to fetch building footprints for shadow projection.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/internal/provider/resilience"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

const (
	// ProviderName identifies this building data provider.
	ProviderName = "overpass"

	// DefaultBaseURL is the public Overpass API endpoint.
	DefaultBaseURL = "https://overpass-api.de"

	// DefaultTimeout is the default request timeout. Overpass queries are
	// slow; footprint extraction over a district takes seconds.
	DefaultTimeout = 30 * time.Second

	// metersPerLevel converts OSM building:levels to a height estimate.
	metersPerLevel = 3.0
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Overpass client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public instance).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 30s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Overpass API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Overpass client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchBuildings retrieves the building footprints inside the bounding box.
func (c *Client) FetchBuildings(ctx context.Context, bounds geo.BoundingBox) (*buildings.Snapshot, error) {
	if bounds.MinLat > bounds.MaxLat || bounds.MinLon > bounds.MaxLon {
		return nil, buildings.ErrInvalidBounds
	}

	// Overpass bbox order is (south, west, north, east).
	query := fmt.Sprintf(
		`[out:json][timeout:25];way["building"](%f,%f,%f,%f);out geom;`,
		bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon,
	)

	form := url.Values{"data": {query}}
	endpoint := c.baseURL + "/api/interpreter"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug().
		Float64("min_lat", bounds.MinLat).
		Float64("max_lat", bounds.MaxLat).
		Float64("min_lon", bounds.MinLon).
		Float64("max_lon", bounds.MaxLon).
		Msg("querying overpass for building footprints")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", buildings.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: overpass returned status %d",
			buildings.ErrProviderUnavailable, resp.StatusCode)
	}

	var overpassResp overpassResponse
	if err := json.Unmarshal(body, &overpassResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	snapshot := c.toSnapshot(&overpassResp, bounds)

	c.logger.Debug().
		Int("building_count", len(snapshot.Buildings)).
		Msg("received building footprints from overpass")

	return snapshot, nil
}

// toSnapshot converts an Overpass response to the domain model.
func (c *Client) toSnapshot(resp *overpassResponse, bounds geo.BoundingBox) *buildings.Snapshot {
	result := make([]*buildings.Building, 0, len(resp.Elements))

	for i := range resp.Elements {
		el := &resp.Elements[i]
		if el.Type != "way" || len(el.Geometry) < 3 {
			continue
		}

		footprint := make([]geo.Coordinate, 0, len(el.Geometry))
		for _, p := range el.Geometry {
			footprint = append(footprint, geo.Coordinate{Lat: p.Lat, Lon: p.Lon})
		}
		// OSM ways representing areas repeat the first node at the end.
		if len(footprint) > 1 && footprint[0] == footprint[len(footprint)-1] {
			footprint = footprint[:len(footprint)-1]
		}
		if len(footprint) < 3 {
			continue
		}

		result = append(result, &buildings.Building{
			ID:           "way/" + strconv.FormatInt(el.ID, 10),
			Footprint:    footprint,
			HeightMeters: heightFromTags(el.Tags),
		})
	}

	return &buildings.Snapshot{
		Buildings: result,
		Bounds:    bounds,
		Source:    ProviderName,
		FetchedAt: time.Now(),
	}
}

// heightFromTags derives a building height from OSM tags: an explicit
// height, then building:levels, then the default.
func heightFromTags(tags map[string]string) float64 {
	if raw, ok := tags["height"]; ok {
		if h, err := parseMeters(raw); err == nil && h > 0 {
			return h
		}
	}
	if raw, ok := tags["building:levels"]; ok {
		if levels, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && levels > 0 {
			return levels * metersPerLevel
		}
	}
	return buildings.DefaultHeightMeters
}

// parseMeters parses an OSM height value, tolerating a trailing unit
// ("12", "12 m", "12m").
func parseMeters(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "m")
	s = strings.TrimSpace(s)
	return strconv.ParseFloat(s, 64)
}

// overpassResponse is the Overpass JSON output.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags,omitempty"`
	Geometry []overpassPoint   `json:"geometry,omitempty"`
}

type overpassPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
