package overpass

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadewalk/shadewalk/internal/buildings"
	"github.com/shadewalk/shadewalk/pkg/geo"
)

const overpassFixture = `{
  "version": 0.6,
  "elements": [
    {
      "type": "way",
      "id": 123456,
      "tags": {"building": "yes", "height": "42.5 m"},
      "geometry": [
        {"lat": 35.6810, "lon": 139.7670},
        {"lat": 35.6810, "lon": 139.7674},
        {"lat": 35.6814, "lon": 139.7674},
        {"lat": 35.6814, "lon": 139.7670},
        {"lat": 35.6810, "lon": 139.7670}
      ]
    },
    {
      "type": "way",
      "id": 123457,
      "tags": {"building": "apartments", "building:levels": "8"},
      "geometry": [
        {"lat": 35.6820, "lon": 139.7670},
        {"lat": 35.6820, "lon": 139.7674},
        {"lat": 35.6824, "lon": 139.7674},
        {"lat": 35.6820, "lon": 139.7670}
      ]
    },
    {
      "type": "way",
      "id": 123458,
      "tags": {"building": "yes"},
      "geometry": [
        {"lat": 35.6830, "lon": 139.7670},
        {"lat": 35.6830, "lon": 139.7674},
        {"lat": 35.6834, "lon": 139.7674}
      ]
    },
    {
      "type": "node",
      "id": 999,
      "tags": {"entrance": "yes"}
    }
  ]
}`

func testBounds() geo.BoundingBox {
	return geo.BoundingBox{MinLat: 35.678, MaxLat: 35.684, MinLon: 139.764, MaxLon: 139.770}
}

func TestClient_FetchBuildings_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/interpreter" {
			t.Errorf("expected /api/interpreter, got %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		query := r.PostForm.Get("data")
		assert.Contains(t, query, `way["building"]`)
		assert.Contains(t, query, "35.678000,139.764000,35.684000,139.770000")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(overpassFixture))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	snap, err := client.FetchBuildings(context.Background(), testBounds())
	require.NoError(t, err)

	assert.Equal(t, ProviderName, snap.Source)
	require.Len(t, snap.Buildings, 3)

	// Explicit height tag with a unit suffix.
	first := snap.Buildings[0]
	assert.Equal(t, "way/123456", first.ID)
	assert.InDelta(t, 42.5, first.HeightMeters, 1e-9)
	// Repeated closing node dropped.
	assert.Len(t, first.Footprint, 4)

	// Height derived from building:levels.
	assert.InDelta(t, 24.0, snap.Buildings[1].HeightMeters, 1e-9)

	// No height data at all: default.
	assert.InDelta(t, buildings.DefaultHeightMeters, snap.Buildings[2].HeightMeters, 1e-9)
}

func TestClient_FetchBuildings_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	_, err := client.FetchBuildings(context.Background(), testBounds())
	assert.ErrorIs(t, err, buildings.ErrProviderUnavailable)
}

type failingDoer struct{}

func (failingDoer) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("network error")
}

func TestClient_FetchBuildings_NetworkError(t *testing.T) {
	client := NewClient(ClientConfig{
		HTTPClient: failingDoer{},
		Logger:     zerolog.Nop(),
	})

	_, err := client.FetchBuildings(context.Background(), testBounds())
	assert.ErrorIs(t, err, buildings.ErrProviderUnavailable)
}

func TestClient_FetchBuildings_InvalidBounds(t *testing.T) {
	client := NewClient(ClientConfig{
		HTTPClient: failingDoer{},
		Logger:     zerolog.Nop(),
	})

	_, err := client.FetchBuildings(context.Background(), geo.BoundingBox{
		MinLat: 36, MaxLat: 35, MinLon: 139, MaxLon: 140,
	})
	assert.ErrorIs(t, err, buildings.ErrInvalidBounds)
}

func TestHeightFromTags(t *testing.T) {
	tests := []struct {
		name     string
		tags     map[string]string
		expected float64
	}{
		{"plain meters", map[string]string{"height": "12"}, 12},
		{"meters with unit", map[string]string{"height": "12 m"}, 12},
		{"levels", map[string]string{"building:levels": "5"}, 15},
		{"height wins over levels", map[string]string{"height": "40", "building:levels": "5"}, 40},
		{"garbage height falls through to levels", map[string]string{"height": "tall", "building:levels": "2"}, 6},
		{"no data", map[string]string{"building": "yes"}, buildings.DefaultHeightMeters},
		{"nil tags", nil, buildings.DefaultHeightMeters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, heightFromTags(tt.tags), 1e-9)
		})
	}
}
