package buildings

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shadewalk/shadewalk/pkg/geo"
)

// GeoJSON feature collections are how municipal building datasets (PLATEAU
// exports, city open-data portals) arrive. Only Polygon and MultiPolygon
// geometries carry footprints; everything else is skipped.

type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Type       string          `json:"type"`
	ID         any             `json:"id,omitempty"`
	Properties map[string]any  `json:"properties"`
	Geometry   geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// heightProperties are checked in order. Different exports name the measured
// building height differently.
var heightProperties = []string{"height", "building_height", "measuredHeight"}

// ParseGeoJSON parses a GeoJSON FeatureCollection into buildings. Features
// without a recognized height property get DefaultHeightMeters. MultiPolygon
// features are split into one building per polygon. Features with degenerate
// footprints (fewer than 3 distinct vertices) are dropped.
func ParseGeoJSON(data []byte) ([]*Building, error) {
	var collection geoJSONCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	if collection.Type != "FeatureCollection" {
		return nil, fmt.Errorf("parse geojson: expected FeatureCollection, got %q", collection.Type)
	}

	var out []*Building
	for i, feature := range collection.Features {
		id := featureID(feature, i)
		height := featureHeight(feature.Properties)

		switch feature.Geometry.Type {
		case "Polygon":
			var rings [][][]float64
			if err := json.Unmarshal(feature.Geometry.Coordinates, &rings); err != nil {
				return nil, fmt.Errorf("parse geojson: feature %s: %w", id, err)
			}
			if b := buildingFromRings(id, rings, height); b != nil {
				out = append(out, b)
			}

		case "MultiPolygon":
			var polys [][][][]float64
			if err := json.Unmarshal(feature.Geometry.Coordinates, &polys); err != nil {
				return nil, fmt.Errorf("parse geojson: feature %s: %w", id, err)
			}
			for p, rings := range polys {
				partID := id
				if len(polys) > 1 {
					partID = fmt.Sprintf("%s/%d", id, p)
				}
				if b := buildingFromRings(partID, rings, height); b != nil {
					out = append(out, b)
				}
			}

		default:
			// Points, lines and null geometries carry no footprint.
		}
	}

	return out, nil
}

// buildingFromRings converts a polygon's rings to a building using the outer
// ring only. Holes (courtyards) do not change a shadow's outline enough to
// matter at walking scale.
func buildingFromRings(id string, rings [][][]float64, height float64) *Building {
	if len(rings) == 0 {
		return nil
	}
	outer := rings[0]

	footprint := make([]geo.Coordinate, 0, len(outer))
	for _, pos := range outer {
		if len(pos) < 2 {
			continue
		}
		// GeoJSON positions are [lon, lat]
		footprint = append(footprint, geo.Coordinate{Lat: pos[1], Lon: pos[0]})
	}

	// Drop the closing vertex; the ring closure is implied.
	if len(footprint) > 1 && footprint[0] == footprint[len(footprint)-1] {
		footprint = footprint[:len(footprint)-1]
	}

	if len(footprint) < 3 {
		return nil
	}

	return &Building{
		ID:           id,
		Footprint:    footprint,
		HeightMeters: height,
	}
}

// featureHeight extracts the building height from feature properties,
// falling back to DefaultHeightMeters.
func featureHeight(props map[string]any) float64 {
	for _, key := range heightProperties {
		v, ok := props[key]
		if !ok {
			continue
		}
		if h, ok := toFloat(v); ok && h > 0 {
			return h
		}
	}
	return DefaultHeightMeters
}

// featureID picks a stable identifier for the feature.
func featureID(feature geoJSONFeature, index int) string {
	if feature.ID != nil {
		switch v := feature.ID.(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	if v, ok := feature.Properties["id"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if v, ok := feature.Properties["gml_id"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("feature-%d", index)
}

// toFloat handles the property value types JSON decoding can produce. Some
// exports write heights as strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
