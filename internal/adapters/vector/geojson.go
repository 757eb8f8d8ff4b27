// Package vector provides labeled-geometry readers for vector files.
package vector

import (
	"context"
	"math"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/geolearn/terrasample/internal/domain"
)

// GeoJSONReader implements the VectorReader port for GeoJSON
// FeatureCollection files.
type GeoJSONReader struct {
	srid int
}

// NewGeoJSONReader creates a GeoJSON reader. GeoJSON coordinates are WGS84
// per RFC 7946; srid overrides that for pre-projected files and 0 keeps
// the default.
func NewGeoJSONReader(srid int) *GeoJSONReader {
	if srid == 0 {
		srid = domain.SRIDWGS84
	}
	return &GeoJSONReader{srid: srid}
}

// Read loads all labeled geometries from a GeoJSON file.
func (r *GeoJSONReader) Read(_ context.Context, path string, labelField string) ([]domain.LabeledGeometry, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is a caller-controlled input file
	if err != nil {
		return nil, &domain.VectorError{Path: path, Err: err}
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &domain.VectorError{Path: path, Err: err}
	}

	geometries := make([]domain.LabeledGeometry, 0, len(fc.Features))
	for i, feature := range fc.Features {
		label, err := labelFromProperties(feature.Properties, labelField, i)
		if err != nil {
			return nil, err
		}

		geom, err := convertGeometry(feature.Geometry, label, r.srid)
		if err != nil {
			return nil, &domain.VectorError{Path: path, Err: err}
		}
		geometries = append(geometries, geom)
	}

	return geometries, nil
}

// labelFromProperties extracts an integer class label from a GeoJSON
// property map. JSON numbers decode as float64; a fractional value or a
// non-numeric string is a configuration error.
func labelFromProperties(props geojson.Properties, field string, index int) (int, error) {
	raw, ok := props[field]
	if !ok {
		return 0, &domain.ConfigError{
			Field:   "label_field",
			Message: "feature " + strconv.Itoa(index) + " has no property " + field,
		}
	}

	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, &domain.ConfigError{
				Field:   "label_field",
				Message: "label " + strconv.FormatFloat(v, 'g', -1, 64) + " is not an integer",
			}
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, &domain.ConfigError{
				Field:   "label_field",
				Message: "label " + strconv.Quote(v) + " is not an integer",
			}
		}
		return n, nil
	default:
		return 0, &domain.ConfigError{
			Field:   "label_field",
			Message: "label has unsupported type",
		}
	}
}

// convertGeometry maps an orb geometry onto the domain type.
func convertGeometry(g orb.Geometry, label, srid int) (domain.LabeledGeometry, error) {
	switch geom := g.(type) {
	case orb.Point:
		return domain.NewPoint(label, domain.NewCoordinate(geom.X(), geom.Y(), srid)), nil

	case orb.Polygon:
		return domain.LabeledGeometry{
			Label: label,
			Kind:  domain.KindPolygon,
			Rings: convertRings([]orb.Polygon{geom}),
			SRID:  srid,
		}, nil

	case orb.MultiPolygon:
		return domain.LabeledGeometry{
			Label: label,
			Kind:  domain.KindMultiPolygon,
			Rings: convertRings(geom),
			SRID:  srid,
		}, nil

	default:
		return domain.LabeledGeometry{}, &domain.ValidationError{
			Field:      "geometry",
			Value:      g.GeoJSONType(),
			Constraint: "Point, Polygon or MultiPolygon",
			Message:    "unsupported geometry type",
		}
	}
}

func convertRings(polygons []orb.Polygon) [][]domain.Coordinate {
	var rings [][]domain.Coordinate
	for _, polygon := range polygons {
		for _, ring := range polygon {
			coords := make([]domain.Coordinate, len(ring))
			for i, pt := range ring {
				coords[i] = domain.Coordinate{X: pt.X(), Y: pt.Y()}
			}
			rings = append(rings, coords)
		}
	}
	return rings
}
