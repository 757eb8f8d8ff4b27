// Package geopackage provides the SQLite-based GeoPackage vector reader.
package geopackage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/geolearn/terrasample/internal/domain"
)

// Reader implements the VectorReader port for GeoPackage (.gpkg) files.
// Only plain attribute and geometry reads are needed, so the file is
// opened read-only with the stock sqlite3 driver and geometry blobs are
// decoded directly from their WKB payload.
type Reader struct {
	layer string
}

// NewReader creates a GeoPackage reader. An empty layer selects the first
// feature layer listed in gpkg_contents.
func NewReader(layer string) *Reader {
	return &Reader{layer: layer}
}

// Read loads all labeled geometries from a GeoPackage file.
func (r *Reader) Read(ctx context.Context, path string, labelField string) ([]domain.LabeledGeometry, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &domain.VectorError{Path: path, Err: err}
	}
	defer func() { _ = db.Close() }()

	table, geomColumn, err := r.resolveLayer(ctx, db, path)
	if err != nil {
		return nil, err
	}

	if err := columnExists(ctx, db, table, labelField); err != nil {
		return nil, &domain.VectorError{Path: path, Layer: table, Err: err}
	}

	query := fmt.Sprintf(`SELECT %s, %s FROM %s`,
		quoteIdent(geomColumn), quoteIdent(labelField), quoteIdent(table))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &domain.VectorError{Path: path, Layer: table, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var geometries []domain.LabeledGeometry
	for rows.Next() {
		var blob []byte
		var rawLabel interface{}
		if err := rows.Scan(&blob, &rawLabel); err != nil {
			return nil, &domain.VectorError{Path: path, Layer: table, Err: err}
		}

		label, err := coerceLabel(rawLabel)
		if err != nil {
			return nil, err
		}

		geom, srid, err := decodeGeometry(blob)
		if err != nil {
			return nil, &domain.VectorError{Path: path, Layer: table, Err: err}
		}

		converted, err := convertGeometry(geom, label, srid)
		if err != nil {
			return nil, &domain.VectorError{Path: path, Layer: table, Err: err}
		}
		geometries = append(geometries, converted)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.VectorError{Path: path, Layer: table, Err: err}
	}

	return geometries, nil
}

// resolveLayer finds the feature table and its geometry column.
func (r *Reader) resolveLayer(ctx context.Context, db *sql.DB, path string) (table, geomColumn string, err error) {
	query := `
		SELECT c.table_name, g.column_name
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type = 'features'`
	args := []interface{}{}
	if r.layer != "" {
		query += ` AND c.table_name = ?`
		args = append(args, r.layer)
	}
	query += ` ORDER BY c.table_name LIMIT 1`

	err = db.QueryRowContext(ctx, query, args...).Scan(&table, &geomColumn)
	if err == sql.ErrNoRows {
		return "", "", &domain.VectorError{Path: path, Layer: r.layer, Err: domain.ErrLayerNotFound}
	}
	if err != nil {
		return "", "", &domain.VectorError{Path: path, Err: err}
	}
	return table, geomColumn, nil
}

// columnExists checks the label column is present on the feature table.
func columnExists(ctx context.Context, db *sql.DB, table, column string) error {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return domain.ErrLabelFieldNotFound
}

// coerceLabel converts a scanned label value to an integer class label.
func coerceLabel(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, &domain.ConfigError{
				Field:   "label_field",
				Message: "label " + strconv.FormatFloat(v, 'g', -1, 64) + " is not an integer",
			}
		}
		return int(v), nil
	case []byte:
		return parseLabelString(string(v))
	case string:
		return parseLabelString(v)
	default:
		return 0, &domain.ConfigError{
			Field:   "label_field",
			Message: "label has unsupported type",
		}
	}
}

func parseLabelString(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &domain.ConfigError{
			Field:   "label_field",
			Message: "label " + strconv.Quote(s) + " is not an integer",
		}
	}
	return n, nil
}

// GeoPackage binary header layout, per OGC 12-128r17 section 2.1.3.
const (
	gpkgMagic      = "GP"
	gpkgHeaderSize = 8 // magic(2) + version(1) + flags(1) + srid(4)
)

// decodeGeometry parses a GeoPackage geometry blob: the GP header
// (including the optional envelope) followed by standard WKB.
func decodeGeometry(blob []byte) (orb.Geometry, int, error) {
	if len(blob) < gpkgHeaderSize || string(blob[:2]) != gpkgMagic {
		return nil, 0, fmt.Errorf("not a GeoPackage geometry blob")
	}

	flags := blob[3]
	byteOrder := binary.ByteOrder(binary.BigEndian)
	if flags&0x01 != 0 {
		byteOrder = binary.LittleEndian
	}
	srid := int(int32(byteOrder.Uint32(blob[4:8])))

	envelopeSize, err := gpkgEnvelopeSize(flags)
	if err != nil {
		return nil, 0, err
	}
	offset := gpkgHeaderSize + envelopeSize
	if len(blob) < offset {
		return nil, 0, fmt.Errorf("truncated GeoPackage geometry blob")
	}

	geom, err := wkb.Unmarshal(blob[offset:])
	if err != nil {
		return nil, 0, fmt.Errorf("decoding WKB: %w", err)
	}
	return geom, srid, nil
}

// gpkgEnvelopeSize returns the envelope byte length encoded in the flags.
func gpkgEnvelopeSize(flags byte) (int, error) {
	switch (flags >> 1) & 0x07 {
	case 0:
		return 0, nil
	case 1:
		return 32, nil // [minx, maxx, miny, maxy]
	case 2, 3:
		return 48, nil // xy + z or m
	case 4:
		return 64, nil // xyzm
	default:
		return 0, fmt.Errorf("invalid envelope indicator in geometry flags")
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
			Rings: ringsOf([]orb.Polygon{geom}),
			SRID:  srid,
		}, nil

	case orb.MultiPolygon:
		return domain.LabeledGeometry{
			Label: label,
			Kind:  domain.KindMultiPolygon,
			Rings: ringsOf(geom),
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

func ringsOf(polygons []orb.Polygon) [][]domain.Coordinate {
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

// quoteIdent quotes an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
