package geopackage

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/geolearn/terrasample/internal/domain"
)

// gpkgBlob wraps WKB in a little-endian GeoPackage header without envelope.
func gpkgBlob(t *testing.T, geom orb.Geometry, srid int) []byte {
	t.Helper()

	payload, err := wkb.Marshal(geom)
	if err != nil {
		t.Fatalf("marshaling WKB: %v", err)
	}

	header := make([]byte, gpkgHeaderSize)
	header[0] = 'G'
	header[1] = 'P'
	header[2] = 0    // version
	header[3] = 0x01 // little endian, no envelope
	binary.LittleEndian.PutUint32(header[4:8], uint32(int32(srid)))

	return append(header, payload...)
}

func createFixture(t *testing.T, layers map[string][]struct {
	geom  orb.Geometry
	label interface{}
}) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sites.gpkg")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening fixture db: %v", err)
	}
	defer func() { _ = db.Close() }()

	ddl := []string{
		`CREATE TABLE gpkg_contents (table_name TEXT PRIMARY KEY, data_type TEXT)`,
		`CREATE TABLE gpkg_geometry_columns (table_name TEXT PRIMARY KEY, column_name TEXT)`,
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("creating metadata table: %v", err)
		}
	}

	for name, features := range layers {
		if _, err := db.Exec(`INSERT INTO gpkg_contents VALUES (?, 'features')`, name); err != nil {
			t.Fatalf("registering layer: %v", err)
		}
		if _, err := db.Exec(`INSERT INTO gpkg_geometry_columns VALUES (?, 'geom')`, name); err != nil {
			t.Fatalf("registering geometry column: %v", err)
		}
		if _, err := db.Exec(`CREATE TABLE "` + name + `" (fid INTEGER PRIMARY KEY, geom BLOB, class)`); err != nil {
			t.Fatalf("creating feature table: %v", err)
		}
		for _, f := range features {
			blob := gpkgBlob(t, f.geom, domain.SRIDWGS84)
			if _, err := db.Exec(`INSERT INTO "`+name+`" (geom, class) VALUES (?, ?)`, blob, f.label); err != nil {
				t.Fatalf("inserting feature: %v", err)
			}
		}
	}

	return path
}

type fixtureFeature = struct {
	geom  orb.Geometry
	label interface{}
}

func TestReadPointsAndPolygons(t *testing.T) {
	square := orb.Polygon{{{147.0, -35.0}, {147.1, -35.0}, {147.1, -35.1}, {147.0, -35.1}, {147.0, -35.0}}}
	path := createFixture(t, map[string][]fixtureFeature{
		"sites": {
			{geom: orb.Point{147.5, -35.2}, label: int64(1)},
			{geom: square, label: int64(2)},
			{geom: orb.MultiPolygon{square}, label: "3"},
		},
	})

	reader := NewReader("")
	geometries, err := reader.Read(t.Context(), path, "class")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(geometries) != 3 {
		t.Fatalf("expected 3 geometries, got %d", len(geometries))
	}

	point := geometries[0]
	if point.Kind != domain.KindPoint || point.Label != 1 {
		t.Errorf("geometry 0: kind=%v label=%d", point.Kind, point.Label)
	}
	if point.SRID != domain.SRIDWGS84 {
		t.Errorf("geometry 0 SRID = %d, want %d", point.SRID, domain.SRIDWGS84)
	}
	if point.Rings[0][0].X != 147.5 || point.Rings[0][0].Y != -35.2 {
		t.Errorf("geometry 0 coordinate = %+v", point.Rings[0][0])
	}

	polygon := geometries[1]
	if polygon.Kind != domain.KindPolygon || polygon.Label != 2 {
		t.Errorf("geometry 1: kind=%v label=%d", polygon.Kind, polygon.Label)
	}
	if len(polygon.Rings) != 1 || len(polygon.Rings[0]) != 5 {
		t.Errorf("geometry 1 rings = %v", polygon.Rings)
	}

	multi := geometries[2]
	if multi.Kind != domain.KindMultiPolygon || multi.Label != 3 {
		t.Errorf("geometry 2: kind=%v label=%d, want text label coerced to 3", multi.Kind, multi.Label)
	}
}

func TestReadNamedLayer(t *testing.T) {
	path := createFixture(t, map[string][]fixtureFeature{
		"paddocks": {{geom: orb.Point{147.0, -35.0}, label: int64(1)}},
		"sites":    {{geom: orb.Point{148.0, -36.0}, label: int64(2)}},
	})

	reader := NewReader("sites")
	geometries, err := reader.Read(t.Context(), path, "class")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(geometries) != 1 || geometries[0].Label != 2 {
		t.Errorf("expected the sites layer only, got %+v", geometries)
	}
}

func TestReadLayerNotFound(t *testing.T) {
	path := createFixture(t, map[string][]fixtureFeature{
		"sites": {{geom: orb.Point{147.0, -35.0}, label: int64(1)}},
	})

	reader := NewReader("absent")
	_, err := reader.Read(t.Context(), path, "class")
	if !errors.Is(err, domain.ErrLayerNotFound) {
		t.Errorf("Read() error = %v, want ErrLayerNotFound", err)
	}
}

func TestReadLabelFieldNotFound(t *testing.T) {
	path := createFixture(t, map[string][]fixtureFeature{
		"sites": {{geom: orb.Point{147.0, -35.0}, label: int64(1)}},
	})

	reader := NewReader("")
	_, err := reader.Read(t.Context(), path, "landuse")
	if !errors.Is(err, domain.ErrLabelFieldNotFound) {
		t.Errorf("Read() error = %v, want ErrLabelFieldNotFound", err)
	}
}

func TestReadFractionalLabel(t *testing.T) {
	path := createFixture(t, map[string][]fixtureFeature{
		"sites": {{geom: orb.Point{147.0, -35.0}, label: 1.5}},
	})

	reader := NewReader("")
	_, err := reader.Read(t.Context(), path, "class")
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Read() error = %v, want ConfigError", err)
	}
}

func TestDecodeGeometry(t *testing.T) {
	blob := gpkgBlob(t, orb.Point{10.5, -20.25}, domain.SRIDAlbersAU)

	geom, srid, err := decodeGeometry(blob)
	if err != nil {
		t.Fatalf("decodeGeometry() error = %v", err)
	}
	if srid != domain.SRIDAlbersAU {
		t.Errorf("srid = %d, want %d", srid, domain.SRIDAlbersAU)
	}
	point, ok := geom.(orb.Point)
	if !ok {
		t.Fatalf("geometry type = %T, want point", geom)
	}
	if point.X() != 10.5 || point.Y() != -20.25 {
		t.Errorf("point = %v", point)
	}
}

func TestDecodeGeometryErrors(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{"empty blob", nil},
		{"wrong magic", []byte("XX\x00\x01\x00\x00\x00\x00")},
		{"truncated header", []byte("GP\x00")},
		{"envelope past end", []byte{'G', 'P', 0, 0x03, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := decodeGeometry(tt.blob); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestCoerceLabel(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    int
		wantErr bool
	}{
		{"int64", int64(5), 5, false},
		{"integral float", 4.0, 4, false},
		{"fractional float", 4.5, 0, true},
		{"text", "7", 7, false},
		{"padded text", []byte(" 8 "), 8, false},
		{"non-numeric text", "forest", 0, true},
		{"nil", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceLabel(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("coerceLabel(%v) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("coerceLabel(%v) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}
