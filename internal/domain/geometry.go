package domain

import "math"

// GeometryKind represents the kind of a labeled geometry.
type GeometryKind string

// Geometry kind constants.
const (
	KindPoint        GeometryKind = "POINT"
	KindPolygon      GeometryKind = "POLYGON"
	KindMultiPolygon GeometryKind = "MULTIPOLYGON"
)

// LabeledGeometry is one training geometry: a shape plus its integer class
// label. Geometries are immutable once loaded and are identified by their
// index position in the input collection.
type LabeledGeometry struct {
	Label int          // Integer class label
	Kind  GeometryKind // Shape kind
	Rings [][]Coordinate
	SRID  int
}

// NewPoint creates a labeled point geometry.
func NewPoint(label int, c Coordinate) LabeledGeometry {
	return LabeledGeometry{
		Label: label,
		Kind:  KindPoint,
		Rings: [][]Coordinate{{c}},
		SRID:  c.SRID,
	}
}

// NewPolygon creates a labeled polygon geometry from an exterior ring.
func NewPolygon(label int, ring []Coordinate, srid int) LabeledGeometry {
	return LabeledGeometry{
		Label: label,
		Kind:  KindPolygon,
		Rings: [][]Coordinate{ring},
		SRID:  srid,
	}
}

// IsPoint returns true if the geometry is a point.
func (g *LabeledGeometry) IsPoint() bool {
	return g.Kind == KindPoint
}

// IsPolygon returns true if the geometry is a polygon.
func (g *LabeledGeometry) IsPolygon() bool {
	return g.Kind == KindPolygon || g.Kind == KindMultiPolygon
}

// IsEmpty returns true if the geometry has no vertices.
func (g *LabeledGeometry) IsEmpty() bool {
	for _, ring := range g.Rings {
		if len(ring) > 0 {
			return false
		}
	}
	return true
}

// VertexCount returns the total number of vertices across all rings.
func (g *LabeledGeometry) VertexCount() int {
	n := 0
	for _, ring := range g.Rings {
		n += len(ring)
	}
	return n
}

// Bounds returns the bounding extent of the geometry, folding each ring's
// extent into the result. The extent of an empty geometry is the zero
// extent.
func (g *LabeledGeometry) Bounds() Extent {
	var e Extent
	seeded := false
	for _, ring := range g.Rings {
		if len(ring) == 0 {
			continue
		}
		if !seeded {
			e = ringExtent(ring, g.SRID)
			seeded = true
		} else {
			e = e.Union(ringExtent(ring, g.SRID))
		}
	}
	return e
}

// ringExtent computes the bounding extent of one non-empty ring.
func ringExtent(ring []Coordinate, srid int) Extent {
	e := Extent{
		MinX: ring[0].X,
		MinY: ring[0].Y,
		MaxX: ring[0].X,
		MaxY: ring[0].Y,
		SRID: srid,
	}
	for _, c := range ring[1:] {
		e.MinX = math.Min(e.MinX, c.X)
		e.MinY = math.Min(e.MinY, c.Y)
		e.MaxX = math.Max(e.MaxX, c.X)
		e.MaxY = math.Max(e.MaxY, c.Y)
	}
	return e
}
