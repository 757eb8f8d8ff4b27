package domain

import "testing"

func TestLabeledGeometryBounds(t *testing.T) {
	tests := []struct {
		name string
		geom LabeledGeometry
		want Extent
	}{
		{
			name: "point",
			geom: NewPoint(1, NewCoordinate(3, 4, SRIDAlbersAU)),
			want: Extent{MinX: 3, MinY: 4, MaxX: 3, MaxY: 4, SRID: SRIDAlbersAU},
		},
		{
			name: "polygon",
			geom: NewPolygon(2, []Coordinate{
				{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 0},
			}, SRIDAlbersAU),
			want: Extent{MinX: 0, MinY: 0, MaxX: 4, MaxY: 2, SRID: SRIDAlbersAU},
		},
		{
			name: "multi-ring polygon",
			geom: LabeledGeometry{
				Label: 3,
				Kind:  KindMultiPolygon,
				Rings: [][]Coordinate{
					{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
					{{X: 5, Y: -2}, {X: 6, Y: -2}, {X: 6, Y: 3}},
				},
				SRID: SRIDAlbersAU,
			},
			want: Extent{MinX: 0, MinY: -2, MaxX: 6, MaxY: 3, SRID: SRIDAlbersAU},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.geom.Bounds(); got != tt.want {
				t.Errorf("Bounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLabeledGeometryEmpty(t *testing.T) {
	empty := LabeledGeometry{Label: 1, Kind: KindPolygon}
	if !empty.IsEmpty() {
		t.Error("geometry without rings should be empty")
	}
	if !empty.Bounds().IsZero() {
		t.Error("empty geometry should have a zero extent")
	}

	p := NewPoint(1, NewCoordinate(0, 0, SRIDWGS84))
	if p.IsEmpty() {
		t.Error("point geometry should not be empty")
	}
	if p.VertexCount() != 1 {
		t.Errorf("vertex count = %d, want 1", p.VertexCount())
	}
}

func TestGeometryKind(t *testing.T) {
	p := NewPoint(1, NewCoordinate(0, 0, SRIDWGS84))
	if !p.IsPoint() || p.IsPolygon() {
		t.Error("point should report IsPoint only")
	}

	poly := NewPolygon(1, []Coordinate{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}, SRIDWGS84)
	if !poly.IsPolygon() || poly.IsPoint() {
		t.Error("polygon should report IsPolygon only")
	}
}
