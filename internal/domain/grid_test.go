package domain

import (
	"errors"
	"math"
	"testing"
)

func testGrid() *FeatureGrid {
	return &FeatureGrid{
		X:    []float64{10, 20},
		Y:    []float64{30, 40},
		SRID: SRIDAlbersAU,
		Bands: []GridBand{
			{Name: "red", Values: []float64{1, 2, 3, 4}},
			{Name: "nir", Values: []float64{5, 6, 7, 8}},
		},
	}
}

func TestFeatureGridValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(g *FeatureGrid)
		wantErr bool
	}{
		{
			name:    "valid grid",
			mutate:  func(*FeatureGrid) {},
			wantErr: false,
		},
		{
			name:    "no bands",
			mutate:  func(g *FeatureGrid) { g.Bands = nil },
			wantErr: true,
		},
		{
			name:    "no spatial extent",
			mutate:  func(g *FeatureGrid) { g.X = nil },
			wantErr: true,
		},
		{
			name: "band retains time dimension",
			mutate: func(g *FeatureGrid) {
				g.Bands[0].Values = append(g.Bands[0].Values, g.Bands[0].Values...)
			},
			wantErr: true,
		},
		{
			name: "band size mismatch",
			mutate: func(g *FeatureGrid) {
				g.Bands[1].Values = g.Bands[1].Values[:3]
			},
			wantErr: true,
		},
		{
			name: "unnamed band",
			mutate: func(g *FeatureGrid) {
				g.Bands[0].Name = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGrid()
			tt.mutate(g)
			err := g.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var contractErr *ContractError
				if !errors.As(err, &contractErr) {
					t.Errorf("expected ContractError, got %T", err)
				}
			}
		})
	}
}

func TestFeatureGridCentroid(t *testing.T) {
	g := testGrid()
	c := g.Centroid()
	if c.X != 15 || c.Y != 35 {
		t.Errorf("centroid = (%f, %f), want (15, 35)", c.X, c.Y)
	}
	if c.SRID != SRIDAlbersAU {
		t.Errorf("centroid SRID = %d, want %d", c.SRID, SRIDAlbersAU)
	}
}

func TestFeatureGridBandNames(t *testing.T) {
	g := testGrid()
	names := g.BandNames()
	if len(names) != 2 || names[0] != "red" || names[1] != "nir" {
		t.Errorf("band names = %v, want [red nir]", names)
	}
}

func TestInvalidFraction(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"all finite", []float64{1, 2, 3, 4}, 0},
		{"half invalid", []float64{1, math.NaN(), math.Inf(1), 4}, 0.5},
		{"all invalid", []float64{math.NaN(), math.Inf(-1)}, 1},
		{"empty", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InvalidFraction(tt.values); got != tt.want {
				t.Errorf("InvalidFraction() = %f, want %f", got, tt.want)
			}
		})
	}
}
