package domain

import (
	"reflect"
	"testing"
)

func TestNewManifest(t *testing.T) {
	tests := []struct {
		name       string
		bands      []string
		withCoords bool
		want       Manifest
	}{
		{
			name:  "bands only",
			bands: []string{"red", "nir"},
			want:  Manifest{"label", "red", "nir"},
		},
		{
			name:       "with coordinates",
			bands:      []string{"red", "nir"},
			withCoords: true,
			want:       Manifest{"label", "red", "nir", "x_coord", "y_coord"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewManifest(tt.bands, tt.withCoords)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewManifest() = %v, want %v", got, tt.want)
			}
			if got.HasCoords() != tt.withCoords {
				t.Errorf("HasCoords() = %v, want %v", got.HasCoords(), tt.withCoords)
			}
			if !reflect.DeepEqual(got.Bands(), tt.bands) {
				t.Errorf("Bands() = %v, want %v", got.Bands(), tt.bands)
			}
		})
	}
}

func TestSampleRecordRow(t *testing.T) {
	rec := SampleRecord{
		Label:    3,
		Features: []float64{0.5, 0.25},
	}
	if got := rec.Row(); !reflect.DeepEqual(got, []float64{3, 0.5, 0.25}) {
		t.Errorf("Row() = %v", got)
	}

	rec.HasCoords = true
	rec.X, rec.Y = 1500000, -3900000
	want := []float64{3, 0.5, 0.25, 1500000, -3900000}
	if got := rec.Row(); !reflect.DeepEqual(got, want) {
		t.Errorf("Row() with coords = %v, want %v", got, want)
	}
}
