package domain

import (
	"math"
	"testing"
)

func TestParseZonalStatistic(t *testing.T) {
	tests := []struct {
		input   string
		want    ZonalStatistic
		wantErr bool
	}{
		{"mean", ZonalMean, false},
		{"MEDIAN", ZonalMedian, false},
		{" max ", ZonalMax, false},
		{"min", ZonalMin, false},
		{"none", ZonalNone, false},
		{"", ZonalNone, false},
		{"mode", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseZonalStatistic(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseZonalStatistic(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseZonalStatistic(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestZonalReduce(t *testing.T) {
	values := []float64{4, 1, 3, 2}

	tests := []struct {
		stat ZonalStatistic
		want float64
	}{
		{ZonalMean, 2.5},
		{ZonalMedian, 2.5},
		{ZonalMax, 4},
		{ZonalMin, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.stat), func(t *testing.T) {
			if got := tt.stat.Reduce(values); got != tt.want {
				t.Errorf("Reduce() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestZonalReduceSkipsInvalid(t *testing.T) {
	values := []float64{2, math.NaN(), 4, math.Inf(1)}
	if got := ZonalMean.Reduce(values); got != 3 {
		t.Errorf("mean over finite pixels = %f, want 3", got)
	}
}

func TestZonalReduceAllInvalid(t *testing.T) {
	values := []float64{math.NaN(), math.NaN()}
	if got := ZonalMean.Reduce(values); !math.IsNaN(got) {
		t.Errorf("expected NaN for band with no finite pixels, got %f", got)
	}
}
