package domain

import (
	"testing"
	"time"
)

func validQuery() FeatureQuery {
	return FeatureQuery{
		TimeStart:  time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		TimeEnd:    time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
		Bands:      []string{"red", "nir", "ndvi"},
		Resolution: 30,
		OutputSRID: SRIDAlbersAU,
	}
}

func TestFeatureQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *FeatureQuery)
		wantErr bool
	}{
		{
			name:    "valid query",
			mutate:  func(*FeatureQuery) {},
			wantErr: false,
		},
		{
			name: "region set by caller",
			mutate: func(q *FeatureQuery) {
				q.Region = &Extent{MaxX: 1, MaxY: 1}
			},
			wantErr: true,
		},
		{
			name:    "no bands",
			mutate:  func(q *FeatureQuery) { q.Bands = nil },
			wantErr: true,
		},
		{
			name:    "empty band name",
			mutate:  func(q *FeatureQuery) { q.Bands = []string{"red", ""} },
			wantErr: true,
		},
		{
			name:    "duplicate band",
			mutate:  func(q *FeatureQuery) { q.Bands = []string{"red", "red"} },
			wantErr: true,
		},
		{
			name:    "non-positive resolution",
			mutate:  func(q *FeatureQuery) { q.Resolution = 0 },
			wantErr: true,
		},
		{
			name: "inverted time range",
			mutate: func(q *FeatureQuery) {
				q.TimeStart, q.TimeEnd = q.TimeEnd, q.TimeStart
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuery()
			tt.mutate(&q)
			err := q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFeatureQueryWithRegion(t *testing.T) {
	q := validQuery()
	region := Extent{MinX: 1, MinY: 2, MaxX: 3, MaxY: 4, SRID: SRIDAlbersAU}

	scoped := q.WithRegion(region)
	if scoped.Region == nil || *scoped.Region != region {
		t.Errorf("scoped region = %v, want %v", scoped.Region, region)
	}
	if q.Region != nil {
		t.Error("WithRegion must not mutate the shared query")
	}

	// A second scope must not alias the first copy's region.
	other := q.WithRegion(Extent{MaxX: 9, MaxY: 9})
	if *scoped.Region == *other.Region {
		t.Error("scoped copies must hold independent regions")
	}
}
