// Package datacube provides the HTTP feature source backed by a
// geospatial data-cube service.
package datacube

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/geolearn/terrasample/internal/domain"
)

// Config holds data-cube client configuration.
type Config struct {
	BaseURL string        // Service base URL
	APIKey  string        // Optional bearer token
	Timeout time.Duration // Per-request timeout
	Product string        // Data-cube product to sample (e.g. a geomedian)
}

// Client implements the FeatureSource port against a data-cube HTTP API.
// It is transport only: band math and compositing happen on the service
// side, and every transport or service failure surfaces as a plain error
// for the sampler's retry policy to handle.
type Client struct {
	http    *resty.Client
	product string
	logger  *slog.Logger
}

// NewClient creates a new data-cube client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json")

	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		http:    httpClient,
		product: cfg.Product,
		logger:  logger,
	}
}

// loadRequest is the wire form of a scoped feature query.
type loadRequest struct {
	Product    string    `json:"product"`
	TimeStart  string    `json:"time_start,omitempty"`
	TimeEnd    string    `json:"time_end,omitempty"`
	Bands      []string  `json:"bands"`
	Resolution float64   `json:"resolution"`
	CRS        string    `json:"crs"`
	BBox       []float64 `json:"bbox"` // [minx, miny, maxx, maxy]
}

// loadResponse is the wire form of a feature grid. Invalid pixels travel
// as JSON nulls and are mapped back to NaN.
type loadResponse struct {
	X     []float64  `json:"x"`
	Y     []float64  `json:"y"`
	SRID  int        `json:"srid"`
	Bands []bandData `json:"bands"`
}

type bandData struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// Extract retrieves a multi-band feature grid for the query's region.
func (c *Client) Extract(ctx context.Context, query domain.FeatureQuery) (*domain.FeatureGrid, error) {
	if query.Region == nil {
		return nil, &domain.ConfigError{
			Field:   "region",
			Message: "data-cube load requires a scoped region",
		}
	}

	req := loadRequest{
		Product:    c.product,
		Bands:      query.Bands,
		Resolution: query.Resolution,
		CRS:        fmt.Sprintf("EPSG:%d", query.OutputSRID),
		BBox:       []float64{query.Region.MinX, query.Region.MinY, query.Region.MaxX, query.Region.MaxY},
	}
	if !query.TimeStart.IsZero() {
		req.TimeStart = query.TimeStart.Format("2006-01-02")
	}
	if !query.TimeEnd.IsZero() {
		req.TimeEnd = query.TimeEnd.Format("2006-01-02")
	}

	var payload loadResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&payload).
		Post("/v1/load")
	if err != nil {
		return nil, fmt.Errorf("datacube load: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("datacube load: %s: %s", resp.Status(), resp.String())
	}

	grid := &domain.FeatureGrid{
		X:    payload.X,
		Y:    payload.Y,
		SRID: payload.SRID,
	}
	if grid.SRID == 0 {
		grid.SRID = query.OutputSRID
	}
	for _, band := range payload.Bands {
		values := make([]float64, len(band.Values))
		for i, v := range band.Values {
			if v == nil {
				values[i] = math.NaN()
				continue
			}
			values[i] = *v
		}
		grid.Bands = append(grid.Bands, domain.GridBand{Name: band.Name, Values: values})
	}

	c.logger.Debug("datacube load complete",
		"bbox", req.BBox,
		"bands", len(grid.Bands),
		"pixels", grid.SpatialSize(),
	)

	return grid, nil
}
