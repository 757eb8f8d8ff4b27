package domain

import (
	"math"
	"strings"

	"github.com/montanaflynn/stats"
)

// ZonalStatistic is the aggregation applied across all pixels inside a
// geometry to collapse a feature grid into a single feature vector.
type ZonalStatistic string

// Supported zonal statistics.
const (
	ZonalNone   ZonalStatistic = "none"
	ZonalMean   ZonalStatistic = "mean"
	ZonalMedian ZonalStatistic = "median"
	ZonalMax    ZonalStatistic = "max"
	ZonalMin    ZonalStatistic = "min"
)

// ParseZonalStatistic parses a zonal statistic name. The empty string maps
// to ZonalNone.
func ParseZonalStatistic(s string) (ZonalStatistic, error) {
	switch ZonalStatistic(strings.ToLower(strings.TrimSpace(s))) {
	case "", ZonalNone:
		return ZonalNone, nil
	case ZonalMean:
		return ZonalMean, nil
	case ZonalMedian:
		return ZonalMedian, nil
	case ZonalMax:
		return ZonalMax, nil
	case ZonalMin:
		return ZonalMin, nil
	default:
		return "", &ConfigError{
			Field:   "zonal_stat",
			Message: "unknown zonal statistic: " + s,
		}
	}
}

// IsNone returns true if no aggregation is requested.
func (z ZonalStatistic) IsNone() bool {
	return z == ZonalNone || z == ""
}

// Reduce collapses a band's pixel values to a single value. Non-finite
// pixels are excluded before aggregation; a band with no finite pixels
// reduces to NaN.
func (z ZonalStatistic) Reduce(values []float64) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if IsFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}

	var (
		result float64
		err    error
	)
	switch z {
	case ZonalMean:
		result, err = stats.Mean(finite)
	case ZonalMedian:
		result, err = stats.Median(finite)
	case ZonalMax:
		result, err = stats.Max(finite)
	case ZonalMin:
		result, err = stats.Min(finite)
	default:
		return math.NaN()
	}
	if err != nil {
		return math.NaN()
	}
	return result
}
