package fusion

import (
	"fmt"
	"math"

	"github.com/jengzang/emf-backend-go/internal/models"
)

// Band names shared by zone circles and the legend
const (
	BandLow    = "low"
	BandMedium = "medium"
	BandHigh   = "high"
)

// Thresholds (µT) used to color intensity zones on the map
const (
	ZoneMediumThreshold = 45.0
	ZoneHighThreshold   = 70.0
)

// Thresholds (µT) printed in the on-screen legend.
// They differ from the zone thresholds.
const (
	LegendMediumThreshold = 30.0
	LegendHighThreshold   = 50.0
)

// Display radius bounds for intensity zones, in meters
const (
	MinZoneRadius   = 15.0
	MaxZoneRadius   = 80.0
	ZoneRadiusScale = 1.5
)

// WeightScale maps magnitude onto the 0~1 heat weight
const WeightScale = 100.0

// Magnitude returns the Euclidean norm of the field components
func Magnitude(f models.FieldSample) float64 {
	return math.Sqrt(f.X*f.X + f.Y*f.Y + f.Z*f.Z)
}

// ZoneBand classifies a magnitude with the map zone thresholds
func ZoneBand(magnitude float64) string {
	return band(magnitude, ZoneMediumThreshold, ZoneHighThreshold)
}

// LegendBand classifies a magnitude with the legend thresholds
func LegendBand(magnitude float64) string {
	return band(magnitude, LegendMediumThreshold, LegendHighThreshold)
}

func band(magnitude, medium, high float64) string {
	switch {
	case magnitude > high:
		return BandHigh
	case magnitude >= medium:
		return BandMedium
	default:
		return BandLow
	}
}

// DisplayRadius returns the zone circle radius in meters
func DisplayRadius(magnitude float64) float64 {
	return clamp(magnitude*ZoneRadiusScale, MinZoneRadius, MaxZoneRadius)
}

// Weight normalizes a magnitude into [0,1]
func Weight(magnitude float64) float64 {
	return clamp(magnitude/WeightScale, 0, 1)
}

// Legend returns the legend entries in display order
func Legend() []models.LegendEntry {
	return []models.LegendEntry{
		{Band: BandLow, Label: fmt.Sprintf("< %.0f µT", LegendMediumThreshold)},
		{Band: BandMedium, Label: fmt.Sprintf("%.0f-%.0f µT", LegendMediumThreshold, LegendHighThreshold)},
		{Band: BandHigh, Label: fmt.Sprintf("> %.0f µT", LegendHighThreshold)},
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
