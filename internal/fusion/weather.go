package fusion

import (
	"strconv"

	"github.com/jengzang/emf-backend-go/internal/models"
)

const notAvailable = "N/A"

// FormatWeather renders a weather observation for its map marker popup
func FormatWeather(w models.WeatherSample) models.WeatherMarker {
	return models.WeatherMarker{
		Latitude:    w.Latitude,
		Longitude:   w.Longitude,
		Timestamp:   w.Timestamp,
		Temperature: formatFixed(w.Temperature, 1, "°C"),
		Pressure:    formatPlain(w.Pressure, " hPa"),
		Humidity:    formatPlain(w.Humidity, "%"),
		Wind:        formatFixed(w.WindSpeed, 2, " m/s"),
		Clouds:      formatPlain(w.CloudsPercent, "%"),
		Rain:        formatPlain(w.Rain1h, " mm"),
		Condition:   w.Condition,
	}
}

func formatFixed(v *float64, prec int, unit string) string {
	if v == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*v, 'f', prec, 64) + unit
}

func formatPlain(v *float64, unit string) string {
	if v == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + unit
}
