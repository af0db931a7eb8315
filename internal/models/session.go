package models

import "time"

// Session represents recording session metadata as delivered by the mobile client
type Session struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Timestamp    string    `json:"timestamp" db:"timestamp"` // Client-reported start time (RFC 3339)
	Status       string    `json:"status" db:"status"`       // recording, completed
	TotalSamples int       `json:"totalSamples" db:"total_samples"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Session status constants
const (
	SessionStatusRecording = "recording"
	SessionStatusCompleted = "completed"
)

// SessionSummary aggregates per-session statistics for the sidebar
type SessionSummary struct {
	Session          *Session         `json:"session"`
	LocationCount    int              `json:"location_count"`
	FieldCount       int              `json:"field_count"`
	WeatherCount     int              `json:"weather_count"`
	HeartRateCount   int              `json:"heart_rate_count"`
	DurationSeconds  float64          `json:"duration_seconds"`
	PathLengthMeters float64          `json:"path_length_meters"`
	Magnitude        MagnitudeSummary `json:"magnitude"`
	HeartRate        HeartRateSummary `json:"heart_rate"`
	Weather          WeatherSummary   `json:"weather"`
}

// MagnitudeSummary describes the distribution of field magnitudes in a session
type MagnitudeSummary struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	P95  float64 `json:"p95"`
}

// WeatherSummary describes the weather observations of a session.
// Optional fields are omitted when no observation carried them.
type WeatherSummary struct {
	MeanTemperature   *float64 `json:"mean_temperature,omitempty"`
	MeanHumidity      *float64 `json:"mean_humidity,omitempty"`
	MeanWindSpeed     *float64 `json:"mean_wind_speed,omitempty"`
	MeanWindDirection *float64 `json:"mean_wind_direction,omitempty"` // circular mean, degrees
	WindSteadiness    *float64 `json:"wind_steadiness,omitempty"`     // 1 = constant direction, 0 = none
	LatestCondition   string   `json:"latest_condition,omitempty"`
}

// HeartRateSummary describes the heart rate readings of a session
type HeartRateSummary struct {
	Count  int     `json:"count"`
	Latest float64 `json:"latest,omitempty"`
	Mean   float64 `json:"mean,omitempty"`
	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
}

// HeartRateSeries is the sorted heart rate stream of a session
type HeartRateSeries struct {
	SessionID string            `json:"session_id"`
	Readings  []HeartRateSample `json:"readings"`
	Summary   HeartRateSummary  `json:"summary"`
}
