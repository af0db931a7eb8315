package models

// LocationSample represents one GPS fix recorded during a session
type LocationSample struct {
	Seconds   float64 `json:"seconds" db:"seconds"` // Session-relative elapsed time
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Altitude  float64 `json:"altitude" db:"altitude"`
	Velocity  float64 `json:"velocity" db:"velocity"`
	Direction float64 `json:"direction" db:"direction"`

	// Reported fix uncertainty in meters, nil when unknown
	HorizontalAccuracy *float64 `json:"horizAcc,omitempty" db:"horizontal_accuracy"`
}

// FieldSample represents one magnetometer reading in device units
type FieldSample struct {
	Seconds float64 `json:"seconds" db:"seconds"`
	X       float64 `json:"x" db:"x"`
	Y       float64 `json:"y" db:"y"`
	Z       float64 `json:"z" db:"z"`
}

// WeatherSample represents an already geo-located weather observation.
// Optional numeric fields are nil when the provider did not report them.
type WeatherSample struct {
	Timestamp     string   `json:"ts" db:"timestamp"`
	Latitude      float64  `json:"lat" db:"latitude"`
	Longitude     float64  `json:"lon" db:"longitude"`
	Temperature   *float64 `json:"temp,omitempty" db:"temperature"`      // °C
	Humidity      *float64 `json:"humidity,omitempty" db:"humidity"`     // %
	Pressure      *float64 `json:"pressure_hpa,omitempty" db:"pressure"` // hPa
	WindSpeed     *float64 `json:"wind_ms,omitempty" db:"wind_speed"`    // m/s
	WindDirection *float64 `json:"wind_deg,omitempty" db:"wind_direction"`
	Rain1h        *float64 `json:"rain_1h_mm,omitempty" db:"rain_1h"`
	CloudsPercent *float64 `json:"clouds_pct,omitempty" db:"clouds_percent"`
	Condition     string   `json:"cond,omitempty" db:"condition"`
}

// HeartRateSample represents one heart rate reading
type HeartRateSample struct {
	Seconds   float64 `json:"seconds" db:"seconds"`
	BPM       float64 `json:"bpm" db:"bpm"`
	Timestamp string  `json:"timestamp,omitempty" db:"timestamp"`
}

// PairedPoint is a field sample joined to its nearest-in-time location sample
type PairedPoint struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Magnitude     float64 `json:"magnitude"`
	SecondsOffset float64 `json:"seconds_offset"` // location.seconds - field.seconds
}

// WeightedPoint is one normalized point of the cross-session point cloud
type WeightedPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Weight    float64 `json:"weight"` // 0~1
}

// LatLng is a plain coordinate pair used by path and bounds payloads
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
