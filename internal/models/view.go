package models

// Bounds is a lat/lng bounding box used for viewport fitting
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// ZoneCircle is one classified intensity zone of the live session view
type ZoneCircle struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Magnitude    float64 `json:"magnitude"`
	RadiusMeters float64 `json:"radius_meters"`
	Band         string  `json:"band"`        // zone coloring band (45/70)
	LegendBand   string  `json:"legend_band"` // legend text band (30/50)
	Seconds      float64 `json:"seconds"`     // field sample time
}

// WeatherMarker is a weather observation ready for popup display
type WeatherMarker struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timestamp   string  `json:"timestamp"`
	Temperature string  `json:"temperature"`
	Pressure    string  `json:"pressure"`
	Humidity    string  `json:"humidity"`
	Wind        string  `json:"wind"`
	Clouds      string  `json:"clouds"`
	Rain        string  `json:"rain"`
	Condition   string  `json:"condition,omitempty"`
}

// LiveStats summarizes how much of the field stream could be placed on the map
type LiveStats struct {
	TotalFieldSamples     int     `json:"total_field_samples"`
	DisplayedFieldSamples int     `json:"displayed_field_samples"` // after downsampling
	MappedFieldSamples    int     `json:"mapped_field_samples"`
	PercentMapped         float64 `json:"percent_mapped"`
	LocationSamples       int     `json:"location_samples"`
	PathPoints            int     `json:"path_points"` // after accuracy filtering
	PathLengthMeters      float64 `json:"path_length_meters"`
}

// LiveView is the per-session view consumed by the map surface
type LiveView struct {
	SessionID string            `json:"session_id"`
	Path      []LatLng          `json:"path"`
	Zones     []ZoneCircle      `json:"zones"`
	Weather   []WeatherMarker   `json:"weather"`
	HeartRate []HeartRateSample `json:"heart_rate"`
	Stats     LiveStats         `json:"stats"`
	Bounds    *Bounds           `json:"bounds,omitempty"`
}

// HeatView is the cross-session weighted point cloud
type HeatView struct {
	Points       []WeightedPoint `json:"points"`
	Sessions     int             `json:"sessions"`
	FieldSamples int             `json:"field_samples"`
	Paired       int             `json:"paired"`
	Bounds       *Bounds         `json:"bounds,omitempty"`
}

// ZoneView is the discretized cross-session grid
type ZoneView struct {
	CellSize float64    `json:"cell_size"`
	Cells    []ZoneCell `json:"cells"`
	Points   int        `json:"points"`
	Bounds   *Bounds    `json:"bounds,omitempty"`
}

// LegendEntry describes one band of the on-screen legend
type LegendEntry struct {
	Band  string `json:"band"`
	Label string `json:"label"`
}
