package fusion

import (
	"sort"

	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/spatial"
)

// PathAccuracyLimit drops GPS fixes worse than this many meters from the route
const PathAccuracyLimit = 50.0

type liveMatch struct {
	point models.PairedPoint
	ok    bool
}

// LiveSession folds the streams of one session into a live view.
// Each field sample is paired once on arrival; a location arrival re-pairs only
// the field samples whose match it can change. View always equals what a full
// recompute over the same samples would produce.
//
// A LiveSession is owned by a single caller and is not safe for concurrent use.
type LiveSession struct {
	SessionID string

	index        *TimeIndex
	fields       []models.FieldSample // arrival order
	matches      []liveMatch          // parallel to fields
	byTime       []int                // field indices in seconds order
	weather      []models.WeatherSample
	heartRate    []models.HeartRateSample // kept sorted by seconds
	displayLimit int
}

// NewLiveSession creates an empty live session
func NewLiveSession(sessionID string, tolerance float64, displayLimit int) *LiveSession {
	return &LiveSession{
		SessionID:    sessionID,
		index:        NewTimeIndex(nil, tolerance),
		displayLimit: displayLimit,
	}
}

// AddLocations inserts location samples and re-pairs affected field samples
func (s *LiveSession) AddLocations(samples ...models.LocationSample) {
	for _, loc := range samples {
		s.index.Insert(loc)
		s.repairAround(loc.Seconds)
	}
}

// repairAround re-pairs field samples near t. Samples further than the
// tolerance from t cannot switch to the new location; the window is doubled so
// that rounding in the bounds never excludes one that can.
func (s *LiveSession) repairAround(t float64) {
	window := 2 * s.index.Tolerance()
	start := sort.Search(len(s.byTime), func(i int) bool {
		return s.fields[s.byTime[i]].Seconds >= t-window
	})

	for _, idx := range s.byTime[start:] {
		if s.fields[idx].Seconds > t+window {
			break
		}
		s.matches[idx] = s.pair(s.fields[idx])
	}
}

// AddFields appends field samples and pairs each one against the current locations
func (s *LiveSession) AddFields(samples ...models.FieldSample) {
	for _, f := range samples {
		idx := len(s.fields)
		s.fields = append(s.fields, f)
		s.matches = append(s.matches, s.pair(f))

		pos := sort.Search(len(s.byTime), func(i int) bool {
			return s.fields[s.byTime[i]].Seconds > f.Seconds
		})
		s.byTime = append(s.byTime, 0)
		copy(s.byTime[pos+1:], s.byTime[pos:])
		s.byTime[pos] = idx
	}
}

// AddWeather appends weather observations
func (s *LiveSession) AddWeather(samples ...models.WeatherSample) {
	s.weather = append(s.weather, samples...)
}

// AddHeartRate inserts heart rate readings keeping them sorted by seconds
func (s *LiveSession) AddHeartRate(samples ...models.HeartRateSample) {
	for _, hr := range samples {
		s.heartRate = InsertHeartRate(s.heartRate, hr)
	}
}

func (s *LiveSession) pair(f models.FieldSample) liveMatch {
	p, ok := Pair(s.index, f)
	return liveMatch{point: p, ok: ok}
}

// FieldCount returns the number of field samples received so far
func (s *LiveSession) FieldCount() int {
	return len(s.fields)
}

// View builds the live view from the current state
func (s *LiveSession) View() models.LiveView {
	view := models.LiveView{
		SessionID: s.SessionID,
		Path:      []models.LatLng{},
		Zones:     []models.ZoneCircle{},
		Weather:   make([]models.WeatherMarker, 0, len(s.weather)),
		HeartRate: append([]models.HeartRateSample{}, s.heartRate...),
	}

	for _, loc := range s.index.Samples() {
		if !OnPath(loc) {
			continue
		}
		view.Path = append(view.Path, models.LatLng{Latitude: loc.Latitude, Longitude: loc.Longitude})
	}

	k := Stride(len(s.fields), s.displayLimit)
	displayed, mapped := 0, 0
	for i := 0; i < len(s.fields); i += k {
		displayed++
		m := s.matches[i]
		if !m.ok {
			continue
		}
		mapped++
		view.Zones = append(view.Zones, models.ZoneCircle{
			Latitude:     m.point.Latitude,
			Longitude:    m.point.Longitude,
			Magnitude:    m.point.Magnitude,
			RadiusMeters: DisplayRadius(m.point.Magnitude),
			Band:         ZoneBand(m.point.Magnitude),
			LegendBand:   LegendBand(m.point.Magnitude),
			Seconds:      s.fields[i].Seconds,
		})
	}

	for _, w := range s.weather {
		view.Weather = append(view.Weather, FormatWeather(w))
	}

	view.Stats = models.LiveStats{
		TotalFieldSamples:     len(s.fields),
		DisplayedFieldSamples: displayed,
		MappedFieldSamples:    mapped,
		LocationSamples:       s.index.Len(),
		PathPoints:            len(view.Path),
		PathLengthMeters:      spatial.PathLength(view.Path),
	}
	if displayed > 0 {
		view.Stats.PercentMapped = float64(mapped) / float64(displayed) * 100
	}

	if b, ok := spatial.BoundsOf(view.Path); ok {
		view.Bounds = &b
	}

	return view
}

// OnPath reports whether a fix is accurate enough for the route.
// Fixes with unknown accuracy are kept.
func OnPath(loc models.LocationSample) bool {
	return loc.HorizontalAccuracy == nil || *loc.HorizontalAccuracy <= PathAccuracyLimit
}

// InsertHeartRate inserts hr after all readings with the same or earlier seconds
func InsertHeartRate(readings []models.HeartRateSample, hr models.HeartRateSample) []models.HeartRateSample {
	pos := sort.Search(len(readings), func(i int) bool {
		return readings[i].Seconds > hr.Seconds
	})
	readings = append(readings, models.HeartRateSample{})
	copy(readings[pos+1:], readings[pos:])
	readings[pos] = hr
	return readings
}
