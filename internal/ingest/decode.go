// Package ingest decodes records delivered by the session store.
//
// The store is a key tree: users/{userId}/sessions/{sessionId} holds session
// metadata plus the locationData, magnetometerData, openWeather and
// heartRateData collections. A collection is either a JSON array (holes are
// null) or an object of keyed children. Records that lack a required field are
// skipped; only malformed JSON is reported as an error.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/spf13/cast"

	"github.com/jengzang/emf-backend-go/internal/fusion"
	"github.com/jengzang/emf-backend-go/internal/models"
)

// Collection keys under a session node
const (
	KeyLocations = "locationData"
	KeyFields    = "magnetometerData"
	KeyWeather   = "openWeather"
	KeyHeartRate = "heartRateData"
)

// SessionRecord is one decoded session with all of its streams
type SessionRecord struct {
	Session   models.Session
	Locations []models.LocationSample
	Fields    []models.FieldSample
	Weather   []models.WeatherSample
	HeartRate []models.HeartRateSample
}

// Samples returns the streams the cross-session reducer consumes
func (r SessionRecord) Samples() fusion.SessionSamples {
	return fusion.SessionSamples{
		UserID:    r.Session.UserID,
		SessionID: r.Session.ID,
		Status:    r.Session.Status,
		Locations: r.Locations,
		Fields:    r.Fields,
	}
}

// DecodeTree decodes a snapshot of the whole user tree. The document may be
// the users node itself or an object holding it under "users".
// Sessions are returned ordered by user id, then session id.
func DecodeTree(data []byte) ([]SessionRecord, error) {
	users := data
	if v, t, _, err := jsonparser.Get(data, "users"); err == nil && t == jsonparser.Object {
		users = v
	}

	var records []SessionRecord
	err := jsonparser.ObjectEach(users, func(userKey []byte, user []byte, t jsonparser.ValueType, _ int) error {
		if t != jsonparser.Object {
			return nil
		}
		userID := string(userKey)

		sessions, st, _, err := jsonparser.Get(user, "sessions")
		if err != nil || st != jsonparser.Object {
			return nil
		}

		return jsonparser.ObjectEach(sessions, func(sessionKey []byte, node []byte, t jsonparser.ValueType, _ int) error {
			if t != jsonparser.Object {
				return nil
			}
			rec, err := DecodeSession(userID, string(sessionKey), node)
			if err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode user tree: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Session.UserID != records[j].Session.UserID {
			return records[i].Session.UserID < records[j].Session.UserID
		}
		return records[i].Session.ID < records[j].Session.ID
	})
	return records, nil
}

// DecodeSession decodes one session node
func DecodeSession(userID, sessionID string, node []byte) (SessionRecord, error) {
	rec := SessionRecord{
		Session: models.Session{
			ID:        sessionID,
			UserID:    userID,
			Timestamp: text(node, "timestamp"),
			Status:    text(node, "status"),
		},
	}
	if n, ok := number(node, "totalSamples"); ok {
		rec.Session.TotalSamples = int(n)
	}

	var err error
	if rec.Locations, err = decodeChild(node, KeyLocations, DecodeLocations); err != nil {
		return rec, err
	}
	if rec.Fields, err = decodeChild(node, KeyFields, DecodeFields); err != nil {
		return rec, err
	}
	if rec.Weather, err = decodeChild(node, KeyWeather, DecodeWeather); err != nil {
		return rec, err
	}
	if rec.HeartRate, err = decodeChild(node, KeyHeartRate, DecodeHeartRate); err != nil {
		return rec, err
	}
	return rec, nil
}

func decodeChild[T any](node []byte, key string, decode func([]byte) ([]T, error)) ([]T, error) {
	v, _, _, err := jsonparser.Get(node, key)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return decode(v)
}

// DecodeLocations decodes a location collection
func DecodeLocations(data []byte) ([]models.LocationSample, error) {
	var out []models.LocationSample
	err := eachRecord(data, func(rec []byte) {
		seconds, ok1 := number(rec, "seconds")
		lat, ok2 := number(rec, "latitude", "lat")
		lon, ok3 := number(rec, "longitude", "lon")
		if !ok1 || !ok2 || !ok3 {
			return
		}

		s := models.LocationSample{
			Seconds:   seconds,
			Latitude:  lat,
			Longitude: lon,
		}
		s.Altitude, _ = number(rec, "altitude")
		s.Velocity, _ = number(rec, "velocity")
		s.Direction, _ = number(rec, "direction")
		s.HorizontalAccuracy = optional(rec, "horizAcc", "horizontalAccuracy")
		out = append(out, s)
	})
	return out, err
}

// DecodeFields decodes a magnetometer collection. Missing axes read as zero.
func DecodeFields(data []byte) ([]models.FieldSample, error) {
	var out []models.FieldSample
	err := eachRecord(data, func(rec []byte) {
		seconds, ok := number(rec, "seconds")
		if !ok {
			return
		}

		s := models.FieldSample{Seconds: seconds}
		s.X, _ = number(rec, "x")
		s.Y, _ = number(rec, "y")
		s.Z, _ = number(rec, "z")
		out = append(out, s)
	})
	return out, err
}

// DecodeWeather decodes a weather collection
func DecodeWeather(data []byte) ([]models.WeatherSample, error) {
	var out []models.WeatherSample
	err := eachRecord(data, func(rec []byte) {
		lat, ok1 := number(rec, "lat", "latitude")
		lon, ok2 := number(rec, "lon", "longitude")
		if !ok1 || !ok2 {
			return
		}

		out = append(out, models.WeatherSample{
			Timestamp:     text(rec, "ts", "timestamp"),
			Latitude:      lat,
			Longitude:     lon,
			Temperature:   optional(rec, "temp", "temperature"),
			Humidity:      optional(rec, "humidity"),
			Pressure:      optional(rec, "pressure_hpa", "pressure"),
			WindSpeed:     optional(rec, "wind_ms", "windSpeed"),
			WindDirection: optional(rec, "wind_deg", "windDirection"),
			Rain1h:        optional(rec, "rain_1h_mm", "rain1h"),
			CloudsPercent: optional(rec, "clouds_pct", "cloudsPercent"),
			Condition:     text(rec, "cond", "condition"),
		})
	})
	return out, err
}

// DecodeHeartRate decodes a heart rate collection, sorted by seconds
func DecodeHeartRate(data []byte) ([]models.HeartRateSample, error) {
	var out []models.HeartRateSample
	err := eachRecord(data, func(rec []byte) {
		seconds, ok1 := number(rec, "seconds")
		bpm, ok2 := number(rec, "bpm")
		if !ok1 || !ok2 {
			return
		}
		out = fusion.InsertHeartRate(out, models.HeartRateSample{
			Seconds:   seconds,
			BPM:       bpm,
			Timestamp: text(rec, "timestamp"),
		})
	})
	return out, err
}

// eachRecord calls fn for every object record of a collection. An object
// without any object-valued child is treated as a single record.
func eachRecord(data []byte, fn func(rec []byte)) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '[':
		var inner error
		_, err := jsonparser.ArrayEach(data, func(value []byte, t jsonparser.ValueType, _ int, err error) {
			if err != nil {
				inner = err
				return
			}
			if t == jsonparser.Object {
				fn(value)
			}
		})
		if err == nil {
			err = inner
		}
		if err != nil {
			return fmt.Errorf("failed to decode collection: %w", err)
		}
		return nil

	case '{':
		var children [][]byte
		scalars := 0
		err := jsonparser.ObjectEach(data, func(_ []byte, value []byte, t jsonparser.ValueType, _ int) error {
			if t == jsonparser.Object {
				children = append(children, value)
			} else {
				scalars++
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to decode collection: %w", err)
		}

		if len(children) == 0 && scalars > 0 {
			fn(data)
			return nil
		}
		for _, child := range children {
			fn(child)
		}
		return nil

	case 'n':
		return nil
	}

	return fmt.Errorf("failed to decode collection: unexpected %q", data[0])
}

// number reads the first key holding a finite number. JSON numbers and
// numeric strings are accepted; null or unparsable values fall through to
// the next key.
func number(rec []byte, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, t, _, err := jsonparser.Get(rec, key)
		if err != nil {
			continue
		}

		var f float64
		switch t {
		case jsonparser.Number:
			f, err = jsonparser.ParseFloat(v)
		case jsonparser.String:
			var s string
			s, err = jsonparser.ParseString(v)
			if err == nil {
				f, err = cast.ToFloat64E(strings.TrimSpace(s))
			}
		default:
			continue
		}

		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		return f, true
	}
	return 0, false
}

func optional(rec []byte, keys ...string) *float64 {
	f, ok := number(rec, keys...)
	if !ok {
		return nil
	}
	return &f
}

func text(rec []byte, keys ...string) string {
	for _, key := range keys {
		v, t, _, err := jsonparser.Get(rec, key)
		if err != nil {
			continue
		}
		switch t {
		case jsonparser.String:
			s, err := jsonparser.ParseString(v)
			if err == nil {
				return s
			}
		case jsonparser.Number:
			return string(v)
		}
	}
	return ""
}
