package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/emf-backend-go/internal/database"
	"github.com/jengzang/emf-backend-go/internal/fusion"
	"github.com/jengzang/emf-backend-go/internal/models"
)

// Cursor marks how far a reader has consumed each sample stream of a session.
// Values are row ids; a zero cursor reads from the beginning.
type Cursor struct {
	Location  int64 `json:"location"`
	Field     int64 `json:"field"`
	Weather   int64 `json:"weather"`
	HeartRate int64 `json:"heart_rate"`
}

// Batch holds samples read past a cursor, in insertion order
type Batch struct {
	Locations []models.LocationSample
	Fields    []models.FieldSample
	Weather   []models.WeatherSample
	HeartRate []models.HeartRateSample
}

// Len returns the number of samples in the batch
func (b Batch) Len() int {
	return len(b.Locations) + len(b.Fields) + len(b.Weather) + len(b.HeartRate)
}

// SampleRepository handles the four per-session sample streams
type SampleRepository struct {
	db *sql.DB
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(db *sql.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

func (r *SampleRepository) insertAll(ctx context.Context, query string, n int, args func(i int) []interface{}) error {
	if n == 0 {
		return nil
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := 0; i < n; i++ {
			if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
				return fmt.Errorf("failed to insert sample %d: %w", i, err)
			}
		}
		return nil
	})
}

// AppendLocations stores location samples in arrival order
func (r *SampleRepository) AppendLocations(ctx context.Context, sessionID string, samples []models.LocationSample) error {
	query := `
		INSERT INTO location_samples (
			session_id, seconds, latitude, longitude, altitude, velocity, direction, horizontal_accuracy
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	return r.insertAll(ctx, query, len(samples), func(i int) []interface{} {
		s := samples[i]
		return []interface{}{sessionID, s.Seconds, s.Latitude, s.Longitude, s.Altitude, s.Velocity, s.Direction, nullable(s.HorizontalAccuracy)}
	})
}

// AppendFields stores magnetometer samples in arrival order
func (r *SampleRepository) AppendFields(ctx context.Context, sessionID string, samples []models.FieldSample) error {
	query := `INSERT INTO field_samples (session_id, seconds, x, y, z) VALUES (?, ?, ?, ?, ?)`
	return r.insertAll(ctx, query, len(samples), func(i int) []interface{} {
		s := samples[i]
		return []interface{}{sessionID, s.Seconds, s.X, s.Y, s.Z}
	})
}

// AppendWeather stores weather observations in arrival order
func (r *SampleRepository) AppendWeather(ctx context.Context, sessionID string, samples []models.WeatherSample) error {
	query := `
		INSERT INTO weather_samples (
			session_id, timestamp, latitude, longitude, temperature, humidity, pressure,
			wind_speed, wind_direction, rain_1h, clouds_percent, condition
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return r.insertAll(ctx, query, len(samples), func(i int) []interface{} {
		s := samples[i]
		return []interface{}{
			sessionID, s.Timestamp, s.Latitude, s.Longitude,
			nullable(s.Temperature), nullable(s.Humidity), nullable(s.Pressure),
			nullable(s.WindSpeed), nullable(s.WindDirection), nullable(s.Rain1h), nullable(s.CloudsPercent),
			s.Condition,
		}
	})
}

// AppendHeartRate stores heart rate readings in arrival order
func (r *SampleRepository) AppendHeartRate(ctx context.Context, sessionID string, samples []models.HeartRateSample) error {
	query := `INSERT INTO heart_rate_samples (session_id, seconds, bpm, timestamp) VALUES (?, ?, ?, ?)`
	return r.insertAll(ctx, query, len(samples), func(i int) []interface{} {
		s := samples[i]
		return []interface{}{sessionID, s.Seconds, s.BPM, s.Timestamp}
	})
}

// LoadSince returns the samples stored after cursor and the advanced cursor
func (r *SampleRepository) LoadSince(ctx context.Context, sessionID string, cursor Cursor) (Batch, Cursor, error) {
	var batch Batch
	next := cursor
	var err error

	if batch.Locations, next.Location, err = r.loadLocations(ctx, sessionID, cursor.Location); err != nil {
		return batch, cursor, err
	}
	if batch.Fields, next.Field, err = r.loadFields(ctx, sessionID, cursor.Field); err != nil {
		return batch, cursor, err
	}
	if batch.Weather, next.Weather, err = r.loadWeather(ctx, sessionID, cursor.Weather); err != nil {
		return batch, cursor, err
	}
	if batch.HeartRate, next.HeartRate, err = r.loadHeartRate(ctx, sessionID, cursor.HeartRate); err != nil {
		return batch, cursor, err
	}

	return batch, next, nil
}

// LoadAll returns the location and field streams of every session matching
// filter, ordered by user id then session id.
func (r *SampleRepository) LoadAll(ctx context.Context, filter models.AggregateFilter) ([]fusion.SessionSamples, error) {
	sessions, err := r.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if err := r.LoadStreams(ctx, &sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// ListSessions returns the sessions matching filter without their streams,
// ordered by user id then session id
func (r *SampleRepository) ListSessions(ctx context.Context, filter models.AggregateFilter) ([]fusion.SessionSamples, error) {
	var conditions []string
	var args []interface{}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT id, user_id, status FROM sessions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY user_id, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []fusion.SessionSamples{}
	for rows.Next() {
		var s fusion.SessionSamples
		if err := rows.Scan(&s.SessionID, &s.UserID, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// LoadStreams fills the location and field streams of s
func (r *SampleRepository) LoadStreams(ctx context.Context, s *fusion.SessionSamples) error {
	var err error
	if s.Locations, _, err = r.loadLocations(ctx, s.SessionID, 0); err != nil {
		return err
	}
	if s.Fields, _, err = r.loadFields(ctx, s.SessionID, 0); err != nil {
		return err
	}
	return nil
}

func (r *SampleRepository) loadLocations(ctx context.Context, sessionID string, after int64) ([]models.LocationSample, int64, error) {
	query := `
		SELECT id, seconds, latitude, longitude, altitude, velocity, direction, horizontal_accuracy
		FROM location_samples
		WHERE session_id = ? AND id > ?
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID, after)
	if err != nil {
		return nil, after, fmt.Errorf("failed to load location samples: %w", err)
	}
	defer rows.Close()

	var out []models.LocationSample
	last := after
	for rows.Next() {
		var s models.LocationSample
		var acc sql.NullFloat64
		if err := rows.Scan(&last, &s.Seconds, &s.Latitude, &s.Longitude, &s.Altitude, &s.Velocity, &s.Direction, &acc); err != nil {
			return nil, after, fmt.Errorf("failed to scan location sample: %w", err)
		}
		s.HorizontalAccuracy = pointer(acc)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, after, fmt.Errorf("failed to iterate location samples: %w", err)
	}
	return out, last, nil
}

func (r *SampleRepository) loadFields(ctx context.Context, sessionID string, after int64) ([]models.FieldSample, int64, error) {
	query := `SELECT id, seconds, x, y, z FROM field_samples WHERE session_id = ? AND id > ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, sessionID, after)
	if err != nil {
		return nil, after, fmt.Errorf("failed to load field samples: %w", err)
	}
	defer rows.Close()

	var out []models.FieldSample
	last := after
	for rows.Next() {
		var s models.FieldSample
		if err := rows.Scan(&last, &s.Seconds, &s.X, &s.Y, &s.Z); err != nil {
			return nil, after, fmt.Errorf("failed to scan field sample: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, after, fmt.Errorf("failed to iterate field samples: %w", err)
	}
	return out, last, nil
}

func (r *SampleRepository) loadWeather(ctx context.Context, sessionID string, after int64) ([]models.WeatherSample, int64, error) {
	query := `
		SELECT id, timestamp, latitude, longitude, temperature, humidity, pressure,
			wind_speed, wind_direction, rain_1h, clouds_percent, condition
		FROM weather_samples
		WHERE session_id = ? AND id > ?
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID, after)
	if err != nil {
		return nil, after, fmt.Errorf("failed to load weather samples: %w", err)
	}
	defer rows.Close()

	var out []models.WeatherSample
	last := after
	for rows.Next() {
		var s models.WeatherSample
		var temp, humidity, pressure, wind, windDir, rain, clouds sql.NullFloat64
		err := rows.Scan(&last, &s.Timestamp, &s.Latitude, &s.Longitude,
			&temp, &humidity, &pressure, &wind, &windDir, &rain, &clouds, &s.Condition)
		if err != nil {
			return nil, after, fmt.Errorf("failed to scan weather sample: %w", err)
		}
		s.Temperature = pointer(temp)
		s.Humidity = pointer(humidity)
		s.Pressure = pointer(pressure)
		s.WindSpeed = pointer(wind)
		s.WindDirection = pointer(windDir)
		s.Rain1h = pointer(rain)
		s.CloudsPercent = pointer(clouds)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, after, fmt.Errorf("failed to iterate weather samples: %w", err)
	}
	return out, last, nil
}

func (r *SampleRepository) loadHeartRate(ctx context.Context, sessionID string, after int64) ([]models.HeartRateSample, int64, error) {
	query := `SELECT id, seconds, bpm, timestamp FROM heart_rate_samples WHERE session_id = ? AND id > ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, sessionID, after)
	if err != nil {
		return nil, after, fmt.Errorf("failed to load heart rate samples: %w", err)
	}
	defer rows.Close()

	var out []models.HeartRateSample
	last := after
	for rows.Next() {
		var s models.HeartRateSample
		if err := rows.Scan(&last, &s.Seconds, &s.BPM, &s.Timestamp); err != nil {
			return nil, after, fmt.Errorf("failed to scan heart rate sample: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, after, fmt.Errorf("failed to iterate heart rate samples: %w", err)
	}
	return out, last, nil
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func pointer(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// ClearSession removes every stored sample of a session
func (r *SampleRepository) ClearSession(ctx context.Context, sessionID string) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		for _, table := range []string{"location_samples", "field_samples", "weather_samples", "heart_rate_samples"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", sessionID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}
