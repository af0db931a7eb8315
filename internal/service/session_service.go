package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jengzang/emf-backend-go/internal/fusion"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/repository"
	"github.com/jengzang/emf-backend-go/internal/spatial"
	"github.com/jengzang/emf-backend-go/internal/stats"
)

// SessionService handles session metadata and per-session summaries
type SessionService struct {
	sessions *repository.SessionRepository
	samples  *repository.SampleRepository
}

// NewSessionService creates a new session service
func NewSessionService(sessions *repository.SessionRepository, samples *repository.SampleRepository) *SessionService {
	return &SessionService{
		sessions: sessions,
		samples:  samples,
	}
}

// List returns sessions newest first
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]*models.Session, int64, error) {
	return s.sessions.List(ctx, filter)
}

// Get returns one session
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return session, nil
}

// Create starts a new recording session for userID.
// An empty timestamp defaults to now.
func (s *SessionService) Create(ctx context.Context, userID, timestamp string) (*models.Session, error) {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Timestamp: timestamp,
		Status:    models.SessionStatusRecording,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Complete marks a session as completed. Only its owner may do so.
func (s *SessionService) Complete(ctx context.Context, id, userID string) (*models.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}

	if err := s.sessions.UpdateStatus(ctx, id, models.SessionStatusCompleted); err != nil {
		return nil, err
	}
	session.Status = models.SessionStatusCompleted
	return session, nil
}

// Summary computes counts, duration, path length, magnitude and heart rate statistics
func (s *SessionService) Summary(ctx context.Context, id string) (*models.SessionSummary, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	batch, _, err := s.samples.LoadSince(ctx, id, repository.Cursor{})
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	summary := &models.SessionSummary{
		Session:        session,
		LocationCount:  len(batch.Locations),
		FieldCount:     len(batch.Fields),
		WeatherCount:   len(batch.Weather),
		HeartRateCount: len(batch.HeartRate),
	}

	index := fusion.NewTimeIndex(batch.Locations, 0)
	var path []models.LatLng
	for _, loc := range index.Samples() {
		if fusion.OnPath(loc) {
			path = append(path, models.LatLng{Latitude: loc.Latitude, Longitude: loc.Longitude})
		}
	}
	summary.PathLengthMeters = spatial.PathLength(path)

	var seconds []float64
	for _, loc := range batch.Locations {
		seconds = append(seconds, loc.Seconds)
	}
	magnitudes := make([]float64, 0, len(batch.Fields))
	for _, f := range batch.Fields {
		seconds = append(seconds, f.Seconds)
		magnitudes = append(magnitudes, fusion.Magnitude(f))
	}
	if len(seconds) > 0 {
		summary.DurationSeconds = stats.Max(seconds) - stats.Min(seconds)
	}

	summary.Magnitude = models.MagnitudeSummary{
		Mean: stats.Mean(magnitudes),
		Min:  stats.Min(magnitudes),
		Max:  stats.Max(magnitudes),
		P95:  stats.Percentile(magnitudes, 95),
	}

	readings := sortHeartRate(batch.HeartRate)
	summary.HeartRate = summarizeHeartRate(readings)
	summary.Weather = summarizeWeather(batch.Weather)

	return summary, nil
}

// HeartRate returns the session's heart rate readings sorted by seconds
func (s *SessionService) HeartRate(ctx context.Context, id string) (*models.HeartRateSeries, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	batch, _, err := s.samples.LoadSince(ctx, id, repository.Cursor{})
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	readings := sortHeartRate(batch.HeartRate)
	return &models.HeartRateSeries{
		SessionID: id,
		Readings:  readings,
		Summary:   summarizeHeartRate(readings),
	}, nil
}

func sortHeartRate(in []models.HeartRateSample) []models.HeartRateSample {
	out := make([]models.HeartRateSample, 0, len(in))
	for _, hr := range in {
		out = fusion.InsertHeartRate(out, hr)
	}
	return out
}

// summarizeHeartRate expects readings sorted by seconds
func summarizeHeartRate(readings []models.HeartRateSample) models.HeartRateSummary {
	summary := models.HeartRateSummary{Count: len(readings)}
	if len(readings) == 0 {
		return summary
	}

	bpm := make([]float64, len(readings))
	for i, r := range readings {
		bpm[i] = r.BPM
	}
	summary.Latest = readings[len(readings)-1].BPM
	summary.Mean = stats.Mean(bpm)
	summary.Min = stats.Min(bpm)
	summary.Max = stats.Max(bpm)
	return summary
}

// summarizeWeather expects observations in arrival order
func summarizeWeather(observations []models.WeatherSample) models.WeatherSummary {
	var summary models.WeatherSummary
	var temps, humidity, wind, directions []float64
	for _, w := range observations {
		if w.Temperature != nil {
			temps = append(temps, *w.Temperature)
		}
		if w.Humidity != nil {
			humidity = append(humidity, *w.Humidity)
		}
		if w.WindSpeed != nil {
			wind = append(wind, *w.WindSpeed)
		}
		if w.WindDirection != nil {
			directions = append(directions, *w.WindDirection)
		}
		if w.Condition != "" {
			summary.LatestCondition = w.Condition
		}
	}

	summary.MeanTemperature = meanOf(temps)
	summary.MeanHumidity = meanOf(humidity)
	summary.MeanWindSpeed = meanOf(wind)
	if len(directions) > 0 {
		mean, r := spatial.MeanBearing(directions)
		summary.MeanWindDirection = &mean
		summary.WindSteadiness = &r
	}
	return summary
}

func meanOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := stats.Mean(values)
	return &m
}
