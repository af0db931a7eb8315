package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jengzang/emf-backend-go/internal/ingest"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/repository"
	"github.com/jengzang/emf-backend-go/internal/stream"
)

// Sample kinds accepted by the ingestion endpoints
const (
	KindLocations    = "locations"
	KindMagnetometer = "magnetometer"
	KindWeather      = "weather"
	KindHeartRate    = "heart-rate"
)

// ImportResult counts what a tree import stored
type ImportResult struct {
	Sessions  int `json:"sessions"`
	Locations int `json:"locations"`
	Fields    int `json:"fields"`
	Weather   int `json:"weather"`
	HeartRate int `json:"heart_rate"`
}

// IngestService appends decoded samples to sessions and notifies live viewers
type IngestService struct {
	sessions *repository.SessionRepository
	samples  *repository.SampleRepository
	bus      *stream.Bus
}

// NewIngestService creates a new ingest service
func NewIngestService(sessions *repository.SessionRepository, samples *repository.SampleRepository, bus *stream.Bus) *IngestService {
	return &IngestService{
		sessions: sessions,
		samples:  samples,
		bus:      bus,
	}
}

// Append decodes body as a collection of kind and appends it to the session.
// It returns the number of samples stored.
func (s *IngestService) Append(ctx context.Context, sessionID, userID, kind string, body []byte) (int, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return 0, notFound(err)
	}
	if session.UserID != userID {
		return 0, ErrForbidden
	}

	var n int
	var store func() error
	switch kind {
	case KindLocations:
		samples, err := ingest.DecodeLocations(body)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		n = len(samples)
		store = func() error { return s.samples.AppendLocations(ctx, sessionID, samples) }
	case KindMagnetometer:
		samples, err := ingest.DecodeFields(body)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		n = len(samples)
		store = func() error { return s.samples.AppendFields(ctx, sessionID, samples) }
	case KindWeather:
		samples, err := ingest.DecodeWeather(body)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		n = len(samples)
		store = func() error { return s.samples.AppendWeather(ctx, sessionID, samples) }
	case KindHeartRate:
		samples, err := ingest.DecodeHeartRate(body)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		n = len(samples)
		store = func() error { return s.samples.AppendHeartRate(ctx, sessionID, samples) }
	default:
		return 0, fmt.Errorf("%w: unknown sample kind %q", ErrInvalidInput, kind)
	}

	if n == 0 {
		return 0, nil
	}
	if err := store(); err != nil {
		return 0, err
	}

	if err := s.sessions.IncrementTotal(ctx, sessionID, n); err != nil {
		return n, err
	}
	s.bus.Publish(stream.Notice{SessionID: sessionID, Kind: kind})
	return n, nil
}

// Import stores a tree snapshot. Each imported session replaces any stored
// session with the same id.
func (s *IngestService) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	records, err := ingest.DecodeTree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result := &ImportResult{}
	for _, rec := range records {
		session := rec.Session
		if session.Status == "" {
			session.Status = models.SessionStatusCompleted
		}
		if session.TotalSamples == 0 {
			session.TotalSamples = len(rec.Locations) + len(rec.Fields) + len(rec.Weather) + len(rec.HeartRate)
		}

		if err := s.sessions.Upsert(ctx, &session); err != nil {
			return result, err
		}
		if err := s.samples.ClearSession(ctx, session.ID); err != nil {
			return result, err
		}
		if err := s.samples.AppendLocations(ctx, session.ID, rec.Locations); err != nil {
			return result, err
		}
		if err := s.samples.AppendFields(ctx, session.ID, rec.Fields); err != nil {
			return result, err
		}
		if err := s.samples.AppendWeather(ctx, session.ID, rec.Weather); err != nil {
			return result, err
		}
		if err := s.samples.AppendHeartRate(ctx, session.ID, rec.HeartRate); err != nil {
			return result, err
		}

		result.Sessions++
		result.Locations += len(rec.Locations)
		result.Fields += len(rec.Fields)
		result.Weather += len(rec.Weather)
		result.HeartRate += len(rec.HeartRate)

		s.bus.Publish(stream.Notice{SessionID: session.ID, Kind: "import"})
	}

	log.Printf("[IngestService] Imported %d sessions (%d locations, %d field samples)",
		result.Sessions, result.Locations, result.Fields)
	return result, nil
}
