package service

import (
	"context"
	"log"

	"github.com/jengzang/emf-backend-go/internal/fusion"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/repository"
	"github.com/jengzang/emf-backend-go/internal/stream"
)

// LiveService builds per-session live views and keeps them current
type LiveService struct {
	sessions     *repository.SessionRepository
	samples      *repository.SampleRepository
	bus          *stream.Bus
	tolerance    float64
	displayLimit int
}

// NewLiveService creates a new live service
func NewLiveService(sessions *repository.SessionRepository, samples *repository.SampleRepository, bus *stream.Bus, tolerance float64, displayLimit int) *LiveService {
	if tolerance <= 0 {
		tolerance = fusion.DefaultMatchTolerance
	}
	if displayLimit <= 0 {
		displayLimit = fusion.DefaultDisplayLimit
	}
	return &LiveService{
		sessions:     sessions,
		samples:      samples,
		bus:          bus,
		tolerance:    tolerance,
		displayLimit: displayLimit,
	}
}

// Open folds everything stored for a session into a new live session and
// returns the cursor it has consumed up to
func (s *LiveService) Open(ctx context.Context, sessionID string) (*fusion.LiveSession, repository.Cursor, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, repository.Cursor{}, notFound(err)
	}

	live := fusion.NewLiveSession(sessionID, s.tolerance, s.displayLimit)
	batch, cursor, err := s.samples.LoadSince(ctx, sessionID, repository.Cursor{})
	if err != nil {
		return nil, repository.Cursor{}, err
	}
	apply(live, batch)
	return live, cursor, nil
}

// View returns the current live view of a session
func (s *LiveService) View(ctx context.Context, sessionID string) (*models.LiveView, error) {
	live, _, err := s.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := live.View()
	return &view, nil
}

// Watch streams the session's live view: the current view first, then a new
// view whenever samples arrive. The channel closes when ctx ends.
func (s *LiveService) Watch(ctx context.Context, sessionID string) (<-chan models.LiveView, error) {
	ctx, cancel := context.WithCancel(ctx)

	// Subscribe before the initial read so no append falls between the two
	notices := s.bus.Subscribe(ctx, sessionID)

	live, cursor, err := s.Open(ctx, sessionID)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan models.LiveView, 1)
	out <- live.View()

	go func() {
		defer cancel()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-notices:
				if !ok {
					return
				}
			}

			batch, next, err := s.samples.LoadSince(ctx, sessionID, cursor)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[LiveService] Failed to load increment for %s: %v", sessionID, err)
				}
				return
			}
			if batch.Len() == 0 {
				continue
			}
			cursor = next
			apply(live, batch)

			select {
			case out <- live.View():
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func apply(live *fusion.LiveSession, batch repository.Batch) {
	live.AddLocations(batch.Locations...)
	live.AddFields(batch.Fields...)
	live.AddWeather(batch.Weather...)
	live.AddHeartRate(batch.HeartRate...)
}
