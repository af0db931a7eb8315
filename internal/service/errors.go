package service

import (
	"errors"

	"github.com/jengzang/emf-backend-go/internal/repository"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown
	ErrSessionNotFound = errors.New("session not found")
	// ErrForbidden is returned when a caller writes to another user's session
	ErrForbidden = errors.New("session belongs to another user")
	// ErrInvalidInput wraps request payloads that cannot be decoded
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidSkill is returned for analysis skills without an analyzer
	ErrInvalidSkill = errors.New("invalid skill name")
	// ErrTaskNotFound is returned when an analysis task id is unknown
	ErrTaskNotFound = errors.New("analysis task not found")
	// ErrSnapshotNotFound is returned when no zone snapshot has been computed
	ErrSnapshotNotFound = errors.New("no zone snapshot")
)

// notFound maps a missing session row to ErrSessionNotFound
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}
