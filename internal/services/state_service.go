// Package services – StateService
//
// This file implements the StateService, which manages the per-user
// conversation slot. A user has at most one pending prompt at a time;
// setting a new one overwrites the old, and an elapsed TTL silently reverts
// the user to idle so a forgotten prompt never traps them.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nkarimi/go-file-relay/internal/domain"
)

// StateRepo defines the repository contract required by StateService.
type StateRepo interface {
	// SetState upserts the prompt slot for a user.
	SetState(ctx context.Context, db *gorm.DB, userID int64, mode, payload string, expiresAt time.Time) error

	// GetState fetches the slot or returns gorm.ErrRecordNotFound.
	GetState(ctx context.Context, db *gorm.DB, userID int64) (*domain.ConversationState, error)

	// ClearState removes the slot; absent slots are a no-op.
	ClearState(ctx context.Context, db *gorm.DB, userID int64) error

	// DeleteExpiredStates removes all elapsed slots, returning the count.
	DeleteExpiredStates(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}

// StateService provides conversation-slot operations for the bot router.
type StateService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the state repository used by this service.
	Repo StateRepo
	// TTL bounds how long a prompt stays pending.
	TTL time.Duration

	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time
}

// NewStateService constructs a StateService.
func NewStateService(db *gorm.DB, r StateRepo, ttl time.Duration) *StateService {
	return &StateService{DB: db, Repo: r, TTL: ttl}
}

func (s *StateService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Set records mode (with optional payload) as the user's pending prompt,
// replacing whatever was there.
func (s *StateService) Set(ctx context.Context, userID int64, mode, payload string) error {
	return s.Repo.SetState(ctx, s.DB, userID, mode, payload, s.now().Add(s.TTL))
}

// Get returns the user's current mode and payload. Absent and elapsed slots
// both read as ModeIdle with an empty payload.
func (s *StateService) Get(ctx context.Context, userID int64) (mode, payload string, err error) {
	st, err := s.Repo.GetState(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ModeIdle, "", nil
		}
		return "", "", err
	}
	if !st.Active(s.now()) {
		return domain.ModeIdle, "", nil
	}
	return st.Mode, st.Payload, nil
}

// Clear reverts the user to idle.
func (s *StateService) Clear(ctx context.Context, userID int64) error {
	return s.Repo.ClearState(ctx, s.DB, userID)
}

// SweepExpired removes all elapsed slots and returns how many went away.
func (s *StateService) SweepExpired(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpiredStates(ctx, s.DB, s.now())
}
