package services

import (
	"context"
	"testing"
	"time"

	"github.com/nkarimi/go-file-relay/internal/domain"
)

func newStateService(t *testing.T, ttl time.Duration) *StateService {
	t.Helper()
	return NewStateService(newTestDB(t), stateRepoShim{}, ttl)
}

func TestState_SetGetClear(t *testing.T) {
	s := newStateService(t, time.Hour)
	ctx := context.Background()

	// Absent slot reads as idle.
	mode, payload, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if mode != domain.ModeIdle || payload != "" {
		t.Fatalf("absent slot = (%q, %q)", mode, payload)
	}

	if err := s.Set(ctx, 42, domain.ModeAwaitingUpload, ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mode, _, err = s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if mode != domain.ModeAwaitingUpload {
		t.Fatalf("mode = %q", mode)
	}

	// A new prompt replaces the old one, payload included.
	if err := s.Set(ctx, 42, domain.ModeAdminGrantTarget, "720h"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	mode, payload, err = s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if mode != domain.ModeAdminGrantTarget || payload != "720h" {
		t.Fatalf("overwritten slot = (%q, %q)", mode, payload)
	}

	if err := s.Clear(ctx, 42); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	mode, _, _ = s.Get(ctx, 42)
	if mode != domain.ModeIdle {
		t.Fatalf("mode after Clear = %q", mode)
	}
	// Clearing an idle user is a no-op.
	if err := s.Clear(ctx, 42); err != nil {
		t.Fatalf("repeat Clear: %v", err)
	}
}

func TestState_ElapsedSlotReadsIdle(t *testing.T) {
	s := newStateService(t, time.Hour)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, 42, domain.ModeAwaitingURL, ""); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(2 * time.Hour)
	mode, payload, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if mode != domain.ModeIdle || payload != "" {
		t.Fatalf("elapsed slot = (%q, %q); want idle", mode, payload)
	}
}

func TestState_SweepExpired(t *testing.T) {
	s := newStateService(t, time.Hour)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, 1, domain.ModeAwaitingUpload, ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(30 * time.Minute)
	if err := s.Set(ctx, 2, domain.ModeAwaitingURL, ""); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// 45 minutes later only user 1's slot has elapsed.
	now = now.Add(45 * time.Minute)
	n, err := s.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d; want 1", n)
	}
	if mode, _, _ := s.Get(ctx, 2); mode != domain.ModeAwaitingURL {
		t.Fatalf("live slot lost, mode = %q", mode)
	}

	n, err = s.SweepExpired(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second sweep = (%d, %v); want (0, nil)", n, err)
	}
}
