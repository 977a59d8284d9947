// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ConversationState model (per-user pending prompt slot).
//
// The slot is an upsert target: SetState always overwrites whatever mode was
// previously pending for the user. Staleness (ExpiresAt in the past) is not
// enforced here; services.StateService treats expired rows as idle.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nkarimi/go-file-relay/internal/domain"
)

// SetState upserts the prompt slot for userID with the given mode, optional
// payload, and expiry instant.
func SetState(ctx context.Context, db *gorm.DB, userID int64, mode, payload string, expiresAt time.Time) error {
	s := &domain.ConversationState{
		UserID:    userID,
		Mode:      mode,
		Payload:   payload,
		ExpiresAt: expiresAt,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"mode", "payload", "expires_at", "updated_at"}),
		}).
		Create(s).Error
}

// GetState fetches the prompt slot for userID, expired rows included. If no
// slot exists, it returns ErrNotFound.
func GetState(ctx context.Context, db *gorm.DB, userID int64) (*domain.ConversationState, error) {
	var s domain.ConversationState
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ClearState removes the prompt slot for userID. Clearing an absent slot is
// a no-op, not an error.
func ClearState(ctx context.Context, db *gorm.DB, userID int64) error {
	return db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.ConversationState{}).Error
}

// DeleteExpiredStates removes all slots whose ExpiresAt is at or before now
// and returns the number of rows removed. Called by the background sweeper.
func DeleteExpiredStates(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.ConversationState{})
	return res.RowsAffected, res.Error
}
