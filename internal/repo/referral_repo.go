// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ReferralEdge model.
//
// A referral edge records that a referee has been credited to a referrer.
// The unique (referee_id, referrer_id) index is the idempotency anchor:
// CreateReferralEdge translates the constraint violation into
// ErrDuplicateReferral so the service layer can treat replays as no-ops.
package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nkarimi/go-file-relay/internal/domain"
)

// ErrDuplicateReferral is returned when the (referee, referrer) pair has
// already been recorded.
var ErrDuplicateReferral = errors.New("repo: referral edge already exists")

// CreateReferralEdge inserts an edge crediting refereeID to referrerID.
// The edge ID is a randomly generated UUID. If the pair already exists,
// it returns ErrDuplicateReferral; other DB errors are propagated raw.
func CreateReferralEdge(ctx context.Context, db *gorm.DB, refereeID, referrerID int64) error {
	e := &domain.ReferralEdge{
		ID:         uuid.NewString(),
		RefereeID:  refereeID,
		ReferrerID: referrerID,
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReferral
		}
		return err
	}
	return nil
}

// CountReferrals returns the number of distinct referees credited to
// referrerID.
func CountReferrals(ctx context.Context, db *gorm.DB, referrerID int64) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ReferralEdge{}).
		Where("referrer_id = ?", referrerID).
		Count(&n).Error
	return n, err
}

// HasReferrer reports whether refereeID has already been credited to any
// referrer. Originals of the deep link only count once, ever.
func HasReferrer(ctx context.Context, db *gorm.DB, refereeID int64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ReferralEdge{}).
		Where("referee_id = ?", refereeID).
		Count(&n).Error
	return n > 0, err
}

// isUniqueViolation detects a unique-index conflict from the pure Go SQLite
// driver, which surfaces it as a plain error string rather than a typed
// error.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}
