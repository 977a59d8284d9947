// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// by the admin surface (the /stats command) and the per-user /me summary.
// Each function is context-aware and safe to call from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nkarimi/go-file-relay/internal/domain"
)

// RelayStats is a snapshot of global relay activity.
type RelayStats struct {
	Users          int64
	PremiumUsers   int64
	BannedUsers    int64
	LiveObjects    int64
	LiveBytes      int64
	TotalDownloads int64
}

// GlobalStats returns aggregate counters across all users and objects.
// Premium membership is evaluated at now so lapsed grants are not counted.
func GlobalStats(ctx context.Context, db *gorm.DB, now time.Time) (*RelayStats, error) {
	var st RelayStats

	if err := db.WithContext(ctx).Model(&domain.User{}).Count(&st.Users).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.User{}).
		Where("premium = ? AND premium_until > ?", true, now).
		Count(&st.PremiumUsers).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.User{}).
		Where("banned = ?", true).
		Count(&st.BannedUsers).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.StoredObject{}).
		Where("deleted = ?", false).
		Count(&st.LiveObjects).Error; err != nil {
		return nil, err
	}

	var agg struct {
		Bytes     int64
		Downloads int64
	}
	err := db.WithContext(ctx).Model(&domain.StoredObject{}).
		Select("COALESCE(SUM(CASE WHEN deleted = false THEN size ELSE 0 END), 0) AS bytes, COALESCE(SUM(downloads), 0) AS downloads").
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	st.LiveBytes = agg.Bytes
	st.TotalDownloads = agg.Downloads
	return &st, nil
}

// ObjectsStats returns aggregate metadata for a user's live objects: the
// total number of rows and the maximum UpdatedAt timestamp among those rows.
//
// When the user has no live objects, the returned count is 0 and
// maxUpdatedAt is nil.
func ObjectsStats(ctx context.Context, db *gorm.DB, ownerID int64) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.StoredObject{}).
		Where("owner_id = ? AND deleted = ?", ownerID, false)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
