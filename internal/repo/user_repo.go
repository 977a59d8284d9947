// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - GetOrCreateUser(ctx, db, telegramID, displayName) -> *domain.User, error
//     Fetches the user row, inserting a fresh one on first contact.
//
//   - GetUser(ctx, db, telegramID) -> *domain.User, error
//     Fetches a single user, or ErrNotFound if missing.
//
//   - SaveUser(ctx, db, u) -> error
//     Persists all mutable fields of an existing user row.
//
//   - ListUsers(ctx, db, offset, limit) -> []domain.User, error
//     Returns a paginated slice of users, newest first.
//
//   - CountUsers(ctx, db) -> (int64, error)
//     Returns the total number of known users.
//
//   - SetBanned(ctx, db, telegramID, banned) -> error
//     Flips the ban flag, enforcing row existence.
//
//   - DeleteUser(ctx, db, telegramID) -> error
//     Removes the user row entirely (the admin forget flow).
//
// This repository is designed to be wrapped by a higher-level service
// (see services.QuotaService) which enforces entitlement rules.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nkarimi/go-file-relay/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetOrCreateUser fetches the user row for telegramID, creating it on first
// contact. A newly created row starts with zero counters and today's usage
// date left empty. DisplayName is refreshed on every call so renames on the
// platform are eventually reflected.
func GetOrCreateUser(ctx context.Context, db *gorm.DB, telegramID int64, displayName string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error
	if err == nil {
		if displayName != "" && displayName != u.DisplayName {
			u.DisplayName = displayName
			if err := db.WithContext(ctx).Model(&u).Update("display_name", displayName).Error; err != nil {
				return nil, err
			}
		}
		return &u, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	u = domain.User{
		TelegramID:  telegramID,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a single user by telegramID. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetUser(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveUser persists all mutable fields of an existing user row.
// On DB error, the raw error is returned.
func SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Save(u).Error
}

// ListUsers returns a paginated slice of users ordered by creation time
// descending. Use CountUsers to obtain the total for pagination metadata.
func ListUsers(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountUsers returns the total number of known users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, err
}

// bumpUserCounter increments a whitelisted counter column by one.
func bumpUserCounter(ctx context.Context, db *gorm.DB, telegramID int64, column string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("telegram_id = ?", telegramID).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementFilesCreated bumps the lifetime uploaded-conversion counter.
func IncrementFilesCreated(ctx context.Context, db *gorm.DB, telegramID int64) error {
	return bumpUserCounter(ctx, db, telegramID, "files_created")
}

// IncrementLinksFetched bumps the lifetime URL-conversion counter.
func IncrementLinksFetched(ctx context.Context, db *gorm.DB, telegramID int64) error {
	return bumpUserCounter(ctx, db, telegramID, "links_fetched")
}

// IncrementDownloadsServed bumps the lifetime redemption counter.
func IncrementDownloadsServed(ctx context.Context, db *gorm.DB, telegramID int64) error {
	return bumpUserCounter(ctx, db, telegramID, "downloads_served")
}

// DeleteUser removes the user row for telegramID. If no rows are affected
// (user missing), it returns ErrNotFound.
func DeleteUser(ctx context.Context, db *gorm.DB, telegramID int64) error {
	res := db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetBanned flips the ban flag for telegramID. If no rows are affected
// (user missing), it returns ErrNotFound.
func SetBanned(ctx context.Context, db *gorm.DB, telegramID int64, banned bool) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("telegram_id = ?", telegramID).
		Update("banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
