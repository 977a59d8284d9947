// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// StoredObject model (link metadata).
//
// All functions are context-aware and accept a *gorm.DB handle. They follow
// the "thin repository" approach: no business logic, only CRUD persistence
// and query composition. Redemption policy, accounting, and sweeping live in
// services.LinkService.
//
// Error semantics:
//   - When an object is not found, functions return gorm.ErrRecordNotFound
//     (exported as ErrNotFound in user_repo.go).
//   - On DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nkarimi/go-file-relay/internal/domain"
)

// CreateObject inserts a new StoredObject row. The caller supplies the link
// id and the fixed expiry instant; CreatedAt is set to UTC.
func CreateObject(ctx context.Context, db *gorm.DB, o *domain.StoredObject) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(o).Error
}

// GetObject fetches a single object by its link id, tombstoned rows
// included. Callers decide how to treat Deleted and ExpiresAt.
func GetObject(ctx context.Context, db *gorm.DB, id string) (*domain.StoredObject, error) {
	var o domain.StoredObject
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ObjectIDExists reports whether a row (live or tombstoned) already claims
// the given link id. Used during id generation to resolve collisions.
func ObjectIDExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.StoredObject{}).
		Where("id = ?", id).
		Count(&n).Error
	return n > 0, err
}

// ListObjectsByOwner returns all live objects owned by ownerID, newest
// first. Tombstoned rows are excluded.
func ListObjectsByOwner(ctx context.Context, db *gorm.DB, ownerID int64) ([]domain.StoredObject, error) {
	var out []domain.StoredObject
	err := db.WithContext(ctx).
		Where("owner_id = ? AND deleted = ?", ownerID, false).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListLiveObjects returns a paginated slice of all live objects across
// owners, newest first. Used by admin listings.
func ListLiveObjects(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.StoredObject, error) {
	var out []domain.StoredObject
	err := db.WithContext(ctx).
		Where("deleted = ?", false).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListExpiredObjects returns live objects whose ExpiresAt is at or before
// now, up to limit rows. The sweeper tombstones them in batches.
func ListExpiredObjects(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.StoredObject, error) {
	var out []domain.StoredObject
	err := db.WithContext(ctx).
		Where("deleted = ? AND expires_at <= ?", false, now).
		Order("expires_at asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// IncrementDownloads bumps the download counter for id by one. If no rows
// are affected (object missing), it returns ErrNotFound.
func IncrementDownloads(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.StoredObject{}).
		Where("id = ?", id).
		UpdateColumn("downloads", gorm.Expr("downloads + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkObjectDeleted tombstones the row for id. Tombstoning is idempotent:
// marking an already-deleted row affects zero rows and still succeeds, but a
// missing row returns ErrNotFound.
func MarkObjectDeleted(ctx context.Context, db *gorm.DB, id string) error {
	exists, err := ObjectIDExists(ctx, db, id)
	if err != nil {
		return err
	}
	if !exists {
		return gorm.ErrRecordNotFound
	}
	return db.WithContext(ctx).
		Model(&domain.StoredObject{}).
		Where("id = ?", id).
		Update("deleted", true).Error
}

// ExtendObjectExpiry moves the expiry of a live object to expiresAt. If no
// live row matches (missing or tombstoned), it returns ErrNotFound.
func ExtendObjectExpiry(ctx context.Context, db *gorm.DB, id string, expiresAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.StoredObject{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("expires_at", expiresAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
