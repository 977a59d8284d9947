package main

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nkarimi/go-file-relay/internal/domain"
	"github.com/nkarimi/go-file-relay/internal/repo"
)

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the QuotaService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type userRepoShim struct{}

// GetOrCreateUser proxies repo.GetOrCreateUser.
func (userRepoShim) GetOrCreateUser(ctx context.Context, db *gorm.DB, telegramID int64, displayName string) (*domain.User, error) {
	return repo.GetOrCreateUser(ctx, db, telegramID, displayName)
}

// GetUser proxies repo.GetUser.
func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.User, error) {
	return repo.GetUser(ctx, db, telegramID)
}

// SaveUser proxies repo.SaveUser.
func (userRepoShim) SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.SaveUser(ctx, db, u)
}

// ListUsers proxies repo.ListUsers (pagination support).
func (userRepoShim) ListUsers(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	return repo.ListUsers(ctx, db, offset, limit)
}

// CountUsers proxies repo.CountUsers (pagination support).
func (userRepoShim) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}

// SetBanned proxies repo.SetBanned.
func (userRepoShim) SetBanned(ctx context.Context, db *gorm.DB, telegramID int64, banned bool) error {
	return repo.SetBanned(ctx, db, telegramID, banned)
}

// DeleteUser proxies repo.DeleteUser.
func (userRepoShim) DeleteUser(ctx context.Context, db *gorm.DB, telegramID int64) error {
	return repo.DeleteUser(ctx, db, telegramID)
}

// GlobalStats proxies repo.GlobalStats.
func (userRepoShim) GlobalStats(ctx context.Context, db *gorm.DB, now time.Time) (*repo.RelayStats, error) {
	return repo.GlobalStats(ctx, db, now)
}

// referralRepoShim adapts the referral free functions to
// services.ReferralRepo.
type referralRepoShim struct{}

// CreateReferralEdge proxies repo.CreateReferralEdge.
func (referralRepoShim) CreateReferralEdge(ctx context.Context, db *gorm.DB, refereeID, referrerID int64) error {
	return repo.CreateReferralEdge(ctx, db, refereeID, referrerID)
}

// CountReferrals proxies repo.CountReferrals.
func (referralRepoShim) CountReferrals(ctx context.Context, db *gorm.DB, referrerID int64) (int64, error) {
	return repo.CountReferrals(ctx, db, referrerID)
}

// HasReferrer proxies repo.HasReferrer.
func (referralRepoShim) HasReferrer(ctx context.Context, db *gorm.DB, refereeID int64) (bool, error) {
	return repo.HasReferrer(ctx, db, refereeID)
}

// objectRepoShim adapts the object free functions to services.ObjectRepo.
type objectRepoShim struct{}

// CreateObject proxies repo.CreateObject.
func (objectRepoShim) CreateObject(ctx context.Context, db *gorm.DB, o *domain.StoredObject) error {
	return repo.CreateObject(ctx, db, o)
}

// GetObject proxies repo.GetObject.
func (objectRepoShim) GetObject(ctx context.Context, db *gorm.DB, id string) (*domain.StoredObject, error) {
	return repo.GetObject(ctx, db, id)
}

// ObjectIDExists proxies repo.ObjectIDExists.
func (objectRepoShim) ObjectIDExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.ObjectIDExists(ctx, db, id)
}

// ListObjectsByOwner proxies repo.ListObjectsByOwner.
func (objectRepoShim) ListObjectsByOwner(ctx context.Context, db *gorm.DB, ownerID int64) ([]domain.StoredObject, error) {
	return repo.ListObjectsByOwner(ctx, db, ownerID)
}

// ObjectsStats proxies repo.ObjectsStats.
func (objectRepoShim) ObjectsStats(ctx context.Context, db *gorm.DB, ownerID int64) (int64, *time.Time, error) {
	return repo.ObjectsStats(ctx, db, ownerID)
}

// ListLiveObjects proxies repo.ListLiveObjects.
func (objectRepoShim) ListLiveObjects(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.StoredObject, error) {
	return repo.ListLiveObjects(ctx, db, offset, limit)
}

// ListExpiredObjects proxies repo.ListExpiredObjects.
func (objectRepoShim) ListExpiredObjects(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.StoredObject, error) {
	return repo.ListExpiredObjects(ctx, db, now, limit)
}

// IncrementDownloads proxies repo.IncrementDownloads.
func (objectRepoShim) IncrementDownloads(ctx context.Context, db *gorm.DB, id string) error {
	return repo.IncrementDownloads(ctx, db, id)
}

// MarkObjectDeleted proxies repo.MarkObjectDeleted.
func (objectRepoShim) MarkObjectDeleted(ctx context.Context, db *gorm.DB, id string) error {
	return repo.MarkObjectDeleted(ctx, db, id)
}

// ExtendObjectExpiry proxies repo.ExtendObjectExpiry.
func (objectRepoShim) ExtendObjectExpiry(ctx context.Context, db *gorm.DB, id string, expiresAt time.Time) error {
	return repo.ExtendObjectExpiry(ctx, db, id, expiresAt)
}

// IncrementDownloadsServed proxies repo.IncrementDownloadsServed.
func (objectRepoShim) IncrementDownloadsServed(ctx context.Context, db *gorm.DB, telegramID int64) error {
	return repo.IncrementDownloadsServed(ctx, db, telegramID)
}

// IncrementFilesCreated proxies repo.IncrementFilesCreated.
func (objectRepoShim) IncrementFilesCreated(ctx context.Context, db *gorm.DB, telegramID int64) error {
	return repo.IncrementFilesCreated(ctx, db, telegramID)
}

// IncrementLinksFetched proxies repo.IncrementLinksFetched.
func (objectRepoShim) IncrementLinksFetched(ctx context.Context, db *gorm.DB, telegramID int64) error {
	return repo.IncrementLinksFetched(ctx, db, telegramID)
}

// stateRepoShim adapts the conversation-state free functions to
// services.StateRepo.
type stateRepoShim struct{}

// SetState proxies repo.SetState.
func (stateRepoShim) SetState(ctx context.Context, db *gorm.DB, userID int64, mode, payload string, expiresAt time.Time) error {
	return repo.SetState(ctx, db, userID, mode, payload, expiresAt)
}

// GetState proxies repo.GetState.
func (stateRepoShim) GetState(ctx context.Context, db *gorm.DB, userID int64) (*domain.ConversationState, error) {
	return repo.GetState(ctx, db, userID)
}

// ClearState proxies repo.ClearState.
func (stateRepoShim) ClearState(ctx context.Context, db *gorm.DB, userID int64) error {
	return repo.ClearState(ctx, db, userID)
}

// DeleteExpiredStates proxies repo.DeleteExpiredStates.
func (stateRepoShim) DeleteExpiredStates(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	return repo.DeleteExpiredStates(ctx, db, now)
}
