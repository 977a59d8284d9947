package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nkarimi/go-file-relay/internal/domain"
	"github.com/nkarimi/go-file-relay/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.StoredObject{}, &domain.ReferralEdge{}, &domain.ConversationState{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// Shims binding the service interfaces to the real repository functions,
// mirroring the production wiring in cmd/server.

type userRepoShim struct{}

func (userRepoShim) GetOrCreateUser(ctx context.Context, db *gorm.DB, id int64, name string) (*domain.User, error) {
	return repo.GetOrCreateUser(ctx, db, id, name)
}
func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}
func (userRepoShim) SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.SaveUser(ctx, db, u)
}
func (userRepoShim) ListUsers(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	return repo.ListUsers(ctx, db, offset, limit)
}
func (userRepoShim) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}
func (userRepoShim) SetBanned(ctx context.Context, db *gorm.DB, id int64, banned bool) error {
	return repo.SetBanned(ctx, db, id, banned)
}
func (userRepoShim) DeleteUser(ctx context.Context, db *gorm.DB, id int64) error {
	return repo.DeleteUser(ctx, db, id)
}
func (userRepoShim) GlobalStats(ctx context.Context, db *gorm.DB, now time.Time) (*repo.RelayStats, error) {
	return repo.GlobalStats(ctx, db, now)
}

type referralRepoShim struct{}

func (referralRepoShim) CreateReferralEdge(ctx context.Context, db *gorm.DB, refereeID, referrerID int64) error {
	return repo.CreateReferralEdge(ctx, db, refereeID, referrerID)
}
func (referralRepoShim) CountReferrals(ctx context.Context, db *gorm.DB, referrerID int64) (int64, error) {
	return repo.CountReferrals(ctx, db, referrerID)
}
func (referralRepoShim) HasReferrer(ctx context.Context, db *gorm.DB, refereeID int64) (bool, error) {
	return repo.HasReferrer(ctx, db, refereeID)
}

type objectRepoShim struct{}

func (objectRepoShim) CreateObject(ctx context.Context, db *gorm.DB, o *domain.StoredObject) error {
	return repo.CreateObject(ctx, db, o)
}
func (objectRepoShim) GetObject(ctx context.Context, db *gorm.DB, id string) (*domain.StoredObject, error) {
	return repo.GetObject(ctx, db, id)
}
func (objectRepoShim) ObjectIDExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.ObjectIDExists(ctx, db, id)
}
func (objectRepoShim) ListObjectsByOwner(ctx context.Context, db *gorm.DB, ownerID int64) ([]domain.StoredObject, error) {
	return repo.ListObjectsByOwner(ctx, db, ownerID)
}
func (objectRepoShim) ObjectsStats(ctx context.Context, db *gorm.DB, ownerID int64) (int64, *time.Time, error) {
	return repo.ObjectsStats(ctx, db, ownerID)
}
func (objectRepoShim) ListLiveObjects(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.StoredObject, error) {
	return repo.ListLiveObjects(ctx, db, offset, limit)
}
func (objectRepoShim) ListExpiredObjects(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.StoredObject, error) {
	return repo.ListExpiredObjects(ctx, db, now, limit)
}
func (objectRepoShim) IncrementDownloads(ctx context.Context, db *gorm.DB, id string) error {
	return repo.IncrementDownloads(ctx, db, id)
}
func (objectRepoShim) MarkObjectDeleted(ctx context.Context, db *gorm.DB, id string) error {
	return repo.MarkObjectDeleted(ctx, db, id)
}
func (objectRepoShim) ExtendObjectExpiry(ctx context.Context, db *gorm.DB, id string, expiresAt time.Time) error {
	return repo.ExtendObjectExpiry(ctx, db, id, expiresAt)
}
func (objectRepoShim) IncrementDownloadsServed(ctx context.Context, db *gorm.DB, id int64) error {
	return repo.IncrementDownloadsServed(ctx, db, id)
}
func (objectRepoShim) IncrementFilesCreated(ctx context.Context, db *gorm.DB, id int64) error {
	return repo.IncrementFilesCreated(ctx, db, id)
}
func (objectRepoShim) IncrementLinksFetched(ctx context.Context, db *gorm.DB, id int64) error {
	return repo.IncrementLinksFetched(ctx, db, id)
}

type stateRepoShim struct{}

func (stateRepoShim) SetState(ctx context.Context, db *gorm.DB, userID int64, mode, payload string, expiresAt time.Time) error {
	return repo.SetState(ctx, db, userID, mode, payload, expiresAt)
}
func (stateRepoShim) GetState(ctx context.Context, db *gorm.DB, userID int64) (*domain.ConversationState, error) {
	return repo.GetState(ctx, db, userID)
}
func (stateRepoShim) ClearState(ctx context.Context, db *gorm.DB, userID int64) error {
	return repo.ClearState(ctx, db, userID)
}
func (stateRepoShim) DeleteExpiredStates(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	return repo.DeleteExpiredStates(ctx, db, now)
}

// fakeNotifier records premium-grant notices.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []int64
}

func (f *fakeNotifier) Notify(_ context.Context, userID int64, _ string) error {
	f.mu.Lock()
	f.calls = append(f.calls, userID)
	f.mu.Unlock()
	return nil
}
