package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (User{}).TableName() != "users" {
		t.Fatalf("User.TableName() = %q; want %q", (User{}).TableName(), "users")
	}
	if (StoredObject{}).TableName() != "stored_objects" {
		t.Fatalf("StoredObject.TableName() = %q; want %q", (StoredObject{}).TableName(), "stored_objects")
	}
	if (ReferralEdge{}).TableName() != "referral_edges" {
		t.Fatalf("ReferralEdge.TableName() = %q; want %q", (ReferralEdge{}).TableName(), "referral_edges")
	}
	if (ConversationState{}).TableName() != "conversation_states" {
		t.Fatalf("ConversationState.TableName() = %q; want %q", (ConversationState{}).TableName(), "conversation_states")
	}
}

func TestUser_IsPremium(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	u := &User{Premium: true, PremiumUntil: now.Add(time.Minute)}
	if !u.IsPremium(now) {
		t.Fatalf("active grant should be premium")
	}

	// Lapsed grant: flag still set, expiry in the past.
	u = &User{Premium: true, PremiumUntil: now.Add(-time.Minute)}
	if u.IsPremium(now) {
		t.Fatalf("lapsed grant must not be premium")
	}

	// Flag off, regardless of expiry.
	u = &User{Premium: false, PremiumUntil: now.Add(time.Hour)}
	if u.IsPremium(now) {
		t.Fatalf("unset flag must not be premium")
	}

	// Boundary: now == PremiumUntil is not premium.
	u = &User{Premium: true, PremiumUntil: now}
	if u.IsPremium(now) {
		t.Fatalf("premium must lapse exactly at PremiumUntil")
	}
}

func TestStoredObject_RedeemableAndExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	o := &StoredObject{ExpiresAt: now.Add(time.Hour)}
	if !o.Redeemable(now) || o.Expired(now) {
		t.Fatalf("live object should be redeemable and not expired")
	}

	o = &StoredObject{ExpiresAt: now.Add(-time.Hour)}
	if o.Redeemable(now) || !o.Expired(now) {
		t.Fatalf("elapsed object should be expired and not redeemable")
	}

	// Tombstone wins even while the TTL is still running.
	o = &StoredObject{Deleted: true, ExpiresAt: now.Add(time.Hour)}
	if o.Redeemable(now) {
		t.Fatalf("tombstoned object must not be redeemable")
	}

	// Boundary: now == ExpiresAt counts as expired.
	o = &StoredObject{ExpiresAt: now}
	if o.Redeemable(now) || !o.Expired(now) {
		t.Fatalf("object must expire exactly at ExpiresAt")
	}
}

func TestConversationState_Active(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := &ConversationState{Mode: ModeAwaitingUpload, ExpiresAt: now.Add(time.Minute)}
	if !s.Active(now) {
		t.Fatalf("fresh state should be active")
	}
	s = &ConversationState{Mode: ModeAwaitingURL, ExpiresAt: now}
	if s.Active(now) {
		t.Fatalf("state must lapse exactly at ExpiresAt")
	}
}

func TestMigrations_Indexes_AndConstraints(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&User{}, &StoredObject{}, &ReferralEdge{}, &ConversationState{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	// Tables exist
	for _, tbl := range []any{&User{}, &StoredObject{}, &ReferralEdge{}, &ConversationState{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	// Indexes from tags exist
	if !m.HasIndex(&StoredObject{}, "idx_owner_objects") {
		t.Fatalf("expected index idx_owner_objects on stored_objects")
	}
	if !m.HasIndex(&ReferralEdge{}, "ux_referee_referrer") {
		t.Fatalf("expected unique index ux_referee_referrer on referral_edges")
	}

	now := time.Now().UTC()

	// Origin check constraint rejects unknown values.
	bad := &StoredObject{
		ID: "badOriginAAAAAAA", OwnerID: 1, Name: "x", Size: 1,
		ContentType: "text/plain", Origin: "minted",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
	}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check constraint violation for origin=minted")
	}

	// Unique (referee, referrer) pair: second insert must fail.
	e1 := &ReferralEdge{ID: "00000000-0000-0000-0000-000000000001", RefereeID: 10, ReferrerID: 20}
	if err := db.Create(e1).Error; err != nil {
		t.Fatalf("insert edge: %v", err)
	}
	e2 := &ReferralEdge{ID: "00000000-0000-0000-0000-000000000002", RefereeID: 10, ReferrerID: 20}
	if err := db.Create(e2).Error; err == nil {
		t.Fatalf("expected unique violation for duplicate referral edge")
	}
	// Same referee with a different referrer is a distinct edge.
	e3 := &ReferralEdge{ID: "00000000-0000-0000-0000-000000000003", RefereeID: 10, ReferrerID: 30}
	if err := db.Create(e3).Error; err != nil {
		t.Fatalf("insert edge with different referrer: %v", err)
	}
}
