// Package domain defines the persistence models for users, stored objects,
// referral edges, and conversation states. These types are mapped with GORM
// and form the core data layer of the file relay.
package domain

import (
	"time"
)

// Object origin tags. Recorded at issuance time and surfaced in admin
// listings; they never influence redemption.
const (
	OriginUploaded = "uploaded"
	OriginFetched  = "fetched"
)

// User represents a single Telegram account known to the relay. Users are
// created lazily on first interaction and updated by every conversion,
// referral, and admin action.
//
// Daily usage semantics: DailyUsed is meaningful only while UsageDate equals
// the current calendar day (UTC, formatted as 2006-01-02). A stale UsageDate
// means the counter is implicitly zero; callers reset it lazily on read
// rather than running a midnight job.
//
// Fields:
//   - TelegramID: platform-supplied numeric identity, immutable primary key.
//   - Premium / PremiumUntil: entitlement flag plus expiry instant.
//   - ReferralCount: number of distinct referees ever credited.
//   - DailyUsed / UsageDate: rolling free-tier consumption for one UTC day.
//   - FilesCreated / LinksFetched / DownloadsServed: lifetime counters.
//   - Banned: hard block; banned users cannot convert anything.
type User struct {
	TelegramID  int64  `json:"telegram_id" gorm:"primaryKey;autoIncrement:false"`
	DisplayName string `json:"display_name" gorm:"type:varchar(128)"`

	Premium      bool      `json:"premium"`
	PremiumUntil time.Time `json:"premium_until"`

	ReferralCount int `json:"referral_count" gorm:"not null;default:0"`

	DailyUsed int    `json:"daily_used" gorm:"not null;default:0"`
	UsageDate string `json:"usage_date" gorm:"type:varchar(10)"`

	FilesCreated    int64 `json:"files_created" gorm:"not null;default:0"`
	LinksFetched    int64 `json:"links_fetched" gorm:"not null;default:0"`
	DownloadsServed int64 `json:"downloads_served" gorm:"not null;default:0"`

	Banned bool `json:"banned" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// IsPremium reports whether the premium entitlement is effective at now.
// The flag alone is not sufficient; a lapsed PremiumUntil makes the user
// free-tier again even if Premium is still set.
func (u *User) IsPremium(now time.Time) bool {
	return u.Premium && now.Before(u.PremiumUntil)
}

// StoredObject is the metadata half of a relayed payload. The payload bytes
// live in the blob store under the same key (the link id), so metadata can
// be listed and inspected without transferring the payload.
//
// An object is redeemable iff !Deleted && now < ExpiresAt. ExpiresAt is
// fixed at creation (creation time + TTL) and moves only through an explicit
// admin extension.
//
// Fields:
//   - ID: opaque link id, 16 random alphanumeric characters.
//   - OwnerID: Telegram id of the issuing user (indexed).
//   - Origin: "uploaded" or "fetched" (enforced by DB constraint).
//   - Downloads: successful redemptions served so far.
//   - Deleted: tombstone; set by the sweeper or an admin, never unset.
type StoredObject struct {
	ID          string `json:"id" gorm:"type:varchar(32);primaryKey"`
	OwnerID     int64  `json:"owner_id" gorm:"not null;index:idx_owner_objects"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Size        int64  `json:"size" gorm:"not null"`
	ContentType string `json:"content_type" gorm:"type:varchar(128)"`
	Origin      string `json:"origin" gorm:"type:varchar(16);not null;check:origin IN ('uploaded','fetched')"`

	Downloads int64 `json:"downloads" gorm:"not null;default:0"`
	Deleted   bool  `json:"deleted" gorm:"not null;default:false;index"`

	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for StoredObject.
func (StoredObject) TableName() string { return "stored_objects" }

// Redeemable reports whether the object can still be served at now.
func (o *StoredObject) Redeemable(now time.Time) bool {
	return !o.Deleted && now.Before(o.ExpiresAt)
}

// Expired reports whether the object's TTL has elapsed at now.
func (o *StoredObject) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// ReferralEdge records that a referee has been credited to a referrer. The
// unique (referee_id, referrer_id) index makes referral registration
// idempotent: the same referee is never counted twice for the same referrer,
// no matter how often the deep link is replayed.
type ReferralEdge struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	RefereeID  int64     `gorm:"not null;uniqueIndex:ux_referee_referrer,priority:1"`
	ReferrerID int64     `gorm:"not null;uniqueIndex:ux_referee_referrer,priority:2"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName returns the database table name for ReferralEdge.
func (ReferralEdge) TableName() string { return "referral_edges" }

// Conversation modes. A user with no row, or an expired row, is idle.
const (
	ModeIdle              = "idle"
	ModeAwaitingUpload    = "awaiting_upload"
	ModeAwaitingURL       = "awaiting_url"
	ModeAdminBroadcast    = "admin_awaiting_broadcast"
	ModeAdminGrantTarget  = "admin_awaiting_grant"
	ModeAdminExtendTarget = "admin_awaiting_extend"
)

// ConversationState is the single pending-prompt slot for a user. Setting a
// new mode always overwrites the previous one; there is no prompt stack.
// ExpiresAt is checked on every read so a stale slot silently reverts to
// idle instead of trapping the user in a forgotten prompt.
type ConversationState struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false"`
	Mode      string    `gorm:"type:varchar(32);not null"`
	Payload   string    `gorm:"type:varchar(255)"`
	ExpiresAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time
}

// TableName returns the database table name for ConversationState.
func (ConversationState) TableName() string { return "conversation_states" }

// Active reports whether the state slot is still live at now.
func (s *ConversationState) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
