// Package services – QuotaService
//
// This file implements the QuotaService, which owns entitlement decisions:
// daily free-tier limits, premium grants and revocations, referral crediting,
// and bans. Conversions are authorized before any bytes move and committed
// only after the object is durably stored, so a failed transfer never burns
// quota.
//
// Service-level errors (e.g., ErrDailyLimitReached, ErrBanned) are returned
// for predictable cases so the bot router and handlers can map them to user
// replies consistently.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nkarimi/go-file-relay/internal/domain"
	"github.com/nkarimi/go-file-relay/internal/repo"
)

// usageDateLayout formats the UTC calendar day used for the lazy daily
// counter reset.
const usageDateLayout = "2006-01-02"

// UserRepo defines the repository contract required by QuotaService.
type UserRepo interface {
	// GetOrCreateUser fetches the user row, inserting one on first contact.
	GetOrCreateUser(ctx context.Context, db *gorm.DB, telegramID int64, displayName string) (*domain.User, error)

	// GetUser fetches a user or returns gorm.ErrRecordNotFound.
	GetUser(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.User, error)

	// SaveUser persists all mutable fields of an existing row.
	SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error

	// ListUsers returns a page of users, newest first.
	ListUsers(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error)

	// CountUsers returns the total number of known users.
	CountUsers(ctx context.Context, db *gorm.DB) (int64, error)

	// SetBanned flips the ban flag, enforcing row existence.
	SetBanned(ctx context.Context, db *gorm.DB, telegramID int64, banned bool) error

	// DeleteUser removes the user row entirely.
	DeleteUser(ctx context.Context, db *gorm.DB, telegramID int64) error

	// GlobalStats returns aggregate counters for the admin surface.
	GlobalStats(ctx context.Context, db *gorm.DB, now time.Time) (*repo.RelayStats, error)
}

// ReferralRepo defines the referral-edge contract required by QuotaService.
type ReferralRepo interface {
	// CreateReferralEdge records the pair or returns ErrDuplicateReferral.
	CreateReferralEdge(ctx context.Context, db *gorm.DB, refereeID, referrerID int64) error

	// CountReferrals counts distinct referees credited to a referrer.
	CountReferrals(ctx context.Context, db *gorm.DB, referrerID int64) (int64, error)

	// HasReferrer reports whether the referee was already credited to anyone.
	HasReferrer(ctx context.Context, db *gorm.DB, refereeID int64) (bool, error)
}

// Notifier delivers out-of-band messages to users (premium grant notices,
// broadcasts). The Telegram client implements it.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// QuotaService provides entitlement operations: conversion authorization
// and commitment, premium lifecycle, referral crediting, and bans.
type QuotaService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Users is the user repository used by this service.
	Users UserRepo
	// Referrals is the referral-edge repository used by this service.
	Referrals ReferralRepo
	// Notifier, when set, receives premium-grant notices. A nil Notifier
	// silently drops them.
	Notifier Notifier

	// FreeDailyLimit caps conversions per UTC day for non-premium users.
	FreeDailyLimit int
	// ReferralThreshold is the referral count that earns a premium grant.
	ReferralThreshold int
	// PremiumDuration is the length of a referral-earned grant.
	PremiumDuration time.Duration

	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time
}

// NewQuotaService constructs a QuotaService with the given entitlement
// parameters.
func NewQuotaService(db *gorm.DB, users UserRepo, referrals ReferralRepo, freeDaily, threshold int, premium time.Duration) *QuotaService {
	return &QuotaService{
		DB:                db,
		Users:             users,
		Referrals:         referrals,
		FreeDailyLimit:    freeDaily,
		ReferralThreshold: threshold,
		PremiumDuration:   premium,
	}
}

func (s *QuotaService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Register ensures a user row exists for telegramID and returns it. Unlike
// Authorize it never refuses: banned users still get their row so admin
// surfaces can see them.
func (s *QuotaService) Register(ctx context.Context, telegramID int64, displayName string) (*domain.User, error) {
	return s.Users.GetOrCreateUser(ctx, s.DB, telegramID, displayName)
}

// Authorize decides whether the user may start a conversion right now.
// It creates the user row on first contact, applies the lazy daily reset,
// and returns ErrBanned or ErrDailyLimitReached when the conversion must be
// refused. Authorization does not consume quota; call Commit after the
// object is durably stored.
func (s *QuotaService) Authorize(ctx context.Context, telegramID int64, displayName string) (*domain.User, error) {
	u, err := s.Users.GetOrCreateUser(ctx, s.DB, telegramID, displayName)
	if err != nil {
		return nil, err
	}
	if u.Banned {
		return nil, ErrBanned
	}

	now := s.now()
	if u.IsPremium(now) {
		return u, nil
	}

	today := now.Format(usageDateLayout)
	if u.UsageDate != today {
		u.DailyUsed = 0
		u.UsageDate = today
		if err := s.Users.SaveUser(ctx, s.DB, u); err != nil {
			return nil, err
		}
	}
	if u.DailyUsed >= s.FreeDailyLimit {
		return nil, ErrDailyLimitReached
	}
	return u, nil
}

// Commit consumes one unit of today's allowance for a non-premium user.
// Premium users commit for free. The caller passes the user returned by
// Authorize during the same conversion.
func (s *QuotaService) Commit(ctx context.Context, u *domain.User) error {
	now := s.now()
	if u.IsPremium(now) {
		return nil
	}
	today := now.Format(usageDateLayout)
	if u.UsageDate != today {
		u.DailyUsed = 0
		u.UsageDate = today
	}
	u.DailyUsed++
	return s.Users.SaveUser(ctx, s.DB, u)
}

// Remaining reports how many conversions the user has left today. Premium
// users get -1, meaning unlimited.
func (s *QuotaService) Remaining(ctx context.Context, telegramID int64) (int, error) {
	u, err := s.Users.GetUser(ctx, s.DB, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.FreeDailyLimit, nil
		}
		return 0, err
	}
	now := s.now()
	if u.IsPremium(now) {
		return -1, nil
	}
	if u.UsageDate != now.Format(usageDateLayout) {
		return s.FreeDailyLimit, nil
	}
	left := s.FreeDailyLimit - u.DailyUsed
	if left < 0 {
		left = 0
	}
	return left, nil
}

// RegisterReferral credits refereeID to referrerID. Crediting is idempotent:
// a referee counts at most once, ever, for at most one referrer. When the
// referrer's count reaches a multiple of ReferralThreshold, a premium grant
// is applied and the referrer is notified exactly once per grant.
//
// It returns true when a new edge was recorded, false for replays and
// already-referred users.
func (s *QuotaService) RegisterReferral(ctx context.Context, refereeID, referrerID int64) (bool, error) {
	if refereeID == referrerID {
		return false, ErrSelfReferral
	}
	if _, err := s.Users.GetUser(ctx, s.DB, referrerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	taken, err := s.Referrals.HasReferrer(ctx, s.DB, refereeID)
	if err != nil {
		return false, err
	}
	if taken {
		return false, nil
	}
	if err := s.Referrals.CreateReferralEdge(ctx, s.DB, refereeID, referrerID); err != nil {
		if errors.Is(err, repo.ErrDuplicateReferral) {
			return false, nil
		}
		return false, err
	}

	count, err := s.Referrals.CountReferrals(ctx, s.DB, referrerID)
	if err != nil {
		return true, err
	}
	referrer, err := s.Users.GetUser(ctx, s.DB, referrerID)
	if err != nil {
		return true, err
	}
	referrer.ReferralCount = int(count)
	if err := s.Users.SaveUser(ctx, s.DB, referrer); err != nil {
		return true, err
	}

	if s.ReferralThreshold > 0 && count > 0 && count%int64(s.ReferralThreshold) == 0 {
		if err := s.GrantPremium(ctx, referrerID, s.PremiumDuration); err != nil {
			return true, err
		}
		if s.Notifier != nil {
			// Delivery failures must not unwind the referral.
			_ = s.Notifier.Notify(ctx, referrerID,
				"You reached the referral goal. Premium is now active on your account.")
		}
	}
	return true, nil
}

// GrantPremium activates or extends premium for telegramID by d. An active
// grant is extended from its current expiry, a lapsed one restarts from now.
func (s *QuotaService) GrantPremium(ctx context.Context, telegramID int64, d time.Duration) error {
	u, err := s.Users.GetUser(ctx, s.DB, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	now := s.now()
	base := now
	if u.IsPremium(now) {
		base = u.PremiumUntil
	}
	u.Premium = true
	u.PremiumUntil = base.Add(d)
	return s.Users.SaveUser(ctx, s.DB, u)
}

// RevokePremium removes any premium entitlement from telegramID.
func (s *QuotaService) RevokePremium(ctx context.Context, telegramID int64) error {
	u, err := s.Users.GetUser(ctx, s.DB, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	u.Premium = false
	u.PremiumUntil = time.Time{}
	return s.Users.SaveUser(ctx, s.DB, u)
}

// SetReferralCount overrides the referral counter for telegramID. This is an
// admin adjustment; it never triggers a premium grant on its own.
func (s *QuotaService) SetReferralCount(ctx context.Context, telegramID int64, n int) error {
	if n < 0 {
		n = 0
	}
	u, err := s.Users.GetUser(ctx, s.DB, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	u.ReferralCount = n
	return s.Users.SaveUser(ctx, s.DB, u)
}

// ForgetUser removes the user row entirely. The caller is responsible for
// purging the user's objects and conversation slot first.
func (s *QuotaService) ForgetUser(ctx context.Context, telegramID int64) error {
	err := s.Users.DeleteUser(ctx, s.DB, telegramID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Ban blocks telegramID from all conversions.
func (s *QuotaService) Ban(ctx context.Context, telegramID int64) error {
	err := s.Users.SetBanned(ctx, s.DB, telegramID, true)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Unban lifts a ban from telegramID.
func (s *QuotaService) Unban(ctx context.Context, telegramID int64) error {
	err := s.Users.SetBanned(ctx, s.DB, telegramID, false)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

// ListPage returns a page of users (paginated) plus the total count.
// It applies defaults for invalid page/pageSize.
func (s *QuotaService) ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Users.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.User{}, 0, nil
	}

	items, err := s.Users.ListUsers(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Stats returns the global activity snapshot for the admin surface.
func (s *QuotaService) Stats(ctx context.Context) (*repo.RelayStats, error) {
	return s.Users.GlobalStats(ctx, s.DB, s.now())
}
