// Package services – LinkService
//
// This file implements the LinkService, which owns the object lifecycle:
// issuing link ids, streaming payloads into the blob store, redemption with
// download accounting, admin deletion and extension, and the expiry sweep.
//
// Redemption policy: a link stays redeemable any number of times until its
// TTL elapses. Expiry is enforced lazily at redemption time and in bulk by
// the background sweeper; both paths tombstone the metadata row and reclaim
// the payload.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/nkarimi/go-file-relay/internal/blob"
	"github.com/nkarimi/go-file-relay/internal/domain"
)

// linkIDLen is the length of generated link ids.
const linkIDLen = 16

const linkIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ObjectRepo defines the repository contract required by LinkService.
type ObjectRepo interface {
	// CreateObject inserts a new metadata row.
	CreateObject(ctx context.Context, db *gorm.DB, o *domain.StoredObject) error

	// GetObject fetches a row by link id, tombstones included.
	GetObject(ctx context.Context, db *gorm.DB, id string) (*domain.StoredObject, error)

	// ObjectIDExists reports whether any row claims the id.
	ObjectIDExists(ctx context.Context, db *gorm.DB, id string) (bool, error)

	// ListObjectsByOwner returns all live objects for one owner.
	ListObjectsByOwner(ctx context.Context, db *gorm.DB, ownerID int64) ([]domain.StoredObject, error)

	// ObjectsStats returns the live-object count and newest update time for
	// one owner.
	ObjectsStats(ctx context.Context, db *gorm.DB, ownerID int64) (int64, *time.Time, error)

	// ListLiveObjects returns a page of live objects across owners.
	ListLiveObjects(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.StoredObject, error)

	// ListExpiredObjects returns live rows whose TTL elapsed, up to limit.
	ListExpiredObjects(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.StoredObject, error)

	// IncrementDownloads bumps the per-object redemption counter.
	IncrementDownloads(ctx context.Context, db *gorm.DB, id string) error

	// MarkObjectDeleted tombstones the row.
	MarkObjectDeleted(ctx context.Context, db *gorm.DB, id string) error

	// ExtendObjectExpiry moves the expiry of a live row.
	ExtendObjectExpiry(ctx context.Context, db *gorm.DB, id string, expiresAt time.Time) error

	// IncrementDownloadsServed bumps the owner's lifetime counter.
	IncrementDownloadsServed(ctx context.Context, db *gorm.DB, telegramID int64) error

	// IncrementFilesCreated bumps the owner's uploaded-conversion counter.
	IncrementFilesCreated(ctx context.Context, db *gorm.DB, telegramID int64) error

	// IncrementLinksFetched bumps the owner's URL-conversion counter.
	IncrementLinksFetched(ctx context.Context, db *gorm.DB, telegramID int64) error
}

// LinkService provides object lifecycle operations. It coordinates the
// metadata repository and the blob store so the two never disagree about
// which keys are live.
type LinkService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the object repository used by this service.
	Repo ObjectRepo
	// Blobs stores the payload bytes, keyed by link id.
	Blobs blob.Store

	// TTL is the object lifetime from issuance.
	TTL time.Duration
	// MaxPayload caps accepted payload sizes in bytes.
	MaxPayload int64
	// PublicBaseURL prefixes issued download URLs, without trailing slash.
	PublicBaseURL string

	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time
}

// NewLinkService constructs a LinkService.
func NewLinkService(db *gorm.DB, r ObjectRepo, blobs blob.Store, ttl time.Duration, maxPayload int64, baseURL string) *LinkService {
	return &LinkService{
		DB:            db,
		Repo:          r,
		Blobs:         blobs,
		TTL:           ttl,
		MaxPayload:    maxPayload,
		PublicBaseURL: baseURL,
	}
}

func (s *LinkService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Issue streams r into the blob store and records metadata under a freshly
// generated link id. The payload is counted while streaming; anything over
// MaxPayload aborts the conversion, reclaims the partial blob, and returns
// ErrPayloadTooLarge. On metadata failure the blob is reclaimed as well, so
// a failed Issue leaves no orphans.
func (s *LinkService) Issue(ctx context.Context, ownerID int64, name, contentType, origin string, r io.Reader) (*domain.StoredObject, error) {
	id, err := s.newLinkID(ctx)
	if err != nil {
		return nil, err
	}

	// Read one byte past the cap so oversized payloads are detected
	// without buffering them whole.
	n, err := s.Blobs.Put(ctx, id, io.LimitReader(r, s.MaxPayload+1))
	if err != nil {
		_ = s.Blobs.Delete(ctx, id)
		return nil, errors.Join(ErrTransferFailed, err)
	}
	if n > s.MaxPayload {
		_ = s.Blobs.Delete(ctx, id)
		return nil, ErrPayloadTooLarge
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	now := s.now()
	o := &domain.StoredObject{
		ID:          id,
		OwnerID:     ownerID,
		Name:        name,
		Size:        n,
		ContentType: contentType,
		Origin:      origin,
		ExpiresAt:   now.Add(s.TTL),
		CreatedAt:   now,
	}
	if err := s.Repo.CreateObject(ctx, s.DB, o); err != nil {
		_ = s.Blobs.Delete(ctx, id)
		return nil, err
	}

	switch origin {
	case domain.OriginUploaded:
		_ = s.Repo.IncrementFilesCreated(ctx, s.DB, ownerID)
	case domain.OriginFetched:
		_ = s.Repo.IncrementLinksFetched(ctx, s.DB, ownerID)
	}

	objectsIssued.WithLabelValues(origin).Inc()
	bytesStored.Add(float64(n))
	return o, nil
}

// URL returns the public download URL for an object.
func (s *LinkService) URL(o *domain.StoredObject) string {
	return s.PublicBaseURL + "/download/" + o.ID
}

// Redeem opens the payload for a live link and accounts the download.
// Tombstoned and unknown ids return ErrLinkNotFound. A link whose TTL
// elapsed is tombstoned on the spot, its payload reclaimed, and
// ErrLinkExpired returned. The caller must close the reader.
func (s *LinkService) Redeem(ctx context.Context, id string) (*domain.StoredObject, io.ReadCloser, error) {
	o, err := s.Repo.GetObject(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrLinkNotFound
		}
		return nil, nil, err
	}
	if o.Deleted {
		return nil, nil, ErrLinkNotFound
	}

	now := s.now()
	if o.Expired(now) {
		if err := s.Repo.MarkObjectDeleted(ctx, s.DB, id); err != nil {
			return nil, nil, err
		}
		_ = s.Blobs.Delete(ctx, id)
		return nil, nil, ErrLinkExpired
	}

	rc, err := s.Blobs.Open(ctx, id)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			// Metadata without payload is unrecoverable; tombstone it.
			_ = s.Repo.MarkObjectDeleted(ctx, s.DB, id)
			return nil, nil, ErrLinkNotFound
		}
		return nil, nil, errors.Join(ErrTransferFailed, err)
	}

	if err := s.Repo.IncrementDownloads(ctx, s.DB, id); err != nil {
		rc.Close()
		return nil, nil, err
	}
	_ = s.Repo.IncrementDownloadsServed(ctx, s.DB, o.OwnerID)
	o.Downloads++

	downloadsServed.Inc()
	return o, rc, nil
}

// Metadata returns the metadata row for a link without touching the payload
// or any counters. Tombstoned and unknown ids return ErrLinkNotFound;
// elapsed ones return ErrLinkExpired without tombstoning (the sweeper or the
// next redemption attempt will).
func (s *LinkService) Metadata(ctx context.Context, id string) (*domain.StoredObject, error) {
	o, err := s.Repo.GetObject(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	if o.Deleted {
		return nil, ErrLinkNotFound
	}
	if o.Expired(s.now()) {
		return nil, ErrLinkExpired
	}
	return o, nil
}

// Extend pushes the expiry of a live link out by d, measured from the later
// of now and the current expiry. Tombstoned and unknown ids return
// ErrLinkNotFound.
func (s *LinkService) Extend(ctx context.Context, id string, d time.Duration) (*domain.StoredObject, error) {
	o, err := s.Repo.GetObject(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	if o.Deleted {
		return nil, ErrLinkNotFound
	}
	now := s.now()
	base := o.ExpiresAt
	if base.Before(now) {
		base = now
	}
	o.ExpiresAt = base.Add(d)
	if err := s.Repo.ExtendObjectExpiry(ctx, s.DB, id, o.ExpiresAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return o, nil
}

// AdminDelete tombstones a link and reclaims its payload immediately.
// Unknown ids return ErrLinkNotFound; deleting a tombstone is a no-op.
func (s *LinkService) AdminDelete(ctx context.Context, id string) error {
	if err := s.Repo.MarkObjectDeleted(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLinkNotFound
		}
		return err
	}
	return s.Blobs.Delete(ctx, id)
}

// PurgeOwner tombstones every live object belonging to ownerID and reclaims
// the payloads. It returns the number of links purged.
func (s *LinkService) PurgeOwner(ctx context.Context, ownerID int64) (int, error) {
	rows, err := s.Repo.ListObjectsByOwner(ctx, s.DB, ownerID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, o := range rows {
		if err := s.Repo.MarkObjectDeleted(ctx, s.DB, o.ID); err != nil {
			return n, err
		}
		_ = s.Blobs.Delete(ctx, o.ID)
		n++
	}
	return n, nil
}

// ListOwned returns the caller's live, unexpired objects, newest first.
func (s *LinkService) ListOwned(ctx context.Context, ownerID int64) ([]domain.StoredObject, error) {
	rows, err := s.Repo.ListObjectsByOwner(ctx, s.DB, ownerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := rows[:0]
	for _, o := range rows {
		if !o.Expired(now) {
			out = append(out, o)
		}
	}
	return out, nil
}

// OwnedSummary reports how many links the owner has stored and when the
// newest one last changed. Tombstoned links are excluded.
func (s *LinkService) OwnedSummary(ctx context.Context, ownerID int64) (int64, *time.Time, error) {
	return s.Repo.ObjectsStats(ctx, s.DB, ownerID)
}

// ListAllPage returns a page of live objects across owners plus the offset
// used, for the admin listing.
func (s *LinkService) ListAllPage(ctx context.Context, page, pageSize int) ([]domain.StoredObject, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return s.Repo.ListLiveObjects(ctx, s.DB, (page-1)*pageSize, pageSize)
}

// SweepExpired tombstones every live object whose TTL elapsed and reclaims
// the payloads, working in batches of batch rows. It returns the number of
// objects swept. Sweeping is idempotent: a second pass over the same instant
// finds nothing.
func (s *LinkService) SweepExpired(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	total := 0
	for {
		rows, err := s.Repo.ListExpiredObjects(ctx, s.DB, s.now(), batch)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			return total, nil
		}
		for _, o := range rows {
			if err := s.Repo.MarkObjectDeleted(ctx, s.DB, o.ID); err != nil {
				return total, err
			}
			_ = s.Blobs.Delete(ctx, o.ID)
			total++
			objectsSwept.Inc()
		}
		if len(rows) < batch {
			return total, nil
		}
	}
}

// newLinkID generates a fresh random link id, retrying on the (vanishingly
// rare) collision with an existing row.
func (s *LinkService) newLinkID(ctx context.Context) (string, error) {
	for {
		id, err := randomID(linkIDLen)
		if err != nil {
			return "", err
		}
		exists, err := s.Repo.ObjectIDExists(ctx, s.DB, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
}

// randomID returns n characters drawn uniformly from the link id alphabet
// using crypto/rand. Bytes outside the largest multiple of the alphabet
// size are rejected so the modulo stays unbiased.
func randomID(n int) (string, error) {
	const limit = 256 - 256%len(linkIDAlphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, linkIDAlphabet[int(b)%len(linkIDAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
