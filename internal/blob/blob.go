// Package blob abstracts payload storage behind a small streaming Store
// interface. Metadata lives in the relational layer (see repo); this package
// only moves bytes, keyed by link id.
//
// Three backends are provided:
//   - FS: one file per key under a root directory (default).
//   - S3: AWS SDK v2 against any S3-compatible endpoint.
//   - Memory: in-process map, for tests and ephemeral deployments.
package blob

import (
	"context"
	"errors"
	"io"

	"github.com/nkarimi/go-file-relay/internal/config"
)

// ErrNotFound is returned when no payload exists under the requested key.
var ErrNotFound = errors.New("blob: not found")

// Store is the payload storage contract. Put consumes the reader to EOF and
// reports the number of bytes written. Open returns a reader the caller must
// close. Delete of an absent key is a no-op.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// New builds the Store selected by cfg.Backend.
func New(cfg config.BlobConfig) (Store, error) {
	switch cfg.Backend {
	case "fs":
		return NewFS(cfg.Dir)
	case "s3":
		return NewS3(cfg)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("blob: unknown backend " + cfg.Backend)
	}
}
