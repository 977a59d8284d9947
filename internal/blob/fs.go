package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FS stores one payload file per key under a root directory. Writes go
// through a temp file and rename so a crashed Put never leaves a partial
// payload under a redeemable key.
type FS struct {
	root string
}

// NewFS creates the root directory if needed and returns an FS store.
func NewFS(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FS{root: root}, nil
}

func (f *FS) path(key string) string {
	// Keys are generated link ids (alphanumeric), but never trust them as
	// path components.
	return filepath.Join(f.root, filepath.Base(key))
}

// Put streams r into a temp file and renames it into place, returning the
// byte count written.
func (f *FS) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(f.root, ".put-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return 0, err
	}
	return n, nil
}

// Open returns a reader over the payload for key, or ErrNotFound.
func (f *FS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := os.Open(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rc, nil
}

// Delete removes the payload for key. Absent keys are a no-op.
func (f *FS) Delete(ctx context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns all keys starting with prefix, in directory order.
func (f *FS) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".put-") {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, nil
}
