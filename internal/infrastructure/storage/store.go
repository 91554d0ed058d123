// Package storage persists the configuration document to disk. Writers
// serialize on an exclusive sidecar lock held for the whole
// read-modify-write cycle; readers never lock.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"genv.tools/cli/internal/core/enverr"
	"genv.tools/cli/internal/core/envfile"
)

const (
	// lockWait bounds how long a contending writer blocks before failing
	// with a Locked error.
	lockWait = 2 * time.Second
	lockPoll = 50 * time.Millisecond
)

// Store reads and writes the persisted configuration file.
type Store struct {
	path     string
	lockWait time.Duration
	lockPoll time.Duration
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path, lockWait: lockWait, lockPoll: lockPoll}
}

// DefaultPath returns the store location: the GENV environment variable if
// set, otherwise genv/env under the user configuration directory.
func DefaultPath() (string, error) {
	if p := os.Getenv("GENV"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, "genv", "env"), nil
}

// Path returns the file path backing this store.
func (s *Store) Path() string { return s.path }

// Load parses the store file. A missing file yields an empty document;
// any other read failure is an IO error, and malformed content is a parse
// error carrying the offending line number.
func (s *Store) Load(ctx context.Context) (*envfile.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return envfile.New(), nil
		}
		return nil, enverr.IO(s.path, err)
	}
	return envfile.Parse(data, s.path)
}

// Update runs a read-modify-write cycle under the exclusive write lock:
// load, apply, save. fn receives the freshly loaded document and returns
// the document to persist; returning an error aborts without writing.
func (s *Store) Update(ctx context.Context, fn func(*envfile.Document) (*envfile.Document, error)) error {
	unlock, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(doc)
	if err != nil {
		return err
	}
	return s.write(next)
}

func (s *Store) acquireLock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, enverr.IO(s.path, err)
	}

	lock := flock.New(s.path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, s.lockPoll)
	if ctx.Err() != nil {
		// Caller cancellation (interrupt), not contention.
		return nil, ctx.Err()
	}
	if err != nil && lockCtx.Err() == nil {
		return nil, enverr.IO(s.path, err)
	}
	if !locked {
		return nil, enverr.Locked(s.path, fmt.Errorf("another process holds the write lock (waited %s)", s.lockWait))
	}
	return func() { _ = lock.Unlock() }, nil
}

func (s *Store) write(doc *envfile.Document) error {
	if err := os.WriteFile(s.path, doc.Serialize(), 0o600); err != nil {
		return enverr.IO(s.path, err)
	}
	return nil
}
