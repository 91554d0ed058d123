package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genv.tools/cli/internal/core/enverr"
	"genv.tools/cli/internal/core/envfile"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "env"))
}

// TestStore_Load_MissingFileYieldsEmptyDocument tests first-run behavior
func TestStore_Load_MissingFileYieldsEmptyDocument(t *testing.T) {
	store := tempStore(t)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
}

// TestStore_Load_ClassifiesFailures tests the IO and parse error kinds
func TestStore_Load_ClassifiesFailures(t *testing.T) {
	t.Run("UnreadablePath_IsIOError", func(t *testing.T) {
		dir := t.TempDir()
		// A directory at the store path is unreadable as a file.
		store := NewStore(dir)

		_, err := store.Load(context.Background())
		require.Error(t, err)
		assert.Equal(t, enverr.KindIO, enverr.KindOf(err))
	})

	t.Run("MalformedContent_IsParseErrorWithLine", func(t *testing.T) {
		store := tempStore(t)
		require.NoError(t, os.WriteFile(store.Path(), []byte("GOOS=linux\nnot an assignment\n"), 0o600))

		_, err := store.Load(context.Background())
		require.Error(t, err)
		assert.Equal(t, enverr.KindParse, enverr.KindOf(err))

		var perr *enverr.Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 2, perr.Line)
		assert.Equal(t, store.Path(), perr.Path)
	})
}

// TestStore_Update_CommitsMutatedDocument tests the read-modify-write cycle
func TestStore_Update_CommitsMutatedDocument(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("# header\nGOOS=linux\n"), 0o600))

	err := store.Update(context.Background(), func(doc *envfile.Document) (*envfile.Document, error) {
		doc.Set("GOOS", "darwin")
		return doc, nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "# header\nGOOS=darwin\n", string(data))
}

// TestStore_Update_AbortLeavesFileByteIdentical tests that a failed cycle
// never writes
func TestStore_Update_AbortLeavesFileByteIdentical(t *testing.T) {
	store := tempStore(t)
	original := "# header\nGOOS=linux\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(original), 0o600))

	err := store.Update(context.Background(), func(doc *envfile.Document) (*envfile.Document, error) {
		doc.Set("GOOS", "darwin")
		return nil, fmt.Errorf("batch rejected")
	})
	require.Error(t, err)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, original, string(data), "aborted update must not touch the file")
}

// TestStore_Update_CreatesMissingDirectories tests first-write provisioning
func TestStore_Update_CreatesMissingDirectories(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "config", "env"))

	err := store.Update(context.Background(), func(doc *envfile.Document) (*envfile.Document, error) {
		doc.Set("GOARCH", "arm64")
		return doc, nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "GOARCH=arm64\n", string(data))
}

// TestStore_Update_ContendedLockFailsWithLocked tests the bounded wait
func TestStore_Update_ContendedLockFailsWithLocked(t *testing.T) {
	store := tempStore(t)
	store.lockWait = 150 * time.Millisecond
	store.lockPoll = 20 * time.Millisecond

	// Hold the sidecar lock the way a concurrent writer would.
	other := flock.New(store.Path() + ".lock")
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	start := time.Now()
	err = store.Update(context.Background(), func(doc *envfile.Document) (*envfile.Document, error) {
		return doc, nil
	})
	require.Error(t, err)

	assert.Equal(t, enverr.KindLocked, enverr.KindOf(err))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond, "writer must wait out the bound before failing")
	assert.NoFileExists(t, store.Path(), "contended writer must not write")
}

// TestStore_Update_CancelledWaitIsNotLocked tests that interrupting a
// writer mid-wait reports the cancellation, not contention
func TestStore_Update_CancelledWaitIsNotLocked(t *testing.T) {
	store := tempStore(t)
	store.lockWait = 2 * time.Second
	store.lockPoll = 10 * time.Millisecond

	other := flock.New(store.Path() + ".lock")
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err = store.Update(ctx, func(doc *envfile.Document) (*envfile.Document, error) {
		return doc, nil
	})
	require.Error(t, err)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotEqual(t, enverr.KindLocked, enverr.KindOf(err), "interrupt must not be reported as contention")
	assert.NoFileExists(t, store.Path())
}

// TestStore_Update_SerializesWriters tests that a waiting writer proceeds
// once the lock is released
func TestStore_Update_SerializesWriters(t *testing.T) {
	store := tempStore(t)
	store.lockWait = 2 * time.Second
	store.lockPoll = 10 * time.Millisecond

	other := flock.New(store.Path() + ".lock")
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	go func() {
		time.Sleep(50 * time.Millisecond)
		other.Unlock()
	}()

	err = store.Update(context.Background(), func(doc *envfile.Document) (*envfile.Document, error) {
		doc.Set("GOOS", "linux")
		return doc, nil
	})
	require.NoError(t, err, "writer must proceed after the holder releases")

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "GOOS=linux\n", string(data))
}

// TestDefaultPath_HonorsGENV tests store path resolution
func TestDefaultPath_HonorsGENV(t *testing.T) {
	t.Setenv("GENV", "/tmp/custom/env")

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom/env", path)
}

// TestDefaultPath_FallsBackToUserConfigDir tests the default location
func TestDefaultPath_FallsBackToUserConfigDir(t *testing.T) {
	t.Setenv("GENV", "")

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("genv", "env"), path[len(path)-len(filepath.Join("genv", "env")):])
}
