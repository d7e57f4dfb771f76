package storage_test

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hillstoneLeo/rint-data-manager/pkg/rdm"
	"github.com/hillstoneLeo/rint-data-manager/pkg/storage"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNamespaceDeterministic(t *testing.T) {
	a := storage.Namespace("alice@example.com")
	assert.Equal(t, a, storage.Namespace("alice@example.com"))
	assert.Equal(t, a, storage.Namespace("ALICE@example.com"), "identity hashing is case-insensitive")

	b := storage.Namespace("bob@example.com")
	assert.NotEqual(t, a, b, "distinct identities must not share a namespace")

	assert.True(t, strings.HasPrefix(a, "users/"))
	assert.Len(t, strings.TrimPrefix(a, "users/"), 12)
}

func TestNamespaceAnonymous(t *testing.T) {
	assert.Equal(t, "", storage.Namespace(""))
}

func TestResolveValidKeys(t *testing.T) {
	root := t.TempDir()
	rv, err := storage.NewResolver(root)
	require.NoError(t, err)

	for _, key := range []string{
		"files/md5/ab/cdef1234",
		"ab/cdef1234",
		"single",
		"deep/ly/nest/ed/object",
	} {
		path, err := rv.Resolve("users/deadbeef0123", key)
		require.NoError(t, err, key)
		assert.True(t, strings.HasPrefix(path, filepath.Join(rv.Root(), "users", "deadbeef0123")+string(os.PathSeparator)))
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	rv, err := storage.NewResolver(root)
	require.NoError(t, err)

	for _, key := range []string{
		"",
		"..",
		"../../etc/passwd",
		"a/../../../etc/passwd",
		"/etc/passwd",
		"files/../../../../x",
	} {
		for _, ns := range []string{"", "users/deadbeef0123"} {
			_, err := rv.Resolve(ns, key)
			assert.True(t, rdm.IsTraversal(err), "key %q ns %q: got %v", key, ns, err)
		}
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("s"), 0644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "evil")))

	rv, err := storage.NewResolver(root)
	require.NoError(t, err)

	_, err = rv.Resolve("", "evil/secret")
	assert.True(t, rdm.IsTraversal(err), "got %v", err)
}

func TestResolveRejectsSymlinkDirForNewObject(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "evil")))

	rv, err := storage.NewResolver(root)
	require.NoError(t, err)

	// The object does not exist yet, so containment must be decided on
	// the symlinked ancestor directory alone.
	for _, key := range []string{"evil/newfile", "evil/ab/cdef1234"} {
		_, err = rv.Resolve("", key)
		assert.True(t, rdm.IsTraversal(err), "key %q: got %v", key, err)
	}

	entries, err := os.ReadDir(outside)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing may be created outside the storage root")
}

func TestDiskStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := storage.NewDiskStore(testLogger())
	path := filepath.Join(root, "users", "abc", "ab", "cdef1234")

	body := []byte("hello")
	n, err := store.Write(path, bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)

	info, err := store.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), info.Size)

	f, info, err := store.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, int64(len(body)), info.Size)
}

func TestDiskStoreOverwrite(t *testing.T) {
	root := t.TempDir()
	store := storage.NewDiskStore(testLogger())
	path := filepath.Join(root, "object")

	_, err := store.Write(path, strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.Write(path, strings.NewReader("second"))
	require.NoError(t, err)

	f, _, err := store.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestDiskStoreNotFound(t *testing.T) {
	root := t.TempDir()
	store := storage.NewDiskStore(testLogger())

	_, err := store.Stat(filepath.Join(root, "missing"))
	assert.True(t, rdm.IsNotFound(err))

	_, _, err = store.Open(filepath.Join(root, "missing"))
	assert.True(t, rdm.IsNotFound(err))

	// A shard directory is not an object.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ab"), 0755))
	_, err = store.Stat(filepath.Join(root, "ab"))
	assert.True(t, rdm.IsNotFound(err))
}

func TestDiskStoreNoPartialOnFailure(t *testing.T) {
	root := t.TempDir()
	store := storage.NewDiskStore(testLogger())
	path := filepath.Join(root, "object")

	_, err := store.Write(path, io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)

	_, err = store.Stat(path)
	assert.True(t, rdm.IsNotFound(err), "aborted upload must not be visible at the final path")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be cleaned up")
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDiskStoreConcurrentWrites(t *testing.T) {
	root := t.TempDir()
	store := storage.NewDiskStore(testLogger())

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := filepath.Join(root, "users", "abc", fmt.Sprintf("%02d", i), "object")
			if _, err := store.Write(path, strings.NewReader(fmt.Sprintf("payload-%d", i))); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent write failed: %v", err)
	}

	for i := 0; i < workers; i++ {
		path := filepath.Join(root, "users", "abc", fmt.Sprintf("%02d", i), "object")
		f, _, err := store.Open(path)
		require.NoError(t, err)
		got, err := io.ReadAll(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("payload-%d", i), string(got))
	}
}

func TestEnsureTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dvc_storage")
	require.NoError(t, storage.EnsureTree(root))
	require.NoError(t, storage.EnsureTree(root), "setup is idempotent")

	fi, err := os.Stat(filepath.Join(root, "users"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	assert.NoError(t, storage.CheckWritable(root))
	assert.Error(t, storage.EnsureTree("relative/path"))
}
