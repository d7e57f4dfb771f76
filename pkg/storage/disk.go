package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/hillstoneLeo/rint-data-manager/pkg/rdm"
)

// DiskStore implements rdm.ObjectStore on the local filesystem. Every
// write goes to a temporary file in the destination directory which is
// renamed into place, so a reader never observes a partially written
// object and an aborted upload leaves nothing at the final path.
type DiskStore struct {
	log rdm.Logger
}

func NewDiskStore(logger rdm.Logger) *DiskStore {
	return &DiskStore{log: logger}
}

func (s *DiskStore) Stat(path string) (rdm.ObjectInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rdm.ObjectInfo{}, rdm.ErrObjectNotFound
		}
		return rdm.ObjectInfo{}, errors.Wrap(err, "stat failed")
	}
	// Directories are shard prefixes, not objects.
	if fi.IsDir() {
		return rdm.ObjectInfo{}, rdm.ErrObjectNotFound
	}
	return rdm.ObjectInfo{Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (s *DiskStore) Open(path string) (io.ReadSeekCloser, rdm.ObjectInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, rdm.ObjectInfo{}, rdm.ErrObjectNotFound
		}
		return nil, rdm.ObjectInfo{}, errors.Wrap(err, "open failed")
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, rdm.ObjectInfo{}, errors.Wrap(err, "stat failed")
	}
	if fi.IsDir() {
		f.Close()
		return nil, rdm.ObjectInfo{}, rdm.ErrObjectNotFound
	}
	return f, rdm.ObjectInfo{Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// Write stores the stream at path. Parent directories are created on
// demand; MkdirAll is idempotent, so concurrent first-time writes into
// the same namespace do not conflict. Writing the same path twice
// silently replaces the previous object, which is safe for
// content-addressed keys and tolerated for everything else.
func (s *DiskStore) Write(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, errors.Wrap(err, "creating object directory")
	}

	// The temp file lives in the destination directory so the final
	// rename never crosses a filesystem boundary.
	tmp, err := os.CreateTemp(dir, "pending-")
	if err != nil {
		return 0, errors.Wrap(err, "creating temp file")
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, errors.Wrap(err, "storing object")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, errors.Wrap(err, "closing temp file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return 0, errors.Wrap(err, "publishing object")
	}

	s.log.WithField("path", path).WithField("bytes", n).Debug("object stored")
	return n, nil
}
