package storage

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// EnsureTree creates the storage root and the users directory that
// holds per-identity namespaces. Safe to run repeatedly.
func EnsureTree(root string) error {
	if root == "" || !filepath.IsAbs(root) {
		return errors.Errorf("storage root must be an absolute path, got %q", root)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return errors.Wrap(err, "creating storage root")
	}
	if err := os.MkdirAll(filepath.Join(root, usersDir), 0755); err != nil {
		return errors.Wrap(err, "creating users directory")
	}
	return nil
}

// CheckWritable verifies the service process can create files under the
// storage root before any traffic is served.
func CheckWritable(root string) error {
	probe, err := os.CreateTemp(root, ".writecheck-")
	if err != nil {
		return errors.Wrap(err, "storage root is not writable")
	}
	probe.Close()
	return os.Remove(probe.Name())
}
