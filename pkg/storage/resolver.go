package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/hillstoneLeo/rint-data-manager/pkg/rdm"
)

// Resolver maps client-supplied object keys to absolute paths inside a
// namespace below the storage root. It is the last line of defense
// against a malformed or hostile key and therefore runs on every
// request, independent of the authentication outcome.
type Resolver struct {
	root string
}

// NewResolver validates the configured storage root and canonicalizes
// it so containment checks compare symlink-free paths.
func NewResolver(root string) (*Resolver, error) {
	if root == "" || !filepath.IsAbs(root) {
		return nil, errors.Errorf("storage root must be an absolute path, got %q", root)
	}
	canonical, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, errors.Wrap(err, "storage root is not accessible")
	}
	return &Resolver{root: canonical}, nil
}

// Root returns the canonical storage root.
func (rv *Resolver) Root() string {
	return rv.root
}

// Resolve joins the namespace and the requested key below the storage
// root and verifies the result stays strictly inside the namespace.
// Empty keys, absolute keys, `..` escapes and symlinked escapes are all
// rejected with rdm.ErrPathTraversal before any filesystem operation
// touches the target.
func (rv *Resolver) Resolve(namespace, key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || filepath.IsAbs(key) {
		return "", rdm.ErrPathTraversal
	}

	base := rv.root
	if namespace != "" {
		base = filepath.Join(rv.root, filepath.FromSlash(namespace))
	}

	resolved := filepath.Join(base, filepath.FromSlash(key))
	if !strings.HasPrefix(resolved, base+string(os.PathSeparator)) {
		return "", rdm.ErrPathTraversal
	}

	// A symlink already stored below the namespace must not redirect
	// reads or writes outside the storage root. The target usually does
	// not exist yet (every first upload), so canonicalize the deepest
	// existing ancestor instead and require it to still sit under the
	// root; otherwise a symlinked directory would let a write land
	// outside.
	ancestor := resolved
	for {
		real, err := filepath.EvalSymlinks(ancestor)
		if err == nil {
			if real != rv.root && !strings.HasPrefix(real, rv.root+string(os.PathSeparator)) {
				return "", rdm.ErrPathTraversal
			}
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}

	return resolved, nil
}
