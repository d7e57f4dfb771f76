// Standard interfaces and datatypes for the rint remote storage endpoint.
// Terms:
//   "identity" : The authenticated caller, resolved from request credentials
//   "namespace" : The per-identity subtree of the storage root that isolates
//                 one caller's objects from another's
package rdm

import (
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is accepted by every component so callers can inject a logrus
// entry pre-tagged with a module field.
type Logger = logrus.FieldLogger

// Identity is the result of successful authentication. It is
// request-scoped and never persisted by this subsystem. Auth methods
// without a user lookup (none, basic, custom) produce an anonymous
// identity with an empty Email.
type Identity struct {
	Email   string
	IsAdmin bool
}

// Anonymous reports whether the identity carries no caller information.
// Anonymous callers share the storage root instead of an isolated
// namespace.
func (id *Identity) Anonymous() bool {
	return id == nil || id.Email == ""
}

// Authenticator decides whether a request carries valid credentials and
// resolves them to a caller identity. Implementations return
// ErrAuthRequired for missing or rejected credentials and ErrForbidden
// when valid credentials are excluded by policy. Implementations must
// never log plaintext passwords.
type Authenticator interface {
	Authenticate(r *http.Request) (*Identity, error)
}

// CredentialVerifier is the narrow interface onto the user-management
// subsystem. Verify returns ErrAuthRequired for an unknown user or a
// wrong password and ErrForbidden for a disabled account.
type CredentialVerifier interface {
	Verify(email, password string) (*Identity, error)
}

// ObjectInfo is the metadata reported by existence probes. Probes must
// not read object contents.
type ObjectInfo struct {
	Size    int64
	ModTime time.Time
}

// ObjectStore performs byte-level reads, atomic writes and metadata
// probes against resolved absolute paths. Writes to the same path race
// only on last-rename-wins; writes to different paths are fully
// independent, so no in-process locking is needed.
type ObjectStore interface {
	Stat(path string) (ObjectInfo, error)
	Open(path string) (io.ReadSeekCloser, ObjectInfo, error)
	Write(path string, r io.Reader) (int64, error)
}
