package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// Per-user namespaces live together under this directory so they never
// mix with objects stored by anonymous auth modes at the root.
const usersDir = "users"

// Length of the truncated digest used as the namespace directory name.
const namespaceLen = 12

// Namespace maps a caller identity to its isolated directory below the
// storage root. The empty identity (anonymous access) maps to the root
// itself. The mapping is deterministic and one-way: the same identity
// always lands in the same directory, and the directory name does not
// reveal the email it was derived from.
func Namespace(identity string) string {
	if identity == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(identity)))
	return path.Join(usersDir, hex.EncodeToString(sum[:])[:namespaceLen])
}
