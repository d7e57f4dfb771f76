// Pluggable request authentication for the remote storage endpoint.
// Exactly one method is active per process, chosen from configuration at
// startup: none, basic (one fixed credential pair), custom (shared token
// in a configurable header) or database (delegated to the user store).
package auth

import (
	"crypto/subtle"
	"net/http"
	"net/textproto"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/hillstoneLeo/rint-data-manager/pkg/rdm"
)

// DefaultTokenHeader carries the shared token for the custom method
// when no header name is configured. Matches what the stock DVC client
// sends for custom-auth remotes.
const DefaultTokenHeader = "X-Dvc-Token"

// NoneAuth accepts every request as anonymous. Namespace isolation is
// bypassed in this mode; all callers share the storage root.
type NoneAuth struct {
	log rdm.Logger
}

func NewNoneAuth(logger rdm.Logger) *NoneAuth {
	return &NoneAuth{log: logger}
}

func (a *NoneAuth) Authenticate(r *http.Request) (*rdm.Identity, error) {
	return &rdm.Identity{}, nil
}

// BasicAuth compares the request's Basic-Auth credentials against one
// configured pair. There is no identity lookup; successful callers stay
// anonymous.
type BasicAuth struct {
	log      rdm.Logger
	username string
	password string
}

func NewBasicAuth(logger rdm.Logger, config *viper.Viper) (*BasicAuth, error) {
	if config == nil {
		return nil, errors.New("basic auth requires auth.basic configuration")
	}
	a := &BasicAuth{
		log:      logger,
		username: config.GetString("username"),
		password: config.GetString("password"),
	}
	if a.username == "" || a.password == "" {
		return nil, errors.New("basic auth requires a username and password")
	}
	return a, nil
}

func (a *BasicAuth) Authenticate(r *http.Request) (*rdm.Identity, error) {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return nil, rdm.ErrAuthRequired
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(a.password)) == 1
	if !userOK || !passOK {
		a.log.WithField("username", user).Warn("basic auth rejected")
		return nil, rdm.ErrAuthRequired
	}
	return &rdm.Identity{}, nil
}

// CustomAuth compares a configured header's value against a configured
// shared token. Successful callers stay anonymous.
type CustomAuth struct {
	log    rdm.Logger
	header string
	token  string
}

func NewCustomAuth(logger rdm.Logger, config *viper.Viper) (*CustomAuth, error) {
	if config == nil {
		return nil, errors.New("custom auth requires auth.custom configuration")
	}
	a := &CustomAuth{
		log:    logger,
		header: textproto.CanonicalMIMEHeaderKey(config.GetString("header")),
		token:  config.GetString("token"),
	}
	if a.header == "" {
		a.header = DefaultTokenHeader
	}
	if a.token == "" {
		return nil, errors.New("custom auth requires a token")
	}
	return a, nil
}

func (a *CustomAuth) Authenticate(r *http.Request) (*rdm.Identity, error) {
	got := r.Header.Get(a.header)
	if got == "" {
		return nil, rdm.ErrAuthRequired
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.token)) != 1 {
		a.log.Warn("custom header token rejected")
		return nil, rdm.ErrAuthRequired
	}
	return &rdm.Identity{}, nil
}

// DatabaseAuth delegates Basic-Auth credentials to the injected
// credential verifier (owned by the user-management subsystem) and then
// applies access policy on the resulting identity. Policy rejections
// are authorization failures (403), not authentication failures (401).
type DatabaseAuth struct {
	log          rdm.Logger
	verifier     rdm.CredentialVerifier
	requireAdmin bool
	allowed      map[string]bool
}

func NewDatabaseAuth(logger rdm.Logger, config *viper.Viper, verifier rdm.CredentialVerifier) *DatabaseAuth {
	a := &DatabaseAuth{
		log:      logger,
		verifier: verifier,
		allowed:  map[string]bool{},
	}
	if config != nil {
		a.requireAdmin = config.GetBool("require_admin")
		for _, email := range config.GetStringSlice("allowed_users") {
			a.allowed[email] = true
		}
	}
	return a
}

func (a *DatabaseAuth) Authenticate(r *http.Request) (*rdm.Identity, error) {
	email, password, ok := r.BasicAuth()
	if !ok {
		return nil, rdm.ErrAuthRequired
	}

	id, err := a.verifier.Verify(email, password)
	if err != nil {
		return nil, err
	}

	if a.requireAdmin && !id.IsAdmin {
		a.log.WithField("email", id.Email).Warn("non-admin denied remote access")
		return nil, errors.Wrap(rdm.ErrForbidden, "admin access required")
	}
	if len(a.allowed) > 0 && !a.allowed[id.Email] {
		a.log.WithField("email", id.Email).Warn("user not on remote allow-list")
		return nil, errors.Wrap(rdm.ErrForbidden, "user not authorized for remote access")
	}

	return id, nil
}
