// The DVC-compatible remote storage endpoint: verb dispatch over the
// authenticator, namespace/path resolution and the object store. Every
// request is authenticated and resolved independently; no state is
// shared across requests beyond the immutable configuration and the
// filesystem itself.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/hillstoneLeo/rint-data-manager/pkg/rdm"
	"github.com/hillstoneLeo/rint-data-manager/pkg/storage"
)

// All object routes live under this prefix; the key pattern accepts
// whatever shard shape the client sends (including traversal attempts,
// which must reach the resolver so they are rejected with 400 instead
// of being silently cleaned away by the router).
const keyRoute = "/dvc/{key:.+}"

type Server struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration

	log      rdm.Logger
	auth     rdm.Authenticator
	resolver *storage.Resolver
	store    rdm.ObjectStore
	router   *mux.Router
}

func NewServer(logger rdm.Logger, config *viper.Viper, authn rdm.Authenticator, resolver *storage.Resolver, store rdm.ObjectStore) *Server {
	s := &Server{
		addr:         config.GetString("addr"),
		readTimeout:  config.GetDuration("read_timeout"),
		writeTimeout: config.GetDuration("write_timeout"),
		log:          logger,
		auth:         authn,
		resolver:     resolver,
		store:        store,
	}

	r := mux.NewRouter()
	// Path cleaning would turn "/dvc/../x" into a 301 before the
	// traversal check ever sees it.
	r.SkipClean(true)

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// GET /dvc/user/info (fixed sub-route, ahead of the key wildcard).
	// Other verbs get a 405 here so the route shadows the wildcard
	// completely and "user/info" can never be stored as an object.
	r.Handle("/dvc/user/info", instrument("user_info", http.HandlerFunc(s.handleUserInfo))).Methods("GET")
	r.Handle("/dvc/user/info", instrument("user_info", http.HandlerFunc(s.handleUserInfoVerb))).Methods("HEAD", "PUT", "POST")

	// HEAD /dvc/{key}
	r.Handle(keyRoute, instrument("exists", http.HandlerFunc(s.handleExists))).Methods("HEAD")
	// GET /dvc/{key}
	r.Handle(keyRoute, instrument("download", http.HandlerFunc(s.handleDownload))).Methods("GET")
	// PUT /dvc/{key} and POST /dvc/{key} are aliases for upload.
	upload := instrument("upload", http.HandlerFunc(s.handleUpload))
	r.Handle(keyRoute, upload).Methods("PUT")
	r.Handle(keyRoute, upload).Methods("POST")

	s.router = r
	return s
}

// Handler exposes the routed endpoint, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		s.log.Info("shutting down")
		if err := srv.Shutdown(context.Background()); err != nil {
			s.log.WithError(err).Error("shutdown failed")
		}
	}()

	s.log.WithField("addr", s.addr).Info("remote storage endpoint listening")
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// resolve authenticates the request and maps its key into the caller's
// namespace. On failure the response has already been written.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request, headOnly bool) (string, *rdm.Identity, bool) {
	id, err := s.auth.Authenticate(r)
	if err != nil {
		s.respondFailure(w, headOnly, err)
		return "", nil, false
	}

	key := mux.Vars(r)["key"]
	path, err := s.resolver.Resolve(s.namespaceFor(id), key)
	if err != nil {
		s.respondFailure(w, headOnly, err)
		return "", nil, false
	}
	return path, id, true
}

func (s *Server) namespaceFor(id *rdm.Identity) string {
	if id.Anonymous() {
		return ""
	}
	return storage.Namespace(id.Email)
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	path, _, ok := s.resolve(w, r, true)
	if !ok {
		return
	}

	info, err := s.store.Stat(path)
	if err != nil {
		s.respondFailure(w, true, err)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	path, _, ok := s.resolve(w, r, false)
	if !ok {
		return
	}

	f, info, err := s.store.Open(path)
	if err != nil {
		s.respondFailure(w, false, err)
		return
	}
	defer f.Close()

	http.ServeContent(w, r, filepath.Base(path), info.ModTime, f)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	path, id, ok := s.resolve(w, r, false)
	if !ok {
		return
	}

	n, err := s.store.Write(path, r.Body)
	if err != nil {
		s.respondFailure(w, false, err)
		return
	}

	resp := uploadResponse{Status: "success", Path: mux.Vars(r)["key"]}
	if !id.Anonymous() {
		resp.UserEmail = id.Email
	}
	s.log.WithField("path", path).WithField("bytes", n).Info("object uploaded")
	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	id, err := s.auth.Authenticate(r)
	if err != nil {
		s.respondFailure(w, false, err)
		return
	}

	if id.Anonymous() {
		respondJSON(w, http.StatusOK, userInfoResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, userInfoResponse{
		Authenticated: true,
		Email:         id.Email,
		IsAdmin:       id.IsAdmin,
	})
}

func (s *Server) handleUserInfoVerb(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	if r.Method == http.MethodHead {
		respondHEAD(w, http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Code:        http.StatusMethodNotAllowed,
		Error:       "method not allowed",
		Description: http.StatusText(http.StatusMethodNotAllowed),
	})
}

type uploadResponse struct {
	Status    string `json:"status"`
	Path      string `json:"path"`
	UserEmail string `json:"user_email,omitempty"`
}

type userInfoResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	IsAdmin       bool   `json:"is_admin"`
}

type errorResponse struct {
	Code        int    `json:"code"`
	Error       string `json:"error"`
	Description string `json:"description"`
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, rdm.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, rdm.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, rdm.ErrPathTraversal):
		return http.StatusBadRequest
	case errors.Is(err, rdm.ErrObjectNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) respondFailure(w http.ResponseWriter, headOnly bool, err error) {
	code := statusCode(err)

	if code == http.StatusUnauthorized {
		// Hint standard HTTP clients to retry with Basic credentials.
		w.Header().Set("WWW-Authenticate", `Basic realm="rint-data-manager"`)
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
		msg = "internal server error"
	}

	if headOnly {
		respondHEAD(w, code)
		return
	}
	respondJSON(w, code, errorResponse{
		Code:        code,
		Error:       msg,
		Description: http.StatusText(code),
	})
}

func respondHEAD(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(code)
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
