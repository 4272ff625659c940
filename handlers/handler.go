package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"zawamis/files"
	"zawamis/middleware"
	"zawamis/password"
	"zawamis/store"
)

// Options tunes request handling.
type Options struct {
	// MaxUploadSize is the per-file limit in bytes.
	MaxUploadSize int64
	// LoginLimit login attempts per client and LoginWindow; zero disables.
	LoginLimit  int
	LoginWindow time.Duration
	// MediaURL is the path Media is mounted under.
	MediaURL string
	// TrustProxyHeaders keys rate limits on X-Forwarded-For. Only set it
	// when a reverse proxy overwrites that header.
	TrustProxyHeaders bool
}

// Dependencies are the collaborators the handlers orchestrate.
type Dependencies struct {
	Store   store.Store
	Files   files.Storage
	Hasher  password.Hasher
	Limiter middleware.Limiter
	Logger  *slog.Logger
	Options Options
	// Media serves stored files; nil when the storage backend serves them.
	Media http.Handler
	// Now is the clock used for creation timestamps.
	Now func() time.Time
}

// Handler serves the HTTP API on top of a Store and file Storage.
type Handler struct {
	store   store.Store
	files   files.Storage
	hasher  password.Hasher
	limiter middleware.Limiter
	logger  *slog.Logger
	opts    Options
	media   http.Handler
	now     func() time.Time
}

// New builds a Handler, filling in defaults for the clock, the logger and
// unset Options.
func New(deps Dependencies) *Handler {
	h := &Handler{
		store:   deps.Store,
		files:   deps.Files,
		hasher:  deps.Hasher,
		limiter: deps.Limiter,
		logger:  deps.Logger,
		opts:    deps.Options,
		media:   deps.Media,
		now:     deps.Now,
	}
	if h.now == nil {
		h.now = func() time.Time { return time.Now().UTC() }
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.opts.MaxUploadSize <= 0 {
		h.opts.MaxUploadSize = files.DefaultMaxUploadSize
	}
	if h.opts.MediaURL == "" {
		h.opts.MediaURL = "/media/"
	}
	if !strings.HasSuffix(h.opts.MediaURL, "/") {
		h.opts.MediaURL += "/"
	}
	return h
}

// MaxBodySize is the request body cap: three documents plus form fields.
func (h *Handler) MaxBodySize() int64 {
	return 3*h.opts.MaxUploadSize + 1<<20
}

// SetupRoutes registers every endpoint on mux. Paths are accepted with and
// without the trailing slash.
func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	route(mux, http.MethodPost, "/register/", h.Register)
	route(mux, http.MethodPost, "/login/", h.Login)
	route(mux, http.MethodGet, "/profile/{user_id}/", h.Profile)
	route(mux, http.MethodPost, "/apply-job/", h.ApplyJob)
	route(mux, http.MethodPost, "/messages/", h.SubmitMessage)
	route(mux, http.MethodGet, "/messages/{user_id}/", h.ListMessages)

	if h.media != nil {
		mux.Handle("GET "+h.opts.MediaURL, h.media)
	}
}

func route(mux *http.ServeMux, method, path string, fn http.HandlerFunc) {
	mux.HandleFunc(method+" "+path+"{$}", fn)
	mux.HandleFunc(method+" "+strings.TrimSuffix(path, "/"), fn)
}
