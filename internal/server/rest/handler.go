// Package rest is the HTTP transport of the portal.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type UserService interface {
	Authenticator
	Register(ctx context.Context, c services.Credentials) (*models.User, error)
	Login(ctx context.Context, c services.Credentials) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	SignOut(ctx context.Context, userID string) error
}

type CatalogService interface {
	List(ctx context.Context, query string) (*services.Listing, error)
	Year(ctx context.Context, year int) (*services.YearListing, error)
}

type DownloadService interface {
	Download(ctx context.Context, id string, deliver services.DeliverFunc) (*services.DownloadOutcome, error)
}

type UploadService interface {
	Upload(ctx context.Context, req services.UploadRequest) (*services.UploadResult, error)
}

type DocumentService interface {
	Delete(ctx context.Context, id string) error
	Profile(ctx context.Context) (*services.Profile, error)
}

type VocabularyService interface {
	Subjects(ctx context.Context, year int) ([]string, error)
}

type TutorService interface {
	List() []models.Tutor
}

// ReadinessChecker reports whether a dependency can serve requests.
type ReadinessChecker interface {
	PingContext(ctx context.Context) error
}

// Services groups what the handlers delegate to.
type Services struct {
	Users      UserService
	Catalog    CatalogService
	Downloads  DownloadService
	Uploads    UploadService
	Documents  DocumentService
	Vocabulary VocabularyService
	Tutors     TutorService
	Ready      ReadinessChecker
}

// Handler serves every route of the portal.
type Handler struct {
	svc            Services
	logger         logging.Logger
	maxUploadBytes int64
	accessTTL      time.Duration
	readyTimeout   time.Duration
}

func NewHandler(svc Services, maxUploadBytes int64, accessTTL time.Duration, l logging.Logger) *Handler {
	return &Handler{
		svc:            svc,
		logger:         l.With("module", "rest"),
		maxUploadBytes: maxUploadBytes,
		accessTTL:      accessTTL,
		readyTimeout:   2 * time.Second,
	}
}

// Router builds the chi router with middleware and routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(RequestLogger(h.logger))
	r.Use(Metrics())
	r.Use(Sessions(h.svc.Users, h.logger))

	r.Get("/health/live", h.healthLive)
	r.Get("/health/ready", h.healthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/create/action", h.upload)

	r.Route("/api", func(r chi.Router) {
		r.Get("/documents", h.listDocuments)
		r.Get("/documents/{id}/download", h.download)
		r.Delete("/documents/{id}", h.deleteDocument)
		r.Get("/years/{year}", h.yearListing)
		r.Get("/profile", h.profile)
		r.Get("/subjects", h.subjects)
		r.Get("/tutors", h.tutors)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)
		r.Post("/signout", h.signOut)
	})

	return r
}

// fail writes the error response for err and logs server-side failures.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg, details := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), msg, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg, details)
}

func (h *Handler) healthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) healthReady(w http.ResponseWriter, r *http.Request) {
	if h.svc.Ready == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "fail", "message": "database not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()
	if err := h.svc.Ready.PingContext(ctx); err != nil {
		h.logger.Warn(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "fail", "message": "database unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
