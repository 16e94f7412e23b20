package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/roadside-dispatch/internal/admin"
	"github.com/example/roadside-dispatch/internal/auth"
	"github.com/example/roadside-dispatch/internal/directory"
	"github.com/example/roadside-dispatch/internal/dispatch"
	"github.com/example/roadside-dispatch/internal/feedback"
	"github.com/example/roadside-dispatch/internal/identity"
	"github.com/example/roadside-dispatch/internal/lifecycle"
	"github.com/example/roadside-dispatch/internal/matcher"
	"github.com/example/roadside-dispatch/internal/payments"
	"github.com/example/roadside-dispatch/internal/storage"
)

// Deps carries everything the HTTP surface needs. Construction happens
// once in main; no handler reaches for globals.
type Deps struct {
	Identity      *identity.Service
	Registry      *directory.Registry
	Directory     directory.Directory
	Matcher       *matcher.Service
	Lifecycle     *lifecycle.Manager
	Payments      *payments.Service
	Notifications *dispatch.Service
	Admin         *admin.Service
	Feedback      *feedback.Service
	Store         storage.Store
	Tokens        *auth.TokenService
	WSReg         *dispatch.WSRegistry
	Logger        *slog.Logger
}

type Server struct {
	deps   Deps
	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(deps Deps) *Server {
	s := &Server{deps: deps, logger: deps.Logger, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())

	s.mux.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	s.mux.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	// Gateway callbacks authenticate out of band, not with user tokens.
	s.mux.HandleFunc("/payments/webhook", s.handlePaymentWebhook).Methods(http.MethodPost)

	authed := s.mux.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)

	authed.HandleFunc("/providers/apply", s.handleProviderApply).Methods(http.MethodPost)
	authed.HandleFunc("/providers/status", s.handleProviderStatus).Methods(http.MethodPost)
	authed.HandleFunc("/providers/nearby", s.handleProvidersNearby).Methods(http.MethodGet)

	authed.HandleFunc("/requests", s.handleCreateRequest).Methods(http.MethodPost)
	authed.HandleFunc("/requests", s.handleListRequests).Methods(http.MethodGet)
	authed.HandleFunc("/requests/{id}/status", s.handleRequestStatus).Methods(http.MethodPost)

	authed.HandleFunc("/payments/intent", s.handlePaymentIntent).Methods(http.MethodPost)

	authed.HandleFunc("/notifications/register", s.handleNotificationRegister).Methods(http.MethodPost)
	authed.HandleFunc("/notifications/send", s.handleNotificationSend).Methods(http.MethodPost)

	authed.HandleFunc("/reviews", s.handleReview).Methods(http.MethodPost)
	authed.HandleFunc("/disputes", s.handleDispute).Methods(http.MethodPost)

	authed.HandleFunc("/admin/overview", s.handleAdminOverview).Methods(http.MethodGet)
	authed.HandleFunc("/admin/applications", s.handleAdminApplications).Methods(http.MethodGet)
	authed.HandleFunc("/admin/applications/{id}/status", s.handleApplicationStatus).Methods(http.MethodPost)

	authed.HandleFunc("/ws/{provider_id}", s.handleWS).Methods(http.MethodGet)
}
