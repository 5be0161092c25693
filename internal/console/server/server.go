package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/clientpolicy-console/internal/console/handler"
	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"github.com/xela07ax/clientpolicy-console/internal/infra"
	"github.com/xela07ax/clientpolicy-console/internal/infra/auth"
	"go.uber.org/zap"
)

// Handlers обработчики бизнес-доменов консоли.
type Handlers struct {
	Auth     *handler.AuthHandler    // /auth/token
	Policy   *handler.PolicyHandler  // /v1/realms/{realm}/client-policies
	Sessions *handler.SessionHandler // /v1/realms/{realm}/client-policies/sessions
	Audit    *handler.AuditHandler   // /v1/realms/{realm}/client-policies/audit
}

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Проверка RS256 токенов. Реализуется через embedding BaseValidator в AuthService
	authValidator auth.TokenValidator
	gatherer      prometheus.Gatherer
	h             Handlers
}

// NewConsoleServer gatherer nil: без /metrics.
func NewConsoleServer(logger *zap.Logger, validator auth.TokenValidator, gatherer prometheus.Gatherer, h Handlers) *ConsoleServer {
	s := &ConsoleServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("console-api"),
		authValidator: validator,
		gatherer:      gatherer,
		h:             h,
	}
	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(infra.TracingMiddleware)
	r.Use(infra.AccessLog(s.logger))
	r.Use(middleware.Recoverer)

	// --- 2. Публичные роуты ---
	r.Group(func(r chi.Router) {
		r.Post("/auth/token", s.h.Auth.Login)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		if s.gatherer != nil {
			r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
		}
	})

	// --- 3. Защищенный периметр (RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))

		r.Route("/v1/realms/{realm}/client-policies", func(r chi.Router) {
			r.With(auth.RequireScope(domain.ScopeViewRealm)).Get("/", s.h.Policy.List)
			r.With(auth.RequireScope(domain.ScopeViewRealm)).Get("/audit", s.h.Audit.GetLogs)

			// Мастер создания/удаления меняет коллекцию: только manage-realm
			r.Route("/sessions", func(r chi.Router) {
				r.Use(auth.RequireScope(domain.ScopeManageRealm))
				r.Post("/", s.h.Sessions.Open)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.h.Sessions.Get)
					r.Delete("/", s.h.Sessions.Close)
					r.Put("/fields", s.h.Sessions.SetFields)
					r.Post("/submit", s.h.Sessions.Submit)
					r.Post("/cancel", s.h.Sessions.Cancel)
					r.Post("/delete", s.h.Sessions.RequestDelete)
					r.Post("/delete/confirm", s.h.Sessions.ConfirmDelete)
				})
			})
		})
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
