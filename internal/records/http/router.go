package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/metrics"
	"github.com/folioworks/folio/internal/records/service"
	"github.com/folioworks/folio/internal/records/store"
	"github.com/folioworks/folio/pkg/httpx"
	"github.com/folioworks/folio/pkg/jwtx"
	"github.com/folioworks/folio/pkg/slogx"

	_ "github.com/folioworks/folio/api/records" // Swagger docs
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics

	store           store.Store
	AuthService     *service.AuthService
	AccountService  *service.AccountService
	DocumentService *service.DocumentService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		metrics:      m,
		store:        st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccounts()
	r.registerDocuments()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Folio Records Service API
//	@version		0.1.0
//	@description	Record management backend with accounts and documents, a three-state
//	@description	soft-delete lifecycle (active, soft-deleted, purged), uniqueness and
//	@description	relation guards, filtered listings, and JWT-authenticated mutation.
//
//	@contact.name				Folio Works
//	@contact.url				https://github.com/folioworks/folio
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// observe labels request counts and durations with the registered route
// pattern, keeping metric cardinality bounded.
func (r *Router) observe(route string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, req)
			r.metrics.ObserveRequest(route, req.Method, rec.status, time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{AuthService: r.AuthService, Metrics: r.metrics}

	// POST /auth/login - strict rate limit by IP + email (brute force prevention)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			r.observe("/v1/auth/login"),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{Accounts: r.AccountService, Metrics: r.metrics}

	// Public reads - lenient rate limit by IP
	r.Mux.Handle("GET /v1/accounts",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			r.observe("/v1/accounts"),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/accounts/stats",
		httpx.Chain(http.HandlerFunc(h.HandleStats),
			r.observe("/v1/accounts/stats"),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/accounts/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.observe("/v1/accounts/{id}"),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /v1/accounts - open registration, moderate rate limit by IP
	r.Mux.Handle("POST /v1/accounts",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			r.observe("/v1/accounts"),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Authenticated mutations - moderate rate limit by account
	r.Mux.Handle("PATCH /v1/accounts/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			r.observe("/v1/accounts/{id}"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/accounts/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			r.observe("/v1/accounts/{id}"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/{id}/restore",
		httpx.Chain(http.HandlerFunc(h.HandleRestore),
			r.observe("/v1/accounts/{id}/restore"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)

	// Privileged operations - role-gated, moderate rate limit by account
	r.Mux.Handle("DELETE /v1/accounts/{id}/purge",
		httpx.Chain(http.HandlerFunc(h.HandlePurge),
			r.observe("/v1/accounts/{id}/purge"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(domain.RolePrivileged.String()),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/accounts/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleRole),
			r.observe("/v1/accounts/{id}/role"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(domain.RolePrivileged.String()),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/batch-delete",
		httpx.Chain(http.HandlerFunc(h.HandleBatchDelete),
			r.observe("/v1/accounts/batch-delete"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(domain.RolePrivileged.String()),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerDocuments() {
	h := &DocumentsHandler{Documents: r.DocumentService, Metrics: r.metrics}

	// Public reads - lenient rate limit by IP
	r.Mux.Handle("GET /v1/documents",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			r.observe("/v1/documents"),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/documents/search",
		httpx.Chain(http.HandlerFunc(h.HandleSearch),
			r.observe("/v1/documents/search"),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/documents/stats",
		httpx.Chain(http.HandlerFunc(h.HandleStats),
			r.observe("/v1/documents/stats"),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/documents/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.observe("/v1/documents/{id}"),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/accounts/{id}/documents",
		httpx.Chain(http.HandlerFunc(h.HandleListByOwner),
			r.observe("/v1/accounts/{id}/documents"),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// Authenticated mutations - moderate rate limit by account
	r.Mux.Handle("POST /v1/documents",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			r.observe("/v1/documents"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/documents/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			r.observe("/v1/documents/{id}"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/documents/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			r.observe("/v1/documents/{id}"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/documents/{id}/restore",
		httpx.Chain(http.HandlerFunc(h.HandleRestore),
			r.observe("/v1/documents/{id}/restore"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/documents/batch-delete",
		httpx.Chain(http.HandlerFunc(h.HandleBatchDelete),
			r.observe("/v1/documents/batch-delete"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)

	// Privileged operations - role-gated, moderate rate limit by account
	r.Mux.Handle("DELETE /v1/documents/{id}/purge",
		httpx.Chain(http.HandlerFunc(h.HandlePurge),
			r.observe("/v1/documents/{id}/purge"),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(domain.RolePrivileged.String()),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
