package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/owsgate/internal/gateway/proxy"
	"github.com/aussiebroadwan/owsgate/internal/gateway/service"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
	"github.com/aussiebroadwan/owsgate/internal/gateway/tokens"
	"github.com/aussiebroadwan/owsgate/pkg/httpx"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"

	_ "github.com/aussiebroadwan/owsgate/api/gateway" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// AdminRealm is the basic-auth realm of the admin routes.
const AdminRealm = "owsgate"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	strategy tokens.Strategy

	TokenService  *service.TokenService
	ClientService *service.ClientService
	ServiceAdmin  *service.ServiceAdmin
	Gateway       *proxy.Gateway
	Metrics       *metrics.Collector // nil disables /metrics

	// Admin routes are only mounted when AdminPassword is set.
	AdminUser     string
	AdminPassword string

	ProtectedPath string
	GatewayURL    string
}

func NewRouter(buildVersion string, st store.Store, strategy tokens.Strategy, logger *slog.Logger) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		logger:        logger,
		store:         st,
		strategy:      strategy,
		ProtectedPath: "/ows",
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerAdmin()
	r.registerProxy()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			owsgate OWS Security Gateway API
//	@version		0.1.0
//	@description	Issues OAuth2 client-credentials tokens and proxies authorised requests to protected OGC web services.
//	@description
//	@description				Proxy errors are OWS ExceptionReport documents; OAuth2 and admin errors are RFC 6749 JSON.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/owsgate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.basic	BasicAuth
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) adminEnabled() bool {
	return r.AdminPassword != ""
}

func (r *Router) registerOAuth2() {
	// POST /oauth/token - strict limit per address and client
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /oauth/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByClient(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.strategy),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if !r.adminEnabled() {
		r.logger.Warn("admin password not configured, client registration disabled")
		return
	}

	// POST /oauth/client - registration is an admin operation
	registerHandler := &RegisterClientHandler{ClientService: r.ClientService}
	r.Mux.Handle("POST /oauth/client",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
			httpx.BasicAuth(AdminRealm, r.AdminUser, r.AdminPassword),
		),
	)
}

func (r *Router) registerAdmin() {
	if !r.adminEnabled() {
		r.logger.Warn("admin password not configured, admin API disabled")
		return
	}

	secured := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h,
			httpx.RateLimitByIP(httpx.ModerateLimit),
			httpx.BasicAuth(AdminRealm, r.AdminUser, r.AdminPassword),
		)
	}

	clients := &ClientsHandler{ClientService: r.ClientService}
	r.Mux.Handle("GET /v1/admin/clients", secured(clients.HandleList))
	r.Mux.Handle("DELETE /v1/admin/clients/{id}", secured(clients.HandleDelete))

	services := &ServicesHandler{
		ServiceAdmin:  r.ServiceAdmin,
		GatewayURL:    r.GatewayURL,
		ProtectedPath: r.ProtectedPath,
	}
	r.Mux.Handle("GET /v1/admin/services", secured(services.HandleList))
	r.Mux.Handle("POST /v1/admin/services", secured(services.HandleAdd))
	r.Mux.Handle("DELETE /v1/admin/services", secured(services.HandleClear))
	r.Mux.Handle("DELETE /v1/admin/services/{name}", secured(services.HandleRemove))

	tokenAdmin := &AdminTokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/admin/tokens", secured(tokenAdmin.ServeHTTP))
}

// registerProxy mounts the gateway under ProtectedPath. Any method is
// forwarded.
func (r *Router) registerProxy() {
	if r.Gateway == nil {
		return
	}
	base := strings.TrimSuffix(r.ProtectedPath, "/") + "/proxy/{" + proxy.PathService + "}"
	h := httpx.Chain(r.Gateway, httpx.RateLimitByIP(httpx.PublicLimit))

	r.Mux.Handle(base, h)
	r.Mux.Handle(base+"/{"+proxy.PathExtraPath+"...}", h)
}

func (r *Router) registerSystem() {
	// Health check endpoints - monitoring systems may poll frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.strategy),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
