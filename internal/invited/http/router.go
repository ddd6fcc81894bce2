package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/openoak/invited/internal/invited/service"
	"github.com/openoak/invited/internal/invited/store"
	"github.com/openoak/invited/pkg/httpx"
	"github.com/openoak/invited/pkg/slogx"

	_ "github.com/openoak/invited/api/invited" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	InvitationService *service.InvitationService
	SessionService    *service.SessionService
	BootstrapService  *service.BootstrapService
	Quota             *service.QuotaPolicy
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerInvitations()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Invited Registration Service API
//	@version		0.1.0
//	@description	Invitation-gated account registration: existing users invite an email address, the recipient redeems the emailed code to create an account.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	// Login is brute-forceable; limit by IP + username.
	r.Mux.Handle("POST /v1/sessions",
		httpx.Chain(&SessionHandler{SessionService: r.SessionService},
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)
}

func (r *Router) registerInvitations() {
	session := RequireSession(r.SessionService)

	r.Mux.Handle("POST /v1/invitations",
		httpx.Chain(&InviteCreateHandler{InvitationService: r.InvitationService},
			session,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/invitations",
		httpx.Chain(&InviteListHandler{InvitationService: r.InvitationService},
			session,
			RequireStaff(),
		),
	)

	r.Mux.Handle("GET /v1/invitations/remaining",
		httpx.Chain(&InviteRemainingHandler{Quota: r.Quota, Store: r.store},
			session,
		),
	)

	r.Mux.Handle("POST /v1/invitations/purge",
		httpx.Chain(&InvitePurgeHandler{InvitationService: r.InvitationService},
			session,
			RequireStaff(),
		),
	)

	// Redemption is public: the recipient has no session yet. Strictly
	// rate limited to slow down code guessing.
	r.Mux.Handle("GET /v1/invitations/{code}",
		httpx.Chain(&InvitePreviewHandler{InvitationService: r.InvitationService},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/invitations/{code}/redeem",
		httpx.Chain(&InviteRedeemHandler{
			InvitationService: r.InvitationService,
			SessionService:    r.SessionService,
		},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(&BootstrapHandler{BootstrapService: r.BootstrapService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.HandleFunc("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
