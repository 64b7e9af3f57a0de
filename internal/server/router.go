package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"identity-service/internal/accesscontrol"
	"identity-service/internal/security"
)

// RouterOptions controls the construction of the identity HTTP router.
type RouterOptions struct {
	Auth        *AuthHandler
	Users       *UsersHandler
	Roles       *RolesHandler
	Permissions *PermissionsHandler
	Tokens      *security.TokenProvider
	Policy      accesscontrol.Policy
	Telemetry   *Telemetry
	CORSOrigins []string
	Timeout     time.Duration
}

// requestIDHeader echoes the request id back to the client so failures
// can be correlated with server logs.
func requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set("X-Request-Id", id)
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter assembles the chi router with shared middleware and all
// identity routes mounted.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestIDHeader)
	r.Use(middleware.RealIP)
	r.Use(clientIPContext)
	r.Use(middleware.Recoverer)
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}
	if opts.Telemetry != nil {
		r.Use(opts.Telemetry.Middleware)
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	requireAccess := RequireAccess(opts.Tokens)
	requireRefresh := RequireRefresh(opts.Tokens)
	guard := func(operation string) func(http.Handler) http.Handler {
		return RequirePermissions(opts.Policy, operation)
	}

	r.Get("/healthz", handleHealthz)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", opts.Auth.Login)
		r.With(requireRefresh).Post("/refresh", opts.Auth.Refresh)
		r.With(requireRefresh).Post("/logout", opts.Auth.Logout)
		r.With(requireRefresh).Post("/logout-all", opts.Auth.LogoutAll)
		r.With(requireAccess).Get("/me", opts.Auth.Me)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAccess)

		r.Route("/users", func(r chi.Router) {
			r.With(guard("users.list")).Get("/", opts.Users.List)
			r.With(guard("users.get")).Get("/{id}", opts.Users.Get)
			r.With(guard("users.create")).Post("/", opts.Users.Create)
			r.With(guard("users.update")).Put("/{id}", opts.Users.Update)
			r.With(guard("users.disable")).Delete("/{id}", opts.Users.Disable)
			r.With(guard("users.enable")).Post("/{id}/enable", opts.Users.Enable)
		})

		r.Route("/roles", func(r chi.Router) {
			r.With(guard("roles.list")).Get("/", opts.Roles.List)
			r.With(guard("roles.get")).Get("/{id}", opts.Roles.Get)
			r.With(guard("roles.create")).Post("/", opts.Roles.Create)
			r.With(guard("roles.update")).Put("/{id}", opts.Roles.Update)
			r.With(guard("roles.disable")).Delete("/{id}", opts.Roles.Disable)
			r.With(guard("roles.enable")).Post("/{id}/enable", opts.Roles.Enable)
			r.With(guard("roles.assign_permissions")).Post("/{id}/permissions", opts.Roles.AssignPermissions)
			r.With(guard("roles.remove_permissions")).Delete("/{id}/permissions", opts.Roles.RemovePermissions)
		})

		r.Route("/permissions", func(r chi.Router) {
			r.With(guard("permissions.list")).Get("/", opts.Permissions.List)
			r.With(guard("permissions.get")).Get("/{id}", opts.Permissions.Get)
			r.With(guard("permissions.create")).Post("/", opts.Permissions.Create)
			r.With(guard("permissions.update")).Put("/{id}", opts.Permissions.Update)
			r.With(guard("permissions.disable")).Delete("/{id}", opts.Permissions.Disable)
			r.With(guard("permissions.enable")).Post("/{id}/enable", opts.Permissions.Enable)
		})
	})

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, http.StatusOK, "ok", map[string]string{"status": "ok"})
}
