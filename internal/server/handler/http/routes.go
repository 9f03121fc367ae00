// Package http provides HTTP routing and handlers for the directory
// administration API.
package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bzdvdn/samba-ad-api/internal/auth"
	"github.com/bzdvdn/samba-ad-api/internal/directory"
	"github.com/bzdvdn/samba-ad-api/internal/middleware"
)

// Directory is the per-request facade the handlers operate through. The
// production implementation is *directory.Client, constructed fresh for
// every request with the credential recovered from its bearer token.
type Directory interface {
	ListUsers(ctx context.Context) ([]directory.Entry, error)
	GetUserByUsername(ctx context.Context, username string) (directory.Entry, error)
	CreateUser(ctx context.Context, req *directory.CreateUserRequest) error
	UpdateUser(ctx context.Context, username string, req *directory.UpdateUserRequest) error
	UpdateUserPassword(ctx context.Context, username, newPassword string) error
	DeleteUser(ctx context.Context, username string) error
	MoveOrgUnit(ctx context.Context, fromDN, toDN string) error

	ListGroups(ctx context.Context) ([]directory.Entry, error)
	ListGroupMembers(ctx context.Context, groupname string) ([]string, error)
	AddGroup(ctx context.Context, req *directory.AddGroupRequest) error
	DeleteGroup(ctx context.Context, groupname string) error
	AddGroupMembers(ctx context.Context, groupname string, usernames []string) error
	RemoveGroupMembers(ctx context.Context, groupname string, usernames []string) error

	ListOUs(ctx context.Context) ([]directory.Entry, error)
	CreateOU(ctx context.Context, req *directory.CreateOURequest) error
	DeleteOU(ctx context.Context, dn string) error

	Search(ctx context.Context, filter string, attrs []string) ([]directory.Entry, error)
	ListGPOs(ctx context.Context) ([]directory.Entry, error)
}

// DirectoryFactory builds a facade bound to one request's credential.
type DirectoryFactory func(cred directory.Credential) Directory

// Authenticator is the token surface the auth handlers need.
type Authenticator interface {
	middleware.TokenVerifier
	Login(ctx context.Context, cred directory.Credential) (*auth.TokenPair, error)
	Refresh(token string) (*auth.TokenPair, error)
}

// NewRouter constructs the API router. Auth endpoints are public;
// everything else sits behind the bearer middleware, which injects the
// token's credential into the request context for the factory.
func NewRouter(authn Authenticator, factory DirectoryFactory, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chimiddleware.Recoverer)

	authHandler := &AuthHandler{Authn: authn}
	userHandler := &UserHandler{Factory: factory}
	groupHandler := &GroupHandler{Factory: factory}
	orgHandler := &OrgHandler{Factory: factory}
	searchHandler := &SearchHandler{Factory: factory}
	gpoHandler := &GPOHandler{Factory: factory}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(chimiddleware.AllowContentType("application/json")).
				Post("/login", authHandler.Login)
			r.With(chimiddleware.AllowContentType("application/json")).
				Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(middleware.BearerAuth(authn))
				r.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(authn))
			r.Use(jsonBodyOnWrites)

			r.Route("/user", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Put("/password", userHandler.UpdatePassword)
				r.Post("/move", userHandler.Move)
				r.Get("/{username}", userHandler.Get)
				r.Patch("/{username}", userHandler.Update)
				r.Delete("/{username}", userHandler.Delete)
			})

			r.Route("/group", func(r chi.Router) {
				r.Get("/", groupHandler.List)
				r.Post("/", groupHandler.Create)
				r.Post("/members/add", groupHandler.AddMembers)
				r.Post("/members/remove", groupHandler.RemoveMembers)
				r.Get("/{groupname}/members", groupHandler.Members)
				r.Delete("/{groupname}", groupHandler.Delete)
			})

			r.Route("/org", func(r chi.Router) {
				r.Get("/", orgHandler.List)
				r.Post("/", orgHandler.Create)
				r.Delete("/", orgHandler.Delete)
			})

			r.Post("/search/", searchHandler.Search)
			r.Get("/gpo/", gpoHandler.List)
		})
	})

	return r
}

// jsonBodyOnWrites enforces a JSON content type on body-carrying methods
// only; GET and DELETE pass through.
func jsonBodyOnWrites(next http.Handler) http.Handler {
	allow := chimiddleware.AllowContentType("application/json")(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			allow.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
