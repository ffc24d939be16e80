// Package gateway is the access-gated front door of the application: it
// authenticates the single-user session, serves the data API backed by the
// key-value store, and hands authenticated page requests to the static
// content proxy.
package gateway

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/panpapadopoulos/subtrack/auth"
	"github.com/panpapadopoulos/subtrack/storage"
)

// Gateway holds the dependencies needed by the HTTP handlers.
type Gateway struct {
	auth  *auth.Authenticator
	store storage.Store
	proxy http.Handler
	audit *auditLogger
}

// Option configures the Gateway instance.
type Option func(*Gateway)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.audit = newAuditLogger(logger)
	}
}

// New creates a Gateway over the given authenticator, store, and static
// content proxy.
func New(authn *auth.Authenticator, store storage.Store, proxy http.Handler, opts ...Option) *Gateway {
	g := &Gateway{
		auth:  authn,
		store: store,
		proxy: proxy,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.audit == nil {
		g.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return g
}

// Router returns a chi.Router with all gateway routes mounted.
//
// The API subtree and the login/logout endpoints are matched before the
// generic page gate: login and logout must stay reachable by
// unauthenticated clients, and the API carries its own auth check because
// it may be reached directly.
func (g *Gateway) Router() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Use(SecurityHeaders)
		r.Use(g.requireAuth)
		r.Get("/data", g.GetDataset)
		r.Post("/data", g.PutDataset)
	})

	r.With(SecurityHeaders).Post("/login", g.Login)
	r.With(SecurityHeaders).Get("/logout", g.Logout)

	// Pages are GET-only; the proxy never replays request bodies upstream.
	r.Get("/*", g.gate(g.proxy).ServeHTTP)

	return r
}

// requireAuth rejects API requests without a valid credential.
func (g *Gateway) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.auth.Authenticated(r) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// gate substitutes the login page for any page request without a valid
// credential. It is a full-page substitution, not a redirect, so a
// bookmarked deep link lands on the login form and then reloads in place.
func (g *Gateway) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.auth.Authenticated(r) {
			setSecurityHeaders(w)
			g.renderLogin(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
