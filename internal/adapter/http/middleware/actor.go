package middleware

import (
	"context"
	"net/http"
)

// ContextKey is the type for context keys.
type ContextKey string

const (
	// ActorContextKey is the context key for the acting account.
	ActorContextKey ContextKey = "actor"

	// ActorIDHeader carries the acting account's ID. It is set by the
	// fronting session layer, never by clients directly.
	ActorIDHeader = "X-Actor-ID"

	// ActorRoleHeader carries the acting account's role.
	ActorRoleHeader = "X-Actor-Role"

	// RoleAdmin marks an administrative actor.
	RoleAdmin = "admin"
)

// Actor identifies who is performing a request.
type Actor struct {
	AccountID string
	Role      string
}

// IsAdmin reports whether the actor has the admin role.
func (a *Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActorMiddleware extracts the actor from trusted headers, if present.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ActorIDHeader)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		actor := &Actor{
			AccountID: id,
			Role:      r.Header.Get(ActorRoleHeader),
		}

		ctx := context.WithValue(r.Context(), ActorContextKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireActor rejects requests without an actor.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetActorFromContext(r.Context()); !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from non-admin actors.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActorFromContext(r.Context())
		if !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		if !actor.IsAdmin() {
			http.Error(w, "insufficient permissions", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetActorFromContext extracts the actor from context.
func GetActorFromContext(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(ActorContextKey).(*Actor)
	return actor, ok
}
