package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller, or nil for guests.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// Authenticator resolves the caller from a bearer token or, failing that,
// the session cookie.
type Authenticator struct {
	Tokens   *TokenIssuer
	Sessions *Sessions
}

func (a *Authenticator) identify(r *http.Request) (*Identity, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		tokenString := strings.TrimPrefix(header, "Bearer ")
		id, err := a.Tokens.Parse(tokenString)
		if err != nil {
			return nil, false
		}
		return id, true
	}
	if a.Sessions != nil {
		return a.Sessions.Identity(r)
	}
	return nil, false
}

// Identify attaches the caller to the request context when one is present.
// Guests pass through.
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := a.identify(r); ok {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			deny(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireCapability(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil {
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !id.Can(c) {
				deny(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "code": code})
}
