package auth

import (
	"net/http"
	"strings"

	"github.com/shiftgate/shiftgate/internal/platform/httpx"
	"github.com/shiftgate/shiftgate/internal/shared"
)

// Middleware resolves bearer tokens into request identities.
type Middleware struct {
	Tokens *TokenManager
}

// Require rejects unauthenticated requests and stores the identity in
// context for handlers downstream.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		id, err := m.Tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

// RequireManager additionally rejects callers without the manager role.
func (m Middleware) RequireManager(next http.Handler) http.Handler {
	return m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.IdentityFromContext(r.Context())
		if !ok || !id.IsManager() {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
