package viewerauth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const claimsKey ctxKey = iota

// RequireViewerAuth gates the history viewer routes (GET /api/games
// and GET /api/auth/me) on a valid, non-expired viewer JWT presented
// as a Bearer token. Those routes are the only things this token is
// scoped to; it never authorizes a gameplay action.
func (s *JWTService) RequireViewerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, `{"error":"missing viewer token"}`, http.StatusUnauthorized)
			return
		}
		claims, err := s.ValidateViewerToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			http.Error(w, `{"error":"invalid or expired viewer token"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext retrieves the viewer claims a handler downstream
// of RequireViewerAuth can rely on being present.
func ClaimsFromContext(ctx context.Context) (*ViewerClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*ViewerClaims)
	return claims, ok
}
