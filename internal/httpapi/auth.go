package httpapi

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"twofold-chess/internal/viewerauth"
)

// AuthHandler backs the viewer-only Google OAuth login flow. The
// resulting JWT scopes the bearer to GET /api/games and GET
// /api/auth/me and nothing else in this build — there is no local
// account system to log into.
type AuthHandler struct {
	oauth       *viewerauth.GoogleOAuthService
	jwtService  *viewerauth.JWTService
	states      *viewerauth.StateStore
	frontendURL string
	logger      *zap.Logger
}

func NewAuthHandler(oauth *viewerauth.GoogleOAuthService, jwtService *viewerauth.JWTService, states *viewerauth.StateStore, frontendURL string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{oauth: oauth, jwtService: jwtService, states: states, frontendURL: frontendURL, logger: logger}
}

// Login redirects the browser to Google's consent screen.
// GET /api/auth/google/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.states.Create(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to start login")
		return
	}
	http.Redirect(w, r, h.oauth.GetAuthURL(state), http.StatusTemporaryRedirect)
}

// Callback exchanges Google's authorization code for a short-lived
// viewer token and hands it to the frontend via a redirect.
// GET /api/auth/google/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	if err := h.states.Consume(r.Context(), state); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid or expired oauth state")
		return
	}

	token, err := h.oauth.ExchangeCode(r.Context(), code)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "failed to exchange oauth code")
		return
	}

	info, err := h.oauth.GetUserInfo(r.Context(), token)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "failed to fetch google profile")
		return
	}

	viewerToken, err := h.jwtService.GenerateViewerToken(info.ID, info.Email, info.Name)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to issue viewer token")
		return
	}

	redirectURL := fmt.Sprintf("%s/history/callback?viewer_token=%s", h.frontendURL, viewerToken)
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

// Me returns the caller's viewer identity, for the frontend to
// display who is currently looking at game history.
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := viewerauth.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"email":       claims.Email,
		"displayName": claims.DisplayName,
	})
}
