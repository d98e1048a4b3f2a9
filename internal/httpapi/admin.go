package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"twofold-chess/internal/session"
)

// AdminHandler exposes the development-only reset and debug-scenario
// endpoints. Both are gated twice: the route is 404'd outright in
// production regardless of the key supplied, and the key itself is
// checked against a bcrypt hash rather than compared in plaintext.
type AdminHandler struct {
	manager      *session.Manager
	adminKeyHash string
	isProduction func() bool
}

func NewAdminHandler(manager *session.Manager, adminKeyHash string, isProduction func() bool) *AdminHandler {
	return &AdminHandler{manager: manager, adminKeyHash: adminKeyHash, isProduction: isProduction}
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.isProduction() {
		return false
	}
	key := r.Header.Get("X-Admin-Key")
	if key == "" || h.adminKeyHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.adminKeyHash), []byte(key)) == nil
}

// ResetRoom forces an immediate reset of a room's game.
// POST /api/reset?room=roomId
func (h *AdminHandler) ResetRoom(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.NotFound(w, r)
		return
	}
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		respondWithError(w, http.StatusBadRequest, "missing room query parameter")
		return
	}
	if err := h.manager.ResetLocal(roomID); err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// InstallScenario overwrites a room's game with a named preset state.
// POST /api/debug/setup/{scenario}?room=roomId
func (h *AdminHandler) InstallScenario(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.NotFound(w, r)
		return
	}
	scenario := mux.Vars(r)["scenario"]
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		respondWithError(w, http.StatusBadRequest, "missing room query parameter")
		return
	}
	if err := h.manager.InstallDebugScenario(roomID, scenario); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "installed", "scenario": scenario})
}
