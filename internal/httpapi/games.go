package httpapi

import (
	"net/http"
	"strconv"

	"twofold-chess/internal/history"
)

// GameHistoryHandler exposes the History sink over HTTP. Writing a
// manual result is unauthenticated (it backs the legacy finish_game
// path, scoped to a single room's own declared outcome); reading the
// list back requires a viewer token.
type GameHistoryHandler struct {
	sink *history.Sink
}

func NewGameHistoryHandler(sink *history.Sink) *GameHistoryHandler {
	return &GameHistoryHandler{sink: sink}
}

type recordGameRequest struct {
	RoomID    string `json:"roomId"`
	Winner    string `json:"winner"`
	MoveCount int    `json:"moveCount"`
}

// RecordManual persists a client-declared game result.
// POST /api/games
func (h *GameHistoryHandler) RecordManual(w http.ResponseWriter, r *http.Request) {
	var req recordGameRequest
	if err := decodeJSON(r, &req); err != nil || req.RoomID == "" {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.sink.RecordManual(r.Context(), req.RoomID, req.Winner, req.MoveCount); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to record game")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// List returns the most recently finished games. Gated by
// viewerauth.RequireViewerAuth at the route level.
// GET /api/games?limit=50
func (h *GameHistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	games, err := h.sink.ListGames(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load game history")
		return
	}
	respondWithJSON(w, http.StatusOK, games)
}
