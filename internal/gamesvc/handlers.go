package gamesvc

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/achgithub/turnlink-backend/internal/auth"
	"github.com/achgithub/turnlink-backend/internal/httpresp"
	"github.com/achgithub/turnlink-backend/internal/store"
)

// Handlers wires the Game Service's REST surface (spec §6) onto a
// gorilla/mux router.
type Handlers struct {
	svc *Service
}

// NewHandlers builds Handlers over svc.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// Register attaches every authenticated route this service owns to r. r
// must already have auth.Middleware applied (or the caller applies it per
// sub-router, matching the teacher's per-route AuthMiddleware(...) wrapping
// style).
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/test", h.handleTest).Methods(http.MethodGet)

	r.HandleFunc("/games", h.handleCreateGame).Methods(http.MethodPost)
	r.HandleFunc("/games", h.handleListGames).Methods(http.MethodGet)
	r.HandleFunc("/games/my", h.handleListMyGames("any")).Methods(http.MethodGet)
	r.HandleFunc("/games/my/player1", h.handleListMyGames("1")).Methods(http.MethodGet)
	r.HandleFunc("/games/my/player2", h.handleListMyGames("2")).Methods(http.MethodGet)
	r.HandleFunc("/games/players/{playerId}", h.handleListPlayerGames("any")).Methods(http.MethodGet)
	r.HandleFunc("/games/player1/{playerId}", h.handleListPlayerGames("1")).Methods(http.MethodGet)
	r.HandleFunc("/games/player2/{playerId}", h.handleListPlayerGames("2")).Methods(http.MethodGet)
	r.HandleFunc("/games/{gameId}", h.handleGetGame).Methods(http.MethodGet)
	r.HandleFunc("/games/{gameId}", h.handleDeleteGame).Methods(http.MethodDelete)
	r.HandleFunc("/games/{gameId}/join", h.handleJoinGame).Methods(http.MethodPost)
	r.HandleFunc("/games/{gameId}/finish", h.handleFinishGame).Methods(http.MethodPost)

	r.HandleFunc("/scenarios", h.handleCreateScenario).Methods(http.MethodPost)
	r.HandleFunc("/scenarios", h.handleListScenarios).Methods(http.MethodGet)
	r.HandleFunc("/scenarios/{scenarioId}", h.handleGetScenario).Methods(http.MethodGet)
	r.HandleFunc("/scenarios/{scenarioId}", h.handleUpdateScenario).Methods(http.MethodPut)
	r.HandleFunc("/scenarios/{scenarioId}", h.handleDeleteScenario).Methods(http.MethodDelete)

	r.HandleFunc("/players/{playerId}/stats", h.handleGetPlayerStats).Methods(http.MethodGet)
}

func (h *Handlers) handleTest(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		httpresp.ErrorJSON(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	httpresp.SuccessJSON(w, map[string]interface{}{"user": identity}, http.StatusOK)
}

func (h *Handlers) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		httpresp.ErrorJSON(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		PlayerName string `json:"playerName"`
		ScenarioID string `json:"scenarioId"`
	}
	if err := httpresp.ParseJSON(r, &req); err != nil {
		httpresp.ErrorJSON(w, "invalid request body", http.StatusBadRequest)
		return
	}

	game, err := h.svc.CreateGame(identity.UserID, req.PlayerName, req.ScenarioID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	httpresp.SuccessJSON(w, map[string]interface{}{"gameId": game.ID, "game": game}, http.StatusOK)
}

func (h *Handlers) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameId"]
	game, err := h.svc.GetGame(gameID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httpresp.SuccessJSON(w, map[string]interface{}{"game": game}, http.StatusOK)
}

func (h *Handlers) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		httpresp.ErrorJSON(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	gameID := mux.Vars(r)["gameId"]

	var req struct {
		PlayerName string `json:"playerName"`
	}
	_ = httpresp.ParseJSON(r, &req)

	game, err := h.svc.JoinGame(identity.UserID, req.PlayerName, gameID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	httpresp.SuccessJSON(w, map[string]interface{}{"game": game, "message": "Game is now active!"}, http.StatusOK)
}

// handleFinishGame records a rules layer's win decision (SPEC_FULL §4
// Player statistics: this core preserves the status→finished transition
// and tallies stats, but never determines the winner itself).
func (h *Handlers) handleFinishGame(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		httpresp.ErrorJSON(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	gameID := mux.Vars(r)["gameId"]
	var req struct {
		WinnerID string `json:"winnerId"`
	}
	if err := httpresp.ParseJSON(r, &req); err != nil {
		httpresp.ErrorJSON(w, "invalid request body", http.StatusBadRequest)
		return
	}

	game, err := h.svc.FinishGame(gameID, req.WinnerID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httpresp.SuccessJSON(w, map[string]interface{}{"game": game}, http.StatusOK)
}

func (h *Handlers) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		httpresp.ErrorJSON(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	gameID := mux.Vars(r)["gameId"]
	if err := h.svc.DeleteGame(identity.UserID, gameID); err != nil {
		writeStoreError(w, err)
		return
	}
	httpresp.SuccessJSON(w, map[string]interface{}{"success": true}, http.StatusOK)
}

func (h *Handlers) handleListGames(w http.ResponseWriter, r *http.Request) {
	limit, token := paginationParams(r)
	h.respondGamesPage(w, ListGamesInput{Limit: limit, NextToken: token})
}

func (h *Handlers) handleListMyGames(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.FromContext(r.Context())
		if !ok {
			httpresp.ErrorJSON(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		limit, token := paginationParams(r)
		h.respondGamesPage(w, ListGamesInput{PlayerID: identity.UserID, Role: role, Limit: limit, NextToken: token})
	}
}

func (h *Handlers) handleListPlayerGames(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := mux.Vars(r)["playerId"]
		limit, token := paginationParams(r)
		h.respondGamesPage(w, ListGamesInput{PlayerID: playerID, Role: role, Limit: limit, NextToken: token})
	}
}

func (h *Handlers) respondGamesPage(w http.ResponseWriter, in ListGamesInput) {
	page, err := h.svc.ListGames(in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httpresp.SuccessJSON(w, map[string]interface{}{
		"games":     page.Items,
		"count":     len(page.Items),
		"hasMore":   page.NextToken != "",
		"nextToken": page.NextToken,
	}, http.StatusOK)
}

func (h *Handlers) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		httpresp.ErrorJSON(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Columns     int             `json:"columns"`
		Rows        int             `json:"rows"`
		TurnCount   int             `json:"turnCount"`
		Hexes       json.RawMessage `json:"hexes"`
	}
	if err := httpresp.ParseJSON(r, &req); err != nil {
		httpresp.ErrorJSON(w, "invalid request body", http.StatusBadRequest)
		return
	}

	scenario, err := h.svc.CreateScenario(identity.UserID, req.Title, req.Description, req.Columns, req.Rows, req.TurnCount, req.Hexes)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httpresp.SuccessJSON(w, map[string]interface{}{"scenario": scenario}, http.StatusOK)
}

func (h *Handlers) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	scenario, err := h.svc.GetScenario(mux.Vars(r)["scenarioId"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httpresp.SuccessJSON(w, map[string]interface{}{"scenario": scenario}, http.StatusOK)
}

func (h *Handlers) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		httpresp.ErrorJSON(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	scenarioID := mux.Vars(r)["scenarioId"]
	var req struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Columns     int             `json:"columns"`
		Rows        int             `json:"rows"`
		TurnCount   int             `json:"turnCount"`
		Hexes       json.RawMessage `json:"hexes"`
	}
	if err := httpresp.ParseJSON(r, &req); err != nil {
		httpresp.ErrorJSON(w, "invalid request body", http.StatusBadRequest)
		return
	}

	scenario, err := h.svc.UpdateScenario(identity.UserID, scenarioID, req.Title, req.Description, req.Columns, req.Rows, req.TurnCount, req.Hexes)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httpresp.SuccessJSON(w, map[string]interface{}{"scenario": scenario}, http.StatusOK)
}

func (h *Handlers) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		httpresp.ErrorJSON(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.svc.DeleteScenario(identity.UserID, mux.Vars(r)["scenarioId"]); err != nil {
		writeStoreError(w, err)
		return
	}
	httpresp.SuccessJSON(w, map[string]interface{}{"success": true}, http.StatusOK)
}

func (h *Handlers) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	limit, token := paginationParams(r)
	page, err := h.svc.ListScenarios(limit, token)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httpresp.SuccessJSON(w, map[string]interface{}{
		"scenarios": page.Items,
		"count":     len(page.Items),
		"hasMore":   page.NextToken != "",
		"nextToken": page.NextToken,
	}, http.StatusOK)
}

func (h *Handlers) handleGetPlayerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.PlayerStats(mux.Vars(r)["playerId"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httpresp.SuccessJSON(w, stats, http.StatusOK)
}

func paginationParams(r *http.Request) (int, string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	return limit, r.URL.Query().Get("nextToken")
}

func writeStoreError(w http.ResponseWriter, err error) {
	se, ok := err.(*store.Error)
	if !ok {
		httpresp.ErrorJSONWithDetails(w, "internal error", err.Error(), http.StatusInternalServerError)
		return
	}

	switch se.Kind {
	case store.ErrNotFound:
		httpresp.ErrorJSON(w, se.Message, http.StatusNotFound)
	case store.ErrConflict:
		httpresp.ErrorJSON(w, se.Message, http.StatusConflict)
	case store.ErrForbidden:
		httpresp.ErrorJSON(w, se.Message, http.StatusForbidden)
	case store.ErrBadRequest:
		httpresp.ErrorJSON(w, se.Message, http.StatusBadRequest)
	default:
		httpresp.ErrorJSON(w, se.Message, http.StatusInternalServerError)
	}
}
