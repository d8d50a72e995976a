package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/tichu/internal/api/apierr"
	"github.com/mcoot/tichu/internal/api/response"
	"github.com/mcoot/tichu/internal/model"
	"github.com/mcoot/tichu/internal/storage"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// GamesHandler serves completed game summaries
type GamesHandler struct {
	storage storage.Storage
}

// NewGamesHandler creates a new GamesHandler
func NewGamesHandler(storage storage.Storage) *GamesHandler {
	return &GamesHandler{storage: storage}
}

// Recent handles GET /api/v1/games/recent
func (h *GamesHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentLimit {
			apierr.WriteError(w, apierr.NewInvalidRequestError("limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	summaries, err := h.storage.ListRecentSummaries(r.Context(), limit)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	resp := response.RecentGames{Games: make([]response.GameSummary, len(summaries))}
	for i, s := range summaries {
		resp.Games[i] = response.GameSummaryFromModel(s)
	}
	response.OK(w, resp)
}

// Get handles GET /api/v1/games/{id}
func (h *GamesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	summary, err := h.storage.GetSummary(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.OK(w, response.GameSummaryFromModel(summary))
}
