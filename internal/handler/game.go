package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

type heartbeatRequest struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	Score    int64  `json:"score,omitempty"`
}

// Heartbeat refreshes presence and returns the online count.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.PlayerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingPlayerID)
		return
	}

	online, err := h.service.Heartbeat(r.Context(), req.PlayerID,
		domain.Profile{Name: req.Name, Avatar: req.Avatar}, req.Score)
	if err != nil {
		h.logger.Error("failed to record heartbeat", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, map[string]int64{"online": online})
}

// GameStart records the start of a round.
func (h *Handler) GameStart(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.PlayerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingPlayerID)
		return
	}

	err := h.service.GameStarted(r.Context(), req.PlayerID,
		domain.Profile{Name: req.Name, Avatar: req.Avatar})
	if err != nil {
		h.logger.Error("failed to record game start", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, map[string]string{"status": "recorded"})
}

// GameEnd records the end of a round and submits the final score.
func (h *Handler) GameEnd(w http.ResponseWriter, r *http.Request) {
	var sub domain.ScoreSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if sub.PlayerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingPlayerID)
		return
	}
	if sub.Score < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	improved, err := h.service.GameEnded(r.Context(), sub)
	if err != nil {
		h.logger.Error("failed to record game end", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, map[string]interface{}{
		"status":   "recorded",
		"improved": improved,
	})
}

// SubmitScore handles a direct score submission.
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var sub domain.ScoreSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if sub.PlayerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingPlayerID)
		return
	}
	if sub.Score < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	improved, err := h.service.SubmitScore(r.Context(), sub)
	if err != nil {
		h.logger.Error("failed to submit score", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, map[string]interface{}{
		"status":   "accepted",
		"improved": improved,
	})
}

// GetGlobal returns the global top-N.
func (h *Handler) GetGlobal(w http.ResponseWriter, r *http.Request) {
	h.writeBoardTop(w, r, domain.BoardGlobal)
}

// GetAllTime returns the all-time top-N.
func (h *Handler) GetAllTime(w http.ResponseWriter, r *http.Request) {
	h.writeBoardTop(w, r, domain.BoardAllTime)
}

// GetWeek returns the top-N of a weekly bucket. "current" resolves to
// the week in effect.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	week := chi.URLParam(r, "week")
	if week == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	board := domain.WeeklyBoard(week)
	if week == "current" {
		board = h.service.CurrentWeeklyBoard(r.Context())
	}

	entries, err := h.service.Top(r.Context(), board, h.limitParam(r))
	if err != nil {
		h.logger.Error("failed to get weekly board", "week", week, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, map[string]interface{}{
		"week":    board.WeekKey(),
		"status":  h.service.WeekStatus(),
		"entries": entries,
	})
}

func (h *Handler) writeBoardTop(w http.ResponseWriter, r *http.Request, board domain.Board) {
	entries, err := h.service.Top(r.Context(), board, h.limitParam(r))
	if err != nil {
		h.logger.Error("failed to get top", "board", string(board), "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, entries)
}

// GetRank returns a player's rank on a board (default global).
func (h *Handler) GetRank(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingPlayerID)
		return
	}

	board := domain.Board(r.URL.Query().Get("board"))
	switch board {
	case "", domain.BoardGlobal:
		board = domain.BoardGlobal
	case domain.BoardAllTime:
	case "weekly":
		board = h.service.CurrentWeeklyBoard(r.Context())
	default:
		if !board.IsWeekly() {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
			return
		}
	}

	info, err := h.service.Rank(r.Context(), board, playerID)
	if err != nil {
		h.logger.Error("failed to get rank", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, info)
}

// GetHistory returns the retained top rows of recent weeks.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), h.limitParam(r))
	if err != nil {
		h.logger.Error("failed to get history", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, history)
}

// GetFriendsBoard returns the board restricted to the player's friends.
func (h *Handler) GetFriendsBoard(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingPlayerID)
		return
	}

	board := domain.BoardGlobal
	if r.URL.Query().Get("board") == "weekly" {
		board = h.service.CurrentWeeklyBoard(r.Context())
	}

	entries, err := h.service.FriendsBoard(r.Context(), board, playerID)
	if err != nil {
		h.logger.Error("failed to get friends board", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, entries)
}

// limitParam reads the optional ?limit= query parameter.
func (h *Handler) limitParam(r *http.Request) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return 0
}
