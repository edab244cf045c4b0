package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// CheckUsername reports whether ?name= is free for ?player_id=.
func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	playerID := r.URL.Query().Get("player_id")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	normalized, available, err := h.service.CheckUsername(r.Context(), playerID, name)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUsername) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("failed to check username", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, map[string]interface{}{
		"username":  normalized,
		"available": available,
	})
}

type registerUsernameRequest struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// RegisterUsername claims a unique name for a player.
func (h *Handler) RegisterUsername(w http.ResponseWriter, r *http.Request) {
	var req registerUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.PlayerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingPlayerID)
		return
	}

	normalized, err := h.service.RegisterUsername(r.Context(), req.PlayerID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			h.writeError(w, http.StatusConflict, err)
		case errors.Is(err, domain.ErrInvalidUsername):
			h.writeError(w, http.StatusBadRequest, err)
		default:
			h.logger.Error("failed to register username", "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		}
		return
	}

	h.writeSuccess(w, map[string]string{"username": normalized})
}

// GetFriends returns a player's friend ids.
func (h *Handler) GetFriends(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingPlayerID)
		return
	}

	friends, err := h.service.Friends(r.Context(), playerID)
	if err != nil {
		h.logger.Error("failed to list friends", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, friends)
}

type addFriendRequest struct {
	PlayerID string `json:"player_id"`
	FriendID string `json:"friend_id"`
}

// AddFriend creates a symmetric friend link.
func (h *Handler) AddFriend(w http.ResponseWriter, r *http.Request) {
	var req addFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.AddFriend(r.Context(), req.PlayerID, req.FriendID); err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingPlayerID), errors.Is(err, domain.ErrSelfFriend):
			h.writeError(w, http.StatusBadRequest, err)
		default:
			h.logger.Error("failed to add friend", "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		}
		return
	}

	h.writeSuccess(w, map[string]string{"status": "added"})
}

type referralRequest struct {
	PlayerID   string `json:"player_id"`
	ReferrerID string `json:"referrer_id"`
	Name       string `json:"name,omitempty"`
}

// Referral links a new player to the referrer. Self and empty referrals
// are accepted and ignored, matching the bot's /start behavior.
func (h *Handler) Referral(w http.ResponseWriter, r *http.Request) {
	var req referralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.PlayerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingPlayerID)
		return
	}

	if err := h.service.Referral(r.Context(), req.PlayerID, req.ReferrerID, req.Name); err != nil {
		h.logger.Error("failed to record referral", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, map[string]string{"status": "recorded"})
}
