package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// resetAllConfirmation must appear verbatim in the reset-all body.
const resetAllConfirmation = "DELETE ALL DATA"

// adminOnly gates the admin routes behind the shared password, read
// from the X-Admin-Password header or the password query parameter.
// An empty configured password locks the surface entirely.
func (h *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		password := r.Header.Get("X-Admin-Password")
		if password == "" {
			password = r.URL.Query().Get("password")
		}

		configured := h.config.Admin.Password
		if configured == "" ||
			subtle.ConstantTimeCompare([]byte(password), []byte(configured)) != 1 {
			h.writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AdminDashboard returns the aggregated admin overview.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.AdminDashboard(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, dashboard)
}

// AdminUsers lists player records.
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	players, err := h.service.ListPlayers(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list players", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, players)
}

// AdminPayments lists recent settled payments.
func (h *Handler) AdminPayments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	payments, err := h.service.ListPayments(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list payments", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, payments)
}

// AdminSave forces an immediate durable flush.
func (h *Handler) AdminSave(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ForceSave(r.Context()); err != nil {
		h.logger.Error("forced save failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "saved"})
}

// AdminResetWeek clears the current weekly board.
func (h *Handler) AdminResetWeek(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetWeek(r.Context()); err != nil {
		h.logger.Error("weekly reset failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "week_reset"})
}

type resetAllRequest struct {
	Confirm string `json:"confirm"`
}

// AdminResetAll wipes everything. The body must carry the exact
// confirmation string.
func (h *Handler) AdminResetAll(w http.ResponseWriter, r *http.Request) {
	var req resetAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Confirm != resetAllConfirmation {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.ResetAll(r.Context()); err != nil {
		h.logger.Error("full reset failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "reset"})
}
