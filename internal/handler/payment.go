package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// GetStarPackages returns the purchasable catalog.
func (h *Handler) GetStarPackages(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"packages": h.service.StarPackages(),
		"items":    h.service.CosmeticItems(),
	})
}

type buyStarsRequest struct {
	PlayerID  string `json:"player_id"`
	PackageID string `json:"package_id"`
}

// BuyStars sends a Stars invoice for a star package.
func (h *Handler) BuyStars(w http.ResponseWriter, r *http.Request) {
	var req buyStarsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	h.sendInvoice(w, r, req.PlayerID, domain.PayloadKindStars, req.PackageID)
}

type createInvoiceRequest struct {
	PlayerID string `json:"player_id"`
	Kind     string `json:"kind"`
	RefID    string `json:"ref_id"`
}

// CreateInvoice sends a Stars invoice for a package or a cosmetic item.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	h.sendInvoice(w, r, req.PlayerID, req.Kind, req.RefID)
}

func (h *Handler) sendInvoice(w http.ResponseWriter, r *http.Request, playerID, kind, refID string) {
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrMissingPlayerID)
		return
	}

	if err := h.service.CreateInvoice(r.Context(), playerID, kind, refID); err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownPackage),
			errors.Is(err, domain.ErrInvalidPayload),
			errors.Is(err, domain.ErrInvalidRequest):
			h.writeError(w, http.StatusBadRequest, err)
		default:
			h.logger.Error("failed to send invoice", "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		}
		return
	}

	h.writeSuccess(w, map[string]string{"status": "invoice_sent"})
}

// TelegramWebhook receives bot updates. It always answers 200: failures
// are logged by the dispatcher, and a non-200 would make Telegram
// redeliver against a backend that already has the problem.
func (h *Handler) TelegramWebhook(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("undecodable webhook update", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.dispatcher != nil {
		h.dispatcher.HandleUpdate(r.Context(), update)
	}
	w.WriteHeader(http.StatusOK)
}

type reportCheatRequest struct {
	PlayerID  string `json:"player_id"`
	SuspectID string `json:"suspect_id"`
	Reason    string `json:"reason,omitempty"`
}

// ReportCheat forwards a cheating report to the admin chat.
func (h *Handler) ReportCheat(w http.ResponseWriter, r *http.Request) {
	var req reportCheatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.ReportCheat(r.Context(), req.PlayerID, req.SuspectID, req.Reason); err != nil {
		if errors.Is(err, domain.ErrMissingPlayerID) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("failed to forward cheat report", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, map[string]string{"status": "reported"})
}
