package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
	"github.com/shane-ufo/fruit-merge-backend/internal/service"
	"github.com/shane-ufo/fruit-merge-backend/internal/telegram"
	"github.com/shane-ufo/fruit-merge-backend/internal/websocket"
)

// Handler provides HTTP handlers for the game API
type Handler struct {
	service    *service.GameService
	hub        *websocket.Hub
	dispatcher *telegram.Dispatcher
	config     *config.Config
	logger     *slog.Logger
}

// NewHandler creates a new HTTP handler. dispatcher may be nil when the
// Telegram bot is disabled.
func NewHandler(
	svc *service.GameService,
	hub *websocket.Hub,
	dispatcher *telegram.Dispatcher,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service:    svc,
		hub:        hub,
		dispatcher: dispatcher,
		config:     cfg,
		logger:     logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Liveness + probes
	r.Get("/", h.Root)
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api", func(r chi.Router) {
		// Presence and game events
		r.Post("/heartbeat", h.Heartbeat)
		r.Post("/game/start", h.GameStart)
		r.Post("/game/end", h.GameEnd)

		// Leaderboards
		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", h.GetGlobal)
			r.Post("/submit", h.SubmitScore)
			r.Get("/rank/{playerID}", h.GetRank)
			r.Get("/alltime", h.GetAllTime)
			r.Get("/week/{week}", h.GetWeek)
			r.Get("/history", h.GetHistory)
			r.Get("/friends/{playerID}", h.GetFriendsBoard)
		})

		// Username registry
		r.Get("/check-username", h.CheckUsername)
		r.Post("/register-username", h.RegisterUsername)

		// Friends graph
		r.Get("/friends/{playerID}", h.GetFriends)
		r.Post("/friends/add", h.AddFriend)
		r.Post("/referral", h.Referral)

		// Payments
		r.Get("/star-packages", h.GetStarPackages)
		r.Post("/buy-stars", h.BuyStars)
		r.Post("/create-invoice", h.CreateInvoice)
		r.Post("/webhook", h.TelegramWebhook)
		r.Post("/report-cheat", h.ReportCheat)

		// Admin surface
		r.Route("/admin", func(r chi.Router) {
			r.Use(h.adminOnly)
			r.Get("/dashboard", h.AdminDashboard)
			r.Get("/users", h.AdminUsers)
			r.Get("/payments", h.AdminPayments)
			r.Post("/save", h.AdminSave)
			r.Post("/reset-week", h.AdminResetWeek)
			r.Post("/reset-all", h.AdminResetAll)
		})
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID, X-Admin-Password")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// Root returns the liveness view with the aggregate counters.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to read stats", "error", err)
		h.writeSuccess(w, map[string]string{"status": "ok"})
		return
	}
	h.writeSuccess(w, map[string]interface{}{
		"status": "ok",
		"stats":  stats,
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}
