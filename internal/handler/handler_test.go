package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shane-ufo/fruit-merge-backend/internal/config"
)

// newTestHandler builds a handler whose routes are exercised only up to
// the validation and auth layers, so no backing services are needed.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Admin.Password = "sekrit"
	return NewHandler(nil, nil, nil, cfg, slog.Default())
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("body = %q, want healthy status", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/heartbeat", nil)

	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}

func TestHeartbeatRequiresPlayerID(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/heartbeat", strings.NewReader(`{"name":"Melon"}`))

	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHeartbeatRejectsMalformedBody(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/heartbeat", strings.NewReader(`{not json`))

	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGameEndRejectsNegativeScore(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/game/end",
		strings.NewReader(`{"player_id":"7","score":-5}`))

	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterUsernameRequiresPlayerID(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/register-username",
		strings.NewReader(`{"username":"fruitking"}`))

	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAdminRequiresPassword(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name     string
		password string
		want     int
	}{
		{name: "missing password", password: "", want: http.StatusUnauthorized},
		{name: "wrong password", password: "guess", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tt.password != "" {
				req.Header.Set("X-Admin-Password", tt.password)
			}

			h.Router().ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAdminAcceptsPasswordQueryParam(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	// Wrong confirmation body: the request must clear auth (not 401) and
	// then fail validation, proving the query param satisfied the gate.
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reset-all?password=sekrit",
		strings.NewReader(`{}`))

	h.Router().ServeHTTP(rec, req)

	if rec.Code == http.StatusUnauthorized {
		t.Fatal("password query param was not accepted")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestResetAllRequiresConfirmation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "no body", body: ""},
		{name: "empty object", body: `{}`},
		{name: "wrong string", body: `{"confirm":"delete all data"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/admin/reset-all", strings.NewReader(tt.body))
			req.Header.Set("X-Admin-Password", "sekrit")

			h.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAdminLockedWhenPasswordUnset(t *testing.T) {
	cfg := config.DefaultConfig()
	h := NewHandler(nil, nil, nil, cfg, slog.Default())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("X-Admin-Password", "")

	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 when no password configured", rec.Code)
	}
}

func TestWebhookAlwaysAcks(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "garbage body", body: `{{{`},
		{name: "empty update", body: `{}`},
		{name: "unhandled update kind", body: `{"update_id":1,"edited_message":{"message_id":5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(tt.body))

			h.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}
}

func TestBuyStarsRequiresPlayerID(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/buy-stars",
		strings.NewReader(`{"package_id":"stars_100"}`))

	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
