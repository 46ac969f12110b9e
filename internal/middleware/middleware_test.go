package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/draftman/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestAuthMiddleware_ValidToken は正しいトークンでリクエストが通過することをテストする。
func TestAuthMiddleware_ValidToken(t *testing.T) {
	handler := NewAuthMiddleware("secret-token")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/ideas", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// TestAuthMiddleware_RejectsBadToken は不正なトークンが401で拒否されることをテストする。
func TestAuthMiddleware_RejectsBadToken(t *testing.T) {
	handler := NewAuthMiddleware("secret-token")(okHandler())

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong token", "Bearer wrong"},
		{"no bearer prefix", "secret-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ideas", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}

			var body ErrorResponseBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.Code != "UNAUTHORIZED" {
				t.Errorf("expected UNAUTHORIZED code, got %s", body.Code)
			}
		})
	}
}

// TestCORSMiddleware_Preflight はOPTIONSプリフライトに204で応答することをテストする。
func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := NewCORSMiddleware("https://app.example.com")(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/ideas", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("unexpected allow-origin: %s", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Errorf("unexpected allow-headers: %s", got)
	}
}

// TestRateLimiter_GenerateBurstExhausted は生成リミッターのバースト超過で429が返ることをテストする。
func TestRateLimiter_GenerateBurstExhausted(t *testing.T) {
	config := RateLimiterConfig{
		GeneralRate:     rate.Limit(2),
		GeneralBurst:    120,
		GenerateRate:    rate.Limit(10.0 / 60.0),
		GenerateBurst:   2,
		CleanupInterval: time.Minute,
	}
	rl := NewRateLimiter(config)
	defer rl.Stop()

	handler := rl.GenerateMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/ideas/x/drafts", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ideas/x/drafts", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst exhaustion, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}
}

// TestRateLimiter_ClientsAreIndependent は別クライアントが制限の影響を受けないことをテストする。
func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	config := DefaultRateLimiterConfig()
	config.GenerateBurst = 1
	rl := NewRateLimiter(config)
	defer rl.Stop()

	handler := rl.GenerateMiddleware()(okHandler())

	first := httptest.NewRequest(http.MethodPost, "/api/ideas/x/drafts", nil)
	first.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for first client, got %d", rec.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/api/ideas/x/drafts", nil)
	other.RemoteAddr = "192.0.2.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for a different client, got %d", rec.Code)
	}

	if rl.GenerateLimiterCount() != 2 {
		t.Errorf("expected 2 tracked clients, got %d", rl.GenerateLimiterCount())
	}
}

// TestStatusForAPIError はエラーコードとHTTPステータスの対応をテストする。
func TestStatusForAPIError(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewDraftNotFoundError("x"), http.StatusNotFound},
		{model.NewNoDestinationsError(), http.StatusBadRequest},
		{model.NewDraftNotApprovedError(model.DraftStatusDraft), http.StatusConflict},
		{model.NewGlobalRateLimitError(), http.StatusTooManyRequests},
		{model.NewDestinationRateLimitError("test"), http.StatusTooManyRequests},
		{model.NewProvidersExhaustedError(), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := StatusForAPIError(tt.err); got != tt.want {
			t.Errorf("StatusForAPIError(%s) = %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}

// TestRecoveryMiddleware はpanicが500レスポンスに変換されることをテストする。
func TestRecoveryMiddleware(t *testing.T) {
	handler := NewRecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/ideas", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", rec.Code)
	}
}
