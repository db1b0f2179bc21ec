package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- RecoveryMiddleware のテスト ---

func TestRecoveryMiddleware_RecoversFromPanic(t *testing.T) {
	mw := NewRecoveryMiddleware(testLogger())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}

func TestRecoveryMiddleware_PassesThroughNormalRequests(t *testing.T) {
	mw := NewRecoveryMiddleware(testLogger())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// --- LoggingMiddleware のテスト ---

func TestLoggingMiddleware_PreservesStatusCode(t *testing.T) {
	mw := NewLoggingMiddleware(testLogger())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestLoggingMiddleware_DefaultsTo200OnWrite(t *testing.T) {
	mw := NewLoggingMiddleware(testLogger())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(w.Result().Body)
	if string(body) != "ok" {
		t.Errorf("body = %q, want %q", string(body), "ok")
	}
}

// --- CORSMiddleware のテスト ---

func TestCORSMiddleware_SetsHeaders(t *testing.T) {
	mw := NewCORSMiddleware("*")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ws", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	headers := w.Result().Header
	if got := headers.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want %q", got, "*")
	}
	if got := headers.Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization, SOAPAction" {
		t.Errorf("Allow-Headers = %q", got)
	}
	// ワイルドカードオリジンではcredentialsを許可しない
	if got := headers.Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Allow-Credentials = %q, want empty", got)
	}
}

func TestCORSMiddleware_PreflightReturns204(t *testing.T) {
	mw := NewCORSMiddleware("http://localhost:3000")
	handlerCalled := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/ws", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if handlerCalled {
		t.Error("preflight request should not reach the handler")
	}
	if got := w.Result().Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want %q", got, "true")
	}
}

// --- RateLimiter のテスト ---

func TestRateLimiter_AllowsRequestsWithinBurst(t *testing.T) {
	cfg := RateLimiterConfig{
		Rate:            2,
		Burst:           5,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg, testLogger())
	defer rl.Stop()

	mw := rl.Middleware()
	handlerCallCount := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/ws", nil)
		req.RemoteAddr = "192.0.2.1:54321"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimiter_Returns429WhenBurstExceeded(t *testing.T) {
	cfg := RateLimiterConfig{
		Rate:            1,
		Burst:           2,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg, testLogger())
	defer rl.Stop()

	mw := rl.Middleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/ws", nil)
		req.RemoteAddr = "192.0.2.2:54321"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Result()
	}

	// バースト分（2回）は通る
	for i := 0; i < 2; i++ {
		if resp := send(); resp.StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, resp.StatusCode, http.StatusOK)
		}
	}

	// 3回目は429
	resp := send()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After header not set")
	}
}

func TestRateLimiter_IndependentPerClientIP(t *testing.T) {
	cfg := RateLimiterConfig{
		Rate:            1,
		Burst:           1,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg, testLogger())
	defer rl.Stop()

	mw := rl.Middleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/ws", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Result().StatusCode
	}

	if got := send("192.0.2.10:1000"); got != http.StatusOK {
		t.Errorf("client A first request: status = %d, want %d", got, http.StatusOK)
	}
	if got := send("192.0.2.10:2000"); got != http.StatusTooManyRequests {
		t.Errorf("client A second request: status = %d, want %d", got, http.StatusTooManyRequests)
	}
	// 別クライアントは独立して通る
	if got := send("192.0.2.11:1000"); got != http.StatusOK {
		t.Errorf("client B first request: status = %d, want %d", got, http.StatusOK)
	}

	if rl.LimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.LimiterCount())
	}
}
