package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(operatorMax, clientMax int) (*RateLimiter, *time.Time) {
	rl := NewRateLimiter(operatorMax, clientMax, time.Minute)
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowOperator(t *testing.T) {
	rl, now := newTestLimiter(3, 0)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.AllowOperator(42) {
			t.Fatalf("update %d should be allowed", i+1)
		}
	}
	if rl.AllowOperator(42) {
		t.Error("fourth update should be rejected")
	}
	if !rl.AllowOperator(7) {
		t.Error("other operators have their own window")
	}
	if got := rl.OperatorRemaining(42); got != 0 {
		t.Errorf("OperatorRemaining() = %d, want 0", got)
	}

	*now = now.Add(61 * time.Second)
	if !rl.AllowOperator(42) {
		t.Error("window should have reset")
	}
	if got := rl.OperatorRemaining(42); got != 2 {
		t.Errorf("OperatorRemaining() = %d, want 2", got)
	}
}

func TestAllow_Disabled(t *testing.T) {
	rl, _ := newTestLimiter(0, 0)
	defer rl.Stop()

	for i := 0; i < 100; i++ {
		if !rl.AllowOperator(1) || !rl.AllowClient("10.0.0.1") {
			t.Fatal("a zero max disables limiting")
		}
	}
}

func TestReset(t *testing.T) {
	rl, _ := newTestLimiter(1, 1)
	defer rl.Stop()

	rl.AllowOperator(1)
	rl.AllowClient("10.0.0.1")
	rl.Reset()

	if !rl.AllowOperator(1) || !rl.AllowClient("10.0.0.1") {
		t.Error("Reset should clear all windows")
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(0, 2)
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		remote   string
		wantCode int
	}{
		{name: "First request", remote: "10.0.0.1:5000", wantCode: http.StatusOK},
		{name: "Same IP other port", remote: "10.0.0.1:5001", wantCode: http.StatusOK},
		{name: "Over limit", remote: "10.0.0.1:5002", wantCode: http.StatusTooManyRequests},
		{name: "Other client", remote: "10.0.0.2:5000", wantCode: http.StatusOK},
		{name: "No port", remote: "10.0.0.3", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/receipts/x", nil)
			req.RemoteAddr = tt.remote
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestStop_Idempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	rl.Stop()
	rl.Stop()
}
