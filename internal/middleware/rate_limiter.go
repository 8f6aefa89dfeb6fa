package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a fixed-window, in-memory limiter keyed by operator
// (Telegram user id) and by client IP for receipt links.
type RateLimiter struct {
	operators map[int64]*window
	clients   map[string]*window
	mu        sync.Mutex

	operatorMax int
	clientMax   int
	period      time.Duration
	now         func() time.Time
	done        chan struct{}
	stopOnce    sync.Once
}

type window struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a limiter allowing operatorMax bot updates and
// clientMax HTTP requests per period. A max of 0 disables that limit.
func NewRateLimiter(operatorMax, clientMax int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		operators:   make(map[int64]*window),
		clients:     make(map[string]*window),
		operatorMax: operatorMax,
		clientMax:   clientMax,
		period:      period,
		now:         time.Now,
		done:        make(chan struct{}),
	}

	go rl.cleanup(5 * time.Minute)

	return rl
}

// AllowOperator records one update from tgID and reports whether it is
// within the limit.
func (rl *RateLimiter) AllowOperator(tgID int64) bool {
	if rl.operatorMax <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return hitKey(rl, rl.operators, tgID, rl.operatorMax)
}

// AllowClient records one HTTP request from ip.
func (rl *RateLimiter) AllowClient(ip string) bool {
	if rl.clientMax <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return hitKey(rl, rl.clients, ip, rl.clientMax)
}

func hitKey[K comparable](rl *RateLimiter, m map[K]*window, key K, max int) bool {
	now := rl.now()

	w, exists := m[key]
	if !exists || now.After(w.resetTime) {
		m[key] = &window{requests: 1, resetTime: now.Add(rl.period)}
		return true
	}

	if w.requests >= max {
		return false
	}
	w.requests++
	return true
}

// OperatorRemaining returns how many updates tgID has left in its window.
func (rl *RateLimiter) OperatorRemaining(tgID int64) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, exists := rl.operators[tgID]
	if !exists || rl.now().After(w.resetTime) {
		return rl.operatorMax
	}

	remaining := rl.operatorMax - w.requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Middleware rejects HTTP clients over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !rl.AllowClient(ip) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// cleanup removes expired entries until Stop is called
func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for id, w := range rl.operators {
				if now.After(w.resetTime) {
					delete(rl.operators, id)
				}
			}
			for ip, w := range rl.clients {
				if now.After(w.resetTime) {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Reset clears all windows
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.operators = make(map[int64]*window)
	rl.clients = make(map[string]*window)
}
