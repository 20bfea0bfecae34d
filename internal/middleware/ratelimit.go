package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RateLimiter allows a fixed number of requests per IP and window.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*window
	rate      int
	window    time.Duration
	whitelist map[string]struct{}
	now       func() time.Time
	blocked   atomic.Int64
	logger    *slog.Logger
}

type window struct {
	remaining int
	start     time.Time
}

// NewRateLimiter creates a limiter allowing rate requests per window.
// IPs in whitelist bypass it.
func NewRateLimiter(rate int, per time.Duration, whitelist []string, logger *slog.Logger) *RateLimiter {
	wl := make(map[string]struct{}, len(whitelist))
	for _, ip := range whitelist {
		if ip = strings.TrimSpace(ip); ip != "" {
			wl[ip] = struct{}{}
		}
	}

	return &RateLimiter{
		clients:   make(map[string]*window),
		rate:      rate,
		window:    per,
		whitelist: wl,
		now:       time.Now,
		logger:    logger.With("component", "rate_limiter"),
	}
}

// Run evicts idle clients until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(2 * rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

func (rl *RateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, w := range rl.clients {
		if now.Sub(w.start) > 2*rl.window {
			delete(rl.clients, ip)
		}
	}
}

// Allow spends one request of ip's current window.
func (rl *RateLimiter) Allow(ip string) bool {
	if _, ok := rl.whitelist[ip]; ok {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.clients[ip] = &window{remaining: rl.rate - 1, start: now}
		return rl.rate > 0
	}

	if w.remaining > 0 {
		w.remaining--
		return true
	}
	return false
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(rl.window.Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			rl.blocked.Add(1)
			rl.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", retryAfter)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Blocked is the number of requests rejected so far.
func (rl *RateLimiter) Blocked() int64 {
	return rl.blocked.Load()
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For: "client, proxy1, proxy2"
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if host, _, err := net.SplitHostPort(first); err == nil {
			return host
		}
		return first
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
