package server

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"cvforge/internal/errors"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key (address or session).
// Buckets idle for longer than the window are dropped.
type RateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	done      chan struct{}
	closeOnce sync.Once
	logger    *errors.Logger
}

// NewRateLimiter starts a limiter refilling requestsPerMin tokens a minute
// into buckets of burst tokens.
func NewRateLimiter(requestsPerMin int, window time.Duration, burst int, logger *errors.Logger) *RateLimiter {
	if window <= 0 {
		window = 10 * time.Minute
	}
	if burst < 1 {
		burst = 1
	}

	m := &RateLimiter{
		entries: make(map[string]*limiterEntry),
		rate:    rate.Limit(float64(requestsPerMin) / 60.0),
		burst:   burst,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go m.evictLoop(window)
	return m
}

// AllowN spends n tokens from key's bucket. Costs above the bucket size are
// capped so an expensive request is still possible on a full bucket.
func (m *RateLimiter) AllowN(key string, n int) bool {
	n = max(1, min(n, m.burst))
	now := time.Now()

	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(m.rate, m.burst)}
		m.entries[key] = e
	}
	e.lastSeen = now
	m.mu.Unlock()

	return e.limiter.AllowN(now, n)
}

// Stats reports the limiter settings and how many clients it tracks.
func (m *RateLimiter) Stats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.entries),
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
	}
}

func (m *RateLimiter) evictLoop(window time.Duration) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			m.evictIdle(now.Add(-window))
		case <-m.done:
			return
		}
	}
}

func (m *RateLimiter) evictIdle(cutoff time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, key)
		}
	}
	if m.logger != nil {
		m.logger.Debug("Rate limiter eviction completed", "remaining_limiters", len(m.entries))
	}
}

// Close stops the eviction goroutine. It is safe to call more than once.
func (m *RateLimiter) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// requestCost is the number of tokens r spends. An analysis calls the model
// and costs more than the layout and profile endpoints.
func (s *Server) requestCost(r *http.Request) int {
	if strings.HasSuffix(r.URL.Path, "/analyze") && s.RateLimit.AnalyzeCost > 1 {
		return s.RateLimit.AnalyzeCost
	}
	return 1
}

// rateLimitMiddleware rejects clients that exceed their token bucket.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.RateLimiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, key := rateLimitKey(r, s.RateLimit.ByUser, s.RateLimit.ByIP)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !s.RateLimiter.AllowN(key, s.requestCost(r)) {
			s.Logger.Info("Rate limit exceeded",
				"scope", scope,
				"endpoint", r.URL.Path,
				"client_ip", clientIP(r))
			s.metrics().RecordRateLimitHit(r.Context(), scope)
			w.Header().Set("Retry-After", "60")
			writeErrorResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitKey picks the bucket for r. Signed-in callers are keyed by a hash
// of their token when byUser is set, everyone else by address.
func rateLimitKey(r *http.Request, byUser, byIP bool) (scope, key string) {
	if byUser {
		if token := bearerToken(r); token != "" {
			sum := sha256.Sum256([]byte(token))
			return "user", "user:" + hex.EncodeToString(sum[:8])
		}
	}
	if byIP {
		return "ip", "ip:" + clientIP(r)
	}
	return "", ""
}

// clientIP prefers the first valid proxy-supplied address and falls back to
// the connection's remote address.
func clientIP(r *http.Request) string {
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		for candidate := range strings.SplitSeq(r.Header.Get(header), ",") {
			candidate = strings.TrimSpace(candidate)
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
