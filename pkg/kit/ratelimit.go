package kit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// IPRateLimiter is a sliding-window per-IP limiter. Entries for idle IPs are
// dropped as their windows expire, so the map stays bounded by active
// clients.
type IPRateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
	}
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		if l.limited(clientIP(r), now, now.Add(-l.window)) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) limited(ip string, now, cutoff time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := prune(l.hits[ip], cutoff)
	if len(ts) == 0 {
		delete(l.hits, ip)
	}

	if len(ts) >= l.limit {
		l.hits[ip] = ts
		return true
	}

	l.hits[ip] = append(ts, now)
	return false
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	n := 0
	for _, t := range ts {
		if t.After(cutoff) {
			ts[n] = t
			n++
		}
	}
	return ts[:n]
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if p := strings.Split(xff, ","); len(p) > 0 && strings.TrimSpace(p[0]) != "" {
			return strings.TrimSpace(p[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}

	return r.RemoteAddr
}
