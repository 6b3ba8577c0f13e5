/*
Package limiter provides request rate limiting keyed by client IP address.

It keeps one token bucket (rate.Limiter) per IP and a cleanup goroutine that drops
buckets which have refilled completely, so idle clients do not accumulate in memory.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/resp"
)

const cleanupInterval = 3 * time.Minute

// IPRateLimiter implements a concurrency-safe rate limiter keyed by client IP address.
type IPRateLimiter struct {
	// name labels the limiter in logs (e.g. "auth", "booking").
	name string

	// mu protects concurrent access to the limits map.
	mu sync.RWMutex

	// limits maps a client IP address to its token bucket.
	limits map[string]*rate.Limiter

	// r is the refill rate in events per second.
	r rate.Limit

	// b is the bucket size, i.e. the largest burst allowed.
	b int
}

// NewIPRateLimiter creates an IPRateLimiter with refill rate r and burst b and starts its
// cleanup goroutine.
func NewIPRateLimiter(name string, r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		name:   name,
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanUpVisitors()

	return i
}

// GetLimiter returns the token bucket for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// Allow consumes one token from ip's bucket and reports whether the request may proceed.
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}

// sweep removes buckets that are full again (their owners have been idle).
func (i *IPRateLimiter) sweep(now time.Time) (removed, remaining int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for ip, limiter := range i.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(i.limits, ip)
			removed++
		}
	}
	return removed, len(i.limits)
}

func (i *IPRateLimiter) cleanUpVisitors() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		removed, remaining := i.sweep(time.Now())
		logx.Debug("Rate limiter cleanup finished",
			"limiter", i.name,
			"removed", removed,
			"remaining", remaining,
		)
	}
}

// ClientIP extracts the client IP from r.RemoteAddr (already rewritten by chi's RealIP).
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}

// Middleware answers with ErrRateLimitExceeded (HTTP 429) once a client IP exhausts its bucket.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)

		if !i.Allow(ip) {
			logx.Warn("Request rejected: rate limit exceeded.", "limiter", i.name, "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
