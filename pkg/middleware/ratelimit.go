package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultLimiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per key and drops buckets idle for longer than idleTTL.
type rateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(cfg utils.RateLimitConfig) *rateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	idleTTL := cfg.IdleTTL
	if idleTTL <= 0 {
		idleTTL = defaultLimiterIdleTTL
	}

	return &rateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rps:       rate.Limit(rps),
		burst:     burst,
		idleTTL:   idleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) >= l.idleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (l *rateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *rateLimiter) middleware(keyOf func(*http.Request) string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyOf(r)
			if !l.getLimiter(key).Allow() {
				logger.Warn("Rate limit exceeded",
					zap.String("ip", key),
					zap.String("path", r.URL.Path))
				w.Header().Set("Retry-After", "1")
				utils.ResponseTooManyRequests(w, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies a token bucket per client IP and answers 429 once it is drained.
// The IP honours forwarding headers when RealIP runs earlier in the chain.
func RateLimit(cfg utils.RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return newRateLimiter(cfg).middleware(clientIP, logger)
}

// RateLimitByPeer keys the bucket on the TCP peer recorded by PeerAddr, so forwarding
// headers cannot spread one caller over many buckets.
func RateLimitByPeer(cfg utils.RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return newRateLimiter(cfg).middleware(peerIP, logger)
}

type peerAddrKey struct{}

// PeerAddr records the socket address before any middleware rewrites RemoteAddr.
func PeerAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerAddrKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func peerIP(r *http.Request) string {
	addr, ok := r.Context().Value(peerAddrKey{}).(string)
	if !ok {
		addr = r.RemoteAddr
	}
	return hostOnly(addr)
}

func clientIP(r *http.Request) string {
	return hostOnly(r.RemoteAddr)
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
