package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/medicarehub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

// IPRateLimiter hands out one token bucket per client IP. It is the
// in-process fallback when no redis is configured.
type IPRateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

func NewIPRateLimiter(perMinute, burst int) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *IPRateLimiter) bucket(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[ip]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[ip] = b
	}
	return b
}

// Allow consumes one token for ip.
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.bucket(ip).Allow()
}

func IPRateLimit(limiter *IPRateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				ctx := r.Context()
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "ip", ip), "rate limit exceeded")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
