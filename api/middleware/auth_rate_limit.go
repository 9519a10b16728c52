package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/medicarehub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

const maxLoginBody = 1 << 16

// WindowLimiter counts hits in a fixed window keyed by scope.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type AuthRateLimitPolicy struct {
	Name           string
	Window         time.Duration
	IPLimit        int64
	PrincipalLimit int64
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, principalLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		Name:           name,
		Window:         window,
		IPLimit:        int64(ipLimit),
		PrincipalLimit: int64(principalLimit),
	}
}

// loginPrincipal covers the identifying field of every login body.
type loginPrincipal struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

func (p loginPrincipal) value() string {
	if v := strings.TrimSpace(p.Username); v != "" {
		return strings.ToLower(v)
	}
	return strings.TrimSpace(p.Phone)
}

// AuthRateLimit throttles login attempts per client IP and per principal.
// The request body is buffered and restored for the downstream handler.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter WindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || policy.Window <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			body, err := io.ReadAll(io.LimitReader(r.Body, maxLoginBody))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if policy.IPLimit > 0 {
				if ip := clientIP(r); ip != "" {
					if !allow(ctx, w, logg, limiter, fmt.Sprintf("%s:ip:%s", policy.Name, ip), policy.IPLimit, policy.Window) {
						return
					}
				}
			}

			if policy.PrincipalLimit > 0 {
				var p loginPrincipal
				if err := json.Unmarshal(body, &p); err == nil {
					if principal := p.value(); principal != "" {
						if !allow(ctx, w, logg, limiter, fmt.Sprintf("%s:principal:%s", policy.Name, principal), policy.PrincipalLimit, policy.Window) {
							return
						}
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allow(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, limiter WindowLimiter, scope string, limit int64, window time.Duration) bool {
	ok, count, err := limiter.FixedWindowAllow(ctx, scope, limit, window)
	if err != nil {
		// limiter outages must not lock users out
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "scope", scope), "rate limit check failed")
		}
		return true
	}
	if ok {
		return true
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{"scope": scope, "count": count}), "rate limit exceeded")
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts"))
	return false
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
