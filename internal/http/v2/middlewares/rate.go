package middlewares

import (
	"net/http"
	"strconv"

	httperrors "github.com/dropDatabas3/simguard/internal/http/v2/errors"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
	"github.com/dropDatabas3/simguard/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPRateKey usa solo la IP resuelta por WithClientIP.
func IPRateKey(r *http.Request) string {
	ip := GetClientIP(r.Context())
	if ip == "" {
		ip = clientIP(r, false)
	}
	return ip
}

// RateLimitConfig configura el middleware.
type RateLimitConfig struct {
	Limiter rate.Limiter
	Limit   int
	KeyFunc RateKeyFunc

	// Scope separa contadores por grupo de rutas (check, verify, payment).
	Scope string
}

// WithRateLimit limita requests por Scope + clave. Si el limiter falla se
// deja pasar el request.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPRateKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.Scope + "|" + cfg.KeyFunc(r)
			res, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable",
					logger.String("scope", cfg.Scope), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			if cfg.Limit > 0 {
				h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			}
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))

			if !res.Allowed {
				secs := int(res.RetryAfter.Seconds())
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
