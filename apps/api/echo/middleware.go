package echoapi

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/services/metrics"
)

// capabilityGate builds the middlewares guarding routes behind a user.Capability.
type capabilityGate struct {
	auth *authenticator
}

// require lets the request through when the authenticated user's role holds capability.
// It must run after the JWT middleware.
func (g capabilityGate) require(capability user.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := g.auth.contextUser(ctx)
			if err != nil {
				return err
			}
			if user.Authorize(usr.Role, capability) != nil {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// authed only checks the user behind the token still exists and is active.
func (g capabilityGate) authed() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := g.auth.contextUser(ctx); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// rateLimitMiddleware keys callers by token subject when authenticated, by client IP otherwise.
// A nil limiter disables it.
func rateLimitMiddleware(limiter core.RateLimiter, m *metrics.Metrics, logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(ctx echo.Context) error {
			key := "ip." + ctx.RealIP()
			if claims, err := getContextClaims(ctx); err == nil {
				key = "user." + claims.Subject
			}
			key += "." + ctx.Request().Method + ctx.Path()

			allowed, err := limiter.Allow(ctx.Request().Context(), key)
			if err != nil {
				logger.Error(fmt.Sprintf("rate limiting %q: %v", key, err), err)
				return next(ctx)
			}
			if !allowed {
				if m != nil {
					m.RateLimited(ctx.Path())
				}
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}

// metricsMiddleware handles errors itself so the recorded status is the one sent.
func metricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(ctx.Request().Method, route, ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}
