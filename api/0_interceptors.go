package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fulldump/box"
	"golang.org/x/time/rate"
)

// RecoverFromPanic turns a handler panic into an error response.
func RecoverFromPanic(logger *slog.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic", "err", r, "stack", string(debug.Stack()))
					box.SetError(ctx, fmt.Errorf("panic: %v", r))
				}
			}()
			next(ctx)
		}
	}
}

func AccessLog(logger *slog.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			now := time.Now()
			defer func() {
				attrs := []any{
					"remote", formatRemoteAddr(r),
					"method", r.Method,
					"url", r.URL.String(),
					"took", time.Since(now),
				}
				if err := box.GetError(ctx); err != nil {
					attrs = append(attrs, "err", err.Error())
				}
				logger.Info("access", attrs...)
			}()

			next(ctx)
		}
	}
}

func formatRemoteAddr(r *http.Request) string {
	xorigin := strings.TrimSpace(strings.Split(
		r.Header.Get("X-Forwarded-For"), ",")[0])
	if xorigin != "" {
		return xorigin
	}

	i := strings.LastIndex(r.RemoteAddr, ":")
	if i < 0 {
		return r.RemoteAddr
	}
	return r.RemoteAddr[0:i]
}

// Authenticate requires X-Api-Key and X-Api-Secret to match. Empty credentials
// disable the check.
func Authenticate(apiKey, apiSecret string) box.I {
	return func(next box.H) box.H {
		if apiKey == "" && apiSecret == "" {
			return next
		}
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			key := r.Header.Get("X-Api-Key")
			secret := r.Header.Get("X-Api-Secret")
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 ||
				subtle.ConstantTimeCompare([]byte(secret), []byte(apiSecret)) != 1 {
				box.SetError(ctx, ErrUnauthorized)
				return
			}
			next(ctx)
		}
	}
}

// RateLimit shares one token bucket across all requests. A non positive
// limit disables it.
func RateLimit(limit, burst int) box.I {
	if limit <= 0 {
		return func(next box.H) box.H {
			return next
		}
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			if !limiter.Allow() {
				box.GetResponse(ctx).Header().Set("Retry-After", "1")
				box.SetError(ctx, ErrRateLimited)
				return
			}
			next(ctx)
		}
	}
}
