package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sandeepkv93/catalog-editor/internal/http/response"
	"github.com/sandeepkv93/catalog-editor/internal/observability"
)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per key inside a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

// Catalog reads and mutations are budgeted separately so a burst of saves
// cannot lock a client out of browsing.
const (
	accessRead  = "read"
	accessWrite = "write"
)

type RateLimiter struct {
	limiter Limiter
	limit   int
	window  time.Duration
	mode    FailureMode
	scope   string
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return NewDistributedRateLimiter(NewLocalFixedWindowLimiter(), limit, window, FailClosed, "local")
}

func NewDistributedRateLimiter(limiter Limiter, limit int, window time.Duration, mode FailureMode, scope string) *RateLimiter {
	if scope == "" {
		scope = "catalog"
	}
	return &RateLimiter{limiter: limiter, limit: limit, window: window, mode: mode, scope: scope}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access := accessClass(r.Method)
			d, err := rl.limiter.Allow(r.Context(), clientIPKey(r)+":"+access, rl.limit, rl.window)
			if err != nil {
				if rl.mode == FailOpen {
					observability.RecordMiddlewareEvent(r.Context(), "rate_limit", "backend_error_open")
					slog.WarnContext(r.Context(), "rate limiter backend unavailable, allowing request",
						"scope", rl.scope,
						"access", access,
						"error", err.Error(),
					)
					next.ServeHTTP(w, r)
					return
				}
				observability.RecordMiddlewareEvent(r.Context(), "rate_limit", "backend_error_closed")
				rl.reject(w, r, access, rl.window)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
			if !d.Allowed {
				observability.RecordMiddlewareEvent(r.Context(), "rate_limit", "rejected_"+access)
				rl.reject(w, r, access, d.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, access string, retryAfter time.Duration) {
	w.Header().Set("Retry-After", retryAfterHeader(retryAfter))
	response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many catalog "+access+" requests", map[string]any{
		"scope": rl.scope,
	})
}

func accessClass(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return accessRead
	default:
		return accessWrite
	}
}

type fixedWindow struct {
	count int
	start time.Time
}

type localFixedWindowLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*fixedWindow
	sweepAt time.Time
}

func NewLocalFixedWindowLimiter() Limiter {
	return newLocalFixedWindowLimiter(time.Now)
}

func newLocalFixedWindowLimiter(now func() time.Time) *localFixedWindowLimiter {
	return &localFixedWindowLimiter{now: now, windows: make(map[string]*fixedWindow), sweepAt: now().Add(time.Minute)}
}

func (l *localFixedWindowLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.sweepAt) {
		for k, w := range l.windows {
			if now.Sub(w.start) > 2*window {
				delete(l.windows, k)
			}
		}
		l.sweepAt = now.Add(window)
	}

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= window {
		l.windows[key] = &fixedWindow{count: 1, start: now}
		return Decision{Allowed: true, Remaining: limit - 1}, nil
	}
	if w.count >= limit {
		return Decision{RetryAfter: max(window-now.Sub(w.start), 0)}, nil
	}
	w.count++
	return Decision{Allowed: true, Remaining: limit - w.count}, nil
}

func clientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// retryAfterHeader renders whole seconds, never below one.
func retryAfterHeader(d time.Duration) string {
	return strconv.Itoa(max(int(d.Round(time.Second).Seconds()), 1))
}
