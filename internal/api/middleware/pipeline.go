// Package middleware implements the request pipeline: security
// headers, correlation ids, request logging and timing, API
// versioning, rate limiting, trusted hosts, panic recovery, and the
// bearer-token auth resolver.
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/starlight-api/starlight-be/internal/api/respond"
	"github.com/starlight-api/starlight-be/internal/ratelimit"
)

// APIVersion is the version advertised on every response.
const APIVersion = "v1"

// SupportedVersions lists the versions the API accepts.
var SupportedVersions = []string{"v1"}

// SecurityHeaders annotates every response with browser hardening
// headers. HSTS is only meaningful behind TLS, so it is limited to
// production.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", "default-src 'self'")
			if production {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID assigns each request a correlation id and echoes the
// inbound X-Request-ID (or a fresh one) back. The headers are written
// up front so they survive panics and error short-circuits alike.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := uuid.New().String()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Correlation-ID", correlationID)
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), correlationIDKey, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recover catches panics from inner stages, logs them with the
// correlation id, reports to Sentry and returns a generic 500.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("panic", fmt.Sprint(rec))
					scope.SetExtra("stack", string(debug.Stack()))
					scope.SetTag("correlation_id", CorrelationID(r.Context()))
					sentry.CaptureMessage("panic in request")
				})

				log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Str("correlation_id", CorrelationID(r.Context())).
					Msg("Panic recovered")

				respond.Fail(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// timingRecorder stamps X-Process-Time just before the status line is
// written and remembers the status for logging.
type timingRecorder struct {
	http.ResponseWriter
	start       time.Time
	statusCode  int
	wroteHeader bool
}

func (t *timingRecorder) WriteHeader(status int) {
	if !t.wroteHeader {
		t.Header().Set("X-Process-Time", fmt.Sprintf("%.6f", time.Since(t.start).Seconds()))
		t.statusCode = status
		t.wroteHeader = true
	}
	t.ResponseWriter.WriteHeader(status)
}

func (t *timingRecorder) Write(b []byte) (int, error) {
	if !t.wroteHeader {
		t.WriteHeader(http.StatusOK)
	}
	return t.ResponseWriter.Write(b)
}

// Logger logs request start and completion with timing, and annotates
// the response with X-Process-Time.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &timingRecorder{ResponseWriter: w, start: start, statusCode: http.StatusOK}

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("client_ip", ClientIP(r)).
			Str("correlation_id", CorrelationID(r.Context())).
			Msg("Request started")

		next.ServeHTTP(recorder, r)

		elapsed := time.Since(start)
		event := log.Info()
		if elapsed > time.Second {
			event = log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.statusCode).
			Float64("process_time_ms", float64(elapsed.Microseconds())/1000).
			Str("correlation_id", CorrelationID(r.Context())).
			Msg("Request completed")
	})
}

// Versioning advertises the negotiated API version on every response.
func Versioning(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("API-Version", APIVersion)
		w.Header().Set("Supported-Versions", strings.Join(SupportedVersions, ","))
		next.ServeHTTP(w, r)
	})
}

// RateLimit enforces the per-client fixed-window budget. Exempt paths
// bypass the limiter entirely.
func RateLimit(limiter *ratelimit.Limiter, exempt ...string) func(http.Handler) http.Handler {
	exemptPaths := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		exemptPaths[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			result := limiter.Admit(r.Context(), ClientIP(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset, 10))

			if !result.Allowed {
				retryAfter := result.Reset - time.Now().Unix()
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				respond.Fail(w, r, http.StatusTooManyRequests, "rate_limit_exceeded", "rate limit exceeded, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TrustedHosts rejects requests whose Host header is not in the
// allowed list. A single "*" entry disables the check.
func TrustedHosts(hosts []string) func(http.Handler) http.Handler {
	allowAll := len(hosts) == 0
	allowed := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if h == "*" {
			allowAll = true
		}
		allowed[h] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowAll {
				next.ServeHTTP(w, r)
				return
			}
			host := r.Host
			if h, _, err := net.SplitHostPort(r.Host); err == nil {
				host = h
			}
			if _, ok := allowed[host]; !ok {
				respond.Fail(w, r, http.StatusBadRequest, "invalid_host", "invalid host header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the originating client address, honoring
// X-Forwarded-For from upstream proxies.
func ClientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
