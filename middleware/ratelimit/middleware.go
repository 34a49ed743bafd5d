package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"secretword-api/middleware/ratelimit/application"
	"secretword-api/middleware/ratelimit/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type KeyFunc func(r *http.Request) string

// RejectFunc escreve a resposta de uma requisição bloqueada.
// Retry-After já foi definido quando ela é chamada.
type RejectFunc func(w http.ResponseWriter, r *http.Request, dec domain.Decision)

// ErrorFunc escreve a resposta quando o store falha.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

type Options struct {
	Store               domain.LimiterStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	Clock               clockwork.Clock
	OnReject            RejectFunc
	OnError             ErrorFunc
}

type cooldownInfo interface {
	Cooldown() time.Duration
}

type ctxKey struct{}

// KeyFromContext devolve a chave de cliente resolvida pelo Middleware.
func KeyFromContext(ctx context.Context) (string, bool) {
	k, ok := ctx.Value(ctxKey{}).(string)
	return k, ok
}

// WithKey grava a chave de cliente no contexto.
func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxKey{}, key)
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = application.DefaultRetryAfter
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.OnReject == nil {
		status := opts.RejectStatus
		opts.OnReject = func(w http.ResponseWriter, _ *http.Request, _ domain.Decision) {
			http.Error(w, http.StatusText(status), status)
		}
	}
	if opts.OnError == nil {
		opts.OnError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}

	svc := application.Service{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			r = r.WithContext(WithKey(r.Context(), key))

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", key)
				if ci, ok := opts.Store.(cooldownInfo); ok {
					w.Header().Set("X-RateLimit-Cooldown", formatSeconds(ci.Cooldown()))
				}
			}

			now := opts.Clock.Now()
			dec, err := svc.Decide(r.Context(), domain.Key(key), now)
			if err != nil {
				log.Error().Err(err).Str("client", key).Msg("rate limit decision failed")
				opts.OnError(w, r, err)
				return
			}

			if opts.Stats != nil {
				if err := opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     domain.Key(key),
					Allowed: dec.Allowed,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      now,
				}); err != nil {
					log.Warn().Err(err).Msg("rate limit stats not recorded")
				}
			}

			if !dec.Allowed {
				log.Warn().Str("client", key).Str("path", r.URL.Path).Msg("rate limit exceeded")
				w.Header().Set("Retry-After", formatInt(retryAfterSeconds(dec.RetryAfter)))
				opts.OnReject(w, r, dec)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
