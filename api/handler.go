package api

import (
	"net/http"
	"strings"
	"time"

	"secretword-api/middleware/ratelimit"
	"secretword-api/middleware/ratelimit/application"
	"secretword-api/middleware/ratelimit/domain"
	"secretword-api/wordclock"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Endpoints listados na resposta 404.
var Endpoints = []string{
	"/ - Get secret word",
	"/health - Health check",
	"/stats - Statistics",
	"/?debug=1 - Debug mode",
}

// Handler atende as rotas da API sobre o núcleo compartilhado.
type Handler struct {
	Pool        wordclock.Pool
	Builder     Builder
	Clock       clockwork.Clock
	Limiter     application.Service
	Stats       domain.StatsReader
	Concurrency application.ConcurrencyService
	Started     time.Time
}

func debugRequested(r *http.Request) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("debug"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func clientFrom(r *http.Request) string {
	if k, ok := ratelimit.KeyFromContext(r.Context()); ok && k != "" {
		return k
	}
	return ratelimit.DefaultKeyFunc("", false)(r)
}

// SecretWord responde com a palavra da janela atual. O cooldown é aplicado
// antes, pelo middleware de rate limit.
func (h *Handler) SecretWord(w http.ResponseWriter, r *http.Request) {
	sel := h.Pool.Select(h.Clock.Now())
	client := clientFrom(r)

	var dbg *DebugInfo
	if debugRequested(r) {
		dbg = &DebugInfo{
			WordPoolSize:    h.Pool.Len(),
			CurrentTime:     sel.Time.Unix(),
			IntervalSeconds: int64(wordclock.Interval / time.Second),
			WordIndex:       sel.WordIndex,
			ClientIP:        client,
			UserAgent:       r.UserAgent(),
		}
		n, err := h.Limiter.Size(r.Context())
		if err != nil {
			writeError(w, r, ErrInternal, err)
			return
		}
		if n >= 0 {
			dbg.RateLimitCacheSize = &n
		}
	}

	log.Info().
		Str("word", sel.Word).
		Int64("interval_index", sel.IntervalIndex).
		Str("client", client).
		Msg("secret word served")
	writeJSON(w, http.StatusOK, h.Builder.Success(sel, dbg))
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Builder.Health(h.Started))
}

func (h *Handler) StatsReport(w http.ResponseWriter, r *http.Request) {
	sel := h.Pool.Select(h.Clock.Now())

	resp := StatsResponse{
		CurrentWord:          sel.Word,
		WordPoolSize:         h.Pool.Len(),
		IntervalMinutes:      int(wordclock.Interval / time.Minute),
		NextChangeIn:         int64(sel.Remaining / time.Second),
		TotalIntervalsPassed: sel.IntervalIndex,
		RateLimitSeconds:     int(h.cooldown() / time.Second),
		InFlight:             h.Concurrency.InFlight(),
		ConcurrencyMax:       h.Concurrency.Capacity(),
	}

	n, err := h.Limiter.Size(r.Context())
	if err != nil {
		writeError(w, r, ErrInternal, err)
		return
	}
	if n >= 0 {
		resp.ActiveIPs = &n
	}

	if h.Stats != nil {
		c, err := h.Stats.Snapshot(r.Context())
		if err != nil {
			writeError(w, r, ErrInternal, err)
			return
		}
		resp.Allowed, resp.Denied = c.Allowed, c.Denied

		if resp.Breakdown, err = h.Stats.Breakdown(r.Context(), sel.Time); err != nil {
			writeError(w, r, ErrInternal, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) cooldown() time.Duration {
	if ci, ok := h.Limiter.Store.(interface{ Cooldown() time.Duration }); ok {
		return ci.Cooldown()
	}
	return application.DefaultRetryAfter
}

func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, NotFoundResponse{
		Success:            false,
		Error:              ErrNotFound,
		AvailableEndpoints: Endpoints,
	})
}

func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Success: false, Error: ErrMethod})
}

// Preflight responde qualquer OPTIONS com 200 e corpo vazio, em qualquer rota.
func Preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Throttle escreve o envelope de bloqueio (usado como ratelimit.RejectFunc).
func Throttle(w http.ResponseWriter, _ *http.Request, dec domain.Decision) {
	writeJSON(w, http.StatusTooManyRequests, Throttled(dec.RetryAfter))
}

// LimiterError escreve o envelope de erro quando o store do rate limit falha.
func LimiterError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, ErrInternal, err)
}

// Busy escreve o envelope quando não há vaga de concorrência.
func Busy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Retry-After", "1")
	writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Success: false, Error: "Service busy"})
}
