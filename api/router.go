package api

import (
	"net/http"
	"time"

	"secretword-api/middleware/ratelimit"
	"secretword-api/middleware/ratelimit/application"
	"secretword-api/middleware/ratelimit/domain"
	"secretword-api/wordclock"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
)

// StatsBackend grava e lê os contadores do rate limit.
type StatsBackend interface {
	domain.StatsStore
	domain.StatsReader
}

// Deps reúne o que os adapters (servidor, CGI) injetam no núcleo.
type Deps struct {
	Pool wordclock.Pool
	// Store nil desliga o rate limit.
	Store domain.LimiterStore
	Stats StatsBackend

	Clock    clockwork.Clock
	Location *time.Location
	// Adapter identifica o alvo de deploy em server_info ("server", "cgi").
	Adapter string

	KeyHeader           string
	TrustXForwardedFor  bool
	RetryAfter          time.Duration
	AddRateLimitHeaders bool

	ConcurrencyMax     int
	ConcurrencyTimeout time.Duration
}

// NewRouter monta o handler HTTP completo. Entra em pânico com
// wordclock.ErrEmptyPool se d.Pool não tiver palavras.
func NewRouter(d Deps) http.Handler {
	if d.Pool.Len() == 0 {
		panic(wordclock.ErrEmptyPool)
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.RetryAfter <= 0 {
		d.RetryAfter = application.DefaultRetryAfter
	}
	if d.Adapter == "" {
		d.Adapter = "server"
	}
	keyFn := ratelimit.DefaultKeyFunc(d.KeyHeader, d.TrustXForwardedFor)

	concurrency, concurrencySvc := ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            d.ConcurrencyMax,
		AcquireTimeout: d.ConcurrencyTimeout,
		OnReject:       Busy,
	})

	h := &Handler{
		Pool: d.Pool,
		Builder: Builder{
			Implementation: ImplementationID(d.Adapter),
			Location:       d.Location,
			Clock:          d.Clock,
		},
		Clock:       d.Clock,
		Limiter:     application.Service{Store: d.Store, RetryAfter: d.RetryAfter},
		Concurrency: concurrencySvc,
		Started:     d.Clock.Now(),
	}

	rlOpts := ratelimit.Options{
		Store:               d.Store,
		KeyFn:               keyFn,
		RetryAfter:          d.RetryAfter,
		AddRateLimitHeaders: d.AddRateLimitHeaders,
		Clock:               d.Clock,
		OnReject:            Throttle,
		OnError:             LimiterError,
	}
	if d.Stats != nil {
		rlOpts.Stats = d.Stats
		h.Stats = d.Stats
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Headers)
	r.Use(RequestLogger(keyFn))
	r.Use(Recover)
	r.Use(concurrency)
	r.Use(CORS())
	r.Use(Preflight)

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(rlOpts))
		r.Get("/", h.SecretWord)
		r.Post("/", h.SecretWord)
	})
	r.Get("/health", h.Health)
	r.Get("/stats", h.StatsReport)

	return r
}
