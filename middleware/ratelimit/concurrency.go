package ratelimit

import (
	"net/http"
	"time"

	"secretword-api/middleware/ratelimit/application"
	"secretword-api/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// OnReject escreve a resposta quando não há vaga. Padrão: http.Error.
	OnReject func(w http.ResponseWriter, r *http.Request)
}

// ConcurrencyMiddleware limita quantas requisições são atendidas ao mesmo
// tempo. Max <= 0 desliga o limite. O service é devolvido para quem quiser
// expor ocupação (ex.: /stats).
func ConcurrencyMiddleware(opts ConcurrencyOptions) (func(next http.Handler) http.Handler, application.ConcurrencyService) {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }, application.ConcurrencyService{}
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.OnReject == nil {
		status := opts.RejectStatus
		opts.OnReject = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(status), status)
		}
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				opts.OnReject(w, r)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
	return mw, svc
}
