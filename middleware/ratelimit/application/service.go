package application

import (
	"context"
	"time"

	"secretword-api/middleware/ratelimit/domain"

	"github.com/pkg/errors"
)

// DefaultRetryAfter é a dica de espera devolvida quando a chave está em cooldown.
const DefaultRetryAfter = 2 * time.Second

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
}

// Decide consulta o store para a chave no instante at.
// Erro do store é devolvido ao chamador; a decisão nesse caso é zero.
func (s Service) Decide(ctx context.Context, key domain.Key, at time.Time) (domain.Decision, error) {
	if s.Store == nil {
		return domain.Decision{Allowed: true}, nil
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = DefaultRetryAfter
	}

	ok, err := s.Store.Allow(ctx, key, at)
	if err != nil {
		return domain.Decision{}, errors.WithMessagef(err, "limiter store allow %q", key)
	}
	if ok {
		return domain.Decision{Allowed: true}, nil
	}
	return domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}, nil
}

// Size devolve o número de chaves vivas, ou -1 quando o store não informa.
func (s Service) Size(ctx context.Context) (int, error) {
	sz, ok := s.Store.(domain.Sizer)
	if !ok {
		return -1, nil
	}
	n, err := sz.Len(ctx)
	if err != nil {
		return -1, errors.WithMessage(err, "limiter store len")
	}
	return n, nil
}
