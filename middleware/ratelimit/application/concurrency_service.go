package application

import (
	"context"
	"time"

	"secretword-api/middleware/ratelimit/domain"
)

// ConcurrencyService controla as vagas de atendimento simultâneo, com timeout
// opcional de espera, sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
//   - AcquireTimeout <= 0: espera até o ctx cancelar.
//   - AcquireTimeout > 0: espera no máximo o timeout.
//
// Se ok=false, nenhuma vaga foi adquirida e release é nil.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), ok bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}

// Capacity retorna 0 quando não há limite.
func (s ConcurrencyService) Capacity() int {
	if s.Pool == nil {
		return 0
	}
	return s.Pool.Cap()
}

// InFlight retorna quantas vagas estão ocupadas agora.
func (s ConcurrencyService) InFlight() int {
	if s.Pool == nil {
		return 0
	}
	return s.Pool.InUse()
}
