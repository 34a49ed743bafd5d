package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

type Key string

// LimiterStore decide, por chave, se uma requisição pode passar agora.
//
// A regra é um intervalo mínimo (cooldown) entre requisições aceitas da mesma
// chave. Allow precisa ser atômico por chave: ler o último aceite, comparar e
// gravar o novo instante numa operação só. Requisições rejeitadas não alteram
// o estado.
type LimiterStore interface {
	Allow(ctx context.Context, key Key, at time.Time) (bool, error)
}

// Sizer é implementado por stores que sabem quantas chaves estão vivas.
type Sizer interface {
	Len(ctx context.Context) (int, error)
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
