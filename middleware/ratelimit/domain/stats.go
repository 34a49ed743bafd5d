package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de decisão do rate limit.
//
// Method/Path são strings genéricas, sem depender de net/http.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key/Path sem controle pode
// explodir o número de chaves no Redis).
type StatsEvent struct {
	Key     Key
	Allowed bool

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do rate limit.
//
// O middleware trata erro como best-effort (não derruba a request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// Breakdown detalha os contadores. Mapas vazios ficam nil.
type Breakdown struct {
	ByRoute map[string]Counters `json:"by_route,omitempty"`
	// só com rastreio por chave ligado
	ByKey map[string]Counters `json:"by_key,omitempty"`
	// só em backends com série por minuto (chave "200601021504", UTC)
	ByMinute map[string]Counters `json:"by_minute,omitempty"`
}

// StatsReader expõe os totais acumulados (usado pelo endpoint /stats).
type StatsReader interface {
	Snapshot(ctx context.Context) (Counters, error)
	// Breakdown lê o detalhamento; at delimita a janela da série por minuto.
	Breakdown(ctx context.Context, at time.Time) (Breakdown, error)
}
