// Package infra contém implementações concretas dos contratos do pacote domain.
//
//   - Store: cooldown por chave em memória (golang.org/x/time/rate), em shards,
//     com limite de tamanho e limpeza periódica
//   - RedisStore: o mesmo cooldown no Redis, via script Lua, com expiração por chave
//   - MemoryStatsStore / RedisStatsStore: contadores allowed/denied
//   - ChanPool: semáforo simples para limite de concorrência
package infra
