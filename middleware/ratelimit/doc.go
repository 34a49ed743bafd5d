// Package ratelimit fornece os adapters HTTP (net/http) para o cooldown por
// cliente e para o limite de concorrência.
//
// Camadas:
//
//   - domain: contratos e tipos (sem net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout)
//   - infra: stores concretos (memória com x/time/rate, Redis com Lua, semáforo)
//   - ratelimit (este pacote): middlewares HTTP, extração de chave e headers
//
// Fluxo:
//
//  1. Extrai a chave do cliente (header/XFF/RemoteAddr) e grava no contexto
//  2. Pede a decisão à camada application
//  3. Se bloqueado, define Retry-After e chama OnReject (padrão: 429)
//  4. Se permitido, chama o próximo handler
package ratelimit
