package api

import (
	"fmt"
	"runtime"
	"time"

	"secretword-api/middleware/ratelimit/domain"
	"secretword-api/wordclock"

	"github.com/jonboulle/clockwork"
)

// Version entra no identificador de implementação de server_info.
const Version = "1.0.0"

const (
	ErrTooManyRequests = "Too many requests"
	ErrInternal        = "Internal server error"
	ErrFatal           = "Fatal error"
	ErrNotFound        = "Endpoint not found"
	ErrMethod          = "Method not allowed"
)

type SuccessResponse struct {
	Success      bool         `json:"success"`
	SecretWord   string       `json:"secret_word"`
	Timestamp    int64        `json:"timestamp"`
	IntervalInfo IntervalInfo `json:"interval_info"`
	ServerInfo   ServerInfo   `json:"server_info"`
	Debug        *DebugInfo   `json:"debug,omitempty"`
}

type IntervalInfo struct {
	IntervalIndex       int64  `json:"interval_index"`
	NextChangeInSeconds int64  `json:"next_change_in_seconds"`
	NextChangeTime      string `json:"next_change_time"`
}

// ServerInfo mantém o nome de campo php_version por compatibilidade com os
// clientes existentes; o valor é o identificador desta implementação.
type ServerInfo struct {
	Implementation string `json:"php_version"`
	ServerTime     string `json:"server_time"`
	Timezone       string `json:"timezone"`
}

type DebugInfo struct {
	WordPoolSize    int    `json:"word_pool_size"`
	CurrentTime     int64  `json:"current_time"`
	IntervalSeconds int64  `json:"interval_seconds"`
	WordIndex       int    `json:"word_index"`
	ClientIP        string `json:"client_ip"`
	UserAgent       string `json:"user_agent"`
	// nil quando o store não informa tamanho
	RateLimitCacheSize *int `json:"rate_limit_cache_size,omitempty"`
}

type ThrottledResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type NotFoundResponse struct {
	Success            bool     `json:"success"`
	Error              string   `json:"error"`
	AvailableEndpoints []string `json:"available_endpoints"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  int64  `json:"timestamp"`
	ServerTime string `json:"server_time"`
	Uptime     string `json:"uptime"`
}

type StatsResponse struct {
	CurrentWord          string `json:"current_word"`
	WordPoolSize         int    `json:"word_pool_size"`
	IntervalMinutes      int    `json:"interval_minutes"`
	NextChangeIn         int64  `json:"next_change_in"`
	TotalIntervalsPassed int64  `json:"total_intervals_passed"`
	RateLimitSeconds     int    `json:"rate_limit_seconds"`
	ActiveIPs            *int   `json:"active_ips,omitempty"`
	Allowed              int64  `json:"allowed"`
	Denied               int64  `json:"denied"`
	InFlight             int    `json:"in_flight"`
	ConcurrencyMax       int    `json:"concurrency_max"`

	// by_route, by_key e by_minute, quando o backend de stats os tiver
	domain.Breakdown
}

// ImplementationID monta o identificador exposto em server_info.
func ImplementationID(adapter string) string {
	return fmt.Sprintf("secret-word-api/%s (%s; %s)", Version, adapter, runtime.Version())
}

// Builder monta os envelopes de resposta.
type Builder struct {
	Implementation string
	Location       *time.Location
	Clock          clockwork.Clock
}

func (b Builder) loc() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

func (b Builder) now() time.Time {
	if b.Clock == nil {
		return time.Now()
	}
	return b.Clock.Now()
}

func (b Builder) format(t time.Time) string {
	return t.In(b.loc()).Format(time.RFC3339)
}

// Success monta o envelope de sucesso. debug nil omite o bloco.
func (b Builder) Success(sel wordclock.Selection, debug *DebugInfo) SuccessResponse {
	return SuccessResponse{
		Success:    true,
		SecretWord: sel.Word,
		Timestamp:  sel.Time.Unix(),
		IntervalInfo: IntervalInfo{
			IntervalIndex:       sel.IntervalIndex,
			NextChangeInSeconds: int64(sel.Remaining / time.Second),
			NextChangeTime:      b.format(sel.NextChange),
		},
		ServerInfo: ServerInfo{
			Implementation: b.Implementation,
			ServerTime:     b.format(b.now()),
			Timezone:       b.loc().String(),
		},
		Debug: debug,
	}
}

func Throttled(retryAfter time.Duration) ThrottledResponse {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	return ThrottledResponse{Success: false, Error: ErrTooManyRequests, RetryAfter: secs}
}

func Failure(kind string, err error) ErrorResponse {
	resp := ErrorResponse{Success: false, Error: kind}
	if err != nil {
		resp.Message = err.Error()
	}
	return resp
}

func (b Builder) Health(started time.Time) HealthResponse {
	now := b.now()
	return HealthResponse{
		Status:     "healthy",
		Timestamp:  now.Unix(),
		ServerTime: b.format(now),
		Uptime:     now.Sub(started).Truncate(time.Second).String(),
	}
}
