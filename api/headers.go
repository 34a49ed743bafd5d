package api

import (
	"net/http"

	"github.com/rs/cors"
)

const contentTypeJSON = "application/json; charset=utf-8"

var (
	allowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	allowedHeaders = []string{"Content-Type", "Accept", "User-Agent"}
)

// Headers define Content-Type e os headers CORS em toda resposta, inclusive
// nas de erro, antes de qualquer handler escrever.
func Headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Type", contentTypeJSON)
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, User-Agent")
		next.ServeHTTP(w, r)
	})
}

// CORS trata os preflights reais (com Access-Control-Request-Method),
// encerrando-os com 200 e corpo vazio. OPTIONS sem esse header segue para
// o middleware Preflight.
func CORS() func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       allowedMethods,
		AllowedHeaders:       allowedHeaders,
		OptionsSuccessStatus: http.StatusOK,
	})
	return c.Handler
}
