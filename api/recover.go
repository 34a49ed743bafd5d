package api

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Recover converte panics em envelope JSON "Fatal error" com status 500.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			log.Error().
				Str("request_id", RequestIDFromContext(r.Context())).
				Str("path", r.URL.Path).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("handler panic")

			// resposta já começou: não dá para trocar status nem corpo
			if ww.Status() != 0 || ww.BytesWritten() > 0 {
				return
			}
			writeJSON(ww, http.StatusInternalServerError, ErrorResponse{
				Success: false,
				Error:   ErrFatal,
				Message: fmt.Sprint(rec),
			})
		}()

		next.ServeHTTP(ww, r)
	})
}
