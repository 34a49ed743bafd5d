package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// último recurso quando nem o envelope de erro pode ser codificado
const fallbackBody = `{"success":false,"error":"Internal server error","message":"response encoding failed"}`

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "encode response")
	}
	return buf.Bytes(), nil
}

// writeJSON codifica antes de escrever, para que uma falha de codificação
// ainda vire um envelope JSON com status 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := encode(v)
	if err != nil {
		log.Error().Err(err).Msg("response encoding failed")
		status = http.StatusInternalServerError
		if body, err = encode(Failure(ErrInternal, err)); err != nil {
			body = []byte(fallbackBody)
		}
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Debug().Err(err).Msg("response write failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, kind string, err error) {
	log.Error().Err(err).
		Str("request_id", RequestIDFromContext(r.Context())).
		Str("path", r.URL.Path).
		Msg(kind)
	writeJSON(w, http.StatusInternalServerError, Failure(kind, err))
}
