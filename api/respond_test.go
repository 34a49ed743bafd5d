package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"secretword-api/wordclock"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestRecover_PanicBecomesFatalErrorJSON(t *testing.T) {
	h := RequestID(Headers(Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("formatting exploded")
	}))))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, contentTypeJSON, w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"success":false,"error":"Fatal error","message":"formatting exploded"}`, w.Body.String())
}

func TestRecover_PanicAfterWriteKeepsPartialBody(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true`))
		panic("late")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"success":true`, w.Body.String())
}

func TestRecover_PanicAfterHeaderOnly(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("after header")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Empty(t, w.Body.String())
}

func TestRecover_AbortHandlerIsRepanicked(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestWriteJSON_EncodingFailureStillJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]any{"bad": make(chan int)})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, ErrInternal, body.Error)
	require.NotEmpty(t, body.Message)
}

func TestRequestID_KeepsIncomingValue(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, "abc-123", seen)
	require.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
}

func TestBuilder_UsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("Europe/Istanbul", 3*3600)

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	b := Builder{Implementation: ImplementationID("server"), Location: loc, Clock: clock}
	resp := b.Success(wordclock.DefaultPool().Select(clock.Now()), nil)

	require.Equal(t, "Europe/Istanbul", resp.ServerInfo.Timezone)
	require.Equal(t, "1970-01-01T03:18:00+03:00", resp.IntervalInfo.NextChangeTime)
	require.Nil(t, resp.Debug)
}

func TestThrottled_RoundsRetryAfterUp(t *testing.T) {
	require.Equal(t, 2, Throttled(2*time.Second).RetryAfter)
	require.Equal(t, 3, Throttled(2500*time.Millisecond).RetryAfter)
	require.Equal(t, ErrTooManyRequests, Throttled(time.Second).Error)
}
