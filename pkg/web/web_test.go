package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type dto struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "single value", body: `{"name":"Cuaderno"}`},
		{name: "unknown field", body: `{"name":"Cuaderno","color":"azul"}`, wantErr: true},
		{name: "trailing value", body: `{"name":"a"}{"name":"b"}`, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got dto

			// when
			err := DecodeJSON(r, &got)

			// then
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Cuaderno", got.Name)
		})
	}
}

func TestRespondJSON(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("payload", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RespondError(rr, logger, http.StatusConflict, "Correo ya registrado")

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"error":"Correo ya registrado"}`, rr.Body.String())
	})
	t.Run("nil payload", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RespondJSON(rr, logger, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
	})
	t.Run("unencodable payload", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RespondJSON(rr, logger, http.StatusOK, map[string]any{"f": func() {}})

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"`+MsgInternalError+`"}`, rr.Body.String())
	})
}

func TestRequestIDInjector(t *testing.T) {
	var seen string
	h := RequestIDInjector(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	}))

	t.Run("keeps incoming id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "req-42")
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, r)

		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", rr.Header().Get(RequestIDHeader))
	})
	t.Run("generates id", func(t *testing.T) {
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	})
}

func TestStructuredLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		path      string
		status    int
		wantLevel string
	}{
		{path: "/api/v1/products", status: http.StatusOK, wantLevel: "INFO"},
		{path: "/api/v1/products", status: http.StatusUnauthorized, wantLevel: "WARN"},
		{path: "/api/v1/products", status: http.StatusBadGateway, wantLevel: "ERROR"},
		{path: "/metrics", status: http.StatusOK, wantLevel: "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+http.StatusText(tt.status), func(t *testing.T) {
			// given
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			h := StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			// when
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			// then
			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, tt.wantLevel, record["level"])
			assert.EqualValues(t, tt.status, record["status"])
		})
	}
}

func TestRecoverer(t *testing.T) {
	// given
	h := Recoverer(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()

	// when
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	// then
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"`+MsgInternalError+`"}`, rr.Body.String())
}
