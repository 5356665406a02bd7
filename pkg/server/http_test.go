package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unabstore/shop/pkg/config"
	"github.com/unabstore/shop/pkg/web"
)

func TestNewHTTPServer(t *testing.T) {
	// given
	var cfg config.HTTPConfig
	cfg.Port = 8080
	cfg.MaxHeaderBytes = 1 << 20
	cfg.Timeout.Read = 5 * time.Second
	cfg.Timeout.Idle = 60 * time.Second
	cfg.Timeout.ReadHeader = 2 * time.Second

	// when
	srv := NewHTTPServer(cfg, http.NotFoundHandler())

	// then
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, time.Duration(0), srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
	assert.Equal(t, 2*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 1<<20, srv.MaxHeaderBytes)
}

func TestNewChiRouter(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("request id is echoed", func(t *testing.T) {
		// given
		mux := NewChiRouter(logger, nil)
		mux.Get("/ping", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(web.RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()

		// when
		mux.ServeHTTP(rec, req)

		// then
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "req-42", rec.Header().Get(web.RequestIDHeader))
	})

	t.Run("panic is recovered", func(t *testing.T) {
		// given
		mux := NewChiRouter(logger, nil)
		mux.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("boom") })
		rec := httptest.NewRecorder()

		// when
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		// then
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("cors preflight for allowed origin", func(t *testing.T) {
		// given
		mux := NewChiRouter(logger, []string{"http://localhost:8100"})
		mux.Post("/products", func(w http.ResponseWriter, r *http.Request) {})
		req := httptest.NewRequest(http.MethodOptions, "/products", nil)
		req.Header.Set("Origin", "http://localhost:8100")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		// when
		mux.ServeHTTP(rec, req)

		// then
		require.Equal(t, "http://localhost:8100", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
