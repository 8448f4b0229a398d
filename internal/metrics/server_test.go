package metrics

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zhulik/pal"

	"storyd/internal/config"
)

type staticCheck struct {
	err error
}

func (c *staticCheck) HealthCheck(context.Context) error {
	return c.err
}

func newServer(t *testing.T, checkErr error) *Server {
	t.Helper()

	p := pal.New(pal.Provide(&staticCheck{err: checkErr})).
		InitTimeout(time.Second).
		HealthCheckTimeout(time.Second).
		ShutdownTimeout(time.Second)
	require.NoError(t, p.Init(t.Context()))

	return &Server{
		Logger: slog.New(slog.DiscardHandler),
		Config: &config.Config{},
		Pal:    p,
	}
}

func TestServer_handleHealth(t *testing.T) {
	t.Parallel()

	t.Run("healthy container", func(t *testing.T) {
		t.Parallel()

		s := newServer(t, nil)

		rec := httptest.NewRecorder()
		s.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

		require.Equal(t, 200, rec.Code)
	})

	t.Run("failing service turns the endpoint red", func(t *testing.T) {
		t.Parallel()

		s := newServer(t, context.DeadlineExceeded)

		rec := httptest.NewRecorder()
		s.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

		require.Equal(t, 500, rec.Code)
	})
}
