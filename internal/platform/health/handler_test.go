package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillchain/internal/sequence"
	id "skillchain/pkg/domain"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLiveness(t *testing.T) {
	w := serve(New("test"), "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("all checks up", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("state", func(context.Context) error { return nil })

		w := serve(h, "/health/ready")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready","checks":{"state":"up"}}`, w.Body.String())
	})

	t.Run("failing check returns 503", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("state", func(context.Context) error { return nil })
		h.RegisterCheck("kafka", func(context.Context) error { return errors.New("no brokers") })

		w := serve(h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "down: no brokers", resp.Checks["kafka"])
		assert.Equal(t, "up", resp.Checks["state"])
	})

	t.Run("checks are bounded by the timeout", func(t *testing.T) {
		h := New("test")
		h.checkTimeout = 10 * time.Millisecond
		h.RegisterCheck("slow", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		w := serve(h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("checks run concurrently", func(t *testing.T) {
		h := New("test")
		release := make(chan struct{})
		// Each check waits for the other, so a sequential run would time out.
		h.RegisterCheck("database", func(ctx context.Context) error {
			select {
			case release <- struct{}{}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		h.RegisterCheck("redis", func(ctx context.Context) error {
			select {
			case <-release:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		w := serve(h, "/health/ready")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready","checks":{"database":"up","redis":"up"}}`, w.Body.String())
	})
}

func TestStatus(t *testing.T) {
	w := serve(New("staging"), "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "staging", resp.Environment)
	assert.Equal(t, Version, resp.Version)
	assert.Nil(t, resp.BlockNumber)
}

func TestStatusReportsBlock(t *testing.T) {
	h := New("dev")
	h.SetBlockSource(sequence.NewManual(17))

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(serve(h, "/health").Body.Bytes(), &resp))
	require.NotNil(t, resp.BlockNumber)
	assert.Equal(t, id.BlockNumber(17), *resp.BlockNumber)
}
