package request

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillchain/pkg/requestcontext"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequestID(t *testing.T) {
	t.Run("generates UUID when no header provided", func(t *testing.T) {
		var capturedID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedID = requestcontext.RequestID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credentials/0", nil))

		assert.Len(t, capturedID, 36)
		assert.Equal(t, capturedID, w.Header().Get("X-Request-ID"))
	})

	t.Run("accepts valid client-provided ID", func(t *testing.T) {
		var capturedID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedID = requestcontext.RequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/credentials/0", nil)
		req.Header.Set("X-Request-ID", "trace.span_1234")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "trace.span_1234", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "trace.span_1234", capturedID)
	})

	t.Run("replaces unsafe IDs", func(t *testing.T) {
		for _, unsafe := range []string{
			strings.Repeat("a", MaxRequestIDLength+1),
			"valid\ninjected-log-line",
			"request id",
			`request"id`,
			"request;id",
			"request\x00id",
		} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", unsafe)
			w := httptest.NewRecorder()
			RequestID(http.HandlerFunc(okHandler)).ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			assert.NotEqual(t, unsafe, got)
			assert.Len(t, got, 36)
		}
	})

	t.Run("accepts ID at exactly max length", func(t *testing.T) {
		maxLengthID := strings.Repeat("a", MaxRequestIDLength)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", maxLengthID)
		w := httptest.NewRecorder()
		RequestID(http.HandlerFunc(okHandler)).ServeHTTP(w, req)

		assert.Equal(t, maxLengthID, w.Header().Get("X-Request-ID"))
	})
}

func TestClientIP(t *testing.T) {
	var captured string
	handler := ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.ClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.47:51234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.168.1.47", captured)
}

func TestRequestTime(t *testing.T) {
	var first, second time.Time
	handler := RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(5 * time.Millisecond)
		second = requestcontext.Now(r.Context())
	}))

	before := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, first, second, "reads within one request share a timestamp")
	assert.False(t, first.Before(before))
}

func TestAnonymizeIP(t *testing.T) {
	tests := map[string]string{
		"192.168.1.47":                 "192.168.1.0/24",
		"::ffff:10.1.2.3":              "10.1.2.0/24",
		"2001:db8:85a3::8a2e:370:7334": "2001:db8:85a3::/48",
		"":                             "unknown",
		"not-an-ip":                    "invalid",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, anonymizeIP(input), "input %q", input)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := chi.NewRouter()
	router.Use(RequestID, ClientIP, Logger(logger))
	router.Get("/credentials/{id}", okHandler)
	router.Get("/health", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/credentials/7", nil)
	req.RemoteAddr = "10.0.0.9:4000"
	router.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.Contains(t, line, `"route":"/credentials/{id}"`)
	assert.Contains(t, line, `"remote_addr_prefix":"10.0.0.0/24"`)
	assert.NotContains(t, line, "10.0.0.9")

	buf.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String(), "healthy probes are not logged")
}

func TestRecovery(t *testing.T) {
	handler := Recovery(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/credentials", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, w.Body.String())
}

func TestContentTypeJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		expected    int
	}{
		{"json post", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"missing header", http.MethodPost, "", http.StatusOK},
		{"form post", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"get ignores content type", http.MethodGet, "text/plain", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/credentials", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentTypeJSON(http.HandlerFunc(okHandler)).ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	read := func(body string) error {
		var readErr error
		handler := BodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, readErr = io.ReadAll(r.Body)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		return readErr
	}

	assert.NoError(t, read(strings.Repeat("x", 16)))

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, read(strings.Repeat("x", 17)), &maxErr)
}

type latencyRecorder struct {
	endpoints []string
}

func (l *latencyRecorder) ObserveEndpointLatency(endpoint string, _ float64) {
	l.endpoints = append(l.endpoints, endpoint)
}

func TestLatencyMiddleware(t *testing.T) {
	rec := &latencyRecorder{}
	router := chi.NewRouter()
	router.Use(LatencyMiddleware(rec))
	router.Get("/credentials/{id}/score", okHandler)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/credentials/1/score", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/credentials/2/score", nil))

	assert.Equal(t, []string{"/credentials/{id}/score", "/credentials/{id}/score"}, rec.endpoints)
}
