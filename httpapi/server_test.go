package httpapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanlong1004/lucida-flow/config"
	"github.com/ryanlong1004/lucida-flow/governor"
	"github.com/ryanlong1004/lucida-flow/httpapi"
	"github.com/ryanlong1004/lucida-flow/lucida"
)

const searchPage = `<html><script>const data = [{},{"data":{"results":{"success":true,"results":{"tracks":[
{"title":"Hotel California","artists":[{"name":"Eagles"}],"album":{"title":"Hotel California"},"url":"/track/1"}
]}}}}];</script></html>`

type nopFetcher struct{}

func (nopFetcher) FetchBinary(context.Context, string) ([]byte, string, string, error) {
	return []byte("data"), "track.flac", "audio/flac", nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func newHandler(t *testing.T, upstream string) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.BaseURL = upstream
	cfg.MinDelaySeconds = 0.001
	cfg.RequestTimeoutSeconds = 5
	client, err := lucida.New(cfg, nopFetcher{}, zerolog.Nop(), governor.WithSleepFunc(noSleep))
	require.NoError(t, err)
	return httpapi.New(client, "127.0.0.1:0", zerolog.Nop()).Handler()
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := newHandler(t, "https://lucida.to")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Exactly(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServices(t *testing.T) {
	t.Parallel()

	h := newHandler(t, "https://lucida.to")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/services", nil))

	require.Exactly(t, http.StatusOK, rec.Code)
	var body struct {
		Services []string `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Services, "tidal")
	assert.Len(t, body.Services, 7)
}

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, searchPage)
	}))
	defer srv.Close()

	h := newHandler(t, srv.URL)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"hotel california","service":"tidal"}`))
	h.ServeHTTP(rec, req)

	require.Exactly(t, http.StatusOK, rec.Code)
	var body lucida.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Exactly(t, "structured", body.Source)
	require.Len(t, body.Tracks, 1)
	assert.Exactly(t, "Hotel California", body.Tracks[0].Name)
}

func TestSearchEndpointValidation(t *testing.T) {
	t.Parallel()

	h := newHandler(t, "https://lucida.to")

	t.Run("MissingQuery", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"service":"tidal"}`))
		h.ServeHTTP(rec, req)
		assert.Exactly(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{not json`))
		h.ServeHTTP(rec, req)
		assert.Exactly(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownService", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"x","service":"napster"}`))
		h.ServeHTTP(rec, req)
		assert.Exactly(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInfoEndpointUpstreamTemplateChange(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html><body>template changed</body></html>")
	}))
	defer srv.Close()

	h := newHandler(t, srv.URL)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/info", strings.NewReader(`{"url":"https://tidal.com/track/1"}`))
	h.ServeHTTP(rec, req)

	assert.Exactly(t, http.StatusBadGateway, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	h := newHandler(t, "https://lucida.to")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Exactly(t, http.StatusOK, rec.Code)
	var body lucida.LimiterStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.TotalTracked)
	assert.Positive(t, body.Limits.PerMinute)
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.MinDelaySeconds = 0.001
	client, err := lucida.New(cfg, nopFetcher{}, zerolog.Nop())
	require.NoError(t, err)
	s := httpapi.New(client, "127.0.0.1:0", zerolog.Nop())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
