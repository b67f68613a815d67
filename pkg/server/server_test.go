package server

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raterudder/linky/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	srv := &Server{fetcher: &mockFetcher{}, serverName: "linky"}
	h := srv.setupHandler()

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "linky", w.Header().Get("Server"))
}

func TestRequestID(t *testing.T) {
	srv := &Server{fetcher: &mockFetcher{}}
	h := srv.setupHandler()

	t.Run("Generated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/healthz", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	})

	t.Run("Echoed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/healthz", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	})
}

func TestGzip(t *testing.T) {
	sess := types.Session{IPlanetDirectoryPro: "A", JSESSIONID: "B"}
	values := make([]any, 1000)
	for i := range values {
		values[i] = float64(i)
	}
	f := &mockFetcher{}
	f.On("Login", mock.Anything).Return(sess, nil)
	f.On("Get", mock.Anything, sess, types.ResourceYear, "", "").Return(map[string]any{"data": values}, true, nil)

	srv := &Server{fetcher: f}
	h := srv.setupHandler()

	req := httptest.NewRequest("GET", "/api/consumption/year", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	b, err := io.ReadAll(zr)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, map[string]any{"data": values}, got)
}

func TestRun(t *testing.T) {
	srv := &Server{
		fetcher:    &mockFetcher{},
		listenAddr: "127.0.0.1:0",
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	// give the server a moment to start before shutting it down
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunListenError(t *testing.T) {
	srv := &Server{
		fetcher:    &mockFetcher{},
		listenAddr: "not-an-address",
	}
	err := srv.Run(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "server error"))
}
