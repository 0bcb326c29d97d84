package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexander-D-Karpov/ampwave/internal/config"
)

func newTestClient() *Client {
	cfg := config.Default()
	cfg.Fetch.Retries = 0
	cfg.Fetch.Timeout = 5
	return NewClient(cfg, zerolog.Nop())
}

func TestFetch_HTTPOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ampwave/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3 payload"))
	}))
	defer srv.Close()

	c := newTestClient()
	data, err := c.Fetch(context.Background(), srv.URL+"/track.mp3")
	require.NoError(t, err)
	assert.Equal(t, "ID3 payload", string(data))

	requests, failures := c.Stats()
	assert.EqualValues(t, 1, requests)
	assert.EqualValues(t, 0, failures)
}

func TestFetch_HTTPNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient()
	_, err := c.Fetch(context.Background(), srv.URL+"/missing.mp3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadStatus))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_AnySuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	body, err := newTestClient().Fetch(context.Background(), srv.URL+"/track.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), body)
}

func TestFetch_HTTPServerErrorKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient().Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestFetch_LocalPathAndFileURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0644))

	c := newTestClient()

	data, err := c.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))

	data, err = c.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))
}

func TestFetch_Errors(t *testing.T) {
	c := newTestClient()

	_, err := c.Fetch(context.Background(), "")
	assert.Error(t, err)

	_, err = c.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Fetch(ctx, "track.mp3")
	assert.ErrorIs(t, err, context.Canceled)
}
