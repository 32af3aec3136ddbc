package kegg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(ClientConfig{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		MaxPerSecond: 1000,
		Retries:      3,
	}, zap.NewNop())
	c.backoffInitial = time.Millisecond

	return c
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/organism", r.URL.Path)
		_, _ = w.Write([]byte("T01001\thsa\tHomo sapiens\tEukaryotes\n"))
	}))
	defer srv.Close()

	body, err := testClient(t, srv.URL).Get(context.Background(), "/list/organism")
	require.NoError(t, err)
	assert.Equal(t, "T01001\thsa\tHomo sapiens\tEukaryotes\n", body)
}

func TestClientGetBacksOffOnThrottle(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusForbidden)

			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := testClient(t, srv.URL).Get(context.Background(), "/get/hsa00010")
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, int64(3), calls.Load())
}

func TestClientGetNotFound(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Get(context.Background(), "/get/nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1), calls.Load(), "a 404 must not be retried")
}

func TestClientGetUnexpectedStatus(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Get(context.Background(), "/get/hsa00010")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unexpected status 500")
	assert.Equal(t, int64(1), calls.Load(), "an unexpected status must not be retried")
}

func TestClientGetRetriesTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	_, err := testClient(t, srv.URL).Get(context.Background(), "/list/organism")
	require.Error(t, err)
}

func TestClientGetHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	c.backoffInitial = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/get/hsa00010")
	require.Error(t, err)
}

func TestClientDefaults(t *testing.T) {
	c := NewClient(ClientConfig{}, zap.NewNop())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 3, c.retries)
}
