package stage

import (
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diegfern/kegg-api-async/internal/kegg"
)

// fakeKEGG serves canned responses by path and counts the requests it gets.
type fakeKEGG struct {
	srv      *httptest.Server
	requests atomic.Int64
}

func newFakeKEGG(t *testing.T, responses map[string]string) *fakeKEGG {
	t.Helper()
	f := &fakeKEGG{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)

			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeKEGG) client(t *testing.T) *kegg.Client {
	t.Helper()

	return kegg.NewClient(kegg.ClientConfig{
		BaseURL:      f.srv.URL,
		Timeout:      5 * time.Second,
		MaxPerSecond: 1000,
		Retries:      1,
	}, zap.NewNop())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(b)
}
