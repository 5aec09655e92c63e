package vault

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	mu      sync.Mutex
	headers []http.Header
	paths   []string
}

func (r *recorded) handler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		io.Copy(io.Discard, req.Body)
		r.mu.Lock()
		r.headers = append(r.headers, req.Header.Clone())
		r.paths = append(r.paths, req.URL.RequestURI())
		r.mu.Unlock()
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func (r *recorded) last() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.headers[len(r.headers)-1]
}

func (r *recorded) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.headers)
}

func newTestGateway(t *testing.T, auth, files http.Handler) (*Gateway, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	router := NewServiceRouter(newServer(t, auth).URL, newServer(t, files).URL)
	return NewGateway(nil, router, store, nil), store
}

func TestGatewayAttachesHeaders(t *testing.T) {
	var files recorded
	g, store := newTestGateway(t, http.NotFoundHandler(), files.handler(http.StatusOK, "[]"))
	ctx := context.Background()

	resp, err := g.Send(ctx, Request{Path: "/files"})
	require.NoError(t, err)
	resp.Body.Close()

	h := files.last()
	assert.Empty(t, h.Get("Authorization"), "no credential means no bearer header")
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	_, err = uuid.Parse(h.Get("X-Request-ID"))
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(h.Get("User-Agent"), "file-vault-client/"))

	require.NoError(t, store.Set(ctx, "tok"))
	resp, err = g.Send(ctx, Request{Path: "/files", Header: http.Header{"Content-Type": {"text/plain"}}})
	require.NoError(t, err)
	resp.Body.Close()

	h = files.last()
	assert.Equal(t, "Bearer tok", h.Get("Authorization"))
	assert.Equal(t, "text/plain", h.Get("Content-Type"), "caller header overrides the default")
}

func TestGatewayRoutesByPath(t *testing.T) {
	var auth, files recorded
	g, _ := newTestGateway(t, auth.handler(http.StatusOK, "{}"), files.handler(http.StatusOK, "[]"))
	ctx := context.Background()

	for _, path := range []string{"/login", "/register", "/protected", "/files", "/admin/files", "/files/3/share"} {
		resp, err := g.Send(ctx, Request{Method: http.MethodPost, Path: path})
		require.NoError(t, err, path)
		resp.Body.Close()
	}

	assert.Equal(t, []string{"/login", "/register", "/protected"}, auth.paths)
	assert.Equal(t, []string{"/files", "/admin/files", "/files/3/share"}, files.paths)
}

func TestGatewayUnauthorizedClearsCredential(t *testing.T) {
	var files recorded
	g, store := newTestGateway(t, http.NotFoundHandler(), files.handler(http.StatusUnauthorized, "token expired"))
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "stale"))

	hookCalls := 0
	g.onUnauthorized = func() { hookCalls++ }

	resp, err := g.Send(ctx, Request{Path: "/files"})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, hookCalls)

	_, ok, err := store.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "401 must remove the credential")

	_, err = g.Send(ctx, Request{Path: "/files"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, files.last().Get("Authorization"), "later requests go out without a credential")
}

// detachedRemoveStore records whether Remove was called with a context
// that can still be cancelled.
type detachedRemoveStore struct {
	MemoryStore
	cancellable bool
}

func (s *detachedRemoveStore) Remove(ctx context.Context) error {
	s.cancellable = ctx.Done() != nil
	return s.MemoryStore.Remove(ctx)
}

func TestGatewayClearIgnoresCancellation(t *testing.T) {
	var files recorded
	store := &detachedRemoveStore{}
	router := NewServiceRouter("http://unused", newServer(t, files.handler(http.StatusUnauthorized, "")).URL)
	g := NewGateway(nil, router, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Set(ctx, "stale"))

	_, err := g.Send(ctx, Request{Path: "/files"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, store.cancellable)

	_, ok, _ := store.Get(ctx)
	assert.False(t, ok)
}

func TestGatewayRequestFailed(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"server error with body", http.StatusInternalServerError, "database unavailable\n", "database unavailable"},
		{"not found without body", http.StatusNotFound, "", "Not Found"},
		{"forbidden", http.StatusForbidden, "admin only", "admin only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var files recorded
			g, store := newTestGateway(t, http.NotFoundHandler(), files.handler(tt.status, tt.body))
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, "tok"))

			_, err := g.Send(ctx, Request{Path: "/files"})
			var rf *RequestFailedError
			require.True(t, errors.As(err, &rf))
			assert.Equal(t, tt.status, rf.Status)
			assert.Equal(t, tt.message, rf.Message)
			assert.False(t, errors.Is(err, ErrUnauthorized))

			_, ok, _ := store.Get(ctx)
			assert.True(t, ok, "only a 401 clears the credential")
		})
	}
}

type failingStore struct{ MemoryStore }

func (*failingStore) Get(context.Context) (Credential, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestGatewayStoreError(t *testing.T) {
	var files recorded
	router := NewServiceRouter("http://unused", newServer(t, files.handler(http.StatusOK, "[]")).URL)
	g := NewGateway(nil, router, &failingStore{}, nil)

	_, err := g.Send(context.Background(), Request{Path: "/files"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read credential")
	assert.Zero(t, files.count())
}

func TestConcurrentUnauthorizedSparesInFlightRequest(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	searchAuth := make(chan string, 1)

	files := http.NewServeMux()
	files.HandleFunc("GET /files", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		io.WriteString(w, `[{"id":1,"filename":"a.txt"}]`)
	})
	files.HandleFunc("GET /admin/files", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	files.HandleFunc("GET /files/search", func(w http.ResponseWriter, r *http.Request) {
		searchAuth <- r.Header.Get("Authorization")
		io.WriteString(w, "[]")
	})

	c, store := newTestClient(t, nil, files)
	t.Cleanup(unblock)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, makeToken(t, map[string]any{"username": "bob"})))
	require.Equal(t, ViewUserDashboard, c.Session().ResolveInitialView(ctx))

	type result struct {
		files []FileMetadata
		err   error
	}
	inflight := make(chan result, 1)
	go func() {
		files, err := c.ListFiles(ctx)
		inflight <- result{files, err}
	}()
	<-entered

	_, err := c.AdminListFiles(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, ViewAnonymous, c.Session().Current())

	unblock()
	res := <-inflight
	require.NoError(t, res.err, "the in-flight request is not cancelled by the 401")
	require.Len(t, res.files, 1)
	assert.Equal(t, "a.txt", res.files[0].Filename)

	_, err = c.SearchFiles(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, <-searchAuth)
}

func TestTimeoutBoundsHeadersNotBodies(t *testing.T) {
	files := http.NewServeMux()
	files.HandleFunc("GET /files/{id}/download", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "1" {
			time.Sleep(300 * time.Millisecond)
		}
		io.WriteString(w, "head")
		w.(http.Flusher).Flush()
		time.Sleep(300 * time.Millisecond)
		io.WriteString(w, "tail")
	})
	srv := newServer(t, files)
	c := New("http://auth.invalid", srv.URL, WithTimeout(100*time.Millisecond))
	ctx := context.Background()

	var sb strings.Builder
	_, err := c.DownloadTo(ctx, 2, &sb)
	require.NoError(t, err, "a body slower than the timeout still completes")
	assert.Equal(t, "headtail", sb.String())

	_, err = c.Download(ctx, 1)
	assert.Error(t, err, "headers slower than the timeout fail")
}
