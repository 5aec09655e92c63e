package vault

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test secret")

func makeToken(t *testing.T, claims jwt.MapClaims) Credential {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return Credential(signed)
}

func newServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// newTestClient wires a client to separate auth and file servers.
func newTestClient(t *testing.T, auth, files http.Handler) (*Client, *MemoryStore) {
	t.Helper()
	if auth == nil {
		auth = http.NotFoundHandler()
	}
	if files == nil {
		files = http.NotFoundHandler()
	}
	authSrv := newServer(t, auth)
	fileSrv := newServer(t, files)
	store := NewMemoryStore()
	return New(authSrv.URL, fileSrv.URL, WithTokenStore(store)), store
}
