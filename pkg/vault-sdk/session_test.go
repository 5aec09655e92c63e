package vault

import (
	"context"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInitialView(t *testing.T) {
	tests := []struct {
		name   string
		token  func(t *testing.T) Credential
		want   View
		claims bool
	}{
		{
			name:  "no credential",
			token: func(*testing.T) Credential { return "" },
			want:  ViewAnonymous,
		},
		{
			name: "admin",
			token: func(t *testing.T) Credential {
				return makeToken(t, jwt.MapClaims{"username": "alice", "role": "admin"})
			},
			want:   ViewAdminDashboard,
			claims: true,
		},
		{
			name: "explicit user",
			token: func(t *testing.T) Credential {
				return makeToken(t, jwt.MapClaims{"username": "eve", "role": "user"})
			},
			want:   ViewUserDashboard,
			claims: true,
		},
		{
			name: "missing role",
			token: func(t *testing.T) Credential {
				return makeToken(t, jwt.MapClaims{"username": "bob"})
			},
			want:   ViewUserDashboard,
			claims: true,
		},
		{
			name:  "undecodable credential",
			token: func(*testing.T) Credential { return "opaque-session-token" },
			want:  ViewUserDashboard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore()
			if tok := tt.token(t); tok != "" {
				require.NoError(t, store.Set(ctx, tok))
			}
			s := NewSessionController(store, nil)

			assert.Equal(t, tt.want, s.ResolveInitialView(ctx))
			assert.Equal(t, tt.want, s.Current())
			assert.Equal(t, tt.claims, s.Claims() != nil)

			// A fresh login with the same credential lands on the same view.
			assert.Equal(t, tt.want, NewSessionController(store, nil).OnLoginSuccess(ctx))
		})
	}
}

func TestSessionLogout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, makeToken(t, jwt.MapClaims{"username": "alice", "role": "admin"})))
	s := NewSessionController(store, nil)
	require.Equal(t, ViewAdminDashboard, s.ResolveInitialView(ctx))

	view, err := s.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, ViewAnonymous, view)
	assert.Nil(t, s.Claims())
	_, ok, _ := store.Get(ctx)
	assert.False(t, ok)
}

func TestSessionFollowsUnauthorized(t *testing.T) {
	files := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, store := newTestClient(t, nil, files)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, makeToken(t, jwt.MapClaims{"username": "bob"})))
	require.Equal(t, ViewUserDashboard, c.Session().ResolveInitialView(ctx))

	_, err := c.ListFiles(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, ViewAnonymous, c.Session().Current())
}

func TestViewString(t *testing.T) {
	assert.Equal(t, "anonymous", ViewAnonymous.String())
	assert.Equal(t, "user-dashboard", ViewUserDashboard.String())
	assert.Equal(t, "admin-dashboard", ViewAdminDashboard.String())
}
