package vault

import (
	"context"
	"log/slog"
	"sync"
)

// View is the screen the surrounding UI should show.
type View int

const (
	ViewAnonymous View = iota
	ViewUserDashboard
	ViewAdminDashboard
)

func (v View) String() string {
	switch v {
	case ViewUserDashboard:
		return "user-dashboard"
	case ViewAdminDashboard:
		return "admin-dashboard"
	default:
		return "anonymous"
	}
}

// SessionController decides which view to show from the stored credential.
// Startup and post-login share one decision so a resumed session and a fresh
// login always land on the same view.
type SessionController struct {
	store  TokenStore
	logger *slog.Logger

	mu      sync.RWMutex
	current View
	claims  *Claims
}

// NewSessionController returns a controller in the anonymous view.
func NewSessionController(store TokenStore, logger *slog.Logger) *SessionController {
	if logger == nil {
		logger = discardLogger()
	}
	return &SessionController{
		store:  store,
		logger: logger.With(slog.String("component", "session")),
	}
}

// ResolveInitialView restores a session at process start.
func (s *SessionController) ResolveInitialView(ctx context.Context) View {
	return s.resolve(ctx)
}

// OnLoginSuccess selects the view right after a successful login.
func (s *SessionController) OnLoginSuccess(ctx context.Context) View {
	return s.resolve(ctx)
}

// Logout removes the credential and returns to the anonymous view. The view
// changes even when removal fails; the error is returned for reporting.
func (s *SessionController) Logout(ctx context.Context) (View, error) {
	err := s.store.Remove(ctx)
	s.set(ViewAnonymous, nil)
	return ViewAnonymous, err
}

// OnUnauthorized returns to the anonymous view. The gateway has already
// cleared the credential.
func (s *SessionController) OnUnauthorized() View {
	s.set(ViewAnonymous, nil)
	return ViewAnonymous
}

// Current returns the last selected view.
func (s *SessionController) Current() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Claims returns the claims the current view was selected from, or nil.
func (s *SessionController) Claims() *Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

func (s *SessionController) resolve(ctx context.Context) View {
	token, ok, err := s.store.Get(ctx)
	if err != nil {
		s.logger.Warn("read credential", slog.String("error", err.Error()))
		ok = false
	}
	if !ok {
		s.set(ViewAnonymous, nil)
		return ViewAnonymous
	}

	claims := DecodeClaims(token)
	view := viewForRole(claims.EffectiveRole())
	s.set(view, claims)
	return view
}

func viewForRole(role Role) View {
	if role == RoleAdmin {
		return ViewAdminDashboard
	}
	return ViewUserDashboard
}

func (s *SessionController) set(v View, claims *Claims) {
	s.mu.Lock()
	s.current = v
	s.claims = claims
	s.mu.Unlock()
}
