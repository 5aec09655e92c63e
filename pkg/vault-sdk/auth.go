package vault

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Register creates an account on the auth service. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Message, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.gateway.Send(ctx, Request{Method: http.MethodPost, Path: "/register", Body: body})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	var msg Message
	if err := decodeJSON(resp, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Login exchanges credentials for a token, stores it, and returns the view
// the session controller selects for it.
func (c *Client) Login(ctx context.Context, username, password string) (View, error) {
	body, err := jsonBody(loginRequest{Username: username, Password: password})
	if err != nil {
		return ViewAnonymous, err
	}
	resp, err := c.gateway.Send(ctx, Request{Method: http.MethodPost, Path: "/login", Body: body})
	if err != nil {
		return ViewAnonymous, fmt.Errorf("login: %w", err)
	}

	var lr LoginResponse
	if err := decodeJSON(resp, &lr); err != nil {
		return ViewAnonymous, err
	}
	if lr.Token == "" {
		return ViewAnonymous, &RequestFailedError{Status: resp.StatusCode, Message: "login response missing token"}
	}

	if err := c.store.Set(ctx, Credential(lr.Token)); err != nil {
		return ViewAnonymous, fmt.Errorf("store credential: %w", err)
	}

	view := c.session.OnLoginSuccess(ctx)
	c.logger.Info("logged in",
		slog.String("username", username),
		slog.String("view", view.String()),
	)
	return view, nil
}

// Logout removes the stored credential.
func (c *Client) Logout(ctx context.Context) (View, error) {
	return c.session.Logout(ctx)
}

// Protected probes the auth service with the current credential.
func (c *Client) Protected(ctx context.Context) (*Message, error) {
	resp, err := c.gateway.Send(ctx, Request{Method: http.MethodGet, Path: "/protected"})
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := decodeJSON(resp, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
