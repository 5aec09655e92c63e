package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eddisonso.com/file-vault/internal/buildinfo"
	"github.com/google/uuid"
)

const maxErrorBody = 64 << 10

// Request is a logical request. It carries no backend address; the gateway
// resolves one from Path.
type Request struct {
	Method string
	Path   string
	Body   io.Reader
	Header http.Header
}

// Gateway issues every request of the client. It attaches the bearer
// credential and is the single place that clears it on a 401.
type Gateway struct {
	httpClient     *http.Client
	router         *ServiceRouter
	store          TokenStore
	logger         *slog.Logger
	onUnauthorized func()
}

// NewGateway returns a gateway. A nil logger discards output.
func NewGateway(httpClient *http.Client, router *ServiceRouter, store TokenStore, logger *slog.Logger) *Gateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Gateway{
		httpClient: httpClient,
		router:     router,
		store:      store,
		logger:     logger.With(slog.String("component", "gateway")),
	}
}

// Send routes r by path and issues it.
//
// A 401 removes the stored credential and returns ErrUnauthorized. Any
// other non-2xx returns *RequestFailedError. Otherwise the raw response is
// returned and the caller must close its body.
func (g *Gateway) Send(ctx context.Context, r Request) (*http.Response, error) {
	return g.sendTo(ctx, g.router.Resolve(r.Path), r)
}

func (g *Gateway) sendTo(ctx context.Context, baseAddr string, r Request) (*http.Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	body := r.Body
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, baseAddr+r.Path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, r.Path, err)
	}

	token, ok, err := g.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, values := range r.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if ok {
		req.Header.Set("Authorization", "Bearer "+string(token))
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, r.Path, err)
	}

	g.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", r.Path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		g.clearCredential(ctx, r.Path)
		return nil, ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &RequestFailedError{
			Status:  resp.StatusCode,
			Message: failureMessage(resp.StatusCode, data),
		}
	}

	return resp, nil
}

// clearCredential runs even when ctx is already cancelled; the 401 has
// been received and the session is dead either way.
func (g *Gateway) clearCredential(ctx context.Context, path string) {
	if err := g.store.Remove(context.WithoutCancel(ctx)); err != nil {
		g.logger.Warn("failed to clear credential",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	} else {
		g.logger.Info("credential cleared after unauthorized response",
			slog.String("path", path),
		)
	}
	if g.onUnauthorized != nil {
		g.onUnauthorized()
	}
}

func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &RequestFailedError{
			Status:  resp.StatusCode,
			Message: "decode response: " + err.Error(),
		}
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func trimBody(body []byte) string {
	return strings.TrimSpace(string(body))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
