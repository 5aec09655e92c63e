package vault

import (
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = 120 * time.Second

// Option configures the SDK client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	store      TokenStore
	logger     *slog.Logger
}

// New creates a client for the given auth and file service base addresses.
// Without WithTokenStore the credential lives only in memory.
func New(authAddr, fileAddr string, opts ...Option) *Client {
	cfg := clientConfig{
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.httpClient == nil {
		cfg.httpClient = newHTTPClient(cfg.timeout)
	}
	if cfg.store == nil {
		cfg.store = NewMemoryStore()
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger()
	}

	router := NewServiceRouter(authAddr, fileAddr)
	gateway := NewGateway(cfg.httpClient, router, cfg.store, cfg.logger)
	session := NewSessionController(cfg.store, cfg.logger)
	gateway.onUnauthorized = func() { session.OnUnauthorized() }

	return &Client{
		router:  router,
		gateway: gateway,
		uploads: NewUploadPipeline(gateway, cfg.store, router.FileAddr(), cfg.logger),
		session: session,
		store:   cfg.store,
		logger:  cfg.logger.With(slog.String("component", "vault_client")),
	}
}

// newHTTPClient has no overall Timeout, which would also cut off long
// transfers while the body is still streaming.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: transport}
}

// Client is the SDK entry point for the File Vault services.
type Client struct {
	router  *ServiceRouter
	gateway *Gateway
	uploads *UploadPipeline
	session *SessionController
	store   TokenStore
	logger  *slog.Logger
}

// Gateway exposes the request gateway for endpoints the client does not wrap.
func (c *Client) Gateway() *Gateway { return c.gateway }

// Session exposes the session controller.
func (c *Client) Session() *SessionController { return c.session }

// Router exposes the service router.
func (c *Client) Router() *ServiceRouter { return c.router }

// Store exposes the token store.
func (c *Client) Store() TokenStore { return c.store }

// WithHTTPClient overrides the HTTP client. It takes precedence over
// WithTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *clientConfig) {
		if hc != nil {
			cfg.httpClient = hc
		}
	}
}

// WithTimeout bounds how long a request waits for response headers. Bodies
// of uploads and downloads stream without a deadline; bound those with the
// request context.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *clientConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithTokenStore sets where the credential is persisted.
func WithTokenStore(store TokenStore) Option {
	return func(cfg *clientConfig) {
		if store != nil {
			cfg.store = store
		}
	}
}

// WithLogger sets the logger for the client and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *clientConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
