package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	splists "github.com/smnsjas/go-splists"
)

// Config configures the HTTP transport.
type Config struct {
	// Username and Password enable HTTP basic authentication when Username is set.
	Username string
	Password string
	// Cookie is sent verbatim as the Cookie header, e.g. a FedAuth cookie.
	Cookie string
	// Timeout bounds a single attempt when the request sets none.
	Timeout            time.Duration
	InsecureSkipVerify bool
	// RateLimit is the sustained request rate in requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int
	Retry     RetryConfig
	UserAgent string
	// Client replaces the default http.Client when set.
	Client *http.Client
	Logger *zap.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:   60 * time.Second,
		Burst:     1,
		Retry:     DefaultRetryConfig(),
		UserAgent: splists.UserAgent,
	}
}

// HTTP is a Transport over net/http. It is safe for concurrent use.
type HTTP struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTTP creates an HTTP transport.
func NewHTTP(cfg Config) *HTTP {
	if cfg.UserAgent == "" {
		cfg.UserAgent = splists.UserAgent
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				// #nosec G402 -- opt-in for self-signed on-premises farms
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
			},
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &HTTP{cfg: cfg, client: client, logger: logger}
	if cfg.RateLimit > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	return t
}

// Send posts the request, retrying connection failures and transient
// statuses (429, 502, 503, 504) according to the retry policy.
func (t *HTTP) Send(ctx context.Context, req *Request) (*Response, error) {
	op := req.Operation
	if op == "" {
		op = "unknown"
	}
	start := time.Now()
	defer recordDuration(op, start)

	var resp *Response
	onRetry := func(attempt int, err error) {
		recordRetry(op)
		t.logger.Debug("retrying request",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	err := t.cfg.Retry.do(ctx, onRetry, func() error {
		r, err := t.attempt(ctx, op, req)
		if err != nil {
			return err
		}
		resp = r
		if transientStatus(r.StatusCode) {
			return retryable(&StatusError{Operation: op, StatusCode: r.StatusCode, Body: r.Body})
		}
		return nil
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && resp != nil {
			// retries exhausted on a transient status; hand back the last response
			return resp, nil
		}
		if !errors.Is(err, ErrTransport) {
			err = fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
		}
		return nil, err
	}
	return resp, nil
}

func (t *HTTP) attempt(ctx context.Context, op string, req *Request) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: rate limit: %v", ErrTransport, op, err)
		}
	}

	parent := ctx
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = t.cfg.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: build request: %v", ErrTransport, op, err)
	}
	for k, v := range req.Header {
		hreq.Header.Set(k, v)
	}
	hreq.Header.Set("User-Agent", t.cfg.UserAgent)
	if t.cfg.Username != "" {
		hreq.SetBasicAuth(t.cfg.Username, t.cfg.Password)
	}
	if t.cfg.Cookie != "" {
		hreq.Header.Set("Cookie", t.cfg.Cookie)
	}

	t.logger.Debug("sending request",
		zap.String("operation", op),
		zap.String("url", req.URL),
		zap.Int("bytes", len(req.Body)))

	hresp, err := t.client.Do(hreq)
	if err != nil {
		recordRequest(op, 0)
		err = fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
		if parent.Err() != nil {
			return nil, err
		}
		return nil, retryable(err)
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(hresp.Body)
	if err != nil {
		recordRequest(op, 0)
		return nil, retryable(fmt.Errorf("%w: %s: read body: %w", ErrTransport, op, err))
	}
	recordRequest(op, hresp.StatusCode)

	header := make(map[string]string, len(hresp.Header))
	for k := range hresp.Header {
		header[k] = hresp.Header.Get(k)
	}
	return &Response{StatusCode: hresp.StatusCode, Header: header, Body: body}, nil
}

// Close releases idle connections.
func (t *HTTP) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func transientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
