package lists

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	splists "github.com/smnsjas/go-splists"
	"github.com/smnsjas/go-splists/response"
	"github.com/smnsjas/go-splists/soap"
	"github.com/smnsjas/go-splists/transport"
)

// caller posts envelopes to one site.
type caller struct {
	siteURL string
	tr      transport.Transport
	logger  *zap.Logger
	timeout time.Duration
}

// call sends env and returns the body of a successful response. Transport
// errors are returned unchanged. Non-2xx responses become a *response.FaultError
// when they carry a fault, and ErrProtocol otherwise.
func (c *caller) call(ctx context.Context, env *soap.Envelope) ([]byte, error) {
	op := env.Operation()
	body, err := env.Bytes()
	if err != nil {
		return nil, err
	}
	url, err := splists.ServiceURL(c.siteURL, op.Service())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("soap request",
		zap.Stringer("operation", op),
		zap.String("url", url),
		zap.Int("bytes", len(body)))

	resp, err := c.tr.Send(ctx, &transport.Request{
		Operation: op.String(),
		Method:    http.MethodPost,
		URL:       url,
		Header:    soap.Headers(op),
		Body:      body,
		Timeout:   c.timeout,
	})
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		return resp.Body, nil
	}

	status := &transport.StatusError{Operation: op.String(), StatusCode: resp.StatusCode, Body: resp.Body}
	if ferr := response.CheckFault(resp.Body, op.String()); ferr != nil {
		var fe *response.FaultError
		if errors.As(ferr, &fe) {
			return nil, fmt.Errorf("%s: %w", op, fe)
		}
	}
	return nil, fmt.Errorf("%w: %w", response.ErrProtocol, status)
}
