package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	log "github.com/kyma-project/gpu-pricing-collector/pkg/logger"
)

const (
	contentType          = "application/json"
	userAgent            = "gpu-pricing-collector"
	userAgentKeyHeader   = "User-Agent"
	contentTypeKeyHeader = "Content-Type"
	acceptKeyHeader      = "Accept"
	// statusTransportError is recorded when no response was received.
	statusTransportError = 0
	maxErrorBody         = 512
)

var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Client sends JSON requests to one provider API. It never retries.
type Client struct {
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
	name       string
}

func NewClient(name string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	httpClient := &http.Client{
		Transport: http.DefaultTransport,
		Timeout:   timeout,
	}

	return &Client{
		HTTPClient: httpClient,
		Logger:     logger,
		name:       name,
	}
}

// GetJSON decodes the response of a GET request to url into out.
func (c *Client) GetJSON(ctx context.Context, url string, headers http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to build request for %s", c.name)
	}

	return c.do(req, headers, out)
}

// PostJSON sends body encoded as JSON and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, headers http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode request body for %s", c.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to build request for %s", c.name)
	}

	req.Header.Set(contentTypeKeyHeader, contentType)

	return c.do(req, headers, out)
}

func (c *Client) do(req *http.Request, headers http.Header, out any) error {
	req.Header.Set(userAgentKeyHeader, userAgent)
	req.Header.Set(acceptKeyHeader, contentType)

	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	reqStartTime := time.Now()
	resp, err := c.HTTPClient.Do(req)
	duration := time.Since(reqStartTime)

	if err != nil {
		recordLatency(duration, statusTransportError, c.name)

		// the transport error repeats the full URL, query credentials included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}

		c.namedLogger().With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).
			Warnf("%s %s", req.Method, req.URL.Path)

		return pkgerrors.Wrapf(err, "failed to %s %s", req.Method, req.URL.Path)
	}

	// defer to close response body.
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.namedLogger().Warn(err)
		}
	}()

	recordLatency(duration, resp.StatusCode, c.name)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}

	c.namedLogger().Debugf("%s %s returned %d in %v", req.Method, req.URL.Path, resp.StatusCode, duration)

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrapf(err, "failed to decode response of %s %s", req.Method, req.URL.Path)
	}

	return nil
}

func (c *Client) namedLogger() *zap.SugaredLogger {
	return c.Logger.Named(c.name).With("component", "http-client")
}
