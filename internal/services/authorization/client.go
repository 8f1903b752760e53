// Package authorization calls the external authorization oracle that must
// approve every transfer before any balance mutation.
package authorization

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrUnauthorized means the oracle explicitly denied the transfer.
	ErrUnauthorized = errors.New("transfer not authorized")
	// ErrServiceUnavailable means the oracle could not produce a decision.
	ErrServiceUnavailable = errors.New("authorization service unavailable")
)

const (
	defaultTimeout = 5 * time.Second
	maxRetries     = 2
	retryBackoff   = 100 * time.Millisecond
)

type authorizationResponse struct {
	Data struct {
		Authorization *bool `json:"authorization"`
	} `json:"data"`
}

// Client queries the authorization oracle over HTTP.
type Client struct {
	url    string
	http   *http.Client
	logger *logrus.Logger
}

// NewClient creates an authorization client for the given endpoint.
func NewClient(url string, logger *logrus.Logger) *Client {
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: logger,
	}
}

// Authorize asks the oracle for permission. Transport errors and 5xx
// responses are retried with a fixed backoff; an explicit denial is terminal
// and never retried.
func (c *Client) Authorize(ctx context.Context) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return ErrServiceUnavailable
			}
		}

		retry, err := c.attempt(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}

		c.logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("authorization attempt failed, retrying")
	}

	return lastErr
}

// attempt performs one call. The boolean reports whether the failure is
// transient and worth retrying.
func (c *Client) attempt(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return false, ErrServiceUnavailable
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, ErrServiceUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return true, ErrServiceUnavailable
	}

	// An explicit denial may arrive with a non-2xx status; it is a business
	// decision, not a dependency fault, and is never retried.
	var decoded authorizationResponse
	if json.Unmarshal(body, &decoded) == nil && decoded.Data.Authorization != nil && !*decoded.Data.Authorization {
		return false, ErrUnauthorized
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return true, ErrServiceUnavailable
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= 300 {
		c.logger.WithField("status", resp.StatusCode).Warn("authorization service returned unexpected status")
		return false, ErrServiceUnavailable
	}

	if decoded.Data.Authorization == nil {
		c.logger.Warn("authorization service returned malformed payload")
		return false, ErrServiceUnavailable
	}
	return false, nil
}
