package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const maxBackendBody = 1 << 20

// BackendClient talks to the payment status store over REST. Every call is
// bounded by timeout and carries a service token when the signer is enabled.
type BackendClient struct {
	baseURL string
	client  *http.Client
	signer  *TokenSigner
	timeout time.Duration
}

func NewBackendClient(baseURL string, client *http.Client, signer *TokenSigner, timeout time.Duration) *BackendClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = NewNoRedirectClient(timeout)
	}
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		signer:  signer,
		timeout: timeout,
	}
}

// NewNoRedirectClient returns a client that hands 3xx responses back to the
// caller. Following a redirect would replay a PUT as a GET.
func NewNoRedirectClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// call sends a request and returns the status code and the fully read body.
func (c *BackendClient) call(ctx context.Context, method, path string, body any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := c.signer.Sign()
	if err != nil {
		return 0, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return resp.StatusCode, nil, errors.Errorf("unexpected redirect (status %d) to %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBackendBody))
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "read response")
	}
	return resp.StatusCode, data, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// snippet trims an upstream body for logs and error messages.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
