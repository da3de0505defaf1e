/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package client is a Go client for the tokenizer server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/text/encoding/htmlindex"
	"k8s.io/klog/v2"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/mode"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/response"
)

const (
	tokenizePath = "/tokenizer/tokenize"
	modesPath    = "/debug/modes"
	latticePath  = "/debug/lattice"

	defaultTimeout  = 30 * time.Second
	defaultRetryMax = 3
)

// APIError is a non 2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tokenizer server returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL *url.URL
	http    *retryablehttp.Client
}

type Option func(*retryablehttp.Client)

func WithRetryMax(n int) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax = n
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.HTTPClient.Timeout = d
	}
}

func WithRetryWait(min, max time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = min
		c.RetryWaitMax = max
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server address %q: scheme must be http or https", baseURL)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = defaultRetryMax
	rc.HTTPClient.Timeout = defaultTimeout
	rc.Logger = klogAdapter{}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{baseURL: u, http: rc}, nil
}

// checkRetry retries connection failures and the statuses a loading or
// overloaded server answers with. Tokenization failures are not retried.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// Tokenize sends text as a JSON request. The server percent-decodes JSON
// text, so it is escaped as UTF-8 first.
func (c *Client) Tokenize(ctx context.Context, text string, m int) (*response.TokenizationResponse, error) {
	body, err := json.Marshal(map[string]interface{}{
		"text":     url.QueryEscape(text),
		"encoding": "utf-8",
		"mode":     m,
	})
	if err != nil {
		return nil, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(tokenizePath, nil), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp response.TokenizationResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TokenizeEncoded sends text percent-encoded in the given charset as a query
// request, the way browser forms submit non UTF-8 text.
func (c *Client) TokenizeEncoded(ctx context.Context, text, encoding string, m int) (*response.TokenizationResponse, error) {
	escaped, err := escape(text, encoding)
	if err != nil {
		return nil, err
	}
	query := "text=" + escaped + "&encoding=" + url.QueryEscape(encoding) + "&mode=" + strconv.Itoa(m)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(tokenizePath, nil)+"?"+query, nil)
	if err != nil {
		return nil, err
	}

	var resp response.TokenizationResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Modes(ctx context.Context) ([]mode.Entry, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(modesPath, nil), nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Modes []mode.Entry `json:"modes"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return resp.Modes, nil
}

// Lattice returns the raw lattice graph of text.
func (c *Client) Lattice(ctx context.Context, text string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(latticePath, url.Values{"text": {text}}), nil)
	if err != nil {
		return "", err
	}
	data, err := c.do(req)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) doJSON(req *retryablehttp.Request, out interface{}) error {
	data, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(req *retryablehttp.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
		}
		return nil, apiErr
	}
	return data, nil
}

func escape(text, encoding string) (string, error) {
	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return "", fmt.Errorf("unsupported encoding %q: %w", encoding, err)
	}
	encoded, err := enc.NewEncoder().String(text)
	if err != nil {
		return "", fmt.Errorf("cannot encode text as %s: %w", encoding, err)
	}
	return url.QueryEscape(encoded), nil
}

// klogAdapter routes retryablehttp logs to klog.
type klogAdapter struct{}

func (klogAdapter) Error(msg string, keysAndValues ...interface{}) {
	klog.ErrorS(nil, msg, keysAndValues...)
}

func (klogAdapter) Info(msg string, keysAndValues ...interface{}) {
	klog.V(4).InfoS(msg, keysAndValues...)
}

func (klogAdapter) Debug(msg string, keysAndValues ...interface{}) {
	klog.V(6).InfoS(msg, keysAndValues...)
}

func (klogAdapter) Warn(msg string, keysAndValues ...interface{}) {
	klog.V(2).InfoS(msg, keysAndValues...)
}
