// Package webflow talks to the Webflow CMS REST API: one authenticated
// request helper, a pagination helper on top of it, option loaders for
// selection UIs, and the field-value coercion used when writing items.
package webflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL       = "https://api.webflow.com/v2"
	DefaultAcceptVersion = "2.0.0"
)

// Requester issues a single API request. *Client implements it.
type Requester interface {
	Request(ctx context.Context, opts RequestOptions) (*Response, error)
}

// Client is a thin Webflow API client. Authentication is the job of the
// supplied http.Client (see internal/credentials).
type Client struct {
	httpClient    *http.Client
	baseURL       string
	acceptVersion string
	log           *zap.SugaredLogger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithAcceptVersion(v string) ClientOption {
	return func(c *Client) {
		if v != "" {
			c.acceptVersion = v
		}
	}
}

func WithLogger(l *zap.SugaredLogger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient returns a client that sends requests through httpClient, or
// http.DefaultClient when nil.
func NewClient(httpClient *http.Client, opts ...ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient:    httpClient,
		baseURL:       DefaultBaseURL,
		acceptVersion: DefaultAcceptVersion,
		log:           zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// RequestOptions describes one API call. URI, when set, replaces
// BaseURL+Resource. Empty Body and Query are not sent.
type RequestOptions struct {
	Method   string
	Resource string
	URI      string
	Body     map[string]any
	Query    map[string]any
}

// Response is the full response of a successful call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Object returns the body as a JSON object; an empty body yields an empty map.
func (r *Response) Object() (map[string]any, error) {
	obj := map[string]any{}
	if err := r.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}

// Request sends one request. Non-2xx responses become *APIError (body
// present) or *HTTPError (no body). Transport errors are returned as-is.
func (c *Client) Request(ctx context.Context, opts RequestOptions) (*Response, error) {
	target := opts.URI
	if target == "" {
		target = c.baseURL + opts.Resource
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parsing request url %q: %w", target, err)
	}
	if len(opts.Query) > 0 {
		q := u.Query()
		if err := encodeQuery(q, opts.Query); err != nil {
			return nil, err
		}
		u.RawQuery = q.Encode()
	}

	var bodyReader io.Reader
	if len(opts.Body) > 0 {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Version", c.acceptVersion)
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debugw("webflow request failed", "method", method, "url", u.String(), "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.log.Debugw("webflow request",
		"method", method,
		"url", u.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, body)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func encodeQuery(q url.Values, params map[string]any) error {
	for key, value := range params {
		if value == nil {
			continue
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				s, err := cast.ToStringE(rv.Index(i).Interface())
				if err != nil {
					return fmt.Errorf("encoding query parameter %q: %w", key, err)
				}
				q.Add(key, s)
			}
			continue
		}
		s, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("encoding query parameter %q: %w", key, err)
		}
		q.Set(key, s)
	}
	return nil
}
