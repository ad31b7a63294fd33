// Package api provides the HTTP request layer used to talk to the audio
// service: URL resolution, body normalization, error classification and
// response decoding all happen in Send.
package api

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

	"github.com/rs/zerolog/log"
)

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Tracker observes whether a request is in flight, e.g. a loading indicator.
type Tracker interface {
	Set(inFlight bool)
}

// TrackerFunc adapts a plain function to Tracker.
type TrackerFunc func(inFlight bool)

// Set calls f(inFlight).
func (f TrackerFunc) Set(inFlight bool) { f(inFlight) }

// RequestOptions describes a single call. Nothing here is retained after Send
// returns.
type RequestOptions struct {
	Method string
	// Body is sent as-is when it is an io.Reader (files, multipart payloads).
	// Strings and byte slices are sent verbatim, anything else is JSON encoded;
	// both get a JSON content type.
	Body   any
	Params url.Values
	Header http.Header
	// BaseURL overrides the client's endpoint when non-nil. An empty override
	// sends the path unresolved.
	BaseURL *string
	// Transport replaces the client's Doer for this call only.
	Transport   Doer
	Tracker     Tracker
	ParseAsText bool
}

// Response is a decoded success response. Body is nil when the service
// answered with an empty body.
type Response[T any] struct {
	Header http.Header
	Body   *T
}

// Client holds the endpoint and transport shared by every request.
type Client struct {
	baseURL    string
	httpClient Doer
	userAgent  string
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithHTTPClient sets the transport used for every request.
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithUserAgent sets the User-Agent header sent when the caller sets none.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client resolving relative paths against baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the endpoint relative paths resolve against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send issues one request and decodes the success body into T.
// Statuses outside 200-299 return an *APIError.
func Send[T any](ctx context.Context, c *Client, path string, opts RequestOptions) (*Response[T], error) {
	resp, fullURL, err := c.do(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
			URL:        fullURL,
		}
		// The payload is best effort; the error is raised either way.
		if data, err := decodeBody[any](resp, opts.ParseAsText); err == nil && data != nil {
			apiErr.Data = *data
		}

		log.Debug().
			Int("status", resp.StatusCode).
			Str("url", fullURL).
			Msg("Request failed")
		return nil, apiErr
	}

	body, err := decodeBody[T](resp, opts.ParseAsText)
	if err != nil {
		return nil, err
	}

	return &Response[T]{Header: resp.Header, Body: body}, nil
}

// do builds and dispatches the request. It is the only place where bodies,
// headers and URLs are normalized.
func (c *Client) do(ctx context.Context, path string, opts RequestOptions) (*http.Response, string, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	header := opts.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	body, err := encodeBody(opts.Body, header)
	if err != nil {
		return nil, "", err
	}

	baseURL := c.baseURL
	if opts.BaseURL != nil {
		baseURL = *opts.BaseURL
	}

	fullURL := BuildFullPath(baseURL, path)
	if len(opts.Params) > 0 {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}
		fullURL += sep + opts.Params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header = header
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	doer := c.httpClient
	if opts.Transport != nil {
		doer = opts.Transport
	}

	if opts.Tracker != nil {
		opts.Tracker.Set(true)
	}

	log.Debug().
		Str("method", method).
		Str("url", fullURL).
		Msg("Sending request")

	resp, err := doer.Do(req)
	if err != nil {
		// The tracker stays set: no response ever arrived.
		return nil, fullURL, fmt.Errorf("http request: %w", err)
	}

	if opts.Tracker != nil {
		opts.Tracker.Set(false)
	}

	return resp, fullURL, nil
}

// encodeBody turns body into a request reader, setting a JSON content type
// for everything that is not already a raw reader.
func encodeBody(body any, header http.Header) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return b, nil
	case string:
		if b == "" {
			return nil, nil
		}
		header.Set("Content-Type", "application/json")
		return strings.NewReader(b), nil
	case []byte:
		if len(b) == 0 {
			return nil, nil
		}
		header.Set("Content-Type", "application/json")
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		header.Set("Content-Type", "application/json")
		return bytes.NewReader(data), nil
	}
}

func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
