package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Page is a collection response with the total advertised by the service.
type Page[T any] struct {
	Data []T
	// Total is nil when the response carried no usable Content-Range.
	Total  *int
	Header http.Header
}

// Get reads a single resource.
func Get[T any](ctx context.Context, c *Client, path string, opts RequestOptions) (T, error) {
	opts.Method = http.MethodGet
	opts.Body = nil
	return bodyOf(Send[T](ctx, c, path, opts))
}

// GetPage reads a collection and the total from a "<range>/<total>"
// Content-Range header.
func GetPage[T any](ctx context.Context, c *Client, path string, opts RequestOptions) (*Page[T], error) {
	opts.Method = http.MethodGet
	opts.Body = nil

	resp, err := Send[[]T](ctx, c, path, opts)
	if err != nil {
		return nil, err
	}

	page := &Page[T]{Header: resp.Header, Total: contentRangeTotal(resp.Header)}
	if resp.Body != nil {
		page.Data = *resp.Body
	}
	return page, nil
}

// Delete removes a resource.
func Delete[T any](ctx context.Context, c *Client, path string, opts RequestOptions) (T, error) {
	opts.Method = http.MethodDelete
	opts.Body = nil
	return bodyOf(Send[T](ctx, c, path, opts))
}

// Post creates a resource or triggers an action.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts RequestOptions) (T, error) {
	opts.Method = http.MethodPost
	opts.Body = body
	return bodyOf(Send[T](ctx, c, path, opts))
}

// Put replaces a resource.
func Put[T any](ctx context.Context, c *Client, path string, body any, opts RequestOptions) (T, error) {
	opts.Method = http.MethodPut
	opts.Body = body
	return bodyOf(Send[T](ctx, c, path, opts))
}

// Patch partially updates a resource.
func Patch[T any](ctx context.Context, c *Client, path string, body any, opts RequestOptions) (T, error) {
	opts.Method = http.MethodPatch
	opts.Body = body
	return bodyOf(Send[T](ctx, c, path, opts))
}

func bodyOf[T any](resp *Response[T], err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if resp.Body == nil {
		return zero, nil
	}
	return *resp.Body, nil
}

func contentRangeTotal(header http.Header) *int {
	cr := header.Get("Content-Range")
	if cr == "" {
		return nil
	}

	_, total, ok := strings.Cut(cr, "/")
	if !ok {
		log.Debug().Str("contentRange", cr).Msg("Content-Range without total")
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(total))
	if err != nil {
		log.Debug().Str("contentRange", cr).Msg("Content-Range total is not a number")
		return nil
	}
	return &n
}
