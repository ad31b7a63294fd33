package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// decodeBody applies the body policy: an empty body decodes to nil before any
// parse is attempted, then forced text or a text/* content type reads plain
// text, and everything else is JSON.
func decodeBody[T any](resp *http.Response, asText bool) (*T, error) {
	if emptyBody(resp) {
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out T
	if asText || strings.HasPrefix(resp.Header.Get("Content-Type"), "text") {
		switch p := any(&out).(type) {
		case *string:
			*p = string(data)
		case *[]byte:
			*p = data
		case *any:
			*p = string(data)
		default:
			return nil, ErrTextDecode
		}
		return &out, nil
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &out, nil
}

// emptyBody reports a declared zero Content-Length. net/http also swaps in
// http.NoBody when it already knows the length is zero (204, 304).
func emptyBody(resp *http.Response) bool {
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		return err == nil && n == 0
	}
	return resp.Body == nil || resp.Body == http.NoBody
}
