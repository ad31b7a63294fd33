package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// stubDoer records requests and answers with a canned response.
type stubDoer struct {
	status int
	header http.Header
	body   string
	err    error

	reqs   []*http.Request
	bodies []string
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.reqs = append(s.reqs, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(b))
	} else {
		s.bodies = append(s.bodies, "")
	}

	if s.err != nil {
		return nil, s.err
	}

	header := s.header
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: s.status,
		Status:     fmt.Sprintf("%d %s", s.status, http.StatusText(s.status)),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

type recordingTracker struct {
	values []bool
}

func (r *recordingTracker) Set(inFlight bool) {
	r.values = append(r.values, inFlight)
}

func jsonHeader() http.Header {
	return http.Header{"Content-Type": {"application/json"}}
}

func TestSend_EmptyBodyShortCircuits(t *testing.T) {
	doer := &stubDoer{
		status: http.StatusNoContent,
		header: http.Header{"Content-Length": {"0"}, "Content-Type": {"application/json"}},
		body:   "not json at all",
	}
	client := NewClient("http://h:3000", WithHTTPClient(doer))

	resp, err := Send[map[string]any](context.Background(), client, "/audio", RequestOptions{})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.Body != nil {
		t.Errorf("expected nil body, got %v", *resp.Body)
	}
}

func TestSend_ErrorStatusCarriesPayload(t *testing.T) {
	doer := &stubDoer{
		status: http.StatusNotFound,
		header: jsonHeader(),
		body:   `{"msg": "not found"}`,
	}
	client := NewClient("http://h:3000", WithHTTPClient(doer))

	_, err := Send[map[string]any](context.Background(), client, "/audio/missing", RequestOptions{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", apiErr.Status, http.StatusNotFound)
	}
	if apiErr.StatusText != "Not Found" {
		t.Errorf("StatusText = %q, want %q", apiErr.StatusText, "Not Found")
	}
	if apiErr.URL != "http://h:3000/audio/missing" {
		t.Errorf("URL = %q", apiErr.URL)
	}
	data, ok := apiErr.Data.(map[string]any)
	if !ok || data["msg"] != "not found" {
		t.Errorf("Data = %#v, want msg %q", apiErr.Data, "not found")
	}
	if !strings.HasSuffix(err.Error(), ": not found") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsStatus(err, http.StatusNotFound) {
		t.Error("IsStatus(err, 404) = false")
	}
}

func TestSend_ErrorStatusWithUnparsablePayload(t *testing.T) {
	doer := &stubDoer{
		status: http.StatusInternalServerError,
		header: jsonHeader(),
		body:   `<html>boom</html>`,
	}
	client := NewClient("http://h:3000", WithHTTPClient(doer))

	_, err := Send[string](context.Background(), client, "/audio", RequestOptions{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Data != nil {
		t.Errorf("expected nil Data, got %v", apiErr.Data)
	}
}

func TestSend_ErrorStatusWithTextPayload(t *testing.T) {
	doer := &stubDoer{
		status: http.StatusUnprocessableEntity,
		header: http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		body:   "Failed to deserialize the JSON body",
	}
	client := NewClient("http://h:3000", WithHTTPClient(doer))

	_, err := Send[any](context.Background(), client, "/audio/volume", RequestOptions{Method: http.MethodPost})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want %d", apiErr.Status, http.StatusUnprocessableEntity)
	}
	if got, ok := apiErr.Data.(string); !ok || got != "Failed to deserialize the JSON body" {
		t.Errorf("Data = %#v, want the text body", apiErr.Data)
	}
}

func TestSend_ErrorStatusHonorsParseAsText(t *testing.T) {
	doer := &stubDoer{
		status: http.StatusNotFound,
		header: jsonHeader(),
		body:   `{"msg":"not found"}`,
	}
	client := NewClient("http://h:3000", WithHTTPClient(doer))

	_, err := Send[string](context.Background(), client, "/audio/missing", RequestOptions{ParseAsText: true})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if got, ok := apiErr.Data.(string); !ok || got != `{"msg":"not found"}` {
		t.Errorf("Data = %#v, want the raw body", apiErr.Data)
	}
	if strings.Contains(err.Error(), ": not found") {
		t.Errorf("Error() = %q, text payload should not be read as JSON", err.Error())
	}
}

func TestSend_StatusRange(t *testing.T) {
	for _, status := range []int{199, 200, 201, 299, 300, 404, 500} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			doer := &stubDoer{status: status, header: jsonHeader(), body: `{}`}
			client := NewClient("http://h", WithHTTPClient(doer))

			_, err := Send[map[string]any](context.Background(), client, "/x", RequestOptions{})
			wantErr := status < 200 || status > 299
			if (err != nil) != wantErr {
				t.Errorf("status %d: err = %v, wantErr %v", status, err, wantErr)
			}
		})
	}
}

func TestSend_BodyNormalization(t *testing.T) {
	tests := []struct {
		name            string
		body            any
		wantBody        string
		wantContentType string
	}{
		{
			name:            "struct encoded as JSON",
			body:            struct{ A int }{A: 1},
			wantBody:        `{"A":1}`,
			wantContentType: "application/json",
		},
		{
			name:            "string sent verbatim",
			body:            `{"already":"encoded"}`,
			wantBody:        `{"already":"encoded"}`,
			wantContentType: "application/json",
		},
		{
			name:            "reader passes through",
			body:            strings.NewReader("raw file bytes"),
			wantBody:        "raw file bytes",
			wantContentType: "",
		},
		{
			name:            "no body",
			body:            nil,
			wantBody:        "",
			wantContentType: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &stubDoer{status: http.StatusOK, header: http.Header{"Content-Length": {"0"}}}
			client := NewClient("http://h", WithHTTPClient(doer))

			_, err := Send[any](context.Background(), client, "/x", RequestOptions{Method: http.MethodPost, Body: tt.body})
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if doer.bodies[0] != tt.wantBody {
				t.Errorf("body = %q, want %q", doer.bodies[0], tt.wantBody)
			}
			if got := doer.reqs[0].Header.Get("Content-Type"); got != tt.wantContentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantContentType)
			}
		})
	}
}

func TestSend_CallerHeadersKept(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK, header: http.Header{"Content-Length": {"0"}}}
	client := NewClient("http://h", WithHTTPClient(doer), WithUserAgent("test-agent"))

	header := http.Header{"X-Trace": {"abc"}, "Content-Type": {"text/plain"}}
	_, err := Send[any](context.Background(), client, "/x", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]int{"a": 1},
		Header: header,
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	req := doer.reqs[0]
	if got := req.Header.Get("X-Trace"); got != "abc" {
		t.Errorf("X-Trace = %q", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got := req.Header.Get("User-Agent"); got != "test-agent" {
		t.Errorf("User-Agent = %q", got)
	}
	if header.Get("Content-Type") != "text/plain" {
		t.Error("caller header map was mutated")
	}
}

func TestSend_QueryParams(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/audio", "http://h/audio?q=a+b"},
		{"/audio?x=1", "http://h/audio?x=1&q=a+b"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			doer := &stubDoer{status: http.StatusOK, header: http.Header{"Content-Length": {"0"}}}
			client := NewClient("http://h", WithHTTPClient(doer))

			_, err := Send[any](context.Background(), client, tt.path, RequestOptions{Params: url.Values{"q": {"a b"}}})
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if got := doer.reqs[0].URL.String(); got != tt.want {
				t.Errorf("URL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSend_URLResolution(t *testing.T) {
	empty := ""
	other := "http://other:9000/"

	tests := []struct {
		name    string
		path    string
		baseURL *string
		want    string
	}{
		{"relative against client base", "/audio", nil, "http://h:3000/audio"},
		{"absolute passes through", "http://elsewhere/audio", nil, "http://elsewhere/audio"},
		{"override base", "/audio", &other, "http://other:9000/audio"},
		{"empty override leaves path", "http://direct/audio", &empty, "http://direct/audio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &stubDoer{status: http.StatusOK, header: http.Header{"Content-Length": {"0"}}}
			client := NewClient("http://h:3000", WithHTTPClient(doer))

			_, err := Send[any](context.Background(), client, tt.path, RequestOptions{BaseURL: tt.baseURL})
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if got := doer.reqs[0].URL.String(); got != tt.want {
				t.Errorf("URL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSend_PerCallTransport(t *testing.T) {
	clientDoer := &stubDoer{status: http.StatusOK, header: http.Header{"Content-Length": {"0"}}}
	callDoer := &stubDoer{status: http.StatusOK, header: http.Header{"Content-Length": {"0"}}}
	client := NewClient("http://h", WithHTTPClient(clientDoer))

	if _, err := Send[any](context.Background(), client, "/x", RequestOptions{Transport: callDoer}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(clientDoer.reqs) != 0 || len(callDoer.reqs) != 1 {
		t.Errorf("client doer got %d, call doer got %d", len(clientDoer.reqs), len(callDoer.reqs))
	}
}

func TestSend_Tracker(t *testing.T) {
	t.Run("success clears the flag", func(t *testing.T) {
		doer := &stubDoer{status: http.StatusOK, header: jsonHeader(), body: `{}`}
		client := NewClient("http://h", WithHTTPClient(doer))
		tracker := &recordingTracker{}

		if _, err := Send[any](context.Background(), client, "/x", RequestOptions{Tracker: tracker}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if len(tracker.values) != 2 || !tracker.values[0] || tracker.values[1] {
			t.Errorf("tracker values = %v, want [true false]", tracker.values)
		}
	})

	t.Run("error status clears the flag", func(t *testing.T) {
		doer := &stubDoer{status: http.StatusBadRequest, header: jsonHeader(), body: `{}`}
		client := NewClient("http://h", WithHTTPClient(doer))
		tracker := &recordingTracker{}

		_, _ = Send[any](context.Background(), client, "/x", RequestOptions{Tracker: tracker})
		if len(tracker.values) != 2 || tracker.values[1] {
			t.Errorf("tracker values = %v, want [true false]", tracker.values)
		}
	})

	t.Run("transport failure leaves the flag set", func(t *testing.T) {
		doer := &stubDoer{err: errors.New("connection refused")}
		client := NewClient("http://h", WithHTTPClient(doer))
		var last bool
		tracker := TrackerFunc(func(v bool) { last = v })

		_, err := Send[any](context.Background(), client, "/x", RequestOptions{Tracker: tracker})
		if err == nil {
			t.Fatal("expected transport error")
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			t.Error("transport failure must not be an APIError")
		}
		if !last {
			t.Error("expected tracker to remain true")
		}
	})
}

func TestSend_BodyParsing(t *testing.T) {
	t.Run("text content type", func(t *testing.T) {
		doer := &stubDoer{status: http.StatusOK, header: http.Header{"Content-Type": {"text/plain; charset=utf-8"}}, body: "hello"}
		client := NewClient("http://h", WithHTTPClient(doer))

		resp, err := Send[string](context.Background(), client, "/x", RequestOptions{})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if *resp.Body != "hello" {
			t.Errorf("body = %q", *resp.Body)
		}
	})

	t.Run("forced text wins over JSON content type", func(t *testing.T) {
		doer := &stubDoer{status: http.StatusOK, header: jsonHeader(), body: `{"a":1}`}
		client := NewClient("http://h", WithHTTPClient(doer))

		resp, err := Send[string](context.Background(), client, "/x", RequestOptions{ParseAsText: true})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if *resp.Body != `{"a":1}` {
			t.Errorf("body = %q", *resp.Body)
		}
	})

	t.Run("text into struct is rejected", func(t *testing.T) {
		doer := &stubDoer{status: http.StatusOK, header: http.Header{"Content-Type": {"text/html"}}, body: "<p>"}
		client := NewClient("http://h", WithHTTPClient(doer))

		_, err := Send[struct{}](context.Background(), client, "/x", RequestOptions{})
		if !errors.Is(err, ErrTextDecode) {
			t.Errorf("err = %v, want ErrTextDecode", err)
		}
	})

	t.Run("JSON by default", func(t *testing.T) {
		doer := &stubDoer{status: http.StatusOK, body: `{"timestamp": 42}`}
		client := NewClient("http://h", WithHTTPClient(doer))

		resp, err := Send[struct {
			Timestamp int64 `json:"timestamp"`
		}](context.Background(), client, "/x", RequestOptions{})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if resp.Body.Timestamp != 42 {
			t.Errorf("timestamp = %d", resp.Body.Timestamp)
		}
	})
}

func TestSend_AgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		case "/missing":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"msg":"not found"}`))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)

	resp, err := Send[map[string]any](context.Background(), client, "/empty", RequestOptions{})
	if err != nil {
		t.Fatalf("Send(/empty) error = %v", err)
	}
	if resp.Body != nil {
		t.Errorf("expected nil body for 204, got %v", *resp.Body)
	}

	_, err = Send[map[string]any](context.Background(), client, "/missing", RequestOptions{})
	if !IsStatus(err, http.StatusNotFound) {
		t.Errorf("expected 404 APIError, got %v", err)
	}

	ok, err := Get[map[string]bool](context.Background(), client, "/ok", RequestOptions{})
	if err != nil {
		t.Fatalf("Get(/ok) error = %v", err)
	}
	if !ok["ok"] {
		t.Errorf("body = %v", ok)
	}
}
