package devices

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edumarques81/stellar-audiodevices/internal/infra/api"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// fakeService is a scripted audio service. Configure audio and live before
// the first call to url.
type fakeService struct {
	server *httptest.Server
	start  sync.Once

	// audio answers GET /audio; nil means 500.
	audio func(n int64) *Snapshot
	// live runs for every accepted WebSocket connection.
	live func(conn *websocket.Conn)

	audioCalls atomic.Int64
	wsConns    atomic.Int64
	commands   chan recordedCommand
}

type recordedCommand struct {
	Method string
	Path   string
	Body   string
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()

	f := &fakeService{commands: make(chan recordedCommand, 16)}
	f.server = httptest.NewUnstartedServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) serveHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == PathLive:
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.wsConns.Add(1)
		if f.live != nil {
			f.live(conn)
		}
	case r.URL.Path == PathAudio && r.Method == http.MethodGet:
		n := f.audioCalls.Add(1)
		if f.audio == nil {
			http.Error(w, `{"msg":"boom"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(f.audio(n))
	default:
		body, _ := io.ReadAll(r.Body)
		f.commands <- recordedCommand{Method: r.Method, Path: r.URL.Path, Body: string(body)}
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeService) url() string {
	f.start.Do(f.server.Start)
	return f.server.URL
}

func (f *fakeService) wsURL() string {
	return "ws" + strings.TrimPrefix(f.url(), "http") + PathLive
}

func (f *fakeService) newService() *Service {
	return NewService(api.NewClient(f.url()), NewStore())
}

func snapshotAt(ts int64) *Snapshot {
	return &Snapshot{
		Cards:     []Card{},
		Sources:   []Device{},
		Sinks:     []Device{{Index: 1, Name: "alsa_output", Description: "Speakers", Volume: 50}},
		Timestamp: ts,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func currentTimestamp(s *Store) int64 {
	if snap := s.Current(); snap != nil {
		return snap.Timestamp
	}
	return -1
}
