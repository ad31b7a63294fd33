package devices

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// DefaultRetryDelay is the fixed wait between a dropped connection and the
// next attempt. There is no backoff and no attempt limit.
const DefaultRetryDelay = 5 * time.Second

// ChannelState is the connection state of a Channel.
type ChannelState int32

const (
	StateDisconnected ChannelState = iota
	StateConnecting
	StateOpen
)

func (s ChannelState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "disconnected"
	}
}

// Channel keeps a WebSocket open to the service and publishes every pushed
// snapshot into the service's store. It reconnects on its own until Close.
type Channel struct {
	svc        *Service
	url        string
	dialer     *websocket.Dialer
	header     http.Header
	retryDelay time.Duration

	state    atomic.Int32
	attempts atomic.Int64

	mu     sync.Mutex
	wanted bool
	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn
	timer  *time.Timer
}

// ChannelOption is a functional option for configuring a Channel.
type ChannelOption func(*Channel)

// WithRetryDelay sets the wait before reconnecting.
func WithRetryDelay(d time.Duration) ChannelOption {
	return func(c *Channel) {
		c.retryDelay = d
	}
}

// WithDialer sets the WebSocket dialer.
func WithDialer(d *websocket.Dialer) ChannelOption {
	return func(c *Channel) {
		c.dialer = d
	}
}

// WithHeader sets extra handshake headers.
func WithHeader(h http.Header) ChannelOption {
	return func(c *Channel) {
		c.header = h
	}
}

// NewChannel creates a channel for the ws:// or wss:// url.
func NewChannel(svc *Service, url string, opts ...ChannelOption) *Channel {
	c := &Channel{
		svc:        svc,
		url:        url,
		dialer:     websocket.DefaultDialer,
		retryDelay: DefaultRetryDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns the current connection state.
func (c *Channel) State() ChannelState {
	return ChannelState(c.state.Load())
}

// Attempts returns how many connection attempts have been made.
func (c *Channel) Attempts() int64 {
	return c.attempts.Load()
}

// Start begins connecting in the background. Cancelling ctx has the same
// effect as Close. Calling Start on a running channel does nothing.
func (c *Channel) Start(ctx context.Context) {
	c.mu.Lock()
	if c.wanted {
		c.mu.Unlock()
		return
	}
	c.wanted = true
	runCtx, cancel := context.WithCancel(ctx)
	c.ctx, c.cancel = runCtx, cancel
	c.mu.Unlock()

	go func() {
		<-runCtx.Done()
		if c.current(runCtx) {
			c.Close()
		}
	}()

	go c.connect(runCtx)
}

// Close drops the connection and cancels any scheduled reconnect.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.wanted = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	cancel := c.cancel
	c.state.Store(int32(StateDisconnected))
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn == nil {
		return nil
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return conn.Close()
}

// current reports whether ctx belongs to the run started by the latest Start
// and that run has not been closed.
func (c *Channel) current(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wanted && c.ctx == ctx
}

func (c *Channel) connect(ctx context.Context) {
	c.mu.Lock()
	if !c.wanted || c.ctx != ctx {
		c.mu.Unlock()
		return
	}
	c.state.Store(int32(StateConnecting))
	c.attempts.Add(1)
	c.mu.Unlock()

	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		ev := log.Error().Err(err).Str("url", c.url)
		if resp != nil {
			ev = ev.Int("status", resp.StatusCode)
		}
		ev.Msg("Failed to create a websocket")
		c.disconnected(ctx)
		return
	}

	c.mu.Lock()
	if !c.wanted || c.ctx != ctx {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state.Store(int32(StateOpen))
	c.mu.Unlock()

	log.Info().Str("url", c.url).Msg("Created a websocket")

	// Pushes sent before the socket opened are lost; fetch once to catch up.
	go c.svc.Refresh(ctx)

	c.readLoop(ctx, conn)
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()

			if c.current(ctx) {
				code, reason := closeDetails(err)
				log.Error().Str("url", c.url).Str("reason", reason).Int("code", code).Msg("Closed the websocket")
			} else {
				log.Info().Str("url", c.url).Msg("Websocket closed by owner")
			}

			c.disconnected(ctx)
			return
		}

		c.handleMessage(data)
	}
}

// handleMessage decodes one pushed snapshot. Malformed payloads are dropped
// and the connection stays open.
func (c *Channel) handleMessage(data []byte) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Error().Err(err).Int("bytes", len(data)).Msg("Malformed audio snapshot on websocket")
		return
	}
	c.svc.applyPushed(&snap)
}

// disconnected schedules the next attempt unless the run that owns ctx was
// closed or replaced.
func (c *Channel) disconnected(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.wanted || c.ctx != ctx {
		return
	}

	c.state.Store(int32(StateDisconnected))
	log.Debug().Dur("delay", c.retryDelay).Str("url", c.url).Msg("Scheduling websocket reconnect")
	c.timer = time.AfterFunc(c.retryDelay, func() { c.connect(ctx) })
}

func closeDetails(err error) (int, string) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		reason := closeErr.Text
		if reason == "" {
			reason = "?"
		}
		return closeErr.Code, reason
	}
	return websocket.CloseAbnormalClosure, err.Error()
}
