// Package devserver emulates the audio device service over HTTP and
// WebSocket against an in-memory device graph. It is used for local
// development of clients and in end-to-end tests.
package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-audiodevices/internal/domain/devices"
)

// DefaultDebounce is the default window for coalescing command broadcasts.
const DefaultDebounce = 50 * time.Millisecond

// Server serves the emulated audio service.
type Server struct {
	state     *state
	hub       *Hub
	debouncer *Debouncer
	router    chi.Router

	debounce    time.Duration
	maxExternal int
	now         func() time.Time
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithDebounce sets the window for coalescing command broadcasts.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) {
		s.debounce = d
	}
}

// WithMaxExternal caps concurrent live connections from non-loopback peers.
func WithMaxExternal(n int) Option {
	return func(s *Server) {
		s.maxExternal = n
	}
}

// WithClock sets the time source used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a server seeded with a copy of seed.
func New(seed *devices.Snapshot, opts ...Option) *Server {
	s := &Server{
		debounce: DefaultDebounce,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.state = newState(seed, s.now)
	s.hub = NewHub(s.maxExternal)
	s.debouncer = NewDebouncer(s.debounce, s.broadcast)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	cors := newCORSPolicy()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.middleware)

	r.Get(devices.PathAudio, s.handleAudio)
	r.Post(devices.PathVolume, s.handleVolume)
	r.Post(devices.PathMute, s.handleMute)
	r.Post(devices.PathProfile, s.handleProfile)
	r.Post(devices.PathDefault, s.handleDefault)
	r.Get(devices.PathLive, s.hub.ServeWS)

	if err := cors.learn(r); err != nil {
		log.Warn().Err(err).Msg("Failed to collect routes for CORS preflight")
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Snapshot returns a copy of the current emulated state.
func (s *Server) Snapshot() *devices.Snapshot {
	return s.state.snapshot()
}

// Clients returns the number of live connections.
func (s *Server) Clients() int {
	return s.hub.ClientCount()
}

// Close stops pending broadcasts and disconnects live clients.
func (s *Server) Close() {
	s.debouncer.Stop()
	s.hub.Close()
}

// broadcast pushes the current state to every live connection.
func (s *Server) broadcast() {
	frame, err := json.Marshal(s.state.snapshot())
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode audio snapshot")
		return
	}
	s.hub.Broadcast(frame)
}

func (s *Server) handleAudio(w http.ResponseWriter, _ *http.Request) {
	log.Debug().Msg("Fetching the state of audio devices")

	frame, err := json.Marshal(s.state.snapshot())
	if err != nil {
		writeMsg(w, http.StatusInternalServerError, err.Error())
		return
	}

	// A fetch also refreshes every live client, as the real service does.
	s.hub.Broadcast(frame)

	w.Header().Set("Content-Type", "application/json")
	w.Write(frame)
}

type deviceRef struct {
	Type  devices.DeviceKind `json:"type"`
	Index int                `json:"index"`
}

func (d deviceRef) validate() error {
	if !d.Type.Valid() {
		return errors.New("type must be source or sink")
	}
	return nil
}

type volumeRequest struct {
	deviceRef
	Volume float64 `json:"volume"`
}

type muteRequest struct {
	deviceRef
	Mute bool `json:"mute"`
}

type defaultRequest struct {
	deviceRef
	Name string `json:"name"`
}

type profileRequest struct {
	Index   int             `json:"index"`
	Profile devices.Profile `json:"profile"`
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if !decodeRequest(w, r, &req) || !validRequest(w, req.validate()) {
		return
	}

	log.Debug().Str("type", string(req.Type)).Int("index", req.Index).Float64("volume", req.Volume).Msg("Setting device volume")
	s.finish(w, s.state.setVolume(req.Type, req.Index, req.Volume))
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	var req muteRequest
	if !decodeRequest(w, r, &req) || !validRequest(w, req.validate()) {
		return
	}

	log.Debug().Str("type", string(req.Type)).Int("index", req.Index).Bool("mute", req.Mute).Msg("Setting device mute state")
	s.finish(w, s.state.setMute(req.Type, req.Index, req.Mute))
}

func (s *Server) handleDefault(w http.ResponseWriter, r *http.Request) {
	var req defaultRequest
	if !decodeRequest(w, r, &req) || !validRequest(w, req.validate()) {
		return
	}

	log.Debug().Str("type", string(req.Type)).Int("index", req.Index).Str("name", req.Name).Msg("Setting default device")
	s.finish(w, s.state.setDefault(req.Type, req.Index))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !req.Profile.Valid() {
		writeMsg(w, http.StatusBadRequest, "profile is required")
		return
	}

	log.Debug().Int("card", req.Index).Stringer("profile", req.Profile).Msg("Setting card profile")
	s.finish(w, s.state.setProfile(req.Index, req.Profile))
}

// finish answers a command and schedules the broadcast of its effect.
func (s *Server) finish(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		writeMsg(w, http.StatusNotFound, errNotFound.Error())
		return
	case err != nil:
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	s.debouncer.Trigger()
	w.WriteHeader(http.StatusOK)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func validRequest(w http.ResponseWriter, err error) bool {
	if err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeMsg writes the {"msg": ...} error shape clients read.
func writeMsg(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}
