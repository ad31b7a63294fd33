package devices

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-audiodevices/internal/infra/api"
)

// Resource paths exposed by the audio service.
const (
	PathAudio   = "/audio"
	PathVolume  = "/audio/volume"
	PathMute    = "/audio/mute"
	PathProfile = "/audio/profile"
	PathDefault = "/audio/default"
	PathLive    = "/audio/ws"
)

// Service fetches snapshots into a Store and issues device commands.
//
// Commands never touch the store: the resulting state arrives with the next
// pushed snapshot.
type Service struct {
	client *api.Client
	store  *Store

	mu              sync.Mutex
	latestTimestamp int64
}

// NewService creates a service publishing into store.
func NewService(client *api.Client, store *Store) *Service {
	return &Service{
		client: client,
		store:  store,
	}
}

// Store returns the store this service publishes into.
func (s *Service) Store() *Store {
	return s.store
}

// FetchDevices reads the current snapshot without publishing it.
func (s *Service) FetchDevices(ctx context.Context) (*Snapshot, error) {
	return api.Get[*Snapshot](ctx, s.client, PathAudio, api.RequestOptions{})
}

// Refresh fetches the current snapshot and publishes it when it is newer than
// the last one accepted on this path. Failures are logged and leave the store
// as it was. It reports whether the store was updated.
func (s *Service) Refresh(ctx context.Context) bool {
	snap, err := s.FetchDevices(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get the available audio devices")
		return false
	}
	return snap != nil && s.publishFetched(snap)
}

// publishFetched publishes snap when it is newer than the staleness clock.
// The clock and the store advance together under s.mu.
func (s *Service) publishFetched(snap *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Timestamp <= s.latestTimestamp {
		log.Debug().
			Int64("timestamp", snap.Timestamp).
			Int64("latest", s.latestTimestamp).
			Msg("Discarding stale audio snapshot")
		return false
	}
	s.latestTimestamp = snap.Timestamp
	s.store.Publish(snap)
	return true
}

// acceptPushed gates snapshots received on the live channel. Pushes are
// applied in receipt order without consulting the staleness clock.
func (s *Service) acceptPushed(snap *Snapshot) bool {
	return true
}

// applyPushed publishes a snapshot received on the live channel.
func (s *Service) applyPushed(snap *Snapshot) {
	if !s.acceptPushed(snap) {
		return
	}
	s.store.Publish(snap)
}

type volumeRequest struct {
	Type   DeviceKind `json:"type"`
	Index  int        `json:"index"`
	Volume float64    `json:"volume"`
}

type muteRequest struct {
	Type  DeviceKind `json:"type"`
	Index int        `json:"index"`
	Mute  bool       `json:"mute"`
}

type profileRequest struct {
	Index   int     `json:"index"`
	Profile Profile `json:"profile"`
}

type defaultRequest struct {
	Type  DeviceKind `json:"type"`
	Index int        `json:"index"`
	Name  string     `json:"name"`
}

// SetVolume sets the volume of a source or sink.
func (s *Service) SetVolume(ctx context.Context, kind DeviceKind, index int, volume float64) error {
	return s.command(ctx, PathVolume, volumeRequest{Type: kind, Index: index, Volume: volume})
}

// ToggleMute sets the mute flag of a source or sink.
func (s *Service) ToggleMute(ctx context.Context, kind DeviceKind, index int, mute bool) error {
	return s.command(ctx, PathMute, muteRequest{Type: kind, Index: index, Mute: mute})
}

// SetProfile switches the active profile of a Bluetooth card.
func (s *Service) SetProfile(ctx context.Context, cardIndex int, profile Profile) error {
	return s.command(ctx, PathProfile, profileRequest{Index: cardIndex, Profile: profile})
}

// SetDefault makes a source or sink the default one. name is the device's
// internal name, used by the service to move running streams over.
func (s *Service) SetDefault(ctx context.Context, kind DeviceKind, index int, name string) error {
	return s.command(ctx, PathDefault, defaultRequest{Type: kind, Index: index, Name: name})
}

func (s *Service) command(ctx context.Context, path string, body any) error {
	_, err := api.Post[any](ctx, s.client, path, body, api.RequestOptions{})
	return err
}
