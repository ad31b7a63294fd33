package devserver

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/edumarques81/stellar-audiodevices/internal/domain/devices"
)

var (
	errNotFound           = errors.New("not found")
	errProfileUnavailable = errors.New("profile not available on this card")
)

// maxVolume is the highest volume the emulator accepts, in percent.
const maxVolume = 100

// state is the emulated device graph. Every mutation stamps a fresh,
// strictly increasing millisecond timestamp.
type state struct {
	mu   sync.Mutex
	snap *devices.Snapshot
	now  func() time.Time
}

func newState(seed *devices.Snapshot, now func() time.Time) *state {
	s := &state{snap: seed.Clone(), now: now}
	s.touch()
	return s
}

// snapshot returns a copy safe to encode outside the lock.
func (s *state) snapshot() *devices.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

func (s *state) touch() {
	ts := s.now().UnixMilli()
	if ts <= s.snap.Timestamp {
		ts = s.snap.Timestamp + 1
	}
	s.snap.Timestamp = ts
}

func (s *state) device(kind devices.DeviceKind, index int) (*devices.Device, error) {
	var (
		d  *devices.Device
		ok bool
	)
	if kind == devices.KindSource {
		d, ok = s.snap.FindSource(index)
	} else {
		d, ok = s.snap.FindSink(index)
	}
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", kind, index, errNotFound)
	}
	return d, nil
}

func (s *state) setVolume(kind devices.DeviceKind, index int, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(kind, index)
	if err != nil {
		return err
	}
	d.Volume = min(max(volume, 0), maxVolume)
	s.touch()
	return nil
}

func (s *state) setMute(kind devices.DeviceKind, index int, mute bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.device(kind, index)
	if err != nil {
		return err
	}
	d.IsMuted = mute
	s.touch()
	return nil
}

func (s *state) setDefault(kind devices.DeviceKind, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.device(kind, index); err != nil {
		return err
	}

	list := s.snap.Devices(kind)
	for i := range list {
		list[i].IsDefault = list[i].Index == index
	}
	s.touch()
	return nil
}

func (s *state) setProfile(cardIndex int, profile devices.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.snap.Card(cardIndex)
	if !ok {
		return fmt.Errorf("card %d: %w", cardIndex, errNotFound)
	}
	if !slices.Contains(card.Profiles, profile) {
		return fmt.Errorf("card %d, profile %s: %w", cardIndex, profile, errProfileUnavailable)
	}

	card.ActiveProfile = profile
	for _, id := range card.SinkIDs {
		if sink, ok := s.snap.FindSink(id); ok {
			sink.BluetoothProtocol, sink.A2DPCodec = transportFor(profile)
		}
	}
	s.touch()
	return nil
}

// transportFor maps a card profile onto the protocol and codec its sinks
// report.
func transportFor(p devices.Profile) (*devices.BluetoothProtocol, *devices.A2DPCodec) {
	codecs := map[devices.Profile]devices.A2DPCodec{
		devices.ProfileA2DPSinkSBC:    devices.CodecSBC,
		devices.ProfileA2DPSinkAAC:    devices.CodecAAC,
		devices.ProfileA2DPSinkAptX:   devices.CodecAptX,
		devices.ProfileA2DPSinkAptXHD: devices.CodecAptXHD,
		devices.ProfileA2DPSinkLDAC:   devices.CodecLDAC,
	}

	if codec, ok := codecs[p]; ok {
		proto := devices.BluetoothA2DPSink
		return &proto, &codec
	}
	if p == devices.ProfileHeadsetHeadUnit {
		proto := devices.BluetoothHeadsetHeadUnit
		return &proto, nil
	}
	return nil, nil
}
