// Package devices holds the client-side view of the audio service: the
// snapshot model, the store it is published to, the commands that mutate the
// remote state and the live channel that keeps the store current.
package devices

// Snapshot is the complete device state as of Timestamp (epoch milliseconds).
// A newer snapshot replaces an older one wholesale.
type Snapshot struct {
	Cards     []Card   `json:"cards"`
	Sources   []Device `json:"sources"`
	Sinks     []Device `json:"sinks"`
	Timestamp int64    `json:"timestamp"`
}

// Card is a sound card with the devices it exposes.
type Card struct {
	Index         int        `json:"index"`
	Name          string     `json:"name,omitempty"`
	Driver        string     `json:"driver,omitempty"`
	Description   string     `json:"description"`
	Bus           Bus        `json:"bus"`
	FormFactor    FormFactor `json:"formFactor"`
	SourceIDs     []int      `json:"sourceIds"`
	SinkIDs       []int      `json:"sinkIds"`
	Profiles      []Profile  `json:"profiles"`
	ActiveProfile Profile    `json:"activeProfile"`
}

// Device is a source (input) or sink (output).
type Device struct {
	Index             int                `json:"index"`
	Name              string             `json:"name"`
	Driver            string             `json:"driver,omitempty"`
	State             DeviceState        `json:"state,omitempty"`
	Description       string             `json:"description"`
	IsDefault         bool               `json:"isDefault"`
	Volume            float64            `json:"volume"`
	IsMuted           bool               `json:"isMuted"`
	CardIndex         int                `json:"cardIndex"`
	BluetoothProtocol *BluetoothProtocol `json:"bluetoothProtocol"`
	A2DPCodec         *A2DPCodec         `json:"a2dpCodec,omitempty"`
	FormFactor        FormFactor         `json:"formFactor,omitempty"`
	Bus               Bus                `json:"bus,omitempty"`
}

// Devices returns the sources or sinks depending on kind.
func (s *Snapshot) Devices(kind DeviceKind) []Device {
	if kind == KindSource {
		return s.Sources
	}
	return s.Sinks
}

// FindSource returns the source with the given index.
func (s *Snapshot) FindSource(index int) (*Device, bool) {
	return findDevice(s.Sources, index)
}

// FindSink returns the sink with the given index.
func (s *Snapshot) FindSink(index int) (*Device, bool) {
	return findDevice(s.Sinks, index)
}

// DefaultSource returns the source flagged as default, if any.
func (s *Snapshot) DefaultSource() (*Device, bool) {
	return findDefault(s.Sources)
}

// DefaultSink returns the sink flagged as default, if any.
func (s *Snapshot) DefaultSink() (*Device, bool) {
	return findDefault(s.Sinks)
}

// Card returns the card with the given index.
func (s *Snapshot) Card(index int) (*Card, bool) {
	for i := range s.Cards {
		if s.Cards[i].Index == index {
			return &s.Cards[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	next := &Snapshot{
		Cards:     make([]Card, len(s.Cards)),
		Sources:   cloneDevices(s.Sources),
		Sinks:     cloneDevices(s.Sinks),
		Timestamp: s.Timestamp,
	}

	for i, c := range s.Cards {
		nc := c
		nc.SourceIDs = append([]int(nil), c.SourceIDs...)
		nc.SinkIDs = append([]int(nil), c.SinkIDs...)
		nc.Profiles = append([]Profile(nil), c.Profiles...)
		next.Cards[i] = nc
	}

	return next
}

func cloneDevices(in []Device) []Device {
	out := make([]Device, len(in))
	for i, d := range in {
		nd := d
		if d.BluetoothProtocol != nil {
			p := *d.BluetoothProtocol
			nd.BluetoothProtocol = &p
		}
		if d.A2DPCodec != nil {
			c := *d.A2DPCodec
			nd.A2DPCodec = &c
		}
		out[i] = nd
	}
	return out
}

func findDevice(list []Device, index int) (*Device, bool) {
	for i := range list {
		if list[i].Index == index {
			return &list[i], true
		}
	}
	return nil, false
}

func findDefault(list []Device) (*Device, bool) {
	for i := range list {
		if list[i].IsDefault {
			return &list[i], true
		}
	}
	return nil, false
}
