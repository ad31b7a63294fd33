package devices

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Bus is the hardware bus a card is attached to.
type Bus uint8

const (
	BusPCI       Bus = 1
	BusBluetooth Bus = 2
	BusUSB       Bus = 3
)

var busNames = map[Bus]string{
	BusPCI:       "PCI",
	BusBluetooth: "Bluetooth",
	BusUSB:       "USB",
}

func (b Bus) String() string { return enumName(busNames, b) }

// Valid reports whether b is one of the declared buses.
func (b Bus) Valid() bool { return busNames[b] != "" }

func (b *Bus) UnmarshalJSON(data []byte) error { return decodeCode(data, busNames, "bus", b) }

// FormFactor classifies what kind of device a card is.
type FormFactor uint8

const (
	FormFactorInternal   FormFactor = 1
	FormFactorHeadphones FormFactor = 2
	FormFactorWebcam     FormFactor = 3
	FormFactorHeadset    FormFactor = 4
)

var formFactorNames = map[FormFactor]string{
	FormFactorInternal:   "Internal",
	FormFactorHeadphones: "Headphones",
	FormFactorWebcam:     "Webcam",
	FormFactorHeadset:    "Headset",
}

func (f FormFactor) String() string { return enumName(formFactorNames, f) }

// Valid reports whether f is one of the declared form factors.
func (f FormFactor) Valid() bool { return formFactorNames[f] != "" }

func (f *FormFactor) UnmarshalJSON(data []byte) error {
	return decodeCode(data, formFactorNames, "form factor", f)
}

// Profile is a Bluetooth card profile.
type Profile uint8

const (
	ProfileHeadsetHeadUnit Profile = 1
	ProfileA2DPSinkSBC     Profile = 2
	ProfileA2DPSinkAAC     Profile = 3
	ProfileA2DPSinkAptX    Profile = 4
	ProfileA2DPSinkAptXHD  Profile = 5
	ProfileA2DPSinkLDAC    Profile = 6
	ProfileOff             Profile = 7
)

var profileNames = map[Profile]string{
	ProfileHeadsetHeadUnit: "HeadsetHeadUnit",
	ProfileA2DPSinkSBC:     "A2DPSinkSBC",
	ProfileA2DPSinkAAC:     "A2DPSinkAAC",
	ProfileA2DPSinkAptX:    "A2DPSinkAptX",
	ProfileA2DPSinkAptXHD:  "A2DPSinkAptXHD",
	ProfileA2DPSinkLDAC:    "A2DPSinkLDAC",
	ProfileOff:             "Off",
}

var profileLabels = map[Profile]string{
	ProfileHeadsetHeadUnit: "Headset Head Unit (HSP/HFP)",
	ProfileA2DPSinkSBC:     "High Fidelity Playback (A2DP Sink: SBC)",
	ProfileA2DPSinkAAC:     "High Fidelity Playback (A2DP Sink: AAC)",
	ProfileA2DPSinkAptX:    "High Fidelity Playback (A2DP Sink: AptX)",
	ProfileA2DPSinkAptXHD:  "High Fidelity Playback (A2DP Sink: AptXHD)",
	ProfileA2DPSinkLDAC:    "High Fidelity Playback (A2DP Sink: LDAC)",
	ProfileOff:             "Off",
}

func (p Profile) String() string { return enumName(profileNames, p) }

// Label returns the human readable description shown next to a profile.
func (p Profile) Label() string { return enumName(profileLabels, p) }

// Valid reports whether p is one of the declared profiles.
func (p Profile) Valid() bool { return profileNames[p] != "" }

func (p *Profile) UnmarshalJSON(data []byte) error {
	return decodeCode(data, profileNames, "profile", p)
}

// ParseProfile accepts either a profile name ("A2DPSinkLDAC") or its code.
func ParseProfile(s string) (Profile, error) {
	for p, name := range profileNames {
		if strings.EqualFold(name, s) || fmt.Sprint(uint8(p)) == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown profile %q", s)
}

// BluetoothProtocol is the transport a Bluetooth device is using.
type BluetoothProtocol uint8

const (
	BluetoothHeadsetHeadUnit BluetoothProtocol = 1
	BluetoothA2DPSink        BluetoothProtocol = 2
)

var bluetoothProtocolNames = map[BluetoothProtocol]string{
	BluetoothHeadsetHeadUnit: "Headset Head Unit (HSP/HFP)",
	BluetoothA2DPSink:        "A2DP Sink",
}

func (b BluetoothProtocol) String() string { return enumName(bluetoothProtocolNames, b) }

// Valid reports whether b is one of the declared protocols.
func (b BluetoothProtocol) Valid() bool { return bluetoothProtocolNames[b] != "" }

func (b *BluetoothProtocol) UnmarshalJSON(data []byte) error {
	return decodeCode(data, bluetoothProtocolNames, "bluetooth protocol", b)
}

// A2DPCodec is the codec negotiated on an A2DP sink.
type A2DPCodec uint8

const (
	CodecSBC    A2DPCodec = 1
	CodecAAC    A2DPCodec = 2
	CodecAptX   A2DPCodec = 3
	CodecAptXHD A2DPCodec = 4
	CodecLDAC   A2DPCodec = 5
)

var codecNames = map[A2DPCodec]string{
	CodecSBC:    "SBC",
	CodecAAC:    "AAC",
	CodecAptX:   "AptX",
	CodecAptXHD: "AptXHD",
	CodecLDAC:   "LDAC",
}

func (c A2DPCodec) String() string { return enumName(codecNames, c) }

// Valid reports whether c is one of the declared codecs.
func (c A2DPCodec) Valid() bool { return codecNames[c] != "" }

func (c *A2DPCodec) UnmarshalJSON(data []byte) error {
	return decodeCode(data, codecNames, "a2dp codec", c)
}

// DeviceState is the runtime state of a source or sink.
type DeviceState uint8

const (
	StateRunning   DeviceState = 1
	StateIdle      DeviceState = 2
	StateSuspended DeviceState = 3
)

var deviceStateNames = map[DeviceState]string{
	StateRunning:   "running",
	StateIdle:      "idle",
	StateSuspended: "suspended",
}

func (s DeviceState) String() string { return enumName(deviceStateNames, s) }

// Valid reports whether s is one of the declared states.
func (s DeviceState) Valid() bool { return deviceStateNames[s] != "" }

func (s *DeviceState) UnmarshalJSON(data []byte) error {
	return decodeCode(data, deviceStateNames, "device state", s)
}

// DeviceKind selects between the source and sink device lists.
type DeviceKind string

const (
	KindSource DeviceKind = "source"
	KindSink   DeviceKind = "sink"
)

// ParseDeviceKind accepts "source" or "sink" in any case.
func ParseDeviceKind(s string) (DeviceKind, error) {
	switch strings.ToLower(s) {
	case string(KindSource):
		return KindSource, nil
	case string(KindSink):
		return KindSink, nil
	}
	return "", fmt.Errorf("unknown device kind %q (want source or sink)", s)
}

// Valid reports whether k is source or sink.
func (k DeviceKind) Valid() bool { return k == KindSource || k == KindSink }

func (k *DeviceKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("device kind: %w", err)
	}
	kind, err := ParseDeviceKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func enumName[E ~uint8](names map[E]string, e E) string {
	if name, ok := names[e]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(e))
}

// decodeCode reads an integer wire code and rejects values outside names.
func decodeCode[E ~uint8](data []byte, names map[E]string, what string, out *E) error {
	var code uint8
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if _, ok := names[E(code)]; !ok {
		return fmt.Errorf("unknown %s %d", what, code)
	}
	*out = E(code)
	return nil
}
