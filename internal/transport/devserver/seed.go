package devserver

import "github.com/edumarques81/stellar-audiodevices/internal/domain/devices"

// DemoSnapshot returns a small desktop setup: built-in analog audio, a USB
// webcam microphone and a pair of Bluetooth headphones playing over LDAC.
func DemoSnapshot() *devices.Snapshot {
	a2dp := devices.BluetoothA2DPSink
	ldac := devices.CodecLDAC

	return &devices.Snapshot{
		Cards: []devices.Card{
			{
				Index:         0,
				Name:          "alsa_card.pci-0000_00_1f.3",
				Driver:        "module-alsa-card.c",
				Description:   "Built-in Audio",
				Bus:           devices.BusPCI,
				FormFactor:    devices.FormFactorInternal,
				SourceIDs:     []int{0},
				SinkIDs:       []int{0},
				Profiles:      []devices.Profile{},
				ActiveProfile: devices.ProfileOff,
			},
			{
				Index:         1,
				Name:          "alsa_card.usb-046d_HD_Webcam_C615",
				Driver:        "module-alsa-card.c",
				Description:   "HD Webcam C615",
				Bus:           devices.BusUSB,
				FormFactor:    devices.FormFactorWebcam,
				SourceIDs:     []int{1},
				SinkIDs:       []int{},
				Profiles:      []devices.Profile{},
				ActiveProfile: devices.ProfileOff,
			},
			{
				Index:       2,
				Name:        "bluez_card.38_18_4C_12_34_56",
				Driver:      "module-bluez5-device.c",
				Description: "WH-1000XM4",
				Bus:         devices.BusBluetooth,
				FormFactor:  devices.FormFactorHeadphones,
				SourceIDs:   []int{},
				SinkIDs:     []int{2},
				Profiles: []devices.Profile{
					devices.ProfileHeadsetHeadUnit,
					devices.ProfileA2DPSinkSBC,
					devices.ProfileA2DPSinkAAC,
					devices.ProfileA2DPSinkLDAC,
					devices.ProfileOff,
				},
				ActiveProfile: devices.ProfileA2DPSinkLDAC,
			},
		},
		Sources: []devices.Device{
			{
				Index:       0,
				Name:        "alsa_input.pci-0000_00_1f.3.analog-stereo",
				Driver:      "module-alsa-card.c",
				State:       devices.StateSuspended,
				Description: "Built-in Audio Analog Stereo",
				Volume:      40,
				CardIndex:   0,
				FormFactor:  devices.FormFactorInternal,
				Bus:         devices.BusPCI,
			},
			{
				Index:       1,
				Name:        "alsa_input.usb-046d_HD_Webcam_C615.analog-stereo",
				Driver:      "module-alsa-card.c",
				State:       devices.StateIdle,
				Description: "HD Webcam C615 Analog Stereo",
				IsDefault:   true,
				Volume:      65,
				CardIndex:   1,
				FormFactor:  devices.FormFactorWebcam,
				Bus:         devices.BusUSB,
			},
		},
		Sinks: []devices.Device{
			{
				Index:       0,
				Name:        "alsa_output.pci-0000_00_1f.3.analog-stereo",
				Driver:      "module-alsa-card.c",
				State:       devices.StateIdle,
				Description: "Built-in Audio Analog Stereo",
				Volume:      80,
				CardIndex:   0,
				FormFactor:  devices.FormFactorInternal,
				Bus:         devices.BusPCI,
			},
			{
				Index:             2,
				Name:              "bluez_sink.38_18_4C_12_34_56.a2dp_sink",
				Driver:            "module-bluez5-device.c",
				State:             devices.StateRunning,
				Description:       "WH-1000XM4",
				IsDefault:         true,
				Volume:            45,
				CardIndex:         2,
				BluetoothProtocol: &a2dp,
				A2DPCodec:         &ldac,
				FormFactor:        devices.FormFactorHeadphones,
				Bus:               devices.BusBluetooth,
			},
		},
	}
}
