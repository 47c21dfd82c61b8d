package profile

import "github.com/muurk/budsctl/internal/device"

// Preset tables. Older models number the default preset 5.
var (
	presetsPro = []device.Preset{
		{ID: 5, Name: "default"},
		{ID: 1, Name: "hardbass"},
		{ID: 2, Name: "treble"},
		{ID: 9, Name: "voice"},
	}
	presetsStandard = []device.Preset{
		{ID: 1, Name: "default"},
		{ID: 2, Name: "hardbass"},
		{ID: 3, Name: "treble"},
		{ID: 9, Name: "voices"},
	}
)

func rfcomm(channel uint8) Transport {
	return Transport{Kind: RFCOMM, Channel: channel}
}

var accessoryTransport = Transport{Kind: L2CAP, PSM: PSMAccessory}

// FreeBudsPro3 covers FreeBuds Pro 3, Pro 4 and FreeClip.
func FreeBudsPro3() *Profile {
	return freeBudsPro("FreeBuds Pro 3", ChannelPrimary)
}

// FreeBudsPro2 covers FreeBuds Pro 2 and the original Pro.
func FreeBudsPro2() *Profile {
	return freeBudsPro("FreeBuds Pro 2", ChannelSecondary)
}

func freeBudsPro(name string, channel uint8) *Profile {
	return &Profile{
		Name:      name,
		Transport: rfcomm(channel),
		Handlers: []device.Handler{
			device.NewInfo(),
			device.NewANC(device.ANCOptions{CancelLevels: true, CancelDynamic: true, VoiceBoost: true}),
			device.NewANCChange(),
			device.NewBattery(true),
			device.NewSoundQuality(),
			device.NewEqualizer(true, presetsPro...),
			device.NewAutoPause(),
			device.NewDualConnect(),
			device.NewDoubleTap(false),
			device.NewLongTapSplit(device.LongTapOptions{Left: true, Right: true, ANC: true}),
			device.NewSwipe(),
			device.NewLowLatency(),
		},
	}
}

// FreeBuds5 is the open-fit FreeBuds 5.
func FreeBuds5() *Profile {
	return &Profile{
		Name:      "FreeBuds 5",
		Transport: rfcomm(ChannelPrimary),
		Handlers: []device.Handler{
			device.NewInfo(),
			device.NewBattery(true),
			device.NewANC(device.ANCOptions{CancelLevels: true}),
			device.NewANCChange(),
			device.NewAutoPause(),
			device.NewDoubleTap(true),
			device.NewTripleTap(),
			device.NewLongTapSplit(device.LongTapOptions{Left: true, Right: true, ANC: true}),
			device.NewSwipe(),
			device.NewLowLatency(),
			device.NewSoundQuality(),
			device.NewEqualizer(false, presetsStandard...),
		},
	}
}

// FreeBuds5i also serves the FreeBuds 6i.
func FreeBuds5i() *Profile {
	return freeBudsI("FreeBuds 5i")
}

func FreeBuds6i() *Profile {
	return freeBudsI("FreeBuds 6i")
}

func freeBudsI(name string) *Profile {
	return &Profile{
		Name:      name,
		Transport: rfcomm(ChannelSecondary),
		Handlers: []device.Handler{
			device.NewInfo(),
			device.NewBattery(true),
			device.NewANC(device.ANCOptions{CancelLevels: true, CancelDynamic: true}),
			device.NewANCChange(),
			device.NewDoubleTap(true),
			device.NewTripleTap(),
			device.NewLongTapSplit(device.LongTapOptions{Left: true, Right: true, ANC: true}),
			device.NewSwipe(),
			device.NewAutoPause(),
			device.NewSoundQuality(),
			device.NewLowLatency(),
			device.NewEqualizer(false, presetsStandard...),
			device.NewDualConnect(),
		},
	}
}

// FreeBuds4i covers FreeBuds 4i and the HONOR Earbuds 2 family.
func FreeBuds4i() *Profile {
	return &Profile{
		Name:      "FreeBuds 4i",
		Transport: rfcomm(ChannelSecondary),
		Handlers: []device.Handler{
			device.NewInfo(),
			device.NewANC(device.ANCOptions{}),
			device.NewANCChange(),
			device.NewBattery(true),
			device.NewDoubleTap(false),
			device.NewLongTapSplit(device.LongTapOptions{Left: true, ANC: true}),
			device.NewAutoPause(),
		},
	}
}

func FreeBudsSE2() *Profile {
	return &Profile{
		Name:      "FreeBuds SE 2",
		Transport: rfcomm(ChannelPrimary),
		Handlers: []device.Handler{
			device.NewInfo(),
			device.NewBattery(true),
			device.NewDoubleTap(true),
			device.NewTripleTap(),
			device.NewLongTapSplit(device.LongTapOptions{InCall: true}),
			device.NewEqualizer(false, presetsStandard...),
			device.NewLowLatency(),
		},
	}
}

// AirPodsPro also serves AirPods Max, which share the full feature set.
func AirPodsPro() *Profile {
	return airPodsFull("AirPods Pro")
}

func AirPodsMax() *Profile {
	return airPodsFull("AirPods Max")
}

func airPodsFull(name string) *Profile {
	return &Profile{
		Name:      name,
		Transport: accessoryTransport,
		Handshake: true,
		Handlers: []device.Handler{
			device.NewAccessoryInfo(),
			device.NewAccessoryBattery(),
			device.NewAccessoryEarDetection(),
			device.NewAccessoryANC(true),
			device.NewAccessoryConversation(),
			device.NewAccessoryPersonalizedVolume(),
		},
	}
}

// AirPods is the basic profile for other AirPods: battery and ear detection.
func AirPods() *Profile {
	return &Profile{
		Name:      "AirPods",
		Transport: accessoryTransport,
		Handshake: true,
		Handlers: []device.Handler{
			device.NewAccessoryInfo(),
			device.NewAccessoryBattery(),
			device.NewAccessoryEarDetection(),
		},
	}
}

// Probe is used for devices no other profile matches. It enables every
// framed feature that is safe to query.
func Probe() *Profile {
	return &Profile{
		Name:      "Generic Huawei",
		Transport: rfcomm(ChannelSecondary),
		Probe:     true,
		Handlers: []device.Handler{
			device.NewInfo(),
			device.NewBattery(true),
			device.NewANC(device.ANCOptions{CancelLevels: true, CancelDynamic: true, VoiceBoost: true}),
			device.NewANCChange(),
			device.NewAutoPause(),
			device.NewDoubleTap(true),
			device.NewLongTapSplit(device.LongTapOptions{Left: true, Right: true, InCall: true, ANC: true}),
			device.NewSwipe(),
			device.NewLowLatency(),
			device.NewSoundQuality(),
			device.NewDualConnect(),
		},
	}
}

// Default returns the registry of every supported model.
func Default() *Registry {
	r := NewRegistry(Probe)
	r.Register(FreeBudsPro3, "HUAWEI FreeBuds Pro 3", "HUAWEI FreeBuds Pro 4", "HUAWEI FreeClip")
	r.Register(FreeBudsPro2, "HUAWEI FreeBuds Pro 2", "HUAWEI FreeBuds Pro")
	r.Register(FreeBuds5, "HUAWEI FreeBuds 5")
	r.Register(FreeBuds5i, "HUAWEI FreeBuds 5i")
	r.Register(FreeBuds6i, "HUAWEI FreeBuds 6i")
	r.Register(FreeBuds4i, "HUAWEI FreeBuds 4i", "HONOR Earbuds 2", "HONOR Earbuds 2 SE", "HONOR Earbuds 2 Lite")
	r.Register(FreeBudsSE2, "HUAWEI FreeBuds SE 2")
	r.RegisterPattern("AirPods Pro", AirPodsPro)
	r.RegisterPattern("AirPods Max", AirPodsMax)
	r.RegisterPattern("AirPods", AirPods)
	return r
}
