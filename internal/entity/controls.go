package entity

import (
	"context"
	"fmt"

	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

// Select options for camera controls. Tally options map to their index.
var (
	ExposureModes     = []string{"auto", "manual", "shutter_priority", "aperture_priority"}
	WhiteBalanceModes = []string{"auto", "manual", "daylight", "tungsten", "fluorescent"}
	TallyColors       = []string{"off", "red", "green", "blue"}
	TallyModes        = []string{"auto", "manual"}
)

// controlNumber describes one numeric camera control.
type controlNumber struct {
	suffix string
	label  string
	icon   string
	unit   string
	min    float64
	max    float64
	step   float64
	def    float64
	get    func(c zowie.CameraControls) *zowie.Num
	call   func(api DeviceAPI, v float64) action
}

// controlSelect describes one camera mode select.
type controlSelect struct {
	suffix  string
	label   string
	icon    string
	options []string
	get     func(c zowie.CameraControls) *string
	call    func(api DeviceAPI, idx int, option string) action
}

var ptzNumbers = []controlNumber{
	{
		suffix: "pan",
		label:  "Pan",
		icon:   "mdi:pan-horizontal",
		unit:   "°",
		min:    -180,
		max:    180,
		step:   1,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.PanPosition },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.PTZControl(ctx, zowie.PTZMove{Pan: zowie.Ptr(int(v))})
			}
		},
	},
	{
		suffix: "tilt",
		label:  "Tilt",
		icon:   "mdi:pan-vertical",
		unit:   "°",
		min:    -90,
		max:    90,
		step:   1,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.TiltPosition },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.PTZControl(ctx, zowie.PTZMove{Tilt: zowie.Ptr(int(v))})
			}
		},
	},
	{
		// Zoom is sent in tenths.
		suffix: "zoom",
		label:  "Zoom",
		icon:   "mdi:magnify",
		unit:   "x",
		min:    1,
		max:    20,
		step:   0.1,
		def:    1,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.ZoomLevel },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.PTZControl(ctx, zowie.PTZMove{Zoom: zowie.Ptr(int(v*10 + 0.5))})
			}
		},
	},
}

var focusNumbers = []controlNumber{
	{
		suffix: "focus",
		label:  "Focus",
		icon:   "mdi:focus-field",
		min:    0,
		max:    100,
		step:   1,
		def:    50,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.FocusPosition },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.FocusControl(ctx, zowie.FocusSettings{Focus: zowie.Ptr(int(v))})
			}
		},
	},
	{
		suffix: "focus_speed",
		label:  "Focus Speed",
		icon:   "mdi:speedometer",
		min:    1,
		max:    10,
		step:   1,
		def:    5,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.FocusSpeed },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.FocusControl(ctx, zowie.FocusSettings{FocusSpeed: zowie.Ptr(int(v))})
			}
		},
	},
}

var exposureNumbers = []controlNumber{
	{
		suffix: "gain",
		label:  "Gain",
		icon:   "mdi:brightness-6",
		unit:   "dB",
		min:    0,
		max:    100,
		step:   1,
		def:    50,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.Gain },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.ExposureControl(ctx, zowie.ExposureSettings{Gain: zowie.Ptr(int(v))})
			}
		},
	},
	{
		suffix: "shutter",
		label:  "Shutter Speed",
		icon:   "mdi:camera-timer",
		unit:   "1/s",
		min:    1,
		max:    10000,
		step:   1,
		def:    100,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.ShutterSpeed },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.ExposureControl(ctx, zowie.ExposureSettings{Shutter: zowie.Ptr(int(v))})
			}
		},
	},
}

var exposureSelects = []controlSelect{
	{
		suffix:  "exposure_mode",
		label:   "Exposure Mode",
		icon:    "mdi:camera-iris",
		options: ExposureModes,
		get:     func(c zowie.CameraControls) *string { return c.ExposureMode },
		call: func(api DeviceAPI, _ int, option string) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.ExposureControl(ctx, zowie.ExposureSettings{Mode: zowie.Ptr(option)})
			}
		},
	},
}

var whiteBalanceSelects = []controlSelect{
	{
		suffix:  "wb_mode",
		label:   "White Balance",
		icon:    "mdi:white-balance-auto",
		options: WhiteBalanceModes,
		get:     func(c zowie.CameraControls) *string { return c.WhiteBalanceMode },
		call: func(api DeviceAPI, _ int, option string) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.WhiteBalanceControl(ctx, zowie.WhiteBalanceSettings{Mode: zowie.Ptr(option)})
			}
		},
	},
}

var whiteBalanceNumbers = []controlNumber{
	{
		suffix: "saturation",
		label:  "Saturation",
		icon:   "mdi:palette",
		min:    0,
		max:    100,
		step:   1,
		def:    50,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.Saturation },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.WhiteBalanceControl(ctx, zowie.WhiteBalanceSettings{Saturation: zowie.Ptr(int(v))})
			}
		},
	},
}

var imageNumbers = []controlNumber{
	{
		suffix: "brightness",
		label:  "Brightness",
		icon:   "mdi:brightness-5",
		min:    0,
		max:    100,
		step:   1,
		def:    50,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.Brightness },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.ImageControl(ctx, zowie.ImageSettings{Brightness: zowie.Ptr(int(v))})
			}
		},
	},
	{
		suffix: "contrast",
		label:  "Contrast",
		icon:   "mdi:contrast-circle",
		min:    0,
		max:    100,
		step:   1,
		def:    50,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.Contrast },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.ImageControl(ctx, zowie.ImageSettings{Contrast: zowie.Ptr(int(v))})
			}
		},
	},
	{
		suffix: "sharpness",
		label:  "Sharpness",
		icon:   "mdi:image-filter-center-focus",
		min:    0,
		max:    100,
		step:   1,
		def:    50,
		get:    func(c zowie.CameraControls) *zowie.Num { return c.Sharpness },
		call: func(api DeviceAPI, v float64) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.ImageControl(ctx, zowie.ImageSettings{Sharpness: zowie.Ptr(int(v))})
			}
		},
	},
}

var tallySelects = []controlSelect{
	{
		suffix:  "tally_color",
		label:   "Tally Color",
		icon:    "mdi:lightbulb-on",
		options: TallyColors,
		get:     func(c zowie.CameraControls) *string { return c.TallyColor },
		call: func(api DeviceAPI, idx int, _ string) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.TallyControl(ctx, zowie.TallySettings{ColorID: zowie.Ptr(idx)})
			}
		},
	},
	{
		suffix:  "tally_mode",
		label:   "Tally Mode",
		icon:    "mdi:lightbulb-auto",
		options: TallyModes,
		get:     func(c zowie.CameraControls) *string { return c.TallyMode },
		call: func(api DeviceAPI, idx int, _ string) action {
			return func(ctx context.Context) (zowie.Response, error) {
				return api.TallyControl(ctx, zowie.TallySettings{ModeID: zowie.Ptr(idx)})
			}
		},
	},
}

// IsCameraDevice reports whether dev gets camera controls.
func IsCameraDevice(dev zowie.Device) bool {
	return dev.Type == zowie.DeviceTypeCamera || dev.Type == zowie.DeviceTypePTZ
}

// controlEntities builds the camera controls dev advertises.
func controlEntities(deps *Deps, dev zowie.Device) []Entity {
	if !IsCameraDevice(dev) {
		return nil
	}
	var out []Entity
	addNumbers := func(controls []controlNumber) {
		for _, ctl := range controls {
			out = append(out, newControlNumber(deps, dev, ctl))
		}
	}
	addSelects := func(controls []controlSelect) {
		for _, ctl := range controls {
			out = append(out, newControlSelect(deps, dev, ctl))
		}
	}
	if dev.HasCapability(zowie.CapPTZ) {
		addNumbers(ptzNumbers)
	}
	if dev.HasCapability(zowie.CapFocus) {
		addNumbers(focusNumbers)
	}
	if dev.HasCapability(zowie.CapExposure) {
		addNumbers(exposureNumbers)
		addSelects(exposureSelects)
	}
	if dev.HasCapability(zowie.CapWhiteBalance) {
		addSelects(whiteBalanceSelects)
		addNumbers(whiteBalanceNumbers)
	}
	if dev.HasCapability(zowie.CapImageControl) {
		addNumbers(imageNumbers)
	}
	if dev.HasCapability(zowie.CapAudio) {
		out = append(out, newAudioVolume(deps, dev), newAudioSwitch(deps, dev))
	}
	if dev.HasCapability(zowie.CapRecording) {
		out = append(out, newRecordingSwitch(deps, dev))
	}
	if dev.HasCapability(zowie.CapTally) {
		addSelects(tallySelects)
	}
	return out
}

func deviceLabel(dev zowie.Device) string {
	if dev.Name != "" {
		return dev.Name
	}
	return "Device " + dev.ID
}

func controlInfo(dev zowie.Device, suffix, label, icon string, platform Platform) Info {
	return Info{
		ObjectID: dev.ID + "_" + suffix,
		Name:     deviceLabel(dev) + " " + label,
		Icon:     icon,
		Platform: platform,
		DeviceID: dev.ID,
	}
}

func newControlNumber(deps *Deps, dev zowie.Device, ctl controlNumber) Entity {
	info := controlInfo(dev, ctl.suffix, ctl.label, ctl.icon, PlatformNumber)
	info.Unit, info.Min, info.Max, info.Step = ctl.unit, ctl.min, ctl.max, ctl.step
	n := &numberEntity{
		base: newBase(deps, info),
		value: func(snap *state.Snapshot) (float64, bool) {
			d, ok := snap.Device(dev.ID)
			if !ok {
				return 0, false
			}
			return zowie.FloatOr(ctl.get(d.Controls), ctl.def), true
		},
		set: func(_ *state.Snapshot, v float64) (action, error) {
			return ctl.call(deps.API, v), nil
		},
	}
	n.present = devicePresent(dev.ID)
	return n
}

func newControlSelect(deps *Deps, dev zowie.Device, ctl controlSelect) Entity {
	s := &selectEntity{
		base: newBase(deps, controlInfo(dev, ctl.suffix, ctl.label, ctl.icon, PlatformSelect)),
		current: func(snap *state.Snapshot) (string, bool) {
			d, ok := snap.Device(dev.ID)
			if !ok {
				return "", false
			}
			if v := ctl.get(d.Controls); v != nil {
				return *v, true
			}
			return ctl.options[0], true
		},
		options: func(*state.Snapshot) []string { return append([]string(nil), ctl.options...) },
		set: func(_ *state.Snapshot, option string) (action, error) {
			for i, o := range ctl.options {
				if o == option {
					return ctl.call(deps.API, i, option), nil
				}
			}
			return nil, fmt.Errorf("%w: %q", ErrUnknownOption, option)
		},
	}
	s.present = devicePresent(dev.ID)
	return s
}

func newAudioVolume(deps *Deps, dev zowie.Device) Entity {
	info := controlInfo(dev, "audio_volume", "Audio Volume", "mdi:volume-high", PlatformNumber)
	info.Unit, info.Min, info.Max, info.Step = "%", 0, 100, 1
	n := &numberEntity{
		base: newBase(deps, info),
		value: func(snap *state.Snapshot) (float64, bool) {
			d, ok := snap.Device(dev.ID)
			if !ok {
				return 0, false
			}
			return zowie.FloatOr(d.Controls.AudioVolume, float64(snap.Audio.Volume)), true
		},
		set: func(_ *state.Snapshot, v float64) (action, error) {
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetAudioVolume(ctx, int(v))
			}, nil
		},
	}
	n.present = devicePresent(dev.ID)
	return n
}

func newAudioSwitch(deps *Deps, dev zowie.Device) Entity {
	s := &switchEntity{
		base: newBase(deps, controlInfo(dev, "audio", "Audio", "mdi:volume-high", PlatformSwitch)),
		isOn: func(snap *state.Snapshot) (bool, bool) {
			d, ok := snap.Device(dev.ID)
			if !ok {
				return false, false
			}
			if zowie.Has(d.Controls.AudioEnabled) {
				return d.Controls.AudioEnabled.Int() != 0, true
			}
			return snap.Audio.Enabled, true
		},
		set: func(_ *state.Snapshot, on bool) (action, error) {
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.AudioSwitch(ctx, on)
			}, nil
		},
	}
	s.present = devicePresent(dev.ID)
	return s
}

// RecordingTask is the task index toggled by the recording switch.
const RecordingTask = "0"

func newRecordingSwitch(deps *Deps, dev zowie.Device) Entity {
	s := &switchEntity{
		base: newBase(deps, controlInfo(dev, "recording", "Recording", "mdi:record-rec", PlatformSwitch)),
		isOn: func(snap *state.Snapshot) (bool, bool) {
			d, ok := snap.Device(dev.ID)
			if !ok {
				return false, false
			}
			return zowie.IntOr(d.Controls.Recording, 0) != 0, true
		},
		set: func(_ *state.Snapshot, on bool) (action, error) {
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetRecordingTask(ctx, RecordingTask, on)
			}, nil
		},
	}
	s.present = devicePresent(dev.ID)
	return s
}
