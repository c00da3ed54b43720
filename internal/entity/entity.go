package entity

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

var (
	// ErrNoData is returned by setters before the first successful refresh.
	ErrNoData = errors.New("no device data")
	// ErrUnknownOption is returned when a select option is not offered.
	ErrUnknownOption = errors.New("unknown option")
	// ErrOutOfRange is returned when a number is outside its bounds.
	ErrOutOfRange = errors.New("value out of range")
	// ErrUnsupported is returned when the device cannot apply a setting in
	// its current mode.
	ErrUnsupported = errors.New("not supported in current mode")
	// ErrNotFound is returned when the backing stream or device is gone.
	ErrNotFound = errors.New("not found")
)

// Platform is the Home Assistant platform an entity belongs to.
type Platform string

// Platforms.
const (
	PlatformCamera Platform = "camera"
	PlatformSwitch Platform = "switch"
	PlatformSelect Platform = "select"
	PlatformNumber Platform = "number"
	PlatformSensor Platform = "sensor"
	PlatformLight  Platform = "light"
)

// Commander runs device writes. *coordinator.Coordinator implements it.
type Commander interface {
	Do(ctx context.Context, action string, call func(context.Context) (zowie.Response, error)) (zowie.Response, error)
	Control(ctx context.Context, deviceID, command string, value any) (zowie.Response, error)
}

// ViewSource exposes the current device state.
type ViewSource interface {
	Snapshot() state.View
}

// DeviceAPI is the subset of *zowie.Client the entity setters call.
type DeviceAPI interface {
	SetEncodingInfo(ctx context.Context, venc []zowie.VencSettings) (zowie.Response, error)
	SetStreamSwitch(ctx context.Context, streamID int, on bool) (zowie.Response, error)
	SetStreamResolution(ctx context.Context, streamID, width, height int) (zowie.Response, error)
	SetStreamCodec(ctx context.Context, streamID, codecID int) (zowie.Response, error)
	SetStreamBitrate(ctx context.Context, streamID, bitrate int) (zowie.Response, error)
	SetStreamFramerate(ctx context.Context, streamID int, fps float64) (zowie.Response, error)
	SetOutputProtocolSwitch(ctx context.Context, protocol string, streamID int, on bool) (zowie.Response, error)
	SetStreamplaySwitch(ctx context.Context, index int, on bool) (zowie.Response, error)
	PTZControl(ctx context.Context, move zowie.PTZMove) (zowie.Response, error)
	FocusControl(ctx context.Context, settings zowie.FocusSettings) (zowie.Response, error)
	ExposureControl(ctx context.Context, settings zowie.ExposureSettings) (zowie.Response, error)
	WhiteBalanceControl(ctx context.Context, settings zowie.WhiteBalanceSettings) (zowie.Response, error)
	ImageControl(ctx context.Context, settings zowie.ImageSettings) (zowie.Response, error)
	AudioSwitch(ctx context.Context, on bool) (zowie.Response, error)
	SetAudioVolume(ctx context.Context, volume int) (zowie.Response, error)
	SetRecordingTask(ctx context.Context, index string, enable bool) (zowie.Response, error)
	TallyControl(ctx context.Context, settings zowie.TallySettings) (zowie.Response, error)
}

// Deps are the collaborators shared by every entity of one device entry.
type Deps struct {
	EntryID string
	API     DeviceAPI
	Cmd     Commander
	Views   ViewSource
	// HTTP fetches camera snapshots. Nil uses a client with the default
	// device timeout.
	HTTP   *http.Client
	Logger zerolog.Logger
}

// Info describes an entity independently of state.
type Info struct {
	UniqueID string
	ObjectID string
	Name     string
	Icon     string
	Platform Platform
	// Kind is the mode relevance category. For mode-aware entities it is
	// the encoding-mode kind and DecodingKind the decoding-mode one.
	Kind         state.Kind
	DecodingKind state.Kind
	ModeAware    bool
	DeviceID     string
	Unit         string
	Min          float64
	Max          float64
	Step         float64
}

// Entity is the common surface of every platform adapter.
type Entity interface {
	Info() Info
	// Label is the display name, which for mode-aware entities follows the
	// current mode.
	Label(v state.View) string
	Available(v state.View) bool
	// State renders the entity state as text; false when unknown.
	State(v state.View) (string, bool)
}

// Switch is an on/off entity.
type Switch interface {
	Entity
	IsOn(v state.View) (bool, bool)
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
}

// Select chooses one option from a list.
type Select interface {
	Entity
	Current(v state.View) (string, bool)
	Options(v state.View) []string
	SelectOption(ctx context.Context, option string) error
}

// Number is a bounded numeric setting.
type Number interface {
	Entity
	Value(v state.View) (float64, bool)
	SetValue(ctx context.Context, value float64) error
}

// Sensor is a read-only value with attributes.
type Sensor interface {
	Entity
	Attributes(v state.View) map[string]any
}

// Camera is a stream with snapshot images.
type Camera interface {
	Entity
	IsRecording(v state.View) bool
	StreamSource(v state.View) string
	Image(ctx context.Context) ([]byte, error)
}

// Light is a dimmable light with optional color temperature.
type Light interface {
	Entity
	IsOn(v state.View) (bool, bool)
	Brightness(v state.View) (int, bool)
	ColorTemp(v state.View) (int, bool)
	ColorModes() []string
	TurnOn(ctx context.Context, cmd LightCommand) error
	TurnOff(ctx context.Context) error
}

type action func(context.Context) (zowie.Response, error)

// base carries identity, availability and the write path.
type base struct {
	info Info
	deps *Deps
	// present reports whether the backing record exists in snap.
	present func(snap *state.Snapshot) bool
}

func (b *base) Info() Info { return b.info }

func (b *base) kindFor(mode state.Mode) state.Kind {
	if b.info.ModeAware && mode == state.ModeDecoding {
		return b.info.DecodingKind
	}
	return b.info.Kind
}

func (b *base) Label(v state.View) string {
	if !b.info.ModeAware {
		return b.info.Name
	}
	mode := v.Mode()
	if mode == state.ModeUnknown {
		return b.info.Name
	}
	return state.DisplayFor(b.kindFor(mode), mode).Name
}

func (b *base) Available(v state.View) bool {
	if !v.Available() {
		return false
	}
	if b.present != nil && !b.present(v.Data) {
		return false
	}
	if b.info.ModeAware {
		mode := v.Mode()
		return state.Relevant(mode, b.kindFor(mode))
	}
	return true
}

// run resolves a write against the current snapshot and sends it through
// the commander. resolve may reject the write before any request is made.
func (b *base) run(ctx context.Context, desc string, resolve func(snap *state.Snapshot) (action, error)) error {
	view := b.deps.Views.Snapshot()
	if view.Data == nil {
		return ErrNoData
	}
	act, err := resolve(view.Data)
	if err != nil {
		return err
	}
	_, err = b.deps.Cmd.Do(ctx, desc, act)
	return err
}

func newBase(deps *Deps, info Info) base {
	if info.UniqueID == "" {
		info.UniqueID = deps.EntryID + "_" + info.ObjectID
	}
	return base{info: info, deps: deps}
}
