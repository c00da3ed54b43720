package entity

import (
	"context"
	"fmt"

	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

// Color temperature bounds in mireds (6500K..2000K).
const (
	MinMireds = 153
	MaxMireds = 500
)

// Color modes.
const (
	ColorModeOnOff      = "onoff"
	ColorModeBrightness = "brightness"
	ColorModeColorTemp  = "color_temp"
)

// LightCommand carries optional turn-on parameters. Brightness is 0..255.
type LightCommand struct {
	Brightness *int
	ColorTemp  *int
}

type lightEntity struct {
	base
	deviceID string
	modes    []string
}

func newLight(deps *Deps, dev zowie.Device) *lightEntity {
	name := dev.Name
	if name == "" {
		name = "Device " + dev.ID
	}
	// onoff is only valid as the sole supported mode.
	var modes []string
	if dev.HasCapability(zowie.CapBrightness) {
		modes = append(modes, ColorModeBrightness)
	}
	if dev.HasCapability(zowie.CapColorTemp) {
		modes = append(modes, ColorModeColorTemp)
	}
	if len(modes) == 0 {
		modes = []string{ColorModeOnOff}
	}
	l := &lightEntity{
		base: newBase(deps, Info{
			ObjectID: dev.ID + "_light",
			Name:     name,
			Icon:     "mdi:lightbulb",
			Platform: PlatformLight,
			DeviceID: dev.ID,
			Min:      MinMireds,
			Max:      MaxMireds,
		}),
		deviceID: dev.ID,
		modes:    modes,
	}
	l.present = devicePresent(dev.ID)
	return l
}

func (l *lightEntity) device(v state.View) (zowie.Device, bool) {
	return v.Data.Device(l.deviceID)
}

func (l *lightEntity) IsOn(v state.View) (bool, bool) {
	dev, ok := l.device(v)
	if !ok {
		return false, false
	}
	return dev.State == "on", true
}

func (l *lightEntity) Brightness(v state.View) (int, bool) {
	dev, ok := l.device(v)
	if !ok || !zowie.Has(dev.Controls.Brightness) {
		return 0, false
	}
	return int(dev.Controls.Brightness.Float() * 255 / 100), true
}

func (l *lightEntity) ColorTemp(v state.View) (int, bool) {
	dev, ok := l.device(v)
	if !ok || !zowie.Has(dev.Controls.ColorTemp) {
		return 0, false
	}
	return dev.Controls.ColorTemp.Int(), true
}

func (l *lightEntity) ColorModes() []string { return append([]string(nil), l.modes...) }

func (l *lightEntity) State(v state.View) (string, bool) {
	on, ok := l.IsOn(v)
	if !ok {
		return "", false
	}
	return onOff(on), true
}

// TurnOn sends turn_on with brightness converted to percent.
func (l *lightEntity) TurnOn(ctx context.Context, cmd LightCommand) error {
	data := map[string]any{"command": "turn_on"}
	if cmd.Brightness != nil {
		b := *cmd.Brightness
		if b < 0 || b > 255 {
			return fmt.Errorf("%w: brightness %d not in [0, 255]", ErrOutOfRange, b)
		}
		data["brightness"] = b * 100 / 255
	}
	if cmd.ColorTemp != nil {
		ct := *cmd.ColorTemp
		if ct < MinMireds || ct > MaxMireds {
			return fmt.Errorf("%w: color temp %d not in [%d, %d]", ErrOutOfRange, ct, MinMireds, MaxMireds)
		}
		data["color_temp"] = ct
	}
	if l.deps.Views.Snapshot().Data == nil {
		return ErrNoData
	}
	_, err := l.deps.Cmd.Control(ctx, l.deviceID, "turn_on", data)
	return err
}

func (l *lightEntity) TurnOff(ctx context.Context) error {
	if l.deps.Views.Snapshot().Data == nil {
		return ErrNoData
	}
	_, err := l.deps.Cmd.Control(ctx, l.deviceID, "turn_off", nil)
	return err
}

func devicePresent(id string) func(*state.Snapshot) bool {
	return func(snap *state.Snapshot) bool {
		_, ok := snap.Device(id)
		return ok
	}
}
