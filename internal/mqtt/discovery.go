package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/five82/zowiebox/internal/entity"
	"github.com/five82/zowiebox/internal/state"
)

// Manufacturer is reported in discovery device blocks.
const Manufacturer = "ZowieTek"

type discoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model,omitempty"`
}

type availabilityEntry struct {
	Topic string `json:"topic"`
}

// discoveryConfig is the Home Assistant MQTT discovery payload. Fields that
// do not apply to a platform are omitted.
type discoveryConfig struct {
	Name                string              `json:"name"`
	UniqueID            string              `json:"unique_id"`
	ObjectID            string              `json:"object_id"`
	Icon                string              `json:"icon,omitempty"`
	StateTopic          string              `json:"state_topic,omitempty"`
	CommandTopic        string              `json:"command_topic,omitempty"`
	JSONAttributesTopic string              `json:"json_attributes_topic,omitempty"`
	Topic               string              `json:"topic,omitempty"`
	Availability        []availabilityEntry `json:"availability"`
	AvailabilityMode    string              `json:"availability_mode"`
	Device              discoveryDevice     `json:"device"`

	PayloadOn  string   `json:"payload_on,omitempty"`
	PayloadOff string   `json:"payload_off,omitempty"`
	Options    []string `json:"options,omitempty"`

	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
	Unit string   `json:"unit_of_measurement,omitempty"`

	Schema              string   `json:"schema,omitempty"`
	Brightness          bool     `json:"brightness,omitempty"`
	SupportedColorModes []string `json:"supported_color_modes,omitempty"`
	MinMireds           *int     `json:"min_mireds,omitempty"`
	MaxMireds           *int     `json:"max_mireds,omitempty"`
}

// errNotReady marks entities whose discovery payload cannot be built yet,
// such as a select with no options.
var errNotReady = errors.New("discovery not ready")

// iconFor follows the mode for mode-aware entities.
func iconFor(e entity.Entity, v state.View) string {
	info := e.Info()
	if !info.ModeAware {
		return info.Icon
	}
	mode := v.Mode()
	if mode == state.ModeUnknown {
		return info.Icon
	}
	kind := info.Kind
	if mode == state.ModeDecoding {
		kind = info.DecodingKind
	}
	return state.DisplayFor(kind, mode).Icon
}

func buildDiscovery(t Topics, node, bridgeAvailability string, dev discoveryDevice, e entity.Entity, v state.View) ([]byte, error) {
	info := e.Info()
	object := info.ObjectID
	cfg := discoveryConfig{
		Name:     e.Label(v),
		UniqueID: info.UniqueID,
		ObjectID: node + "_" + object,
		Icon:     iconFor(e, v),
		Availability: []availabilityEntry{
			{Topic: bridgeAvailability},
			{Topic: t.Availability(node, object)},
		},
		AvailabilityMode: "all",
		Device:           dev,
	}

	switch ent := e.(type) {
	case entity.Camera:
		cfg.Topic = t.Image(node, object)
	case entity.Light:
		cfg.Schema = "json"
		cfg.StateTopic = t.State(node, object)
		cfg.CommandTopic = t.Command(node, object)
		cfg.SupportedColorModes = ent.ColorModes()
		for _, m := range cfg.SupportedColorModes {
			switch m {
			case entity.ColorModeBrightness:
				cfg.Brightness = true
			case entity.ColorModeColorTemp:
				minM, maxM := entity.MinMireds, entity.MaxMireds
				cfg.MinMireds, cfg.MaxMireds = &minM, &maxM
			}
		}
	case entity.Switch:
		cfg.StateTopic = t.State(node, object)
		cfg.CommandTopic = t.Command(node, object)
		cfg.PayloadOn, cfg.PayloadOff = "ON", "OFF"
	case entity.Select:
		cfg.Options = ent.Options(v)
		if len(cfg.Options) == 0 {
			return nil, errNotReady
		}
		cfg.StateTopic = t.State(node, object)
		cfg.CommandTopic = t.Command(node, object)
	case entity.Number:
		cfg.StateTopic = t.State(node, object)
		cfg.CommandTopic = t.Command(node, object)
		minV, maxV, step := info.Min, info.Max, info.Step
		if step == 0 {
			step = 1
		}
		cfg.Min, cfg.Max, cfg.Step = &minV, &maxV, &step
		cfg.Unit = info.Unit
	case entity.Sensor:
		cfg.StateTopic = t.State(node, object)
		cfg.JSONAttributesTopic = t.Attributes(node, object)
		cfg.Unit = info.Unit
	default:
		return nil, fmt.Errorf("entity %s: unsupported platform %s", object, info.Platform)
	}

	return json.Marshal(cfg)
}

// lightState is the JSON schema state and command payload of a light.
type lightState struct {
	State      string `json:"state"`
	Brightness *int   `json:"brightness,omitempty"`
	ColorTemp  *int   `json:"color_temp,omitempty"`
	ColorMode  string `json:"color_mode,omitempty"`
}

func buildLightState(l entity.Light, v state.View) ([]byte, bool) {
	on, ok := l.IsOn(v)
	if !ok {
		return nil, false
	}
	st := lightState{State: "OFF"}
	if on {
		st.State = "ON"
	}
	if b, ok := l.Brightness(v); ok {
		st.Brightness = &b
	}
	if ct, ok := l.ColorTemp(v); ok {
		st.ColorTemp = &ct
	}
	modes := l.ColorModes()
	if len(modes) > 0 {
		st.ColorMode = modes[len(modes)-1]
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, false
	}
	return data, true
}
