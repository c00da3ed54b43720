package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/zowiebox/internal/entity"
	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

func discoveryFor(t *testing.T, env *testEnv, objectID string) map[string]any {
	t.Helper()
	v := env.views.Snapshot()
	env.registry.Sync(v)
	e, ok := env.registry.Lookup(objectID)
	require.True(t, ok, "entity %s not registered", objectID)

	payload, err := buildDiscovery(testTopics(), "node1", "zowiebox/zowiebox/availability", env.bridge.device(), e, v)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(payload, &out))
	return out
}

func TestDiscoverySwitch(t *testing.T) {
	env := newTestEnv(streamSnapshot())
	cfg := discoveryFor(t, env, "switch_0")

	assert.Equal(t, "Stream 0", cfg["name"])
	assert.Equal(t, "entry1_switch_0", cfg["unique_id"])
	assert.Equal(t, "node1_switch_0", cfg["object_id"])
	assert.Equal(t, "zowiebox/node1/switch_0/state", cfg["state_topic"])
	assert.Equal(t, "zowiebox/node1/switch_0/set", cfg["command_topic"])
	assert.Equal(t, "ON", cfg["payload_on"])
	assert.Equal(t, "OFF", cfg["payload_off"])
	assert.Equal(t, "all", cfg["availability_mode"])

	availability, ok := cfg["availability"].([]any)
	require.True(t, ok)
	require.Len(t, availability, 2)
	assert.Equal(t, "zowiebox/zowiebox/availability", availability[0].(map[string]any)["topic"])
	assert.Equal(t, "zowiebox/node1/switch_0/availability", availability[1].(map[string]any)["topic"])

	device, ok := cfg["device"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Zowietek 10.0.0.5", device["name"])
	assert.Equal(t, Manufacturer, device["manufacturer"])
	assert.Equal(t, []any{"node1"}, device["identifiers"])
}

func TestDiscoveryNumber(t *testing.T) {
	env := newTestEnv(streamSnapshot())
	cfg := discoveryFor(t, env, "bitrate_0")

	assert.Equal(t, float64(entity.MinBitrate), cfg["min"])
	assert.Equal(t, float64(entity.MaxBitrate), cfg["max"])
	assert.Equal(t, float64(entity.BitrateStep), cfg["step"])
	assert.Equal(t, "bps", cfg["unit_of_measurement"])
	assert.Equal(t, "zowiebox/node1/bitrate_0/set", cfg["command_topic"])
}

func TestDiscoverySelect(t *testing.T) {
	env := newTestEnv(streamSnapshot())
	cfg := discoveryFor(t, env, "active_stream")

	assert.Equal(t, []any{"Stream 0", "Stream 1"}, cfg["options"])
}

func TestDiscoverySelectWithoutOptions(t *testing.T) {
	env := newTestEnv(&state.Snapshot{StatusOK: true})
	v := env.views.Snapshot()
	env.registry.Sync(v)
	e, ok := env.registry.Lookup("active_stream")
	require.True(t, ok)

	_, err := buildDiscovery(testTopics(), "node1", "a", env.bridge.device(), e, v)
	assert.ErrorIs(t, err, errNotReady)
}

func TestDiscoverySensor(t *testing.T) {
	env := newTestEnv(streamSnapshot())
	cfg := discoveryFor(t, env, "stream_0")

	assert.Equal(t, "zowiebox/node1/stream_0/state", cfg["state_topic"])
	assert.Equal(t, "zowiebox/node1/stream_0/attributes", cfg["json_attributes_topic"])
	assert.NotContains(t, cfg, "command_topic")
}

func TestDiscoveryCamera(t *testing.T) {
	env := newTestEnv(streamSnapshot())
	cfg := discoveryFor(t, env, "camera_0")

	assert.Equal(t, "zowiebox/node1/camera_0/image", cfg["topic"])
	assert.NotContains(t, cfg, "state_topic")
}

func TestDiscoveryModeAwareFollowsMode(t *testing.T) {
	snap := &state.Snapshot{
		StatusOK:   true,
		Streamplay: []state.StreamplaySource{{Index: 0, Name: "Studio Feed", Active: true}},
	}
	env := newTestEnv(snap)
	cfg := discoveryFor(t, env, "mode_aware_stream")

	want := state.DisplayFor(state.KindInputSelect, state.ModeDecoding)
	assert.Equal(t, want.Name, cfg["name"])
	assert.Equal(t, want.Icon, cfg["icon"])
	assert.Equal(t, []any{"Studio Feed"}, cfg["options"])
}

func lightSnapshot() *state.Snapshot {
	brightness := zowie.Num(50)
	temp := zowie.Num(300)
	return &state.Snapshot{
		StatusOK: true,
		Devices: []zowie.Device{{
			ID:           "light1",
			Name:         "Key Light",
			Type:         zowie.DeviceTypeLight,
			State:        "on",
			Capabilities: []string{zowie.CapBrightness, zowie.CapColorTemp},
			Controls:     zowie.CameraControls{Brightness: &brightness, ColorTemp: &temp},
		}},
	}
}

func TestDiscoveryLight(t *testing.T) {
	env := newTestEnv(lightSnapshot())
	cfg := discoveryFor(t, env, "light1_light")

	assert.Equal(t, "json", cfg["schema"])
	assert.Equal(t, true, cfg["brightness"])
	assert.Equal(t, []any{"brightness", "color_temp"}, cfg["supported_color_modes"])
	assert.Equal(t, float64(entity.MinMireds), cfg["min_mireds"])
	assert.Equal(t, float64(entity.MaxMireds), cfg["max_mireds"])
}

func TestDiscoveryOnOffLight(t *testing.T) {
	env := newTestEnv(&state.Snapshot{
		StatusOK: true,
		Devices: []zowie.Device{{
			ID:    "lamp",
			Name:  "Lamp",
			Type:  zowie.DeviceTypeLight,
			State: "off",
		}},
	})
	cfg := discoveryFor(t, env, "lamp_light")

	assert.Equal(t, []any{"onoff"}, cfg["supported_color_modes"])
	assert.NotContains(t, cfg, "brightness")
	assert.NotContains(t, cfg, "min_mireds")
}

func TestBuildLightState(t *testing.T) {
	env := newTestEnv(lightSnapshot())
	v := env.views.Snapshot()
	env.registry.Sync(v)
	e, ok := env.registry.Lookup("light1_light")
	require.True(t, ok)
	l, ok := e.(entity.Light)
	require.True(t, ok)

	payload, ok := buildLightState(l, v)
	require.True(t, ok)

	var st lightState
	require.NoError(t, json.Unmarshal(payload, &st))
	assert.Equal(t, "ON", st.State)
	require.NotNil(t, st.Brightness)
	assert.Equal(t, 127, *st.Brightness)
	require.NotNil(t, st.ColorTemp)
	assert.Equal(t, 300, *st.ColorTemp)
	assert.Equal(t, "color_temp", st.ColorMode)
}
