package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTopics() Topics {
	return Topics{Discovery: "homeassistant", Prefix: "zowiebox"}
}

func TestTopics(t *testing.T) {
	topics := testTopics()

	assert.Equal(t, "zowiebox/bridge/availability", topics.BridgeAvailability("bridge"))
	assert.Equal(t, "homeassistant/switch/node1/switch_0/config", topics.DiscoveryConfig("switch", "node1", "switch_0"))
	assert.Equal(t, "zowiebox/node1/switch_0/state", topics.State("node1", "switch_0"))
	assert.Equal(t, "zowiebox/node1/stream_0/attributes", topics.Attributes("node1", "stream_0"))
	assert.Equal(t, "zowiebox/node1/switch_0/availability", topics.Availability("node1", "switch_0"))
	assert.Equal(t, "zowiebox/node1/switch_0/set", topics.Command("node1", "switch_0"))
	assert.Equal(t, "zowiebox/node1/camera_0/image", topics.Image("node1", "camera_0"))
	assert.Equal(t, "zowiebox/node1/+/set", topics.CommandFilter("node1"))
}

func TestParseCommand(t *testing.T) {
	topics := testTopics()

	tests := []struct {
		name   string
		topic  string
		object string
		ok     bool
	}{
		{"entity command", "zowiebox/node1/switch_0/set", "switch_0", true},
		{"other node", "zowiebox/node2/switch_0/set", "", false},
		{"state topic", "zowiebox/node1/switch_0/state", "", false},
		{"nested object", "zowiebox/node1/a/b/set", "", false},
		{"empty object", "zowiebox/node1//set", "", false},
		{"other prefix", "other/node1/switch_0/set", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			object, ok := topics.ParseCommand("node1", tt.topic)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.object, object)
		})
	}
}

func TestNodeID(t *testing.T) {
	assert.Equal(t, "abc-123_x", NodeID("abc-123_x"))
	assert.Equal(t, "zowie_192_168_1_10", NodeID("zowie 192.168.1.10"))
	assert.Equal(t, "a_b_c", NodeID("a/b+c"))
	assert.Equal(t, "zowiebox", NodeID(""))
}
