package mqtt

import (
	"fmt"
	"strings"
)

// Topics builds the bridge topics. Entity topics follow
//
//	<prefix>/<node>/<object>/{state,attributes,availability,set,image}
//
// and discovery configs follow
//
//	<discovery>/<platform>/<node>/<object>/config
//
// where node is one device entry.
type Topics struct {
	Discovery string
	Prefix    string
}

// BridgeAvailability is the process-wide online/offline topic, also used as
// the client's will.
func (t Topics) BridgeAvailability(clientID string) string {
	return fmt.Sprintf("%s/%s/availability", t.Prefix, clientID)
}

// DiscoveryConfig returns the Home Assistant discovery topic of an entity.
func (t Topics) DiscoveryConfig(platform, node, object string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", t.Discovery, platform, node, object)
}

func (t Topics) entity(node, object, leaf string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Prefix, node, object, leaf)
}

// State returns the state topic of an entity.
func (t Topics) State(node, object string) string { return t.entity(node, object, "state") }

// Attributes returns the JSON attributes topic of an entity.
func (t Topics) Attributes(node, object string) string { return t.entity(node, object, "attributes") }

// Availability returns the availability topic of an entity.
func (t Topics) Availability(node, object string) string {
	return t.entity(node, object, "availability")
}

// Command returns the command topic of an entity.
func (t Topics) Command(node, object string) string { return t.entity(node, object, "set") }

// Image returns the camera image topic of an entity.
func (t Topics) Image(node, object string) string { return t.entity(node, object, "image") }

// CommandFilter matches every command topic of node.
func (t Topics) CommandFilter(node string) string {
	return fmt.Sprintf("%s/%s/+/set", t.Prefix, node)
}

// ParseCommand extracts the object id from a command topic of node.
func (t Topics) ParseCommand(node, topic string) (string, bool) {
	head := fmt.Sprintf("%s/%s/", t.Prefix, node)
	if !strings.HasPrefix(topic, head) || !strings.HasSuffix(topic, "/set") {
		return "", false
	}
	object := strings.TrimSuffix(strings.TrimPrefix(topic, head), "/set")
	if object == "" || strings.Contains(object, "/") {
		return "", false
	}
	return object, true
}

// NodeID makes an entry id safe for use as a topic level.
func NodeID(entryID string) string {
	var b strings.Builder
	for _, r := range entryID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "zowiebox"
	}
	return b.String()
}
