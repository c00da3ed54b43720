// Package mqtt bridges device entries to Home Assistant over MQTT.
//
// The package has two halves:
//   - Client wraps paho.mqtt.golang with auto-reconnect, tracked
//     subscriptions that survive reconnects, and a retained offline will on
//     the bridge availability topic.
//   - Bridge mirrors one entry's entity registry: discovery configs, state,
//     attributes, availability and camera images out, commands in.
//
// # Topics
//
// Discovery configs are published retained under the discovery prefix:
//
//	homeassistant/<platform>/<node>/<object>/config
//
// Entity topics live under the topic prefix:
//
//	zowiebox/<node>/<object>/state
//	zowiebox/<node>/<object>/attributes
//	zowiebox/<node>/<object>/availability
//	zowiebox/<node>/<object>/set
//	zowiebox/<node>/<object>/image
//
// Every entity lists both the bridge topic and its own availability topic
// with availability_mode "all", so a lost broker connection or a failed
// device poll each mark it unavailable.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	bridge := mqtt.NewBridge(client, registry, coord, mqtt.BridgeOptions{
//	    Node:               mqtt.NodeID(entry.ID),
//	    Topics:             topics,
//	    BridgeAvailability: client.AvailabilityTopic(),
//	})
//	coord.OnUpdate(bridge.Notify)
//	client.SetOnConnect(bridge.Invalidate)
//	go bridge.Run(ctx)
package mqtt
