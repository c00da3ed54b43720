// Package entries persists the installed devices.
//
// Each entry is a host, port, title and a stable id used to derive entity
// unique ids and MQTT node ids. Entries are stored in
// ~/.config/zowiebox/entries.toml:
//
//	[[entries]]
//	id = "7c0f8f7e-2d0b-4a53-9b5c-6e1f3c0d2a11"
//	host = "192.168.1.50"
//	port = 80
//	title = "Zowietek 192.168.1.50"
//
// A device is only added after it answers a status request.
package entries
