// Package config loads the zowiebox TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/zowiebox/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	poll_seconds = 30
//	entries_path = "~/.config/zowiebox/entries.toml"
//
//	[device]
//	host = "192.168.1.50"
//	port = 80
//	timeout_seconds = 10
//
//	[log]
//	level = "info"        # trace, debug, info, warn, error
//	output = "console"    # console or json
//	file = "~/.local/share/zowiebox/zowiebox.log"
//
//	[mqtt]
//	enabled = true
//	broker = "tcp://127.0.0.1:1883"
//	client_id = "zowiebox"
//	discovery_prefix = "homeassistant"
//	topic_prefix = "zowiebox"
//	qos = 1
//	publish_snapshots = false
//
//	[clock_sync]
//	schedule = "0 3 * * *"   # standard 5-field cron; empty disables
//	setting_mode_id = 0
//	time_zone_id = ""
//
//	[ui]
//	theme = "Dracula"
//
// Tilde expansion is performed for the log file and entries path.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML parse errors and out-of-range values (device port,
// MQTT QoS, log output). Missing config files are NOT an error.
package config
