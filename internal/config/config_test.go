package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Device.Port != defaultPort {
		t.Fatalf("Device.Port = %d, want %d", cfg.Device.Port, defaultPort)
	}
	if cfg.PollInterval() != 30*time.Second {
		t.Fatalf("PollInterval = %v, want 30s", cfg.PollInterval())
	}
	if cfg.MQTT.Enabled {
		t.Fatalf("MQTT.Enabled = true, want false by default")
	}
	if cfg.MQTT.DiscoveryPrefix != "homeassistant" {
		t.Fatalf("DiscoveryPrefix = %q, want homeassistant", cfg.MQTT.DiscoveryPrefix)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.Log.File != wantLog {
		t.Fatalf("Log.File = %q, want %q", cfg.Log.File, wantLog)
	}
	if !strings.HasPrefix(cfg.EntriesPath, home) {
		t.Fatalf("EntriesPath = %q, want it under HOME %q", cfg.EntriesPath, home)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
poll_seconds = 5
entries_path = "  ~/devices.toml  "

[device]
host = "  192.168.1.50  "
port = 8080
timeout_seconds = 3

[log]
level = "debug"
output = "json"
file = "~/logs/zowiebox.log"

[mqtt]
enabled = true
broker = "tcp://broker:1883"
client_id = "studio"
username = " ha "
password = "secret"
topic_prefix = "/zb/"
qos = 0
publish_snapshots = true

[clock_sync]
schedule = "0 3 * * *"
setting_mode_id = 1
time_zone_id = "UTC"

[ui]
theme = "Slate"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Device.Host != "192.168.1.50" || cfg.Device.Port != 8080 {
		t.Fatalf("Device = %+v, want trimmed host and port 8080", cfg.Device)
	}
	if cfg.Device.Timeout() != 3*time.Second {
		t.Fatalf("Timeout = %v, want 3s", cfg.Device.Timeout())
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Fatalf("PollInterval = %v, want 5s", cfg.PollInterval())
	}
	if cfg.Log.Level != "debug" || cfg.Log.Output != "json" {
		t.Fatalf("Log = %+v, want debug/json", cfg.Log)
	}
	if !strings.HasPrefix(cfg.Log.File, home) {
		t.Fatalf("Log.File = %q, want it under HOME %q", cfg.Log.File, home)
	}
	if cfg.EntriesPath != filepath.Join(home, "devices.toml") {
		t.Fatalf("EntriesPath = %q, want %q", cfg.EntriesPath, filepath.Join(home, "devices.toml"))
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.ClientID != "studio" || cfg.MQTT.Username != "ha" {
		t.Fatalf("MQTT = %+v, want enabled studio/ha", cfg.MQTT)
	}
	if cfg.MQTT.TopicPrefix != "zb" {
		t.Fatalf("TopicPrefix = %q, want slashes trimmed", cfg.MQTT.TopicPrefix)
	}
	if cfg.MQTT.QoS != 0 {
		t.Fatalf("QoS = %d, want explicit 0 kept", cfg.MQTT.QoS)
	}
	if !cfg.MQTT.PublishSnapshots {
		t.Fatalf("PublishSnapshots = false, want true")
	}
	if cfg.ClockSync.Schedule != "0 3 * * *" || cfg.ClockSync.SettingModeID != 1 || cfg.ClockSync.TimeZoneID != "UTC" {
		t.Fatalf("ClockSync = %+v", cfg.ClockSync)
	}
	if cfg.UI.Theme != "Slate" {
		t.Fatalf("Theme = %q, want Slate", cfg.UI.Theme)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
poll_seconds = 0

[device]
port = 0

[log]
level = "   "
file = ""

[mqtt]
broker = ""
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Device.Port != defaultPort {
		t.Fatalf("Device.Port = %d, want %d", cfg.Device.Port, defaultPort)
	}
	if cfg.PollSeconds != defaultPollSeconds {
		t.Fatalf("PollSeconds = %d, want %d", cfg.PollSeconds, defaultPollSeconds)
	}
	if cfg.Log.Level != defaultLogLevel {
		t.Fatalf("Log.Level = %q, want %q", cfg.Log.Level, defaultLogLevel)
	}
	if cfg.MQTT.Broker != defaultBroker {
		t.Fatalf("MQTT.Broker = %q, want %q", cfg.MQTT.Broker, defaultBroker)
	}
	if cfg.MQTT.QoS != defaultQoS {
		t.Fatalf("MQTT.QoS = %d, want %d", cfg.MQTT.QoS, defaultQoS)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := writeConfig(t, `poll_seconds = [`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"qos", "[mqtt]\nqos = 3\n", "mqtt.qos"},
		{"output", "[log]\noutput = \"xml\"\n", "log.output"},
		{"port", "[device]\nport = 70000\n", "device.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to mention %s", err, tt.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestReconnectDelays(t *testing.T) {
	initial, maxDelay := Default().MQTT.ReconnectDelays()
	if initial != time.Second || maxDelay != time.Minute {
		t.Fatalf("ReconnectDelays = %v, %v, want 1s, 1m", initial, maxDelay)
	}
}
