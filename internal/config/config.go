package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the zowiebox service configuration.
type Config struct {
	Device      Device
	PollSeconds int
	Log         Log
	MQTT        MQTT
	ClockSync   ClockSync
	UI          UI
	EntriesPath string
}

// Device is the default device used when no entries are installed.
type Device struct {
	Host           string
	Port           int
	TimeoutSeconds int
}

// Log controls logger construction.
type Log struct {
	Level string
	// Output is "console" or "json".
	Output string
	File   string
}

// MQTT configures the Home Assistant bridge.
type MQTT struct {
	Enabled          bool
	Broker           string
	ClientID         string
	Username         string
	Password         string
	DiscoveryPrefix  string
	TopicPrefix      string
	QoS              int
	PublishSnapshots bool
	ReconnectInitial int
	ReconnectMax     int
}

// ClockSync schedules device clock updates. An empty schedule disables it.
type ClockSync struct {
	Schedule      string
	SettingModeID int
	TimeZoneID    string
}

// UI holds dashboard preferences.
type UI struct {
	Theme string
}

const (
	defaultConfigPath      = "~/.config/zowiebox/config.toml"
	defaultEntriesPath     = "~/.config/zowiebox/entries.toml"
	defaultLogFile         = "~/.local/share/zowiebox/zowiebox.log"
	defaultPort            = 80
	defaultTimeoutSeconds  = 10
	defaultPollSeconds     = 30
	defaultLogLevel        = "info"
	defaultLogOutput       = "console"
	defaultBroker          = "tcp://127.0.0.1:1883"
	defaultClientID        = "zowiebox"
	defaultDiscoveryPrefix = "homeassistant"
	defaultTopicPrefix     = "zowiebox"
	defaultQoS             = 1
	defaultReconnectInit   = 1
	defaultReconnectMax    = 60
	defaultTheme           = "Dracula"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Device:      Device{Port: defaultPort, TimeoutSeconds: defaultTimeoutSeconds},
		PollSeconds: defaultPollSeconds,
		Log: Log{
			Level:  defaultLogLevel,
			Output: defaultLogOutput,
			File:   mustExpand(defaultLogFile),
		},
		MQTT: MQTT{
			Broker:           defaultBroker,
			ClientID:         defaultClientID,
			DiscoveryPrefix:  defaultDiscoveryPrefix,
			TopicPrefix:      defaultTopicPrefix,
			QoS:              defaultQoS,
			ReconnectInitial: defaultReconnectInit,
			ReconnectMax:     defaultReconnectMax,
		},
		UI:          UI{Theme: defaultTheme},
		EntriesPath: mustExpand(defaultEntriesPath),
	}
}

type rawConfig struct {
	PollSeconds int    `toml:"poll_seconds"`
	EntriesPath string `toml:"entries_path"`
	Device      struct {
		Host           string `toml:"host"`
		Port           int    `toml:"port"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
	} `toml:"device"`
	Log struct {
		Level  string `toml:"level"`
		Output string `toml:"output"`
		File   string `toml:"file"`
	} `toml:"log"`
	MQTT struct {
		Enabled          bool   `toml:"enabled"`
		Broker           string `toml:"broker"`
		ClientID         string `toml:"client_id"`
		Username         string `toml:"username"`
		Password         string `toml:"password"`
		DiscoveryPrefix  string `toml:"discovery_prefix"`
		TopicPrefix      string `toml:"topic_prefix"`
		QoS              *int   `toml:"qos"`
		PublishSnapshots bool   `toml:"publish_snapshots"`
		ReconnectInitial int    `toml:"reconnect_initial_seconds"`
		ReconnectMax     int    `toml:"reconnect_max_seconds"`
	} `toml:"mqtt"`
	ClockSync struct {
		Schedule      string `toml:"schedule"`
		SettingModeID int    `toml:"setting_mode_id"`
		TimeZoneID    string `toml:"time_zone_id"`
	} `toml:"clock_sync"`
	UI struct {
		Theme string `toml:"theme"`
	} `toml:"ui"`
}

// Load reads the config at path, falling back to defaults when the file is
// missing. Empty values take their defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Device.Host = strings.TrimSpace(raw.Device.Host)
	cfg.Device.Port = intOr(raw.Device.Port, defaultPort)
	cfg.Device.TimeoutSeconds = intOr(raw.Device.TimeoutSeconds, defaultTimeoutSeconds)
	cfg.PollSeconds = intOr(raw.PollSeconds, defaultPollSeconds)

	cfg.Log.Level = stringOr(raw.Log.Level, defaultLogLevel)
	cfg.Log.Output = stringOr(raw.Log.Output, defaultLogOutput)
	cfg.Log.File = mustExpand(stringOr(raw.Log.File, defaultLogFile))

	cfg.MQTT.Enabled = raw.MQTT.Enabled
	cfg.MQTT.Broker = stringOr(raw.MQTT.Broker, defaultBroker)
	cfg.MQTT.ClientID = stringOr(raw.MQTT.ClientID, defaultClientID)
	cfg.MQTT.Username = strings.TrimSpace(raw.MQTT.Username)
	cfg.MQTT.Password = raw.MQTT.Password
	cfg.MQTT.DiscoveryPrefix = strings.Trim(stringOr(raw.MQTT.DiscoveryPrefix, defaultDiscoveryPrefix), "/")
	cfg.MQTT.TopicPrefix = strings.Trim(stringOr(raw.MQTT.TopicPrefix, defaultTopicPrefix), "/")
	if raw.MQTT.QoS != nil {
		cfg.MQTT.QoS = *raw.MQTT.QoS
	}
	cfg.MQTT.PublishSnapshots = raw.MQTT.PublishSnapshots
	cfg.MQTT.ReconnectInitial = intOr(raw.MQTT.ReconnectInitial, defaultReconnectInit)
	cfg.MQTT.ReconnectMax = intOr(raw.MQTT.ReconnectMax, defaultReconnectMax)

	cfg.ClockSync.Schedule = strings.TrimSpace(raw.ClockSync.Schedule)
	cfg.ClockSync.SettingModeID = raw.ClockSync.SettingModeID
	cfg.ClockSync.TimeZoneID = strings.TrimSpace(raw.ClockSync.TimeZoneID)

	cfg.UI.Theme = stringOr(raw.UI.Theme, defaultTheme)
	cfg.EntriesPath = mustExpand(stringOr(raw.EntriesPath, defaultEntriesPath))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports values Load cannot default away.
func (c Config) Validate() error {
	if c.Device.Port < 1 || c.Device.Port > 65535 {
		return fmt.Errorf("device.port %d out of range", c.Device.Port)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos %d must be 0, 1 or 2", c.MQTT.QoS)
	}
	switch c.Log.Output {
	case "console", "json":
	default:
		return fmt.Errorf("log.output %q must be console or json", c.Log.Output)
	}
	return nil
}

// PollInterval is the coordinator refresh interval.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// Timeout is the per-request device timeout.
func (d Device) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// ReconnectDelays returns the initial and maximum reconnect intervals.
func (m MQTT) ReconnectDelays() (time.Duration, time.Duration) {
	return time.Duration(m.ReconnectInitial) * time.Second, time.Duration(m.ReconnectMax) * time.Second
}

func intOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func stringOr(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading tilde and returns an absolute path.
func ExpandPath(path string) (string, error) { return expandPath(path) }

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
