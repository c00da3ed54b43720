package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/zowiebox/internal/clocksync"
	"github.com/five82/zowiebox/internal/config"
	"github.com/five82/zowiebox/internal/coordinator"
	"github.com/five82/zowiebox/internal/entity"
	"github.com/five82/zowiebox/internal/entries"
	"github.com/five82/zowiebox/internal/logging"
	"github.com/five82/zowiebox/internal/mqtt"
	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/ui"
	"github.com/five82/zowiebox/internal/zowie"
)

// ErrNoDevices is returned when neither an entry nor device.host is set.
var ErrNoDevices = errors.New("no devices configured: run `zowiebox add <host>` or set device.host")

// Options configure the zowiebox service.
type Options struct {
	ConfigPath string
	PollEvery  int // seconds; zero uses the config value
	// Headless runs without the dashboard and logs to stderr.
	Headless bool
}

// device is the runtime of one entry.
type device struct {
	entry    entries.Entry
	client   *zowie.Client
	coord    *coordinator.Coordinator
	registry *entity.Registry
}

// Run boots every device entry, the MQTT bridge and the clock sync, then
// shows the dashboard (or waits, when headless) until ctx is cancelled or
// the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollSeconds = opts.PollEvery
	}

	logOpts := logging.Options{Level: cfg.Log.Level, Output: cfg.Log.Output, File: cfg.Log.File}
	if opts.Headless {
		logOpts.Console = os.Stderr
	}
	logger, logCloser, err := logging.New(logOpts)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	list, err := resolveEntries(cfg)
	if err != nil {
		return err
	}

	devices := make([]*device, 0, len(list))
	defer func() {
		for _, d := range devices {
			_ = d.client.Close()
		}
	}()
	for _, e := range list {
		d, err := newDevice(e, cfg, logger)
		if err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
		devices = append(devices, d)
	}

	syncers, err := newClockSyncers(cfg, devices, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var broker ui.HealthChecker
	if cfg.MQTT.Enabled {
		client, bridges, err := startBridges(cfg, devices, logger)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		broker = client
		for _, b := range bridges {
			g.Go(func() error { return b.Run(gctx) })
		}
	}

	for _, d := range devices {
		g.Go(func() error {
			d.coord.Run(gctx)
			return nil
		})
	}

	for _, syncer := range syncers {
		syncer.Start(gctx)
	}

	logger.Info().Int("devices", len(devices)).Bool("mqtt", cfg.MQTT.Enabled).Msg("zowiebox started")

	if !opts.Headless {
		g.Go(func() error {
			defer cancel()
			return ui.Run(ui.Options{
				Context:   gctx,
				Devices:   dashboardDevices(devices),
				PollTick:  ui.DefaultUIInterval,
				ThemeName: cfg.UI.Theme,
				LogPath:   cfg.Log.File,
				Broker:    broker,
			})
		})
	}

	err = g.Wait()
	logger.Info().Msg("zowiebox stopped")
	return err
}

// resolveEntries returns the installed entries, or one built from
// device.host when none are installed.
func resolveEntries(cfg config.Config) ([]entries.Entry, error) {
	list, err := entries.NewStore(cfg.EntriesPath).Load()
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	if len(list) > 0 {
		return list, nil
	}
	if cfg.Device.Host == "" {
		return nil, ErrNoDevices
	}
	return []entries.Entry{{
		ID:    "default",
		Host:  cfg.Device.Host,
		Port:  cfg.Device.Port,
		Title: entries.DefaultTitle(cfg.Device.Host),
	}}, nil
}

func newDevice(e entries.Entry, cfg config.Config, logger zerolog.Logger) (*device, error) {
	entryLogger := logger.With().Str("entry", e.ID).Str("host", e.Host).Logger()

	client, err := zowie.NewClient(e.Host, e.Port, zowie.WithTimeout(cfg.Device.Timeout()))
	if err != nil {
		return nil, fmt.Errorf("init device client: %w", err)
	}
	coord := coordinator.New(client, &state.Store{}, coordinator.Options{
		Interval: cfg.PollInterval(),
		Logger:   entryLogger,
	})
	registry := entity.NewRegistry(entity.Deps{
		EntryID: e.ID,
		API:     client,
		Cmd:     coord,
		Views:   coord,
		Logger:  entryLogger,
	})
	return &device{entry: e, client: client, coord: coord, registry: registry}, nil
}

// startBridges connects the one broker client and attaches a bridge per
// device. Every bridge republishes after a reconnect.
func startBridges(cfg config.Config, devices []*device, logger zerolog.Logger) (*mqtt.Client, []*mqtt.Bridge, error) {
	client, err := mqtt.Connect(cfg.MQTT, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mqtt: %w", err)
	}

	topics := mqtt.Topics{Discovery: cfg.MQTT.DiscoveryPrefix, Prefix: cfg.MQTT.TopicPrefix}
	bridges := make([]*mqtt.Bridge, 0, len(devices))
	for _, d := range devices {
		b := mqtt.NewBridge(client, d.registry, d.coord, mqtt.BridgeOptions{
			Node:               mqtt.NodeID(d.entry.ID),
			Title:              d.entry.Title,
			Model:              zowie.DefaultModel,
			Topics:             topics,
			BridgeAvailability: client.AvailabilityTopic(),
			QoS:                byte(cfg.MQTT.QoS),
			PublishSnapshots:   cfg.MQTT.PublishSnapshots,
			Logger:             logger,
		})
		d.coord.OnUpdate(b.Notify)
		bridges = append(bridges, b)
	}
	client.SetOnConnect(func() {
		for _, b := range bridges {
			b.Invalidate()
		}
	})
	return client, bridges, nil
}

// newClockSyncers builds one syncer per device. None are built without a
// schedule.
func newClockSyncers(cfg config.Config, devices []*device, logger zerolog.Logger) ([]*clocksync.Syncer, error) {
	if cfg.ClockSync.Schedule == "" {
		return nil, nil
	}
	out := make([]*clocksync.Syncer, 0, len(devices))
	for _, d := range devices {
		syncer, err := clocksync.New(d.coord, d.client, clocksync.Options{
			Schedule:      cfg.ClockSync.Schedule,
			SettingModeID: cfg.ClockSync.SettingModeID,
			TimeZoneID:    cfg.ClockSync.TimeZoneID,
			Logger:        logger.With().Str("entry", d.entry.ID).Logger(),
		})
		if err != nil {
			return nil, fmt.Errorf("clock sync: %w", err)
		}
		out = append(out, syncer)
	}
	return out, nil
}

func dashboardDevices(devices []*device) []ui.Device {
	out := make([]ui.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, ui.Device{
			Title:    d.entry.Title,
			Source:   d.coord,
			Registry: d.registry,
			Refresh:  d.coord.RequestRefresh,
		})
	}
	return out
}
