package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/zowiebox/internal/entity"
	"github.com/five82/zowiebox/internal/state"
)

// DefaultCommandTimeout bounds one command from the broker.
const DefaultCommandTimeout = 15 * time.Second

// Broker is the subset of *Client the bridge uses.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Unsubscribe(topic string) error
}

var _ Broker = (*Client)(nil)

// BridgeOptions configures one device entry's bridge.
type BridgeOptions struct {
	// Node is the topic-safe entry id.
	Node string
	// Title and Model describe the Home Assistant device.
	Title              string
	Model              string
	Topics             Topics
	BridgeAvailability string
	QoS                byte
	PublishSnapshots   bool
	CommandTimeout     time.Duration
	Logger             zerolog.Logger
}

// Bridge mirrors one entry's entities to Home Assistant. Each update
// publishes discovery for new or changed entities, then state, attributes
// and availability. Unchanged payloads are not republished.
type Bridge struct {
	broker   Broker
	registry *entity.Registry
	views    entity.ViewSource
	opts     BridgeOptions
	logger   zerolog.Logger
	updates  chan state.View

	mu      sync.Mutex
	last    map[string]string
	baseCtx context.Context
}

// NewBridge wires a bridge. Call Run to start it.
func NewBridge(broker Broker, registry *entity.Registry, views entity.ViewSource, opts BridgeOptions) *Bridge {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.Title == "" {
		opts.Title = "Zowietek " + opts.Node
	}
	return &Bridge{
		broker:   broker,
		registry: registry,
		views:    views,
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "mqtt-bridge").Str("node", opts.Node).Logger(),
		updates:  make(chan state.View, 1),
		last:     make(map[string]string),
		baseCtx:  context.Background(),
	}
}

// Notify queues v for publishing. Only the latest pending view is kept, so
// the caller never blocks. It matches coordinator.Listener.
func (b *Bridge) Notify(v state.View) {
	for {
		select {
		case b.updates <- v:
			return
		default:
		}
		select {
		case <-b.updates:
		default:
		}
	}
}

// Invalidate forgets what was published and republishes the current view.
// Used after a broker reconnect, since retained messages may be gone.
func (b *Bridge) Invalidate() {
	b.mu.Lock()
	b.last = make(map[string]string)
	b.mu.Unlock()
	b.Notify(b.views.Snapshot())
}

// Run subscribes to the command topics and publishes queued views until ctx
// is done.
func (b *Bridge) Run(ctx context.Context) error {
	b.mu.Lock()
	b.baseCtx = ctx
	b.mu.Unlock()

	filter := b.opts.Topics.CommandFilter(b.opts.Node)
	if err := b.broker.Subscribe(filter, b.opts.QoS, b.HandleCommand); err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}
	defer func() {
		if err := b.broker.Unsubscribe(filter); err != nil && !errors.Is(err, ErrNotConnected) {
			b.logger.Warn().Err(err).Msg("unsubscribe commands")
		}
	}()

	if err := b.Publish(ctx, b.views.Snapshot()); err != nil {
		b.logger.Warn().Err(err).Msg("initial publish incomplete")
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case v := <-b.updates:
			if err := b.Publish(ctx, v); err != nil {
				b.logger.Warn().Err(err).Msg("publish incomplete")
			}
		}
	}
}

// Publish syncs the registry with v and publishes every entity.
func (b *Bridge) Publish(ctx context.Context, v state.View) error {
	if added := b.registry.Sync(v); len(added) > 0 {
		b.logger.Info().Int("entities", len(added)).Msg("registered entities")
	}
	var errs []error
	for _, e := range b.registry.All() {
		if err := b.publishEntity(ctx, e, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Info().ObjectID, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Bridge) device() discoveryDevice {
	return discoveryDevice{
		Identifiers:  []string{b.opts.Node},
		Name:         b.opts.Title,
		Manufacturer: Manufacturer,
		Model:        b.opts.Model,
	}
}

func (b *Bridge) publishEntity(ctx context.Context, e entity.Entity, v state.View) error {
	info := e.Info()
	t, node, object := b.opts.Topics, b.opts.Node, info.ObjectID

	config, err := buildDiscovery(t, node, b.opts.BridgeAvailability, b.device(), e, v)
	if errors.Is(err, errNotReady) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := b.publishCached(t.DiscoveryConfig(string(info.Platform), node, object), config); err != nil {
		return err
	}

	availability := PayloadOffline
	if e.Available(v) {
		availability = PayloadOnline
	}
	if err := b.publishCached(t.Availability(node, object), []byte(availability)); err != nil {
		return err
	}

	switch ent := e.(type) {
	case entity.Camera:
		if b.opts.PublishSnapshots && availability == PayloadOnline && ent.IsRecording(v) {
			img, err := ent.Image(ctx)
			if err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}
			if len(img) > 0 {
				return b.broker.Publish(t.Image(node, object), img, b.opts.QoS, false)
			}
		}
		return nil
	case entity.Light:
		if payload, ok := buildLightState(ent, v); ok {
			return b.publishCached(t.State(node, object), payload)
		}
		return nil
	}

	if text, ok := e.State(v); ok {
		if err := b.publishCached(t.State(node, object), []byte(text)); err != nil {
			return err
		}
	}
	if s, ok := e.(entity.Sensor); ok {
		attrs, err := json.Marshal(s.Attributes(v))
		if err != nil {
			return fmt.Errorf("encode attributes: %w", err)
		}
		return b.publishCached(t.Attributes(node, object), attrs)
	}
	return nil
}

// publishCached publishes a retained payload unless it matches the last one
// sent on topic.
func (b *Bridge) publishCached(topic string, payload []byte) error {
	b.mu.Lock()
	prev, seen := b.last[topic]
	b.mu.Unlock()
	if seen && prev == string(payload) {
		return nil
	}
	if err := b.broker.Publish(topic, payload, b.opts.QoS, true); err != nil {
		return err
	}
	b.mu.Lock()
	b.last[topic] = string(payload)
	b.mu.Unlock()
	return nil
}

func (b *Bridge) runContext() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.baseCtx
}

// HandleCommand routes a message on <prefix>/<node>/<object>/set to the
// entity setter. Switches take ON/OFF, selects an option, numbers a decimal
// value and lights the JSON schema payload.
func (b *Bridge) HandleCommand(topic string, payload []byte) error {
	object, ok := b.opts.Topics.ParseCommand(b.opts.Node, topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, topic)
	}
	e, ok := b.registry.Lookup(object)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, object)
	}

	ctx, cancel := context.WithTimeout(b.runContext(), b.opts.CommandTimeout)
	defer cancel()

	text := strings.TrimSpace(string(payload))
	b.logger.Debug().Str("object", object).Str("payload", text).Msg("command received")

	var err error
	switch ent := e.(type) {
	case entity.Light:
		err = lightCommand(ctx, ent, text)
	case entity.Switch:
		switch strings.ToUpper(text) {
		case "ON":
			err = ent.TurnOn(ctx)
		case "OFF":
			err = ent.TurnOff(ctx)
		default:
			err = fmt.Errorf("%w: %q", ErrBadPayload, text)
		}
	case entity.Select:
		err = ent.SelectOption(ctx, text)
	case entity.Number:
		value, perr := strconv.ParseFloat(text, 64)
		if perr != nil {
			return fmt.Errorf("%w: %w", ErrBadPayload, perr)
		}
		err = ent.SetValue(ctx, value)
	default:
		err = fmt.Errorf("%w: %s is read-only", entity.ErrUnsupported, object)
	}
	if err != nil {
		return fmt.Errorf("command %s: %w", object, err)
	}
	return nil
}

func lightCommand(ctx context.Context, l entity.Light, text string) error {
	switch strings.ToUpper(text) {
	case "ON":
		return l.TurnOn(ctx, entity.LightCommand{})
	case "OFF":
		return l.TurnOff(ctx)
	}
	var cmd lightState
	if err := json.Unmarshal([]byte(text), &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	if strings.EqualFold(cmd.State, "OFF") {
		return l.TurnOff(ctx)
	}
	return l.TurnOn(ctx, entity.LightCommand{Brightness: cmd.Brightness, ColorTemp: cmd.ColorTemp})
}
