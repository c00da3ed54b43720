package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

// DefaultInterval is the poll cadence when none is configured.
const DefaultInterval = 30 * time.Second

// ErrUpdateFailed wraps every refresh failure.
var ErrUpdateFailed = errors.New("update failed")

// Listener is called after every refresh attempt with the resulting view.
type Listener func(state.View)

// Options configure a Coordinator.
type Options struct {
	Interval time.Duration
	Logger   zerolog.Logger
	// Now overrides the snapshot clock in tests.
	Now func() time.Time
}

// Coordinator owns the refresh cycle for one device: it polls the API,
// publishes normalized snapshots to the store and runs write commands.
type Coordinator struct {
	api      zowie.StatusFetcher
	store    *state.Store
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	refreshMu sync.Mutex
	refreshCh chan struct{}

	listenersMu sync.RWMutex
	listeners   []Listener
}

// New builds a Coordinator publishing into store.
func New(api zowie.StatusFetcher, store *state.Store, opts Options) *Coordinator {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if store == nil {
		store = &state.Store{}
	}
	return &Coordinator{
		api:       api,
		store:     store,
		interval:  interval,
		logger:    opts.Logger.With().Str("component", "coordinator").Logger(),
		now:       now,
		refreshCh: make(chan struct{}, 1),
	}
}

// Store returns the store the coordinator publishes into.
func (c *Coordinator) Store() *state.Store { return c.store }

// Snapshot returns the current view of the store.
func (c *Coordinator) Snapshot() state.View { return c.store.Snapshot() }

// Interval returns the poll cadence.
func (c *Coordinator) Interval() time.Duration { return c.interval }

// OnUpdate registers fn to run after every refresh attempt.
func (c *Coordinator) OnUpdate(fn Listener) {
	if fn == nil {
		return
	}
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenersMu.Unlock()
}

// Start launches Run in a background goroutine. It returns immediately.
func (c *Coordinator) Start(ctx context.Context) {
	go c.Run(ctx)
}

// Run refreshes immediately, then on every tick and every queued refresh
// request until ctx is cancelled. Refresh failures are logged and the next
// tick tries again.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn().Err(err).Msg("refresh failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-c.refreshCh:
		}
	}
}

// RequestRefresh queues a refresh for the Run loop without blocking.
// Requests made while one is already pending coalesce.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// Refresh fetches the device state and publishes it. On failure the
// previous snapshot is kept, the failure is recorded in the store and the
// error is returned. Concurrent calls are serialized.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	snap, err := c.fetch(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrUpdateFailed, err)
		c.store.Update(nil, err)
	} else {
		c.store.Update(snap, nil)
		c.logger.Debug().
			Str("mode", string(snap.Mode())).
			Int("streams", len(snap.Streams)).
			Int("devices", len(snap.Devices)).
			Msg("refreshed")
	}
	c.notify(c.store.Snapshot())
	return err
}

func (c *Coordinator) fetch(ctx context.Context) (*state.Snapshot, error) {
	var in state.Responses

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := c.api.Status(gctx)
		if err != nil {
			return fmt.Errorf("fetch status: %w", err)
		}
		in.Status = resp
		return nil
	})
	g.Go(func() error {
		devices, err := c.api.Devices(gctx)
		if err != nil {
			return fmt.Errorf("fetch devices: %w", err)
		}
		in.Devices = devices
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	streamInfo, err := c.api.StreamInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch stream info: %w", err)
	}
	in.StreamInfo = streamInfo

	audio, err := c.api.AudioInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch audio info: %w", err)
	}
	in.Audio = audio

	return state.Normalize(in, c.now())
}

func (c *Coordinator) notify(view state.View) {
	c.listenersMu.RLock()
	listeners := append([]Listener(nil), c.listeners...)
	c.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(view)
	}
}

// Do runs one device write: call issues exactly one API request, then a
// refresh is requested whatever the outcome. A transport error or a
// non-success application status is logged and returned.
func (c *Coordinator) Do(ctx context.Context, action string, call func(context.Context) (zowie.Response, error)) (zowie.Response, error) {
	resp, err := call(ctx)
	c.RequestRefresh()
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		c.logger.Error().Err(err).Str("action", action).Msg("device command failed")
		return resp, err
	}
	c.logger.Debug().Str("action", action).Msg("device command sent")
	return resp, nil
}

// Control sends command to deviceID and requests a refresh.
func (c *Coordinator) Control(ctx context.Context, deviceID, command string, value any) (zowie.Response, error) {
	return c.Do(ctx, "control "+deviceID+" "+command, func(ctx context.Context) (zowie.Response, error) {
		return c.api.ControlDevice(ctx, deviceID, command, value)
	})
}
