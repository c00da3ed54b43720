package clocksync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/five82/zowiebox/internal/zowie"
)

// DefaultTimeout bounds one clock update.
const DefaultTimeout = 15 * time.Second

// ErrNoSchedule is returned by New when the schedule is empty.
var ErrNoSchedule = errors.New("clock sync schedule is empty")

// Commander runs a device write and requests a refresh afterwards.
// *coordinator.Coordinator implements it.
type Commander interface {
	Do(ctx context.Context, action string, call func(context.Context) (zowie.Response, error)) (zowie.Response, error)
}

// ClockSetter is the device call the syncer issues.
type ClockSetter interface {
	SetSystemTime(ctx context.Context, t zowie.SystemTime) (zowie.Response, error)
}

// Options configure a Syncer.
type Options struct {
	// Schedule is a standard five-field cron expression or a descriptor
	// such as @hourly or @every 6h.
	Schedule      string
	SettingModeID int
	TimeZoneID    string
	Timeout       time.Duration
	Logger        zerolog.Logger
	// Now overrides the host clock in tests.
	Now func() time.Time
}

// Syncer sets the device clock to the host's local time on a cron schedule.
type Syncer struct {
	cmd      Commander
	api      ClockSetter
	schedule cron.Schedule
	opts     Options
	logger   zerolog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// New validates the schedule and returns a stopped Syncer.
func New(cmd Commander, api ClockSetter, opts Options) (*Syncer, error) {
	if opts.Schedule == "" {
		return nil, ErrNoSchedule
	}
	schedule, err := cron.ParseStandard(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse clock sync schedule %q: %w", opts.Schedule, err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Syncer{
		cmd:      cmd,
		api:      api,
		schedule: schedule,
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "clocksync").Logger(),
	}, nil
}

// Next reports when the schedule fires after t.
func (s *Syncer) Next(t time.Time) time.Time { return s.schedule.Next(t) }

// Start runs the schedule until ctx is done or Stop is called. Overlapping
// runs are skipped.
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}

	log := cronLogger{logger: s.logger}
	c := cron.New(cron.WithLogger(log), cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.Sync(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("clock sync failed")
		}
	}))
	c.Start()
	s.cron = c
	s.logger.Info().Str("schedule", s.opts.Schedule).Time("next", s.Next(s.opts.Now())).Msg("clock sync scheduled")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the schedule and waits for a running sync to finish.
func (s *Syncer) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// Sync sets the device clock once. NTP is turned off so the device keeps
// the pushed time.
func (s *Syncer) Sync(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	t := SystemTimeAt(s.opts.Now(), s.opts.SettingModeID, s.opts.TimeZoneID)
	if _, err := s.cmd.Do(ctx, "set system time", func(ctx context.Context) (zowie.Response, error) {
		return s.api.SetSystemTime(ctx, t)
	}); err != nil {
		return err
	}
	s.logger.Info().
		Str("time", fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)).
		Msg("device clock set")
	return nil
}

// SystemTimeAt converts now, in its own location, to the device clock
// payload.
func SystemTimeAt(now time.Time, settingModeID int, timeZoneID string) zowie.SystemTime {
	return zowie.SystemTime{
		Year:          now.Year(),
		Month:         int(now.Month()),
		Day:           now.Day(),
		Hour:          now.Hour(),
		Minute:        now.Minute(),
		Second:        now.Second(),
		SettingModeID: settingModeID,
		TimeZoneID:    timeZoneID,
		NTPEnable:     false,
	}
}

// cronLogger routes robfig/cron diagnostics to zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
