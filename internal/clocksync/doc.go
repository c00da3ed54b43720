// Package clocksync keeps a device clock aligned with the host.
//
// A Syncer parses a cron expression with robfig/cron and, on each tick,
// pushes the host's local time through the coordinator's write path, which
// also queues a refresh. Failures are logged and retried on the next tick.
package clocksync
