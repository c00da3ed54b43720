// Package app is the composition root of the zowiebox service.
//
// Run loads the configuration, builds one runtime per installed device
// entry and runs them until the context is cancelled or the dashboard quits:
//
//	config.Load ─> logging.New ─> entries.Store.Load
//	     │
//	     ├─> per entry: zowie.Client ─> coordinator.Coordinator ─> entity.Registry
//	     ├─> mqtt.Connect (one client) ─> mqtt.Bridge per entry
//	     ├─> clocksync.Syncer per entry, when a schedule is set
//	     └─> ui.Run, unless headless
//
// Coordinators, bridges and the dashboard run in one errgroup. Each
// coordinator notifies its bridge after every refresh; a broker reconnect
// makes every bridge republish.
//
// When no entries are installed the device.host setting becomes a single
// entry with id "default". With neither, Run returns ErrNoDevices.
//
// In headless mode logs go to stderr and the log file. With the dashboard
// they go to the file only, which the dashboard tails.
//
// AddEntry, RemoveEntry and ListEntries manage the entries file for the
// command line.
package app
