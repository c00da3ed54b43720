// Package ui provides the zowiebox terminal dashboard.
//
// The dashboard is a Bubble Tea program with two views:
//
//   - Entities: every registered entity of the selected device entry with
//     its platform, state and availability, plus a detail pane listing
//     identity, ranges, select options and sensor attributes.
//   - Service log: the tail of the service log file, formatted by logtail,
//     with follow mode and regex search.
//
// The header shows the device title, an online/offline badge, the inferred
// mode, the entity count and the time of the last refresh. Refresh errors
// are classified into short labels such as TIMEOUT or OFFLINE.
//
// Writes go through the same entity adapters the MQTT bridge uses, so a
// toggle from the dashboard takes the coordinator's write path and triggers
// a refresh. Writes run as tea.Cmd with ActionTimeout; one runs at a time.
//
// # Usage
//
//	err := ui.Run(ui.Options{
//		Context:   ctx,
//		Devices:   []ui.Device{{Title: "Studio", Source: coord, Registry: reg, Refresh: coord.RequestRefresh}},
//		PollTick:  time.Second,
//		ThemeName: cfg.UI.Theme,
//		LogPath:   cfg.Log.File,
//	})
//
// # Key Bindings
//
//   - q / l: Entities / service log
//   - tab: Switch view
//   - [ / ]: Previous / next device
//   - Space: Toggle switch or light (entities), toggle follow (logs)
//   - enter: Next select option
//   - + / -: Step a number
//   - f: Show all entities or only available ones
//   - r: Refresh the device now
//   - /, n, N: Search the log and move between matches
//   - T: Cycle theme
//   - e or Ctrl+C: Exit
package ui
