// Package logging builds the zerolog logger shared by every component.
//
// Log lines are JSON in the log file so the dashboard can parse and color
// them, and human readable on the console unless json output is chosen.
// Components derive child loggers with a "component" field:
//
//	logger, closer, err := logging.New(logging.Options{Level: "debug", File: path})
//	defer closer.Close()
//	log := logger.With().Str("component", "coordinator").Logger()
package logging
