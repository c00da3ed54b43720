// Package logtail reads the tail of the service log for the dashboard.
//
// Read extracts the last N lines of a file in one pass with a ring buffer,
// so memory stays proportional to N rather than the file size. A missing
// file is not an error: the log may not exist until the first write.
//
// The service writes zerolog JSON lines. Parse decodes them into an Entry
// and Format renders an entry as a header line followed by indented detail
// lines:
//
//	2026-03-07 14:05:09 WARN [coordinator] – refresh failed
//	    - error: status request: timeout
//	    - failures: 2
//
// Lines that are not JSON pass through untouched.
package logtail
