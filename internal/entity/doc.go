// Package entity adapts a device snapshot into Home Assistant style
// platform entities: cameras, switches, selects, numbers, sensors and
// lights.
//
// Every entity reads from a ViewSource and writes through a Commander, so a
// setter issues exactly one device request and then asks the coordinator for
// a refresh. Setters return ErrNoData until the first successful refresh.
//
// Mode-aware entities (the mode_aware_* object ids) keep one identity but
// change their name, icon and behavior with the inferred device mode. They
// are unavailable when the mode makes them irrelevant.
//
// Registry builds entities from snapshots as streams and devices appear.
package entity
