// Package coordinator polls a device and keeps its state.Store current.
//
// A refresh fetches status and the device list concurrently (errgroup), then
// stream info and audio info. All four must succeed or the refresh is
// abandoned: the store keeps its previous snapshot and records the failure.
// There are no retries; the next tick tries again.
//
// Writes go through Do or Control. Each issues exactly one API call and then
// queues a refresh with RequestRefresh, which never blocks and coalesces
// with any request already pending. The caller gets the command's error; the
// refreshed state arrives asynchronously through the store and OnUpdate
// listeners.
package coordinator
