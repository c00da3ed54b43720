// Package state holds the normalized device snapshot shared between the
// polling coordinator and its readers (entities, the MQTT bridge, the TUI).
//
// # Normalization
//
// Normalize is the only place raw device replies become typed records:
//
//	status.all.venc[i]       → Streams[stream_id or i]  ("Stream <id>", main when id 0)
//	status.all.vdec          → Decoders
//	status.all.resolution_list → Resolutions
//	stream.all.rtsp          → RTSP
//	stream.all.srt_servers   → SRT
//	stream.all.streamplay    → Streamplay
//	stream.all.ndi           → NDI
//	audio.all                → Audio
//
// Lists are only read from replies whose status is "00000". A failed status
// reply still produces a snapshot, just one without streams.
//
// # Device Mode
//
// Snapshot.Mode classifies the device as encoding, decoding or unknown.
// Encoding signals win over decoding signals. RelevantKinds and DisplayFor
// give the per-mode entity visibility and presentation.
//
// # Store
//
// Store publishes snapshots under a sync.RWMutex. Update with a nil error
// swaps in the new snapshot; with an error it keeps the previous snapshot
// and records the failure:
//
//	store.Update(snap, nil)  → Data = snap, LastError = nil, failures = 0
//	store.Update(nil, err)   → Data unchanged, LastError = err, failures++
//
// Snapshots are never mutated after publication, so Snapshot hands out the
// pointer without copying. The zero Store is ready to use.
package state
