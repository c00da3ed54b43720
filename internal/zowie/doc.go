// Package zowie provides an HTTP client for the ZowieTek / Zowiebox device
// control API.
//
// The device speaks JSON over plain HTTP. Almost every call is a POST to a
// command group with a fixed query string:
//
//	POST /video?option=getinfo&login_check_flag=1
//	{"group": "all"}
//
//	POST /video?option=setinfo&login_check_flag=1
//	{"group": "venc", "opt": "set_bitrate", "data": {"stream_id": 0, "bitrate": 4000000}}
//
// # Responses
//
// Replies are returned verbatim as a Response. The firmware reports
// application errors inside an HTTP 200 body: a top-level "status" other than
// "00000" is a failure, and "rsp" carries the message. Client methods only
// return an error for transport failures (connection refused, timeout),
// HTTP status >= 400 (as *HTTPError) and undecodable bodies. Callers that
// need the application status call Response.OK or Response.Err, which yields
// an *APIError.
//
// # Lifecycle
//
// NewClient creates the HTTP client and its connection pool; Close releases
// idle connections and makes later calls fail with ErrClosed.
//
// # Devices
//
// The firmware has no device-list endpoint. Devices synthesizes a single
// camera record from a successful status call, copying any control values
// (pan position, gain, tally color, ...) found in status.all.
//
// # Thread Safety
//
// Client is safe for concurrent use.
package zowie
