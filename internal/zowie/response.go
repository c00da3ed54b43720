package zowie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SuccessStatus is the status value the device reports for a successful call.
const SuccessStatus = "00000"

// Response is a device reply returned verbatim. The device signals
// application errors in the body, so callers decide how to treat a
// non-success status via OK or Err.
type Response struct {
	endpoint string
	raw      json.RawMessage
	fields   map[string]json.RawMessage
}

// ParseResponse decodes a raw device body. Non-object bodies are kept as raw
// bytes with no fields.
func ParseResponse(body []byte) (Response, error) {
	return parseResponse("", body)
}

func parseResponse(endpoint string, body []byte) (Response, error) {
	trimmed := bytes.TrimSpace(body)
	resp := Response{endpoint: endpoint, raw: append(json.RawMessage(nil), trimmed...)}
	if len(trimmed) == 0 {
		return resp, nil
	}
	if !json.Valid(trimmed) {
		return Response{}, fmt.Errorf("decode response: invalid JSON from %s", endpointLabel(endpoint))
	}
	if trimmed[0] != '{' {
		return resp, nil
	}
	if err := json.Unmarshal(trimmed, &resp.fields); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Endpoint returns the request path that produced the response.
func (r Response) Endpoint() string { return r.endpoint }

// Status returns the top-level status field. Numeric statuses are rendered
// as decimal strings.
func (r Response) Status() string {
	return scalarString(r.fields["status"])
}

// Rsp returns the top-level rsp message.
func (r Response) Rsp() string {
	return scalarString(r.fields["rsp"])
}

// OK reports whether the device returned the success sentinel.
func (r Response) OK() bool {
	return r.Status() == SuccessStatus
}

// Err returns an *APIError when the response is not a success.
func (r Response) Err() error {
	if r.OK() {
		return nil
	}
	return &APIError{Endpoint: r.endpoint, Status: r.Status(), Rsp: r.Rsp()}
}

// Raw returns the body bytes as received.
func (r Response) Raw() []byte { return r.raw }

// Empty reports whether the response carries no body.
func (r Response) Empty() bool { return len(r.raw) == 0 }

// Field returns a top-level field, or nil when absent.
func (r Response) Field(key string) json.RawMessage {
	return r.fields[key]
}

// Decode unmarshals the full body into dest.
func (r Response) Decode(dest any) error {
	if len(r.raw) == 0 {
		return fmt.Errorf("decode response: empty body from %s", endpointLabel(r.endpoint))
	}
	if err := json.Unmarshal(r.raw, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// DecodeField unmarshals one top-level field into dest. A missing field
// leaves dest untouched and reports false.
func (r Response) DecodeField(key string, dest any) (bool, error) {
	field, ok := r.fields[key]
	if !ok || len(field) == 0 || string(field) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(field, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Indent renders the body as indented JSON, falling back to the raw text.
func (r Response) Indent() string {
	if len(r.raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.raw, "", "  "); err != nil {
		return string(r.raw)
	}
	return buf.String()
}

func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}

func endpointLabel(endpoint string) string {
	if endpoint == "" {
		return "device"
	}
	return endpoint
}
