package zowie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// ProbeTimeout bounds each probe request.
const ProbeTimeout = 5 * time.Second

// ProbeEndpoint is one request the diagnostic probe issues.
type ProbeEndpoint struct {
	Method string
	Path   string
}

// ProbeEndpoints lists the root page followed by every command group.
func ProbeEndpoints() []ProbeEndpoint {
	groups := []string{
		EndpointVideo, EndpointPTZ, EndpointAudio, EndpointStream, EndpointStreamplay,
		EndpointNetwork, EndpointSystem, EndpointStorage, EndpointRecord,
	}
	out := make([]ProbeEndpoint, 0, len(groups)+1)
	out = append(out, ProbeEndpoint{Method: http.MethodGet, Path: "/"})
	for _, g := range groups {
		out = append(out, ProbeEndpoint{Method: http.MethodPost, Path: g})
	}
	return out
}

// ProbeResult is the outcome of one probe request. Err is set for transport
// failures; HTTP error statuses are reported through StatusCode.
type ProbeResult struct {
	Endpoint   ProbeEndpoint
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

// Timeout reports whether the request timed out.
func (r ProbeResult) Timeout() bool {
	if r.Err == nil {
		return false
	}
	if errors.Is(r.Err, context.DeadlineExceeded) || errors.Is(r.Err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(r.Err, &te) && te.Timeout()
}

// MethodNotAllowed reports a GET answered with 404 or 405.
func (r ProbeResult) MethodNotAllowed() bool {
	return r.Endpoint.Method == http.MethodGet &&
		(r.StatusCode == http.StatusNotFound || r.StatusCode == http.StatusMethodNotAllowed)
}

// prettyTextLimit caps the characters Pretty shows of a non-JSON body.
const prettyTextLimit = 200

// Pretty renders the body as indented JSON, or the first 200 characters of
// text.
func (r ProbeResult) Pretty() string {
	var buf bytes.Buffer
	if json.Indent(&buf, bytes.TrimSpace(r.Body), "", "  ") == nil && buf.Len() > 0 {
		return buf.String()
	}
	text := []rune(string(r.Body))
	if len(text) > prettyTextLimit {
		text = text[:prettyTextLimit]
	}
	return string(text)
}

// Probe issues one diagnostic request. POST requests carry {"group":"all"}
// and the getinfo query string. Unlike the command methods it never
// interprets the HTTP status.
func (c *Client) Probe(ctx context.Context, ep ProbeEndpoint) ProbeResult {
	result := ProbeResult{Endpoint: ep}
	if c.closed.Load() {
		result.Err = ErrClosed
		return result
	}
	rel := &url.URL{Path: ep.Path}
	var body io.Reader
	if ep.Method == http.MethodPost {
		rel.RawQuery = "option=" + optionGet + "&" + loginCheckFlag
		encoded, _ := json.Marshal(groupAll)
		body = bytes.NewReader(encoded)
	}
	reqURL := c.baseURL.ResolveReference(rel)
	result.URL = reqURL.String()

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, ep.Method, result.URL, body)
	if err != nil {
		result.Err = fmt.Errorf("create request: %w", err)
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		result.Err = err
		return result
	}
	defer func() { _ = resp.Body.Close() }()
	result.StatusCode = resp.StatusCode
	result.Body, result.Err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return result
}
