package zowie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// StatusFetcher is the read side the polling coordinator needs. It is
// implemented by *Client and can be faked in tests.
type StatusFetcher interface {
	Status(ctx context.Context) (Response, error)
	Devices(ctx context.Context) ([]Device, error)
	StreamInfo(ctx context.Context) (Response, error)
	AudioInfo(ctx context.Context) (Response, error)
	ControlDevice(ctx context.Context, deviceID, command string, value any) (Response, error)
}

// Ensure Client implements StatusFetcher at compile time.
var _ StatusFetcher = (*Client)(nil)

// Client talks to the device HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	closed    atomic.Bool
}

const (
	// DefaultPort is the device's HTTP port.
	DefaultPort = 80
	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second

	defaultUserAgent = "zowiebox/0.1"
	loginCheckFlag   = "login_check_flag=1"
	maxResponseBytes = 4 << 20
)

const (
	optionGet = "getinfo"
	optionSet = "setinfo"
)

// Endpoint groups.
const (
	EndpointVideo      = "/video"
	EndpointPTZ        = "/ptz"
	EndpointAudio      = "/audio"
	EndpointStream     = "/stream"
	EndpointStreamplay = "/streamplay"
	EndpointNetwork    = "/network"
	EndpointSystem     = "/system"
	EndpointStorage    = "/storage"
	EndpointRecord     = "/record"

	endpointCameraInfo = "/api/camera/info"
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the owned HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for host and port. Port <= 0 selects DefaultPort.
// The host may carry its own scheme or port.
func NewClient(host string, port int, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(host, port)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the device base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Close releases idle connections. Further calls fail with ErrClosed.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.closed.Swap(true) {
		return nil
	}
	c.http.CloseIdleConnections()
	return nil
}

// request is the common command body. Legacy setters send sibling keys
// instead and use a map.
type request struct {
	Group string `json:"group"`
	Opt   string `json:"opt,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func (c *Client) getInfo(ctx context.Context, endpoint string, body any) (Response, error) {
	return c.post(ctx, endpoint, optionGet, body)
}

func (c *Client) setInfo(ctx context.Context, endpoint string, body any) (Response, error) {
	return c.post(ctx, endpoint, optionSet, body)
}

func (c *Client) post(ctx context.Context, endpoint, option string, body any) (Response, error) {
	rel := &url.URL{Path: endpoint, RawQuery: "option=" + option + "&" + loginCheckFlag}
	return c.doURL(ctx, http.MethodPost, rel, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (Response, error) {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body any) (Response, error) {
	if c == nil {
		return Response{}, fmt.Errorf("client is nil")
	}
	if c.closed.Load() {
		return Response{}, ErrClosed
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Response{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return Response{}, &HTTPError{Endpoint: rel.Path, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return parseResponse(rel.Path, data)
}

func parseBaseURL(host string, port int) (*url.URL, error) {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return nil, fmt.Errorf("host is empty")
	}
	if port <= 0 {
		port = DefaultPort
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse host %q: %w", host, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("parse host %q: missing hostname", host)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
