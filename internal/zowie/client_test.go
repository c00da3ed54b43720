package zowie

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
	Agent  string
}

// newDevice starts a fake device that records requests and answers with the
// body returned by reply.
func newDevice(t *testing.T, reply func(req recordedRequest) (int, string)) (*Client, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Agent:  r.Header.Get("User-Agent"),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		mu.Lock()
		seen = append(seen, rec)
		mu.Unlock()
		code, body := reply(rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, 0)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), seen...)
	}
}

func okReply(recordedRequest) (int, string) {
	return http.StatusOK, `{"status":"00000","rsp":"succeed"}`
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("192.168.1.50", 0)
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != "http://192.168.1.50:80" {
		t.Fatalf("url = %q, want http://192.168.1.50:80", u.String())
	}

	u, err = parseBaseURL("camera.local", 8080)
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Host != "camera.local:8080" {
		t.Fatalf("host = %q, want camera.local:8080", u.Host)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag", 80)
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Host != "example.com:1234" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("  ", 80); err == nil {
		t.Fatalf("parseBaseURL with empty host returned nil error")
	}
}

func TestClient_StatusUsesVideoGetInfo(t *testing.T) {
	t.Parallel()

	c, requests := newDevice(t, func(recordedRequest) (int, string) {
		return http.StatusOK, `{"status":"00000","rsp":"succeed","all":{"venc":[{"stream_id":0,"switch":1}]}}`
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	resp, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !resp.OK() || resp.Rsp() != "succeed" {
		t.Fatalf("Status = %q/%q, want 00000/succeed", resp.Status(), resp.Rsp())
	}
	if !strings.Contains(string(resp.Raw()), `"venc"`) {
		t.Fatalf("Raw = %s, want body verbatim", resp.Raw())
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("requests = %d, want 1", len(got))
	}
	req := got[0]
	if req.Method != http.MethodPost || req.Path != "/video" {
		t.Fatalf("request = %s %s, want POST /video", req.Method, req.Path)
	}
	if req.Query != "option=getinfo&login_check_flag=1" {
		t.Fatalf("query = %q, want option=getinfo&login_check_flag=1", req.Query)
	}
	if req.Body["group"] != "all" {
		t.Fatalf("body = %v, want group=all", req.Body)
	}
	if !strings.HasPrefix(req.Agent, "zowiebox/") {
		t.Fatalf("User-Agent = %q, want zowiebox/*", req.Agent)
	}
}

func TestClient_StreamSettersPostVencGroup(t *testing.T) {
	t.Parallel()

	c, requests := newDevice(t, okReply)
	ctx := context.Background()

	if _, err := c.SetStreamBitrate(ctx, 1, 4000000); err != nil {
		t.Fatalf("SetStreamBitrate returned error: %v", err)
	}
	if _, err := c.SetStreamSwitch(ctx, 0, false); err != nil {
		t.Fatalf("SetStreamSwitch returned error: %v", err)
	}
	if _, err := c.SetStreamResolution(ctx, 0, 1280, 720); err != nil {
		t.Fatalf("SetStreamResolution returned error: %v", err)
	}

	got := requests()
	if len(got) != 3 {
		t.Fatalf("requests = %d, want 3", len(got))
	}
	for _, req := range got {
		if req.Path != "/video" || req.Query != "option=setinfo&login_check_flag=1" {
			t.Fatalf("request = %s?%s, want /video setinfo", req.Path, req.Query)
		}
		if req.Body["group"] != "venc" {
			t.Fatalf("group = %v, want venc", req.Body["group"])
		}
	}
	if got[0].Body["opt"] != "set_bitrate" {
		t.Fatalf("opt = %v, want set_bitrate", got[0].Body["opt"])
	}
	data, _ := got[0].Body["data"].(map[string]any)
	if data["stream_id"] != float64(1) || data["bitrate"] != float64(4000000) {
		t.Fatalf("data = %v, want stream_id=1 bitrate=4000000", data)
	}
	data, _ = got[1].Body["data"].(map[string]any)
	if data["switch"] != float64(0) {
		t.Fatalf("switch = %v, want 0", data["switch"])
	}
	data, _ = got[2].Body["data"].(map[string]any)
	if data["width"] != float64(1280) || data["height"] != float64(720) {
		t.Fatalf("resolution data = %v, want 1280x720", data)
	}
}

func TestClient_LegacySettersUseSiblingKeys(t *testing.T) {
	t.Parallel()

	c, requests := newDevice(t, okReply)
	ctx := context.Background()

	if _, err := c.AudioSwitch(ctx, true); err != nil {
		t.Fatalf("AudioSwitch returned error: %v", err)
	}
	if _, err := c.SetEncodingInfo(ctx, []VencSettings{{StreamID: 0, Switch: Ptr(1)}}); err != nil {
		t.Fatalf("SetEncodingInfo returned error: %v", err)
	}

	got := requests()
	if got[0].Path != "/audio" || got[0].Body["group"] != "audio_switch" || got[0].Body["switch"] != float64(1) {
		t.Fatalf("AudioSwitch request = %s %v, want /audio audio_switch switch=1", got[0].Path, got[0].Body)
	}
	venc, ok := got[1].Body["venc"].([]any)
	if !ok || len(venc) != 1 {
		t.Fatalf("SetEncodingInfo body = %v, want venc list", got[1].Body)
	}
	if _, hasData := got[1].Body["data"]; hasData {
		t.Fatalf("SetEncodingInfo body carries data key: %v", got[1].Body)
	}
}

func TestClient_SetSystemTimePayload(t *testing.T) {
	t.Parallel()

	c, requests := newDevice(t, okReply)
	_, err := c.SetSystemTime(context.Background(), SystemTime{
		Year: 2026, Month: 3, Day: 4, Hour: 5, Minute: 6, Second: 7,
		SettingModeID: 1, TimeZoneID: "UTC",
	})
	if err != nil {
		t.Fatalf("SetSystemTime returned error: %v", err)
	}
	req := requests()[0]
	if req.Path != "/system" || req.Body["group"] != "systime" || req.Body["opt"] != "set_systime_info" {
		t.Fatalf("request = %s %v, want /system systime/set_systime_info", req.Path, req.Body)
	}
	data, _ := req.Body["data"].(map[string]any)
	if data["ntp_port"] != float64(123) || data["ntp_enable"] != float64(0) || data["time_zone_id"] != "UTC" {
		t.Fatalf("data = %v, want ntp_port=123 ntp_enable=0 time_zone_id=UTC", data)
	}
	tm, _ := data["time"].(map[string]any)
	if tm["year"] != float64(2026) || tm["second"] != float64(7) {
		t.Fatalf("time = %v, want 2026..7", tm)
	}
}

func TestClient_ApplicationErrorIsNotTransportError(t *testing.T) {
	t.Parallel()

	c, _ := newDevice(t, func(recordedRequest) (int, string) {
		return http.StatusOK, `{"status":"10001","rsp":"invalid parameter"}`
	})

	resp, err := c.SetStreamCodec(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("SetStreamCodec returned error: %v", err)
	}
	if resp.OK() {
		t.Fatalf("OK = true, want false for status 10001")
	}
	var apiErr *APIError
	if !errors.As(resp.Err(), &apiErr) {
		t.Fatalf("Err = %v, want *APIError", resp.Err())
	}
	if apiErr.Status != "10001" || apiErr.Rsp != "invalid parameter" || apiErr.Endpoint != "/video" {
		t.Fatalf("APIError = %#v, want 10001/invalid parameter on /video", apiErr)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	c, _ := newDevice(t, func(req recordedRequest) (int, string) {
		switch req.Path {
		case "/video":
			return http.StatusOK, "{not-json"
		default:
			return http.StatusInternalServerError, "nope"
		}
	})

	_, err := c.Status(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Status error = %v, want decode response error", err)
	}

	_, err = c.AudioInfo(context.Background())
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("AudioInfo error = %v, want *HTTPError 500", err)
	}
	if !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("AudioInfo error = %q, want status 500 message", err.Error())
	}
}

func TestClient_ClosedClientFails(t *testing.T) {
	c, requests := newDevice(t, okReply)
	if err := c.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if _, err := c.Status(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Status after Close error = %v, want ErrClosed", err)
	}
	if len(requests()) != 0 {
		t.Fatalf("requests after Close = %d, want 0", len(requests()))
	}
}

func TestClient_DevicesSynthesizesSingleRecord(t *testing.T) {
	t.Parallel()

	c, _ := newDevice(t, func(recordedRequest) (int, string) {
		return http.StatusOK, `{"status":"00000","all":{"zoom_level":3.5,"tally_color":"red","gain":"40"}}`
	})
	devices, err := c.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices returned error: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Devices = %d, want 1", len(devices))
	}
	dev := devices[0]
	if dev.ID != DefaultDeviceID || dev.Name != DefaultDeviceName || dev.Type != "camera" || dev.State != "on" {
		t.Fatalf("device = %#v, want synthesized defaults", dev)
	}
	if !dev.HasCapability(CapPTZ) || !dev.HasCapability(CapStreaming) || dev.HasCapability(CapTally) {
		t.Fatalf("capabilities = %v, want default set", dev.Capabilities)
	}
	if FloatOr(dev.Controls.ZoomLevel, 1) != 3.5 || IntOr(dev.Controls.Gain, 50) != 40 {
		t.Fatalf("controls = zoom %v gain %v, want 3.5/40", dev.Controls.ZoomLevel, dev.Controls.Gain)
	}
	if StringOr(dev.Controls.TallyColor, "off") != "red" {
		t.Fatalf("tally color = %v, want red", dev.Controls.TallyColor)
	}
}

func TestClient_DevicesEmptyOnFailureStatus(t *testing.T) {
	t.Parallel()

	c, _ := newDevice(t, func(recordedRequest) (int, string) {
		return http.StatusOK, `{"status":"20000","rsp":"busy"}`
	})
	devices, err := c.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices returned error: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("Devices = %v, want empty", devices)
	}
}

func TestClient_ValidateReportsRsp(t *testing.T) {
	t.Parallel()

	c, _ := newDevice(t, func(recordedRequest) (int, string) {
		return http.StatusOK, `{"status":"30001","rsp":"login required"}`
	})
	_, err := c.Validate(context.Background())
	if !errors.Is(err, ErrCannotConnect) {
		t.Fatalf("Validate error = %v, want ErrCannotConnect", err)
	}
	if err.Error() != "login required" {
		t.Fatalf("Validate message = %q, want login required", err.Error())
	}
}

func TestClient_ValidateWrapsTransportErrors(t *testing.T) {
	c, err := NewClient("127.0.0.1", 1, WithTimeout(500*time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Validate(context.Background())
	if !errors.Is(err, ErrCannotConnect) {
		t.Fatalf("Validate error = %v, want ErrCannotConnect", err)
	}
}

func TestClient_ProbeReportsStatusAndBody(t *testing.T) {
	t.Parallel()

	c, requests := newDevice(t, func(req recordedRequest) (int, string) {
		if req.Method == http.MethodGet {
			return http.StatusMethodNotAllowed, ""
		}
		return http.StatusOK, `{"status":"00000"}`
	})

	eps := ProbeEndpoints()
	if len(eps) != 10 || eps[0].Method != http.MethodGet || eps[0].Path != "/" {
		t.Fatalf("ProbeEndpoints = %v, want GET / then 9 groups", eps)
	}

	root := c.Probe(context.Background(), eps[0])
	if !root.MethodNotAllowed() {
		t.Fatalf("root probe = %d, want method not allowed", root.StatusCode)
	}
	video := c.Probe(context.Background(), eps[1])
	if video.Err != nil || video.StatusCode != http.StatusOK {
		t.Fatalf("video probe = %d/%v, want 200", video.StatusCode, video.Err)
	}
	if !strings.Contains(video.Pretty(), "\n  \"status\"") {
		t.Fatalf("Pretty = %q, want indented JSON", video.Pretty())
	}
	got := requests()
	if got[1].Query != "option=getinfo&login_check_flag=1" || got[1].Body["group"] != "all" {
		t.Fatalf("probe request = %q %v, want getinfo group=all", got[1].Query, got[1].Body)
	}
}

func TestProbeResult_PrettyTruncatesText(t *testing.T) {
	r := ProbeResult{Body: []byte(strings.Repeat("x", 500))}
	if got := len(r.Pretty()); got != 200 {
		t.Fatalf("Pretty length = %d, want 200", got)
	}

	r = ProbeResult{Body: []byte(strings.Repeat("é", 300))}
	got := r.Pretty()
	if !utf8.ValidString(got) || utf8.RuneCountInString(got) != 200 {
		t.Fatalf("Pretty = %d runes valid=%v, want 200 valid runes", utf8.RuneCountInString(got), utf8.ValidString(got))
	}
}
