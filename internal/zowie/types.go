package zowie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Num decodes the loosely typed numeric fields the firmware emits: JSON
// numbers, numeric strings and booleans all land here. Values that are not
// numeric decode as unknown instead of failing the enclosing payload.
type Num float64

// unknownNum marks a field that was present but not numeric.
var unknownNum = Num(math.NaN())

// UnmarshalJSON implements json.Unmarshaler.
func (n *Num) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, string(trimmed) == "null":
		return nil
	case string(trimmed) == "true":
		*n = 1
		return nil
	case string(trimmed) == "false":
		*n = 0
		return nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			*n = unknownNum
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = unknownNum
			return nil
		}
		*n = Num(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		*n = unknownNum
		return nil
	}
	*n = Num(f)
	return nil
}

// Known reports whether the value decoded as a number.
func (n Num) Known() bool { return !math.IsNaN(float64(n)) }

// Int returns the value truncated to an int. Unknown values are 0.
func (n Num) Int() int {
	if !n.Known() {
		return 0
	}
	return int(n)
}

// Float returns the value as a float64. Unknown values are 0.
func (n Num) Float() float64 {
	if !n.Known() {
		return 0
	}
	return float64(n)
}

// Has reports whether p holds a numeric value.
func Has(p *Num) bool { return p != nil && p.Known() }

// IntOr dereferences p, falling back to def when p is nil or unknown.
func IntOr(p *Num, def int) int {
	if !Has(p) {
		return def
	}
	return p.Int()
}

// FloatOr dereferences p, falling back to def when p is nil or unknown.
func FloatOr(p *Num, def float64) float64 {
	if !Has(p) {
		return def
	}
	return p.Float()
}

// List decodes a JSON array element by element. Elements that fail to
// decode are dropped, and a value that is not an array decodes as empty.
type List[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}
	out := make(List[T], 0, len(raw))
	for _, elem := range raw {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// StringOr dereferences p, falling back to def when nil.
func StringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// VideoStatus mirrors the "all" object of a video getinfo reply.
type VideoStatus struct {
	Venc           List[VencInfo]        `json:"venc"`
	Vdec           List[json.RawMessage] `json:"vdec"`
	ResolutionList List[ResolutionInfo]  `json:"resolution_list"`
}

// VencInfo is one encoder output as reported by the device.
type VencInfo struct {
	StreamID    *Num            `json:"stream_id"`
	Width       *Num            `json:"width"`
	Height      *Num            `json:"height"`
	Framerate   *Num            `json:"framerate"`
	Bitrate     *Num            `json:"bitrate"`
	Switch      *Num            `json:"switch"`
	Codec       *CodecInfo      `json:"codec"`
	Profile     json.RawMessage `json:"profile"`
	RateControl json.RawMessage `json:"ratecontrol"`
	URL         *string         `json:"url"`
	SnapshotURL *string         `json:"snapshot_url"`
}

// CodecInfo carries the selected codec index and the available codec names.
type CodecInfo struct {
	SelectedID *Num         `json:"selected_id"`
	CodecList  List[string] `json:"codec_list"`
}

// UnmarshalJSON implements json.Unmarshaler. Any shape other than an object
// leaves the codec empty.
func (c *CodecInfo) UnmarshalJSON(data []byte) error {
	type plain CodecInfo
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		*c = CodecInfo{}
		return nil
	}
	*c = CodecInfo(v)
	return nil
}

// ResolutionInfo is one entry of resolution_list. The firmware reports
// either {"width":..,"height":..} objects or "1920x1080" strings. Entries
// that are neither, such as "Auto", decode as zero.
type ResolutionInfo struct {
	Width  int
	Height int
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ResolutionInfo) UnmarshalJSON(data []byte) error {
	*r = ResolutionInfo{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		if w, h, err := ParseResolution(s); err == nil {
			r.Width, r.Height = w, h
		}
		return nil
	}
	var obj struct {
		Width  Num `json:"width"`
		Height Num `json:"height"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil
	}
	r.Width, r.Height = obj.Width.Int(), obj.Height.Int()
	return nil
}

// ParseResolution parses "WIDTHxHEIGHT".
func ParseResolution(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid resolution %q", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution %q: %w", s, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution %q: %w", s, err)
	}
	return w, h, nil
}

// StreamStatus mirrors the "all" object of the getStreamStatus reply.
type StreamStatus struct {
	RTSP       List[RTSPInfo]       `json:"rtsp"`
	SRTServers List[SRTInfo]        `json:"srt_servers"`
	Streamplay List[StreamplayInfo] `json:"streamplay"`
	NDI        List[NDIInfo]        `json:"ndi"`
}

// RTSPInfo is one RTSP output.
type RTSPInfo struct {
	StreamID  *Num    `json:"stream_id"`
	Name      *string `json:"name"`
	Switch    *Num    `json:"switch"`
	URL       *string `json:"url"`
	Width     *Num    `json:"width"`
	Height    *Num    `json:"height"`
	Framerate *Num    `json:"framerate"`
	VencType  *Num    `json:"venctype"`
	AencType  *Num    `json:"aenctype"`
}

// SRTInfo is one SRT server output.
type SRTInfo struct {
	StreamID  *Num    `json:"stream_id"`
	Name      *string `json:"name"`
	Switch    *Num    `json:"switch"`
	URL       *string `json:"url"`
	Port      *Num    `json:"port"`
	StreamKey *string `json:"streamId"`
}

// StreamplayInfo is one network pull source used in decoding mode.
type StreamplayInfo struct {
	Index  *Num    `json:"index"`
	Name   *string `json:"name"`
	Switch *Num    `json:"switch"`
	URL    *string `json:"url"`
}

// NDIInfo is one NDI source.
type NDIInfo struct {
	Name   *string `json:"name"`
	URL    *string `json:"url"`
	Switch *Num    `json:"switch"`
}

// AudioStatus is the subset of the audio getinfo "all" object that the
// integration reads.
type AudioStatus struct {
	Switch *Num `json:"switch"`
	Volume *Num `json:"volume"`
}

// Device describes a controllable device attached to the box.
type Device struct {
	ID           string
	Name         string
	Type         string
	State        string
	Model        string
	Status       string
	Capabilities []string
	Controls     CameraControls
}

// HasCapability reports whether the device advertises capability c.
func (d Device) HasCapability(c string) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// CameraControls holds the optional control values a device may report.
// Absent values stay nil so callers can apply their own defaults.
type CameraControls struct {
	PanPosition      *Num    `json:"pan_position"`
	TiltPosition     *Num    `json:"tilt_position"`
	ZoomLevel        *Num    `json:"zoom_level"`
	FocusPosition    *Num    `json:"focus_position"`
	FocusSpeed       *Num    `json:"focus_speed"`
	Gain             *Num    `json:"gain"`
	ShutterSpeed     *Num    `json:"shutter_speed"`
	ExposureMode     *string `json:"exposure_mode"`
	WhiteBalanceMode *string `json:"white_balance_mode"`
	Saturation       *Num    `json:"saturation"`
	Brightness       *Num    `json:"brightness"`
	Contrast         *Num    `json:"contrast"`
	Sharpness        *Num    `json:"sharpness"`
	AudioVolume      *Num    `json:"audio_volume"`
	AudioEnabled     *Num    `json:"audio_enabled"`
	Recording        *Num    `json:"recording"`
	TallyColor       *string `json:"tally_color"`
	TallyMode        *string `json:"tally_mode"`
	ColorTemp        *Num    `json:"color_temp"`
}

// Device defaults for the synthesized single-device record.
const (
	DefaultDeviceID   = "zowietek_device"
	DefaultDeviceName = "ZowieTek Device"
	DefaultModel      = "ZowieTek"
)

// Device types.
const (
	DeviceTypeCamera = "camera"
	DeviceTypePTZ    = "ptz"
	DeviceTypeLight  = "light"
)

// DefaultCapabilities is the capability set of the synthesized device.
var DefaultCapabilities = []string{
	CapPTZ, CapFocus, CapExposure, CapWhiteBalance,
	CapImageControl, CapAudio, CapRecording, CapStreaming,
}

// Capability names.
const (
	CapPTZ          = "ptz"
	CapFocus        = "focus"
	CapExposure     = "exposure"
	CapWhiteBalance = "white_balance"
	CapImageControl = "image_control"
	CapAudio        = "audio"
	CapRecording    = "recording"
	CapStreaming    = "streaming"
	CapTally        = "tally"
	CapBrightness   = "brightness"
	CapColorTemp    = "color_temp"
)

// OutputSettings configures the HDMI output. Nil fields are left unchanged.
type OutputSettings struct {
	Format        *int `json:"format,omitempty"`
	AudioSwitch   *int `json:"audio_switch,omitempty"`
	LoopOutSwitch *int `json:"loop_out_switch,omitempty"`
}

// VencSettings is one encoder entry for SetEncodingInfo.
type VencSettings struct {
	StreamID  int      `json:"stream_id"`
	Switch    *int     `json:"switch,omitempty"`
	Width     *int     `json:"width,omitempty"`
	Height    *int     `json:"height,omitempty"`
	Framerate *float64 `json:"framerate,omitempty"`
	Bitrate   *int     `json:"bitrate,omitempty"`
	Codec     *int     `json:"codec,omitempty"`
}

// PublishInfo describes a new publish (push) target.
type PublishInfo struct {
	Service  string `json:"service"`
	Protocol string `json:"protocol"`
	URL      string `json:"url"`
	Key      string `json:"key"`
	Switch   int    `json:"switch"`
	Desc     string `json:"desc"`
	Name     string `json:"name"`
}

// PTZSettings configures the PTZ control link. Nil fields are left unchanged.
type PTZSettings struct {
	Protocol   *int    `json:"protocol,omitempty"`
	Type       *int    `json:"type,omitempty"`
	IP         *string `json:"ip,omitempty"`
	Port       *int    `json:"port,omitempty"`
	Addr       *int    `json:"addr,omitempty"`
	AddrFix    *int    `json:"addr_fix,omitempty"`
	BaudrateID *int    `json:"baudrate_id,omitempty"`
}

// PTZMove moves the head. Zoom is in device units (tenths).
type PTZMove struct {
	Pan  *int `json:"pan,omitempty"`
	Tilt *int `json:"tilt,omitempty"`
	Zoom *int `json:"zoom,omitempty"`
}

// FocusSettings drives the focus motor.
type FocusSettings struct {
	Focus      *int `json:"focus,omitempty"`
	FocusSpeed *int `json:"focus_speed,omitempty"`
}

// ExposureSettings configures exposure.
type ExposureSettings struct {
	Mode    *string `json:"mode,omitempty"`
	Gain    *int    `json:"gain,omitempty"`
	Shutter *int    `json:"shutter,omitempty"`
}

// WhiteBalanceSettings configures white balance.
type WhiteBalanceSettings struct {
	Mode       *string `json:"mode,omitempty"`
	Saturation *int    `json:"saturation,omitempty"`
}

// ImageSettings configures picture adjustments.
type ImageSettings struct {
	Brightness *int `json:"brightness,omitempty"`
	Contrast   *int `json:"contrast,omitempty"`
	Sharpness  *int `json:"sharpness,omitempty"`
}

// TallySettings configures the tally light.
type TallySettings struct {
	ColorID *int `json:"color_id,omitempty"`
	ModeID  *int `json:"mode_id,omitempty"`
}

// SystemTime sets the device clock.
type SystemTime struct {
	Year          int
	Month         int
	Day           int
	Hour          int
	Minute        int
	Second        int
	SettingModeID int
	TimeZoneID    string
	NTPEnable     bool
	NTPServer     string
	NTPPort       int
}

// DefaultNTPPort is used when SystemTime.NTPPort is zero.
const DefaultNTPPort = 123

func (t SystemTime) payload() map[string]any {
	port := t.NTPPort
	if port == 0 {
		port = DefaultNTPPort
	}
	return map[string]any{
		"time": map[string]int{
			"year":   t.Year,
			"month":  t.Month,
			"day":    t.Day,
			"hour":   t.Hour,
			"minute": t.Minute,
			"second": t.Second,
		},
		"setting_mode_id": t.SettingModeID,
		"time_zone_id":    t.TimeZoneID,
		"ntp_enable":      boolInt(t.NTPEnable),
		"ntp_server":      t.NTPServer,
		"ntp_port":        port,
	}
}

// Ptr returns a pointer to v. Handy for the optional fields above.
func Ptr[T any](v T) *T { return &v }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
