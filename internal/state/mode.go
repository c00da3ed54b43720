package state

import "strings"

// Mode is the inferred operating mode of the device.
type Mode string

// Device modes.
const (
	ModeEncoding Mode = "encoding"
	ModeDecoding Mode = "decoding"
	ModeUnknown  Mode = "unknown"
)

// Mode infers the device mode. Encoding wins over decoding: any active
// internal stream or RTSP/SRT output means encoding. Otherwise a configured
// decoder, an active streamplay source or an active NDI source means
// decoding. The result is derived on every call and never stored.
func (s *Snapshot) Mode() Mode {
	if s == nil {
		return ModeUnknown
	}
	if s.encoding() {
		return ModeEncoding
	}
	if s.decoding() {
		return ModeDecoding
	}
	return ModeUnknown
}

func (s *Snapshot) encoding() bool {
	for _, st := range s.Streams {
		if st.Active && (st.Type == StreamMain || st.Type == StreamSub) {
			return true
		}
	}
	for _, p := range s.RTSP {
		if p.Active {
			return true
		}
	}
	for _, p := range s.SRT {
		if p.Active {
			return true
		}
	}
	return false
}

func (s *Snapshot) decoding() bool {
	if len(s.Decoders) > 0 {
		return true
	}
	for _, src := range s.Streamplay {
		if src.Active {
			return true
		}
	}
	for _, src := range s.NDI {
		if src.Active {
			return true
		}
	}
	return false
}

// Kind names an entity category for mode relevance.
type Kind string

// Entity kinds.
const (
	KindStreamSelect     Kind = "stream_select"
	KindResolutionSelect Kind = "resolution_select"
	KindCodecSelect      Kind = "codec_select"
	KindBitrateNumber    Kind = "bitrate_number"
	KindFramerateNumber  Kind = "framerate_number"
	KindStreamSwitch     Kind = "stream_switch"
	KindInputSelect      Kind = "input_select"
	KindInputResolution  Kind = "input_resolution"
	KindInputCodec       Kind = "input_codec"
	KindInputBitrate     Kind = "input_bitrate"
	KindInputFramerate   Kind = "input_framerate"
	KindInputSwitch      Kind = "input_switch"
	KindCamera           Kind = "camera"
	KindSensor           Kind = "sensor"
	KindDeviceInfo       Kind = "device_info"
	KindNetworkStatus    Kind = "network_status"
	KindSystemStatus     Kind = "system_status"
)

var relevantKinds = map[Mode][]Kind{
	ModeEncoding: {
		KindStreamSelect, KindResolutionSelect, KindCodecSelect, KindBitrateNumber,
		KindFramerateNumber, KindStreamSwitch, KindCamera, KindSensor,
	},
	ModeDecoding: {
		KindInputSelect, KindInputResolution, KindInputCodec, KindInputBitrate,
		KindInputFramerate, KindInputSwitch, KindCamera, KindSensor,
	},
	ModeUnknown: {KindDeviceInfo, KindNetworkStatus, KindSystemStatus},
}

// RelevantKinds returns the entity kinds shown in mode.
func RelevantKinds(mode Mode) []Kind {
	kinds, ok := relevantKinds[mode]
	if !ok {
		kinds = relevantKinds[ModeUnknown]
	}
	return append([]Kind(nil), kinds...)
}

// Relevant reports whether kind is shown in mode.
func Relevant(mode Mode, kind Kind) bool {
	for _, k := range RelevantKinds(mode) {
		if k == kind {
			return true
		}
	}
	return false
}

// Display is the mode-specific presentation of an entity kind.
type Display struct {
	Name        string
	Icon        string
	Description string
}

type displayKey struct {
	kind Kind
	mode Mode
}

var displays = map[displayKey]Display{
	{KindStreamSelect, ModeEncoding}:     {"Active Output Stream", "mdi:video-switch", "Choose which stream to output"},
	{KindInputSelect, ModeDecoding}:      {"Active Input Source", "mdi:video-input-hdmi", "Choose which input source to decode"},
	{KindResolutionSelect, ModeEncoding}: {"Output Resolution", "mdi:monitor", "Set the output video resolution"},
	{KindInputResolution, ModeDecoding}:  {"Input Resolution", "mdi:monitor-arrow-down", "Set the input video resolution"},
	{KindCodecSelect, ModeEncoding}:      {"Output Codec", "mdi:code-braces", "Set the output video codec"},
	{KindInputCodec, ModeDecoding}:       {"Input Codec", "mdi:code-braces", "Set the input video codec"},
	{KindBitrateNumber, ModeEncoding}:    {"Output Bitrate", "mdi:speedometer", "Set the output video bitrate"},
	{KindInputBitrate, ModeDecoding}:     {"Input Bitrate", "mdi:speedometer", "Set the input video bitrate"},
	{KindFramerateNumber, ModeEncoding}:  {"Output Framerate", "mdi:filmstrip", "Set the output video framerate"},
	{KindInputFramerate, ModeDecoding}:   {"Input Framerate", "mdi:filmstrip", "Set the input video framerate"},
	{KindStreamSwitch, ModeEncoding}:     {"Output Stream", "mdi:video", "Enable/disable output stream"},
	{KindInputSwitch, ModeDecoding}:      {"Input Source", "mdi:video-input-hdmi", "Enable/disable input source"},
	{KindCamera, ModeEncoding}:           {"Output Stream", "mdi:video", "View the output stream"},
	{KindCamera, ModeDecoding}:           {"Input Stream", "mdi:video-input-hdmi", "View the input stream"},
	{KindSensor, ModeEncoding}:           {"Stream Status", "mdi:chart-line", "Monitor output stream status"},
	{KindSensor, ModeDecoding}:           {"Input Status", "mdi:chart-line", "Monitor input stream status"},
}

// DisplayFor returns the presentation of kind in mode. Unlisted pairs get a
// title-cased name and a generic icon.
func DisplayFor(kind Kind, mode Mode) Display {
	if d, ok := displays[displayKey{kind, mode}]; ok {
		return d
	}
	words := strings.Fields(strings.ReplaceAll(string(kind), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return Display{
		Name:        strings.Join(words, " "),
		Icon:        "mdi:cog",
		Description: "Control " + strings.ReplaceAll(string(kind), "_", " "),
	}
}
