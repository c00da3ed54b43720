package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/five82/zowiebox/internal/zowie"
)

// StreamType classifies a stream record.
type StreamType string

// Stream types.
const (
	StreamMain StreamType = "main"
	StreamSub  StreamType = "sub"
	StreamRTSP StreamType = "rtsp"
	StreamSRT  StreamType = "srt"
)

// Codec is a stream's codec selection.
type Codec struct {
	SelectedID int
	Options    []string
}

// Selected returns the selected codec name when the index is in range.
func (c Codec) Selected() (string, bool) {
	if c.SelectedID < 0 || c.SelectedID >= len(c.Options) {
		return "", false
	}
	return c.Options[c.SelectedID], true
}

// Index returns the position of name in Options, or -1.
func (c Codec) Index(name string) int {
	for i, opt := range c.Options {
		if opt == name {
			return i
		}
	}
	return -1
}

// Stream is one internal encoder output.
type Stream struct {
	ID          int
	Name        string
	Type        StreamType
	Active      bool
	Width       int
	Height      int
	Framerate   float64
	Bitrate     int
	Codec       Codec
	Profile     json.RawMessage
	RateControl json.RawMessage
	URL         string
	SnapshotURL string
}

// Key is the map key used in Snapshot.Streams.
func (s Stream) Key() string { return strconv.Itoa(s.ID) }

// Resolution renders WIDTHxHEIGHT, or "" when either dimension is unknown.
func (s Stream) Resolution() string {
	if s.Width <= 0 || s.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// PublishedStream is an RTSP or SRT network output.
type PublishedStream struct {
	ID           int
	Name         string
	Type         StreamType
	Active       bool
	URL          string
	Width        int
	Height       int
	Framerate    float64
	VideoEncType int
	AudioEncType int
	Port         int
	StreamKey    string
}

// StreamplaySource is a network pull source used when decoding.
type StreamplaySource struct {
	Index  int
	Name   string
	Active bool
	URL    string
}

// NDISource is an NDI input.
type NDISource struct {
	Name   string
	URL    string
	Active bool
}

// Decoder is one configured video decoder, kept raw.
type Decoder struct {
	Index int
	Raw   json.RawMessage
}

// Resolution is one supported output resolution.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string { return fmt.Sprintf("%dx%d", r.Width, r.Height) }

// AudioConfig is the normalized audio state.
type AudioConfig struct {
	Enabled bool
	Volume  int
}

// DefaultAudioVolume is reported when the device omits a volume.
const DefaultAudioVolume = 50

// Snapshot is the normalized device state produced by one refresh. A
// snapshot is never mutated once handed to the Store.
type Snapshot struct {
	Status     zowie.Response
	StatusOK   bool
	Devices    []zowie.Device
	Streams    map[string]Stream
	RTSP       []PublishedStream
	SRT        []PublishedStream
	Streamplay []StreamplaySource
	NDI        []NDISource
	Decoders   []Decoder
	// Resolutions lists sizes the device accepts for set_resolution.
	Resolutions []Resolution
	Audio       AudioConfig
	AudioRaw    zowie.Response
	StreamInfo  zowie.Response
	FetchedAt   time.Time
}

// Stream looks up a stream by key.
func (s *Snapshot) Stream(key string) (Stream, bool) {
	if s == nil {
		return Stream{}, false
	}
	st, ok := s.Streams[key]
	return st, ok
}

// StreamList returns the internal streams ordered by id.
func (s *Snapshot) StreamList() []Stream {
	if s == nil || len(s.Streams) == 0 {
		return nil
	}
	out := make([]Stream, 0, len(s.Streams))
	for _, st := range s.Streams {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveStream returns the lowest-id active internal stream.
func (s *Snapshot) ActiveStream() (Stream, bool) {
	for _, st := range s.StreamList() {
		if st.Active {
			return st, true
		}
	}
	return Stream{}, false
}

// Device looks up a device by id.
func (s *Snapshot) Device(id string) (zowie.Device, bool) {
	if s == nil {
		return zowie.Device{}, false
	}
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return zowie.Device{}, false
}

// ActiveStreamplay returns the first active streamplay source.
func (s *Snapshot) ActiveStreamplay() (StreamplaySource, bool) {
	if s == nil {
		return StreamplaySource{}, false
	}
	for _, src := range s.Streamplay {
		if src.Active {
			return src, true
		}
	}
	return StreamplaySource{}, false
}
