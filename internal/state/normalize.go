package state

import (
	"fmt"
	"strconv"
	"time"

	"github.com/five82/zowiebox/internal/zowie"
)

// Responses are the raw replies gathered by one refresh.
type Responses struct {
	Status     zowie.Response
	Devices    []zowie.Device
	StreamInfo zowie.Response
	Audio      zowie.Response
}

// Normalize converts raw replies into a Snapshot. Encoder, decoder and
// resolution lists are only read when the status reply succeeded; network
// outputs and sources only when the stream info reply succeeded. Optional
// fields with an unexpected shape fall back to defaults; only an "all"
// object that is not an object is an error.
func Normalize(in Responses, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		Status:     in.Status,
		StatusOK:   in.Status.OK(),
		Devices:    append([]zowie.Device(nil), in.Devices...),
		Streams:    make(map[string]Stream),
		AudioRaw:   in.Audio,
		StreamInfo: in.StreamInfo,
		Audio:      AudioConfig{Volume: DefaultAudioVolume},
		FetchedAt:  now,
	}

	if snap.StatusOK {
		var video zowie.VideoStatus
		if _, err := in.Status.DecodeField("all", &video); err != nil {
			return nil, fmt.Errorf("normalize status: %w", err)
		}
		for i, venc := range video.Venc {
			st := normalizeVenc(i, venc)
			snap.Streams[st.Key()] = st
		}
		for i, raw := range video.Vdec {
			snap.Decoders = append(snap.Decoders, Decoder{Index: i, Raw: raw})
		}
		for _, r := range video.ResolutionList {
			if r.Width > 0 && r.Height > 0 {
				snap.Resolutions = append(snap.Resolutions, Resolution{Width: r.Width, Height: r.Height})
			}
		}
	}

	if in.StreamInfo.OK() {
		var streams zowie.StreamStatus
		if _, err := in.StreamInfo.DecodeField("all", &streams); err != nil {
			return nil, fmt.Errorf("normalize stream info: %w", err)
		}
		for _, r := range streams.RTSP {
			snap.RTSP = append(snap.RTSP, normalizeRTSP(r))
		}
		for _, s := range streams.SRTServers {
			snap.SRT = append(snap.SRT, normalizeSRT(s))
		}
		for i, sp := range streams.Streamplay {
			snap.Streamplay = append(snap.Streamplay, StreamplaySource{
				Index:  zowie.IntOr(sp.Index, i),
				Name:   zowie.StringOr(sp.Name, "Source "+strconv.Itoa(zowie.IntOr(sp.Index, i))),
				Active: zowie.IntOr(sp.Switch, 0) == 1,
				URL:    zowie.StringOr(sp.URL, ""),
			})
		}
		for i, n := range streams.NDI {
			snap.NDI = append(snap.NDI, NDISource{
				Name:   zowie.StringOr(n.Name, "NDI Source "+strconv.Itoa(i)),
				URL:    zowie.StringOr(n.URL, ""),
				Active: zowie.IntOr(n.Switch, 0) == 1,
			})
		}
	}

	if in.Audio.OK() {
		var audio zowie.AudioStatus
		if _, err := in.Audio.DecodeField("all", &audio); err != nil {
			return nil, fmt.Errorf("normalize audio: %w", err)
		}
		snap.Audio = AudioConfig{
			Enabled: zowie.IntOr(audio.Switch, 0) == 1,
			Volume:  zowie.IntOr(audio.Volume, DefaultAudioVolume),
		}
	}

	return snap, nil
}

func normalizeVenc(index int, venc zowie.VencInfo) Stream {
	id := zowie.IntOr(venc.StreamID, index)
	typ := StreamSub
	if id == 0 {
		typ = StreamMain
	}
	st := Stream{
		ID:          id,
		Name:        "Stream " + strconv.Itoa(id),
		Type:        typ,
		Active:      zowie.IntOr(venc.Switch, 1) == 1,
		Width:       zowie.IntOr(venc.Width, 0),
		Height:      zowie.IntOr(venc.Height, 0),
		Framerate:   zowie.FloatOr(venc.Framerate, 0),
		Bitrate:     zowie.IntOr(venc.Bitrate, 0),
		Profile:     venc.Profile,
		RateControl: venc.RateControl,
		URL:         zowie.StringOr(venc.URL, ""),
		SnapshotURL: zowie.StringOr(venc.SnapshotURL, ""),
	}
	if venc.Codec != nil {
		st.Codec = Codec{
			SelectedID: zowie.IntOr(venc.Codec.SelectedID, 0),
			Options:    append([]string(nil), venc.Codec.CodecList...),
		}
	}
	return st
}

func normalizeRTSP(r zowie.RTSPInfo) PublishedStream {
	return PublishedStream{
		ID:           zowie.IntOr(r.StreamID, 0),
		Name:         zowie.StringOr(r.Name, "RTSP Stream"),
		Type:         StreamRTSP,
		Active:       zowie.IntOr(r.Switch, 0) == 1,
		URL:          zowie.StringOr(r.URL, ""),
		Width:        zowie.IntOr(r.Width, 0),
		Height:       zowie.IntOr(r.Height, 0),
		Framerate:    zowie.FloatOr(r.Framerate, 0),
		VideoEncType: zowie.IntOr(r.VencType, 0),
		AudioEncType: zowie.IntOr(r.AencType, 0),
	}
}

func normalizeSRT(s zowie.SRTInfo) PublishedStream {
	return PublishedStream{
		ID:        zowie.IntOr(s.StreamID, 0),
		Name:      zowie.StringOr(s.Name, "SRT Stream"),
		Type:      StreamSRT,
		Active:    zowie.IntOr(s.Switch, 0) == 1,
		URL:       zowie.StringOr(s.URL, ""),
		Port:      zowie.IntOr(s.Port, 0),
		StreamKey: zowie.StringOr(s.StreamKey, ""),
	}
}
