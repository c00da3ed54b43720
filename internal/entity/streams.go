package entity

import (
	"context"
	"fmt"

	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

// Bitrate and framerate bounds shared by per-stream and mode-aware numbers.
const (
	MinBitrate    = 100_000
	MaxBitrate    = 50_000_000
	BitrateStep   = 100_000
	MinFramerate  = 1
	MaxFramerate  = 60
	FramerateStep = 0.1
)

// streamEntities builds the per-stream entities for st.
func streamEntities(deps *Deps, st state.Stream) []Entity {
	key := st.Key()
	id := st.ID
	present := streamPresent(key)
	lookup := func(snap *state.Snapshot) (state.Stream, bool) { return snap.Stream(key) }
	// write resolves the stream again at write time.
	write := func(snap *state.Snapshot) error {
		if _, ok := snap.Stream(key); !ok {
			return fmt.Errorf("stream %s: %w", key, ErrNotFound)
		}
		return nil
	}

	sw := &switchEntity{
		base: newBase(deps, Info{
			ObjectID: "switch_" + key,
			Name:     st.Name,
			Icon:     "mdi:video",
			Platform: PlatformSwitch,
			Kind:     state.KindStreamSwitch,
		}),
		isOn: func(snap *state.Snapshot) (bool, bool) {
			s, ok := lookup(snap)
			return s.Active, ok
		},
		set: func(snap *state.Snapshot, on bool) (action, error) {
			if err := write(snap); err != nil {
				return nil, err
			}
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetStreamSwitch(ctx, id, on)
			}, nil
		},
	}
	sw.present = present

	sensor := &sensorEntity{
		base: newBase(deps, Info{
			ObjectID: "stream_" + key,
			Name:     st.Name + " Status",
			Icon:     "mdi:chart-line",
			Platform: PlatformSensor,
			Kind:     state.KindSensor,
		}),
		unknown: "Unknown",
		value: func(snap *state.Snapshot) (string, bool) {
			s, ok := lookup(snap)
			if !ok {
				return "Unknown", true
			}
			if s.Active {
				return "Active", true
			}
			return "Inactive", true
		},
		attrs: func(snap *state.Snapshot) map[string]any {
			s, _ := lookup(snap)
			resolution := s.Resolution()
			if resolution == "" {
				resolution = "Unknown"
			}
			codec, ok := s.Codec.Selected()
			if !ok {
				codec = "Unknown"
			}
			return map[string]any{
				"stream_id":   key,
				"stream_name": st.Name,
				"resolution":  resolution,
				"codec":       codec,
				"bitrate":     s.Bitrate,
				"framerate":   s.Framerate,
				"url":         s.URL,
			}
		},
	}
	sensor.present = present

	resolution := &selectEntity{
		base: newBase(deps, Info{
			ObjectID: "resolution_" + key,
			Name:     fmt.Sprintf("Stream %d Resolution", id),
			Icon:     "mdi:monitor",
			Platform: PlatformSelect,
			Kind:     state.KindResolutionSelect,
		}),
		current: func(snap *state.Snapshot) (string, bool) {
			s, ok := lookup(snap)
			if !ok || s.Resolution() == "" {
				return "", false
			}
			return s.Resolution(), true
		},
		options: resolutionOptions,
		set: func(snap *state.Snapshot, option string) (action, error) {
			if err := write(snap); err != nil {
				return nil, err
			}
			w, h, err := zowie.ParseResolution(option)
			if err != nil {
				return nil, err
			}
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetStreamResolution(ctx, id, w, h)
			}, nil
		},
	}
	resolution.present = present

	codec := &selectEntity{
		base: newBase(deps, Info{
			ObjectID: "codec_" + key,
			Name:     fmt.Sprintf("Stream %d Codec", id),
			Icon:     "mdi:code-braces",
			Platform: PlatformSelect,
			Kind:     state.KindCodecSelect,
		}),
		current: func(snap *state.Snapshot) (string, bool) {
			s, ok := lookup(snap)
			if !ok {
				return "", false
			}
			return s.Codec.Selected()
		},
		options: func(snap *state.Snapshot) []string {
			s, _ := lookup(snap)
			return append([]string(nil), s.Codec.Options...)
		},
		set: func(snap *state.Snapshot, option string) (action, error) {
			s, ok := lookup(snap)
			if !ok {
				return nil, fmt.Errorf("stream %s: %w", key, ErrNotFound)
			}
			idx := s.Codec.Index(option)
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetStreamCodec(ctx, id, idx)
			}, nil
		},
	}
	codec.present = present

	bitrate := &numberEntity{
		base: newBase(deps, Info{
			ObjectID: "bitrate_" + key,
			Name:     fmt.Sprintf("Stream %d Bitrate", id),
			Icon:     "mdi:speedometer",
			Platform: PlatformNumber,
			Kind:     state.KindBitrateNumber,
			Unit:     "bps",
			Min:      MinBitrate,
			Max:      MaxBitrate,
			Step:     BitrateStep,
		}),
		value: func(snap *state.Snapshot) (float64, bool) {
			s, ok := lookup(snap)
			return float64(s.Bitrate), ok
		},
		set: func(snap *state.Snapshot, value float64) (action, error) {
			if err := write(snap); err != nil {
				return nil, err
			}
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetStreamBitrate(ctx, id, int(value))
			}, nil
		},
	}
	bitrate.present = present

	framerate := &numberEntity{
		base: newBase(deps, Info{
			ObjectID: "framerate_" + key,
			Name:     fmt.Sprintf("Stream %d Framerate", id),
			Icon:     "mdi:filmstrip",
			Platform: PlatformNumber,
			Kind:     state.KindFramerateNumber,
			Unit:     "fps",
			Min:      MinFramerate,
			Max:      MaxFramerate,
			Step:     FramerateStep,
		}),
		value: func(snap *state.Snapshot) (float64, bool) {
			s, ok := lookup(snap)
			return s.Framerate, ok
		},
		set: func(snap *state.Snapshot, value float64) (action, error) {
			if err := write(snap); err != nil {
				return nil, err
			}
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetStreamFramerate(ctx, id, value)
			}, nil
		},
	}
	framerate.present = present

	return []Entity{newCamera(deps, st), sw, sensor, resolution, codec, bitrate, framerate}
}

func resolutionOptions(snap *state.Snapshot) []string {
	out := make([]string, 0, len(snap.Resolutions))
	for _, r := range snap.Resolutions {
		out = append(out, r.String())
	}
	return out
}

// activeStreamOptions lists main streams, then sub streams, then active
// RTSP and SRT outputs.
func activeStreamOptions(snap *state.Snapshot) []string {
	var out []string
	list := snap.StreamList()
	for _, typ := range []state.StreamType{state.StreamMain, state.StreamSub} {
		for _, st := range list {
			if st.Type == typ {
				out = append(out, st.Name)
			}
		}
	}
	for _, p := range snap.RTSP {
		if p.Active {
			out = append(out, p.Name)
		}
	}
	for _, p := range snap.SRT {
		if p.Active {
			out = append(out, p.Name)
		}
	}
	return out
}

// newActiveStreamSelect picks the single active output.
func newActiveStreamSelect(deps *Deps) Entity {
	return &selectEntity{
		base: newBase(deps, Info{
			ObjectID: "active_stream",
			Name:     "Active Stream",
			Icon:     "mdi:video-switch",
			Platform: PlatformSelect,
			Kind:     state.KindStreamSelect,
		}),
		current: func(snap *state.Snapshot) (string, bool) {
			st, ok := snap.ActiveStream()
			return st.Name, ok
		},
		options: activeStreamOptions,
		set: func(snap *state.Snapshot, option string) (action, error) {
			return selectActiveStream(deps, snap, option)
		},
	}
}

// selectActiveStream resolves option to a single write. Choosing an
// internal stream rewrites every encoder switch in one SetEncodingInfo call
// so exactly one stays on; choosing an RTSP or SRT output switches that
// output on.
func selectActiveStream(deps *Deps, snap *state.Snapshot, option string) (action, error) {
	list := snap.StreamList()
	for _, st := range list {
		if st.Name != option {
			continue
		}
		venc := make([]zowie.VencSettings, 0, len(list))
		for _, other := range list {
			on := 0
			if other.ID == st.ID {
				on = 1
			}
			venc = append(venc, zowie.VencSettings{StreamID: other.ID, Switch: zowie.Ptr(on)})
		}
		return func(ctx context.Context) (zowie.Response, error) {
			return deps.API.SetEncodingInfo(ctx, venc)
		}, nil
	}
	for _, group := range [][]state.PublishedStream{snap.RTSP, snap.SRT} {
		for _, p := range group {
			if p.Name != option {
				continue
			}
			protocol, streamID := string(p.Type), p.ID
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetOutputProtocolSwitch(ctx, protocol, streamID, true)
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOption, option)
}

func newModeSensor(deps *Deps) Entity {
	return &sensorEntity{
		base: newBase(deps, Info{
			ObjectID: "device_mode",
			Name:     "Device Mode",
			Icon:     "mdi:swap-horizontal",
			Platform: PlatformSensor,
		}),
		unknown: string(state.ModeUnknown),
		value: func(snap *state.Snapshot) (string, bool) {
			return string(snap.Mode()), true
		},
		attrs: func(snap *state.Snapshot) map[string]any {
			mode := snap.Mode()
			kinds := state.RelevantKinds(mode)
			names := make([]string, 0, len(kinds))
			for _, k := range kinds {
				names = append(names, string(k))
			}
			return map[string]any{
				"relevant_entities": names,
				"streams":           len(snap.Streams),
				"decoders":          len(snap.Decoders),
				"status_ok":         snap.StatusOK,
			}
		},
	}
}
