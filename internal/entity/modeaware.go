package entity

import (
	"context"
	"fmt"

	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

// Fixed choices offered by mode-aware selects while decoding. The device
// follows the incoming signal, so these are informational.
var (
	DecodingResolutions = []string{"Auto", "1920x1080", "1280x720", "640x360"}
	DecodingCodecs      = []string{"Auto", "H.264", "H.265", "MJPEG"}
)

const decodingAuto = "Auto"

// modeAwareEntities builds the entities whose meaning follows the device
// mode. In encoding mode they act on the active internal stream.
func modeAwareEntities(deps *Deps) []Entity {
	return []Entity{
		newModeAwareStream(deps),
		newModeAwareResolution(deps),
		newModeAwareCodec(deps),
		newModeAwareBitrate(deps),
		newModeAwareFramerate(deps),
		newModeAwareSwitch(deps),
	}
}

func modeAwareInfo(objectID, name, icon string, platform Platform, enc, dec state.Kind) Info {
	return Info{
		ObjectID:     objectID,
		Name:         name,
		Icon:         icon,
		Platform:     platform,
		Kind:         enc,
		DecodingKind: dec,
		ModeAware:    true,
	}
}

// activeStream resolves the stream a mode-aware write targets.
func activeStream(snap *state.Snapshot) (state.Stream, error) {
	switch snap.Mode() {
	case state.ModeEncoding:
		st, ok := snap.ActiveStream()
		if !ok {
			return state.Stream{}, fmt.Errorf("active stream: %w", ErrNotFound)
		}
		return st, nil
	case state.ModeDecoding:
		return state.Stream{}, fmt.Errorf("decoding: %w", ErrUnsupported)
	default:
		return state.Stream{}, ErrUnsupported
	}
}

func newModeAwareStream(deps *Deps) Entity {
	return &selectEntity{
		base: newBase(deps, modeAwareInfo("mode_aware_stream", "Stream", "mdi:video-switch",
			PlatformSelect, state.KindStreamSelect, state.KindInputSelect)),
		current: func(snap *state.Snapshot) (string, bool) {
			switch snap.Mode() {
			case state.ModeEncoding:
				st, ok := snap.ActiveStream()
				return st.Name, ok
			case state.ModeDecoding:
				if src, ok := snap.ActiveStreamplay(); ok {
					return src.Name, true
				}
				for _, src := range snap.NDI {
					if src.Active {
						return src.Name, true
					}
				}
			}
			return "", false
		},
		options: func(snap *state.Snapshot) []string {
			switch snap.Mode() {
			case state.ModeEncoding:
				return activeStreamOptions(snap)
			case state.ModeDecoding:
				var out []string
				for _, src := range snap.Streamplay {
					out = append(out, src.Name)
				}
				for _, src := range snap.NDI {
					out = append(out, src.Name)
				}
				return out
			}
			return nil
		},
		set: func(snap *state.Snapshot, option string) (action, error) {
			switch snap.Mode() {
			case state.ModeEncoding:
				return selectActiveStream(deps, snap, option)
			case state.ModeDecoding:
				for _, src := range snap.Streamplay {
					if src.Name == option {
						index := src.Index
						return func(ctx context.Context) (zowie.Response, error) {
							return deps.API.SetStreamplaySwitch(ctx, index, true)
						}, nil
					}
				}
				// NDI sources are listed but switched on the device itself.
				return nil, fmt.Errorf("ndi source %q: %w", option, ErrUnsupported)
			}
			return nil, ErrUnsupported
		},
	}
}

func newModeAwareResolution(deps *Deps) Entity {
	return &selectEntity{
		base: newBase(deps, modeAwareInfo("mode_aware_resolution", "Resolution", "mdi:monitor",
			PlatformSelect, state.KindResolutionSelect, state.KindInputResolution)),
		current: func(snap *state.Snapshot) (string, bool) {
			switch snap.Mode() {
			case state.ModeEncoding:
				st, ok := snap.ActiveStream()
				if !ok || st.Resolution() == "" {
					return "", false
				}
				return st.Resolution(), true
			case state.ModeDecoding:
				return decodingAuto, true
			}
			return "", false
		},
		options: func(snap *state.Snapshot) []string {
			if snap.Mode() == state.ModeDecoding {
				return append([]string(nil), DecodingResolutions...)
			}
			return resolutionOptions(snap)
		},
		set: func(snap *state.Snapshot, option string) (action, error) {
			st, err := activeStream(snap)
			if err != nil {
				return nil, err
			}
			w, h, err := zowie.ParseResolution(option)
			if err != nil {
				return nil, err
			}
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetStreamResolution(ctx, st.ID, w, h)
			}, nil
		},
	}
}

func newModeAwareCodec(deps *Deps) Entity {
	return &selectEntity{
		base: newBase(deps, modeAwareInfo("mode_aware_codec", "Codec", "mdi:code-braces",
			PlatformSelect, state.KindCodecSelect, state.KindInputCodec)),
		current: func(snap *state.Snapshot) (string, bool) {
			switch snap.Mode() {
			case state.ModeEncoding:
				st, ok := snap.ActiveStream()
				if !ok {
					return "", false
				}
				return st.Codec.Selected()
			case state.ModeDecoding:
				return decodingAuto, true
			}
			return "", false
		},
		options: func(snap *state.Snapshot) []string {
			switch snap.Mode() {
			case state.ModeEncoding:
				st, _ := snap.ActiveStream()
				return append([]string(nil), st.Codec.Options...)
			case state.ModeDecoding:
				return append([]string(nil), DecodingCodecs...)
			}
			return nil
		},
		set: func(snap *state.Snapshot, option string) (action, error) {
			st, err := activeStream(snap)
			if err != nil {
				return nil, err
			}
			idx := st.Codec.Index(option)
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetStreamCodec(ctx, st.ID, idx)
			}, nil
		},
	}
}

func newModeAwareBitrate(deps *Deps) Entity {
	info := modeAwareInfo("mode_aware_bitrate", "Bitrate", "mdi:speedometer",
		PlatformNumber, state.KindBitrateNumber, state.KindInputBitrate)
	info.Unit, info.Min, info.Max, info.Step = "bps", MinBitrate, MaxBitrate, BitrateStep
	return &numberEntity{
		base: newBase(deps, info),
		value: func(snap *state.Snapshot) (float64, bool) {
			switch snap.Mode() {
			case state.ModeEncoding:
				st, ok := snap.ActiveStream()
				return float64(st.Bitrate), ok
			case state.ModeDecoding:
				return 0, true
			}
			return 0, false
		},
		set: func(snap *state.Snapshot, value float64) (action, error) {
			st, err := activeStream(snap)
			if err != nil {
				return nil, err
			}
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetStreamBitrate(ctx, st.ID, int(value))
			}, nil
		},
	}
}

func newModeAwareFramerate(deps *Deps) Entity {
	info := modeAwareInfo("mode_aware_framerate", "Framerate", "mdi:filmstrip",
		PlatformNumber, state.KindFramerateNumber, state.KindInputFramerate)
	info.Unit, info.Min, info.Max, info.Step = "fps", MinFramerate, MaxFramerate, FramerateStep
	return &numberEntity{
		base: newBase(deps, info),
		value: func(snap *state.Snapshot) (float64, bool) {
			switch snap.Mode() {
			case state.ModeEncoding:
				st, ok := snap.ActiveStream()
				return st.Framerate, ok
			case state.ModeDecoding:
				return 0, true
			}
			return 0, false
		},
		set: func(snap *state.Snapshot, value float64) (action, error) {
			st, err := activeStream(snap)
			if err != nil {
				return nil, err
			}
			return func(ctx context.Context) (zowie.Response, error) {
				return deps.API.SetStreamFramerate(ctx, st.ID, value)
			}, nil
		},
	}
}

// newModeAwareSwitch toggles the output stream while encoding and the
// streamplay input while decoding. Turning on targets the lowest stream or
// the first source when nothing is active.
func newModeAwareSwitch(deps *Deps) Entity {
	return &switchEntity{
		base: newBase(deps, modeAwareInfo("mode_aware_switch", "Stream Output", "mdi:video",
			PlatformSwitch, state.KindStreamSwitch, state.KindInputSwitch)),
		isOn: func(snap *state.Snapshot) (bool, bool) {
			switch snap.Mode() {
			case state.ModeEncoding:
				_, ok := snap.ActiveStream()
				return ok, true
			case state.ModeDecoding:
				_, ok := snap.ActiveStreamplay()
				return ok, true
			}
			return false, false
		},
		set: func(snap *state.Snapshot, on bool) (action, error) {
			switch snap.Mode() {
			case state.ModeEncoding:
				st, ok := snap.ActiveStream()
				if !ok {
					list := snap.StreamList()
					if len(list) == 0 {
						return nil, fmt.Errorf("stream: %w", ErrNotFound)
					}
					st = list[0]
				}
				return func(ctx context.Context) (zowie.Response, error) {
					return deps.API.SetStreamSwitch(ctx, st.ID, on)
				}, nil
			case state.ModeDecoding:
				src, ok := snap.ActiveStreamplay()
				if !ok {
					if len(snap.Streamplay) == 0 {
						return nil, fmt.Errorf("streamplay source: %w", ErrNotFound)
					}
					src = snap.Streamplay[0]
				}
				return func(ctx context.Context) (zowie.Response, error) {
					return deps.API.SetStreamplaySwitch(ctx, src.Index, on)
				}, nil
			}
			return nil, ErrUnsupported
		},
	}
}
