package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

type fakeViews struct {
	mu   sync.Mutex
	view state.View
}

func (f *fakeViews) Snapshot() state.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *fakeViews) set(snap *state.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = state.View{Data: snap}
}

type controlCall struct {
	deviceID string
	command  string
	value    any
}

type fakeCmd struct {
	mu        sync.Mutex
	actions   []string
	controls  []controlCall
	refreshes int
}

func (f *fakeCmd) Do(ctx context.Context, action string, call func(context.Context) (zowie.Response, error)) (zowie.Response, error) {
	resp, err := call(ctx)
	f.mu.Lock()
	f.actions = append(f.actions, action)
	f.refreshes++
	f.mu.Unlock()
	return resp, err
}

func (f *fakeCmd) Control(_ context.Context, deviceID, command string, value any) (zowie.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controls = append(f.controls, controlCall{deviceID, command, value})
	f.refreshes++
	return zowie.Response{}, nil
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	venc  []zowie.VencSettings
	move  zowie.PTZMove
	tally zowie.TallySettings
}

func (f *fakeAPI) record(format string, args ...any) (zowie.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return zowie.Response{}, nil
}

func (f *fakeAPI) SetEncodingInfo(_ context.Context, venc []zowie.VencSettings) (zowie.Response, error) {
	f.venc = venc
	return f.record("SetEncodingInfo %d", len(venc))
}

func (f *fakeAPI) SetStreamSwitch(_ context.Context, streamID int, on bool) (zowie.Response, error) {
	return f.record("SetStreamSwitch %d %t", streamID, on)
}

func (f *fakeAPI) SetStreamResolution(_ context.Context, streamID, width, height int) (zowie.Response, error) {
	return f.record("SetStreamResolution %d %dx%d", streamID, width, height)
}

func (f *fakeAPI) SetStreamCodec(_ context.Context, streamID, codecID int) (zowie.Response, error) {
	return f.record("SetStreamCodec %d %d", streamID, codecID)
}

func (f *fakeAPI) SetStreamBitrate(_ context.Context, streamID, bitrate int) (zowie.Response, error) {
	return f.record("SetStreamBitrate %d %d", streamID, bitrate)
}

func (f *fakeAPI) SetStreamFramerate(_ context.Context, streamID int, fps float64) (zowie.Response, error) {
	return f.record("SetStreamFramerate %d %v", streamID, fps)
}

func (f *fakeAPI) SetOutputProtocolSwitch(_ context.Context, protocol string, streamID int, on bool) (zowie.Response, error) {
	return f.record("SetOutputProtocolSwitch %s %d %t", protocol, streamID, on)
}

func (f *fakeAPI) SetStreamplaySwitch(_ context.Context, index int, on bool) (zowie.Response, error) {
	return f.record("SetStreamplaySwitch %d %t", index, on)
}

func (f *fakeAPI) PTZControl(_ context.Context, move zowie.PTZMove) (zowie.Response, error) {
	f.move = move
	return f.record("PTZControl")
}

func (f *fakeAPI) FocusControl(_ context.Context, s zowie.FocusSettings) (zowie.Response, error) {
	return f.record("FocusControl focus=%d", zowie.IntOr(numPtr(s.Focus), -1))
}

func (f *fakeAPI) ExposureControl(_ context.Context, s zowie.ExposureSettings) (zowie.Response, error) {
	return f.record("ExposureControl mode=%s", zowie.StringOr(s.Mode, ""))
}

func (f *fakeAPI) WhiteBalanceControl(_ context.Context, _ zowie.WhiteBalanceSettings) (zowie.Response, error) {
	return f.record("WhiteBalanceControl")
}

func (f *fakeAPI) ImageControl(_ context.Context, _ zowie.ImageSettings) (zowie.Response, error) {
	return f.record("ImageControl")
}

func (f *fakeAPI) AudioSwitch(_ context.Context, on bool) (zowie.Response, error) {
	return f.record("AudioSwitch %t", on)
}

func (f *fakeAPI) SetAudioVolume(_ context.Context, volume int) (zowie.Response, error) {
	return f.record("SetAudioVolume %d", volume)
}

func (f *fakeAPI) SetRecordingTask(_ context.Context, index string, enable bool) (zowie.Response, error) {
	return f.record("SetRecordingTask %s %t", index, enable)
}

func (f *fakeAPI) TallyControl(_ context.Context, s zowie.TallySettings) (zowie.Response, error) {
	f.tally = s
	return f.record("TallyControl")
}

func numPtr(p *int) *zowie.Num {
	if p == nil {
		return nil
	}
	n := zowie.Num(*p)
	return &n
}

type harness struct {
	api   *fakeAPI
	cmd   *fakeCmd
	views *fakeViews
	deps  Deps
}

func newHarness(snap *state.Snapshot) *harness {
	h := &harness{api: &fakeAPI{}, cmd: &fakeCmd{}, views: &fakeViews{}}
	if snap != nil {
		h.views.set(snap)
	}
	h.deps = Deps{EntryID: "entry1", API: h.api, Cmd: h.cmd, Views: h.views, Logger: zerolog.Nop()}
	return h
}

func (h *harness) registry() *Registry {
	r := NewRegistry(h.deps)
	r.Sync(h.views.Snapshot())
	return r
}

func encodingSnapshot() *state.Snapshot {
	codec := state.Codec{SelectedID: 0, Options: []string{"H.264", "H.265"}}
	return &state.Snapshot{
		StatusOK: true,
		Streams: map[string]state.Stream{
			"0": {ID: 0, Name: "Stream 0", Type: state.StreamMain, Active: true, Width: 1920, Height: 1080,
				Framerate: 30, Bitrate: 4_000_000, Codec: codec},
			"1": {ID: 1, Name: "Stream 1", Type: state.StreamSub, Width: 1280, Height: 720,
				Framerate: 30, Bitrate: 1_000_000, Codec: codec},
		},
		RTSP:        []state.PublishedStream{{ID: 0, Name: "RTSP Stream", Type: state.StreamRTSP, Active: true}},
		Resolutions: []state.Resolution{{Width: 1920, Height: 1080}, {Width: 1280, Height: 720}},
		Devices: []zowie.Device{{
			ID:           zowie.DefaultDeviceID,
			Name:         zowie.DefaultDeviceName,
			Type:         zowie.DeviceTypeCamera,
			State:        "on",
			Capabilities: append([]string(nil), zowie.DefaultCapabilities...),
		}},
		Audio: state.AudioConfig{Enabled: true, Volume: 40},
	}
}

func decodingSnapshot() *state.Snapshot {
	return &state.Snapshot{
		StatusOK: true,
		Streamplay: []state.StreamplaySource{
			{Index: 0, Name: "Studio Feed", Active: true, URL: "rtmp://studio/live"},
			{Index: 1, Name: "Backup Feed"},
		},
		NDI: []state.NDISource{{Name: "NDI Cam"}},
	}
}
