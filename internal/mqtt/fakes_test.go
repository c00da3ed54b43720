package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/zowiebox/internal/entity"
	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

type published struct {
	topic    string
	payload  string
	retained bool
}

type fakeBroker struct {
	mu        sync.Mutex
	published []published
	handlers  map[string]MessageHandler
	failOn    string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]MessageHandler)}
}

func (f *fakeBroker) Publish(topic string, payload []byte, _ byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && topic == f.failOn {
		return ErrNotConnected
	}
	f.published = append(f.published, published{topic: topic, payload: string(payload), retained: retained})
	return nil
}

func (f *fakeBroker) Subscribe(topic string, _ byte, handler MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeBroker) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	return nil
}

func (f *fakeBroker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

// last returns the most recent payload published on topic.
func (f *fakeBroker) last(topic string) (published, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.published) - 1; i >= 0; i-- {
		if f.published[i].topic == topic {
			return f.published[i], true
		}
	}
	return published{}, false
}

func (f *fakeBroker) subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[topic]
	return ok
}

type fakeViews struct {
	mu   sync.Mutex
	view state.View
}

func (f *fakeViews) Snapshot() state.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *fakeViews) set(v state.View) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = v
}

type fakeCmd struct {
	mu       sync.Mutex
	controls []string
}

func (f *fakeCmd) Do(ctx context.Context, _ string, call func(context.Context) (zowie.Response, error)) (zowie.Response, error) {
	return call(ctx)
}

func (f *fakeCmd) Control(_ context.Context, deviceID, command string, value any) (zowie.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controls = append(f.controls, fmt.Sprintf("%s %s %v", deviceID, command, value))
	return zowie.Response{}, nil
}

// fakeAPI implements the setters the bridge tests reach. Any other call
// panics through the nil embedded interface.
type fakeAPI struct {
	entity.DeviceAPI

	mu    sync.Mutex
	calls []string
}

func (f *fakeAPI) record(format string, args ...any) (zowie.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return zowie.Response{}, nil
}

func (f *fakeAPI) SetStreamSwitch(_ context.Context, streamID int, on bool) (zowie.Response, error) {
	return f.record("SetStreamSwitch %d %t", streamID, on)
}

func (f *fakeAPI) SetStreamBitrate(_ context.Context, streamID, bitrate int) (zowie.Response, error) {
	return f.record("SetStreamBitrate %d %d", streamID, bitrate)
}

func (f *fakeAPI) SetEncodingInfo(_ context.Context, venc []zowie.VencSettings) (zowie.Response, error) {
	return f.record("SetEncodingInfo %d", len(venc))
}

func (f *fakeAPI) SetStreamplaySwitch(_ context.Context, index int, on bool) (zowie.Response, error) {
	return f.record("SetStreamplaySwitch %d %t", index, on)
}

func (f *fakeAPI) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type testEnv struct {
	broker   *fakeBroker
	views    *fakeViews
	api      *fakeAPI
	cmd      *fakeCmd
	registry *entity.Registry
	bridge   *Bridge
}

func newTestEnv(snap *state.Snapshot) *testEnv {
	env := &testEnv{
		broker: newFakeBroker(),
		views:  &fakeViews{},
		api:    &fakeAPI{},
		cmd:    &fakeCmd{},
	}
	env.views.set(state.View{Data: snap})
	env.registry = entity.NewRegistry(entity.Deps{
		EntryID: "entry1",
		API:     env.api,
		Cmd:     env.cmd,
		Views:   env.views,
		Logger:  zerolog.Nop(),
	})
	env.bridge = NewBridge(env.broker, env.registry, env.views, BridgeOptions{
		Node:               "node1",
		Title:              "Zowietek 10.0.0.5",
		Topics:             testTopics(),
		BridgeAvailability: "zowiebox/zowiebox/availability",
		QoS:                1,
		Logger:             zerolog.Nop(),
	})
	return env
}

func streamSnapshot() *state.Snapshot {
	codec := state.Codec{SelectedID: 0, Options: []string{"H.264", "H.265"}}
	return &state.Snapshot{
		StatusOK: true,
		Streams: map[string]state.Stream{
			"0": {ID: 0, Name: "Stream 0", Type: state.StreamMain, Active: true, Width: 1920, Height: 1080,
				Framerate: 30, Bitrate: 4_000_000, Codec: codec},
			"1": {ID: 1, Name: "Stream 1", Type: state.StreamSub, Width: 1280, Height: 720,
				Framerate: 30, Bitrate: 1_000_000, Codec: codec},
		},
		Resolutions: []state.Resolution{{Width: 1920, Height: 1080}, {Width: 1280, Height: 720}},
	}
}
