package entity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

const maxImageBytes = 16 << 20

type cameraEntity struct {
	base
	streamKey string
}

func newCamera(deps *Deps, st state.Stream) *cameraEntity {
	key := st.Key()
	c := &cameraEntity{
		base: newBase(deps, Info{
			ObjectID: "camera_" + key,
			Name:     st.Name,
			Icon:     "mdi:video",
			Platform: PlatformCamera,
			Kind:     state.KindCamera,
		}),
		streamKey: key,
	}
	c.present = streamPresent(key)
	return c
}

func (c *cameraEntity) stream(v state.View) (state.Stream, bool) {
	return v.Data.Stream(c.streamKey)
}

func (c *cameraEntity) IsRecording(v state.View) bool {
	st, ok := c.stream(v)
	return ok && st.Active
}

func (c *cameraEntity) StreamSource(v state.View) string {
	st, ok := c.stream(v)
	if !ok {
		return ""
	}
	return st.URL
}

func (c *cameraEntity) State(v state.View) (string, bool) {
	if _, ok := c.stream(v); !ok {
		return "", false
	}
	if c.IsRecording(v) {
		return "recording", true
	}
	return "idle", true
}

// Image fetches a still from the stream's snapshot URL, falling back to the
// stream URL. Inactive streams and non-HTTP sources yield no image.
func (c *cameraEntity) Image(ctx context.Context) ([]byte, error) {
	view := c.deps.Views.Snapshot()
	if view.Data == nil {
		return nil, ErrNoData
	}
	st, ok := view.Data.Stream(c.streamKey)
	if !ok {
		return nil, fmt.Errorf("stream %s: %w", c.streamKey, ErrNotFound)
	}
	if !st.Active {
		return nil, nil
	}
	src := st.SnapshotURL
	if src == "" {
		src = st.URL
	}
	if !fetchable(src) {
		return nil, nil
	}

	hc := c.deps.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: zowie.DefaultTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("create snapshot request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		c.deps.Logger.Warn().Err(err).Str("url", src).Msg("snapshot fetch failed")
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return nil, &zowie.HTTPError{Endpoint: req.URL.Path, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

func fetchable(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func streamPresent(key string) func(*state.Snapshot) bool {
	return func(snap *state.Snapshot) bool {
		_, ok := snap.Stream(key)
		return ok
	}
}
