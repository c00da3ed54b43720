package entries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/zowiebox/internal/zowie"
)

type recordingValidator struct {
	calls []string
	err   error
}

func (v *recordingValidator) Validate(_ context.Context, host string, port int) error {
	v.calls = append(v.calls, host+":"+strconv.Itoa(port))
	return v.err
}

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "zowiebox", "entries.toml"))
}

func TestLoadMissingFile(t *testing.T) {
	list, err := newStore(t).Load()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddSavesEntry(t *testing.T) {
	s := newStore(t)
	v := &recordingValidator{}

	entry, err := s.Add(context.Background(), v, " 192.168.1.50 ", 0)
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "192.168.1.50", entry.Host)
	assert.Equal(t, DefaultPort, entry.Port)
	assert.Equal(t, "Zowietek 192.168.1.50", entry.Title)
	assert.Equal(t, []string{"192.168.1.50:80"}, v.calls)

	list, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []Entry{entry}, list)
}

func TestAddRejectsDuplicate(t *testing.T) {
	s := newStore(t)
	v := &recordingValidator{}
	_, err := s.Add(context.Background(), v, "cam.local", 8080)
	require.NoError(t, err)

	_, err = s.Add(context.Background(), v, "CAM.local", 8080)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Len(t, v.calls, 1, "duplicates are rejected before validation")

	_, err = s.Add(context.Background(), v, "cam.local", 8081)
	assert.NoError(t, err)
}

func TestAddRejectsInvalidHost(t *testing.T) {
	s := newStore(t)
	v := &recordingValidator{}

	_, err := s.Add(context.Background(), v, "  ", 80)
	assert.ErrorIs(t, err, ErrInvalidHost)
	_, err = s.Add(context.Background(), v, "cam", 70000)
	assert.ErrorIs(t, err, ErrInvalidHost)
	assert.Empty(t, v.calls)
}

func TestAddValidationFailureSavesNothing(t *testing.T) {
	s := newStore(t)
	v := &recordingValidator{err: &zowie.ConnectError{Message: "login required"}}

	_, err := s.Add(context.Background(), v, "cam", 80)
	require.Error(t, err)
	assert.ErrorIs(t, err, zowie.ErrCannotConnect)

	_, statErr := os.Stat(s.Path())
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	v := &recordingValidator{}
	first, err := s.Add(context.Background(), v, "a", 80)
	require.NoError(t, err)
	second, err := s.Add(context.Background(), v, "b", 80)
	require.NoError(t, err)

	require.NoError(t, s.Remove(first.ID))
	list, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []Entry{second}, list)

	assert.ErrorIs(t, s.Remove(first.ID), ErrNotFound)
}

func TestLoadFillsDefaults(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	data := `
[[entries]]
id = "one"
host = " 10.0.0.5 "

[[entries]]
id = ""
host = "skipped"

[[entries]]
id = "three"
host = "10.0.0.7"
port = 8080
title = "Studio"
`
	require.NoError(t, os.WriteFile(s.Path(), []byte(data), 0o600))

	list, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{ID: "one", Host: "10.0.0.5", Port: 80, Title: "Zowietek 10.0.0.5"},
		{ID: "three", Host: "10.0.0.7", Port: 8080, Title: "Studio"},
	}, list)
}

func TestLoadInvalidTOML(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("[[entries]\n"), 0o600))

	_, err := s.Load()
	assert.ErrorContains(t, err, "parse entries")
}

func TestDeviceValidator(t *testing.T) {
	var status atomic.Value
	status.Store("00000")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": status.Load(), "rsp": "succeed"})
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	v := DeviceValidator()
	require.NoError(t, v.Validate(context.Background(), u.Hostname(), port))

	status.Store("00003")
	err = v.Validate(context.Background(), u.Hostname(), port)
	assert.ErrorIs(t, err, zowie.ErrCannotConnect)
}
