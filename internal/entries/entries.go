package entries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/zowiebox/internal/zowie"
)

// DefaultPort is used when an entry is added without a port.
const DefaultPort = 80

var (
	// ErrDuplicate is returned when host:port is already configured.
	ErrDuplicate = errors.New("device already configured")
	// ErrInvalidHost is returned for an empty host or an out of range port.
	ErrInvalidHost = errors.New("invalid host")
	// ErrNotFound is returned by Remove for an unknown id.
	ErrNotFound = errors.New("entry not found")
)

// Entry is one installed device.
type Entry struct {
	ID    string `toml:"id"`
	Host  string `toml:"host"`
	Port  int    `toml:"port"`
	Title string `toml:"title"`
}

// Address is host:port.
func (e Entry) Address() string { return fmt.Sprintf("%s:%d", e.Host, e.Port) }

type file struct {
	Entries []Entry `toml:"entries"`
}

// Validator checks that a device answers at host:port before it is saved.
type Validator interface {
	Validate(ctx context.Context, host string, port int) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, host string, port int) error

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, host string, port int) error {
	return f(ctx, host, port)
}

// DeviceValidator validates with a throwaway zowie.Client. Failures match
// zowie.ErrCannotConnect.
func DeviceValidator(opts ...zowie.Option) Validator {
	return ValidatorFunc(func(ctx context.Context, host string, port int) error {
		client, err := zowie.NewClient(host, port, opts...)
		if err != nil {
			return fmt.Errorf("%w: %w", zowie.ErrCannotConnect, err)
		}
		defer client.Close()
		_, err = client.Validate(ctx)
		return err
	})
}

// Store persists entries to a TOML file. Methods serialize through a mutex
// so concurrent Add calls cannot both pass the duplicate check.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path is the backing file.
func (s *Store) Path() string { return s.path }

// Load returns the saved entries. A missing file yields none.
func (s *Store) Load() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open entries: %w", err)
	}
	defer f.Close()

	bytes, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	var parsed file
	if err := toml.Unmarshal(bytes, &parsed); err != nil {
		return nil, fmt.Errorf("parse entries: %w", err)
	}
	out := parsed.Entries[:0]
	for _, e := range parsed.Entries {
		e.Host = strings.TrimSpace(e.Host)
		if e.Host == "" || e.ID == "" {
			continue
		}
		if e.Port <= 0 {
			e.Port = DefaultPort
		}
		if e.Title == "" {
			e.Title = DefaultTitle(e.Host)
		}
		out = append(out, e)
	}
	return out, nil
}

// Save replaces the file with list, creating directories as needed.
func (s *Store) Save(list []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(list)
}

func (s *Store) save(list []Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create entries dir: %w", err)
	}
	bytes, err := toml.Marshal(file{Entries: list})
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o600); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace entries: %w", err)
	}
	return nil
}

// Add validates host:port and saves a new entry titled "Zowietek <host>".
// A port of zero means DefaultPort.
func (s *Store) Add(ctx context.Context, v Validator, host string, port int) (Entry, error) {
	host = strings.TrimSpace(host)
	if port == 0 {
		port = DefaultPort
	}
	if host == "" || port < 1 || port > 65535 {
		return Entry{}, fmt.Errorf("%w: %q port %d", ErrInvalidHost, host, port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range list {
		if strings.EqualFold(e.Host, host) && e.Port == port {
			return Entry{}, fmt.Errorf("%w: %s", ErrDuplicate, e.Address())
		}
	}

	if err := v.Validate(ctx, host, port); err != nil {
		return Entry{}, err
	}

	entry := Entry{ID: uuid.NewString(), Host: host, Port: port, Title: DefaultTitle(host)}
	if err := s.save(append(list, entry)); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Remove deletes the entry with id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}
	for i, e := range list {
		if e.ID == id {
			return s.save(append(list[:i], list[i+1:]...))
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// DefaultTitle is the display title of a new entry.
func DefaultTitle(host string) string { return "Zowietek " + host }
