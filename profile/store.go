package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml"
)

// ErrNotFound is returned when a delete names a profile that is not stored.
var ErrNotFound = errors.New("profile not found")

// Store is the persistence surface consumed by the capture lifecycle and the
// control API.
type Store interface {
	// GetOrCreate loads the device-scope profile, building and persisting a
	// default when none is stored yet.
	GetOrCreate(vendorID, productID uint16, deviceName string) (*Profile, error)
	// Get loads one stored profile; an empty gameID addresses the device
	// default. Missing profiles return ErrNotFound.
	Get(vendorID, productID uint16, gameID string) (*Profile, error)
	// Save validates and persists a profile, scoped by its GameID.
	Save(p *Profile) error
	// Reset discards any stored device-scope profile and persists a fresh
	// default in its place.
	Reset(vendorID, productID uint16) (*Profile, error)
	// Delete removes one stored profile; an empty gameID addresses the device
	// default. Missing profiles return ErrNotFound.
	Delete(vendorID, productID uint16, gameID string) error
	// All lists every stored profile, device defaults before game scopes.
	All() ([]*Profile, error)
}

// FileStore keeps one TOML file per profile under a single directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore opens (and creates if needed) the profile directory.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the directory profiles are stored in.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) fileName(vendorID, productID uint16, gameID string) string {
	base := fmt.Sprintf("%04x-%04x", vendorID, productID)
	if gameID != "" {
		base += "." + sanitizeGameID(gameID)
	}
	return filepath.Join(s.dir, base+".toml")
}

// sanitizeGameID keeps game scopes filesystem-safe.
func sanitizeGameID(gameID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, gameID)
}

func (s *FileStore) load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &p, nil
}

func (s *FileStore) write(path string, p *Profile) error {
	data, err := toml.Marshal(*p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.Key(), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write profile %s: %w", p.Key(), err)
	}
	return nil
}

func (s *FileStore) GetOrCreate(vendorID, productID uint16, deviceName string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.fileName(vendorID, productID, "")
	p, err := s.load(path)
	switch {
	case err == nil:
		return p, nil
	case os.IsNotExist(err):
		p = Default(vendorID, productID, deviceName)
		if err := s.write(path, p); err != nil {
			return nil, err
		}
		s.logger.Info("created default profile", "device", p.Key(), "name", deviceName)
		return p, nil
	default:
		// Corrupt file: run on an in-memory default and leave the file for
		// the user to repair.
		s.logger.Warn("profile unreadable, using defaults", "device", DeviceKey(vendorID, productID), "error", err)
		return Default(vendorID, productID, deviceName), nil
	}
}

func (s *FileStore) Get(vendorID, productID uint16, gameID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(s.fileName(vendorID, productID, gameID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, DeviceKey(vendorID, productID))
		}
		return nil, err
	}
	return p, nil
}

func (s *FileStore) Save(p *Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("profile %s: %w", p.Key(), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.fileName(p.VendorID, p.ProductID, p.GameID), p)
}

func (s *FileStore) Reset(vendorID, productID uint16) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.fileName(vendorID, productID, "")
	var name string
	if old, err := s.load(path); err == nil {
		name = old.DeviceName
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reset profile %s: %w", DeviceKey(vendorID, productID), err)
	}
	p := Default(vendorID, productID, name)
	if err := s.write(path, p); err != nil {
		return nil, err
	}
	s.logger.Info("profile reset to defaults", "device", p.Key())
	return p, nil
}

func (s *FileStore) Delete(vendorID, productID uint16, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.fileName(vendorID, productID, gameID)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, DeviceKey(vendorID, productID))
		}
		return fmt.Errorf("delete profile %s: %w", DeviceKey(vendorID, productID), err)
	}
	return nil
}

func (s *FileStore) All() ([]*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.toml"))
	if err != nil {
		return nil, err
	}
	profiles := make([]*Profile, 0, len(matches))
	for _, path := range matches {
		p, err := s.load(path)
		if err != nil {
			s.logger.Warn("skipping unreadable profile", "file", filepath.Base(path), "error", err)
			continue
		}
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Key() != profiles[j].Key() {
			return profiles[i].Key() < profiles[j].Key()
		}
		return profiles[i].GameID < profiles[j].GameID
	})
	return profiles, nil
}
