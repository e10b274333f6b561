package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ashwch/strinput/internal/appdirs"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Store is where settings are persisted between dispatches.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileStore keeps settings in a single file whose extension picks the
// format: .json (comments allowed), .toml, .yaml or .yml.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// DefaultFileStore uses the per-user settings file.
func DefaultFileStore() (*FileStore, error) {
	path, err := appdirs.SettingsFilePath()
	if err != nil {
		return nil, err
	}
	return NewFileStore(path), nil
}

func (f *FileStore) Load() (Settings, error) { return Load(f.Path) }

func (f *FileStore) Save(s Settings) error { return Save(f.Path, s) }

// Load reads the settings file at path, creating it with defaults when it
// does not exist yet.
func Load(path string) (Settings, error) {
	if _, err := formatFor(path); err != nil {
		return Settings{}, err
	}

	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return Settings{}, err
		}
		return cfg, nil
	} else if err != nil {
		return Settings{}, fmt.Errorf("could not stat settings path: %w", err)
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("could not read settings file: %w", err)
	}
	if err := decode(path, bytes, &cfg); err != nil {
		return Settings{}, fmt.Errorf("could not parse settings file: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func Save(path string, cfg Settings) error {
	cfg.normalize()
	payload, err := encode(path, cfg)
	if err != nil {
		return fmt.Errorf("could not serialize settings: %w", err)
	}

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := appdirs.EnsureDir(dir); err != nil {
			return err
		}
	}
	tempFile, err := os.CreateTemp(dir, ".strinput-settings-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("could not create temp settings file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = os.Remove(tempPath)
	}

	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not write temp settings file: %w", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not secure temp settings file permissions: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return fmt.Errorf("could not close temp settings file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		cleanup()
		return fmt.Errorf("could not atomically replace settings file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("could not secure settings file permissions: %w", err)
	}
	return nil
}

type format int

const (
	formatJSON format = iota
	formatTOML
	formatYAML
)

func formatFor(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return formatJSON, nil
	case ".toml":
		return formatTOML, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("unsupported settings file format: %q", filepath.Ext(path))
	}
}

func decode(path string, data []byte, cfg *Settings) error {
	f, err := formatFor(path)
	if err != nil {
		return err
	}
	switch f {
	case formatTOML:
		return toml.Unmarshal(data, cfg)
	case formatYAML:
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(jsonc.ToJSON(data), cfg)
	}
}

func encode(path string, cfg Settings) ([]byte, error) {
	f, err := formatFor(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case formatTOML:
		return toml.Marshal(cfg)
	case formatYAML:
		return yaml.Marshal(cfg)
	default:
		payload, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(payload, '\n'), nil
	}
}

// MemoryStore keeps settings in memory. Useful for tests and for
// front-ends that persist settings elsewhere.
type MemoryStore struct {
	mu       sync.Mutex
	settings Settings
	loads    int
}

func NewMemoryStore(s Settings) *MemoryStore {
	s.normalize()
	return &MemoryStore{settings: s}
}

func (m *MemoryStore) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.settings, nil
}

func (m *MemoryStore) Save(s Settings) error {
	s.normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}

// Loads reports how many times Load was called.
func (m *MemoryStore) Loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}
