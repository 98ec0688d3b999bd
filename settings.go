package drivershim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Settings is the flat section/key float store the distortion model is
// read from. A missing key reads as zero, indistinguishable from an
// explicit zero.
type Settings interface {
	GetFloat(section, key string) float64
}

// WritableSettings extends Settings with in-place updates, used by the
// tuning bridge.
type WritableSettings interface {
	Settings
	SetFloat(section, key string, value float64)
}

// MapSettings is an in-memory WritableSettings.
type MapSettings struct {
	mu       sync.RWMutex
	sections map[string]map[string]float64
}

func NewMapSettings() *MapSettings {
	return &MapSettings{sections: make(map[string]map[string]float64)}
}

func (m *MapSettings) GetFloat(section, key string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sections[section][key]
}

func (m *MapSettings) SetFloat(section, key string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.sections[section]
	if !ok {
		values = make(map[string]float64)
		m.sections[section] = values
	}
	values[key] = value
}

// SetSection replaces a whole section.
func (m *MapSettings) SetSection(section string, values map[string]float64) {
	copied := make(map[string]float64, len(values))
	for k, v := range values {
		copied[k] = v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections[section] = copied
}

// FileSettings loads a flat section/key float store from a TOML, YAML or
// JSON file, chosen by extension. Reload re-reads the backing file; the
// store is safe for concurrent readers.
type FileSettings struct {
	path string

	mu       sync.RWMutex
	sections map[string]map[string]float64
}

// LoadSettingsFile opens and parses the settings file at path.
func LoadSettingsFile(path string) (*FileSettings, error) {
	fs := &FileSettings{path: path}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (f *FileSettings) Path() string { return f.path }

// Reload re-reads the backing file, replacing the whole store on
// success and leaving it untouched on failure.
func (f *FileSettings) Reload() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	doc := make(map[string]map[string]any)
	switch ext := strings.ToLower(filepath.Ext(f.path)); ext {
	case ".toml":
		err = toml.Unmarshal(raw, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &doc)
	case ".json":
		err = json.Unmarshal(raw, &doc)
	default:
		return fmt.Errorf("settings file %s: unsupported format %q", f.path, ext)
	}
	if err != nil {
		return fmt.Errorf("parsing settings %s: %w", f.path, err)
	}

	sections := make(map[string]map[string]float64, len(doc))
	for section, values := range doc {
		converted := make(map[string]float64, len(values))
		for key, value := range values {
			if v, ok := coerceFloat(value); ok {
				converted[key] = v
			}
		}
		sections[section] = converted
	}

	f.mu.Lock()
	f.sections = sections
	f.mu.Unlock()
	return nil
}

func (f *FileSettings) GetFloat(section, key string) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sections[section][key]
}

// coerceFloat accepts the numeric shapes the three codecs produce.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
