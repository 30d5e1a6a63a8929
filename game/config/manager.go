package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = service.ErrInvalidConfig
)

// levelExtensions are tried in order when a name has no extension.
var levelExtensions = []string{".json", ".yaml", ".yml"}

// DefaultConfigName is loaded as the default level when present.
const DefaultConfigName = "classic"

// Manager handles level configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.LevelConfig
	configs       map[string]*engine.LevelConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.LevelConfig),
	}

	m.mu.Lock()
	m.loadDefaultConfig()
	m.mu.Unlock()

	return m, nil
}

// Dir returns the directory the manager reads from.
func (m *Manager) Dir() string {
	return m.configDir
}

// configID strips a level extension from name.
func configID(name string) string {
	if engine.IsLevelFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// LoadConfig loads a configuration by name, with or without its extension
func (m *Manager) LoadConfig(name string) (*engine.LevelConfig, error) {
	id := configID(name)

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(name)
}

// load reads name from disk into the cache. Callers hold the write lock.
func (m *Manager) load(name string) (*engine.LevelConfig, error) {
	id := configID(name)
	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}
	if strings.ContainsAny(id, `/\`) || id == ".." || id == "" {
		return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
	}

	candidates := []string{name}
	if !engine.IsLevelFile(name) {
		candidates = candidates[:0]
		for _, ext := range levelExtensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, filename := range candidates {
		configPath := filepath.Join(m.configDir, filename)
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		config, err := engine.DecodeLevelConfig(data, filepath.Ext(filename))
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}

		if err := engine.ValidateLevelConfig(config); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}

		m.configs[id] = config
		return config, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
}

// ListConfigs returns information about all valid configurations, sorted by id
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !engine.IsLevelFile(entry.Name()) {
			continue
		}

		id := configID(entry.Name())
		if seen[id] {
			continue
		}

		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			// Skip invalid configs
			continue
		}
		seen[id] = true

		configs = append(configs, Describe(entry.Name(), id, config))
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].ConfigID < configs[j].ConfigID
	})
	return configs, nil
}

// Describe summarizes a level for listings.
func Describe(filename, id string, config *engine.LevelConfig) *service.ConfigInfo {
	info := &service.ConfigInfo{
		Filename:    filename,
		ConfigID:    id,
		Name:        config.Name,
		Description: config.Description,
		WinPolicy:   string(config.WinPolicy),
	}
	if info.WinPolicy == "" {
		info.WinPolicy = string(engine.WinCoverage)
	}
	if level, err := engine.ParseLevel(config.Text()); err == nil {
		info.Width = level.Bounds.Width()
		info.Height = level.Bounds.Height()
		info.Boxes = level.Count(engine.TokenBox)
		info.Spots = level.Count(engine.TokenSpot)
	}
	return info
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.LevelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops every cached configuration and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configs = make(map[string]*engine.LevelConfig)
	m.loadDefaultConfig()
	return nil
}

// loadDefaultConfig picks classic, then the first valid level in the
// directory, then the built-in level. Callers hold the write lock.
func (m *Manager) loadDefaultConfig() {
	if config, err := m.load(DefaultConfigName); err == nil {
		m.defaultConfig = config
		return
	}

	entries, err := os.ReadDir(m.configDir)
	if err == nil {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, entry := range entries {
			if entry.IsDir() || !engine.IsLevelFile(entry.Name()) {
				continue
			}
			if config, err := m.load(entry.Name()); err == nil {
				m.defaultConfig = config
				return
			}
		}
	}

	m.defaultConfig = engine.DefaultLevelConfig()
}

// SaveConfig validates a configuration and writes it as JSON
func (m *Manager) SaveConfig(name string, config *engine.LevelConfig) error {
	// Validate config before saving
	if err := engine.ValidateLevelConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	id := configID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || id == ".." {
		return fmt.Errorf("%w: invalid config name %q", ErrInvalidConfig, name)
	}

	configPath := filepath.Join(m.configDir, id+".json")

	// Marshal config to JSON with indentation
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()

	return nil
}
