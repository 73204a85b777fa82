package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = service.ErrInvalidConfig
)

// DefaultConfigID is used when a session is created without a config.
const DefaultConfigID = "scale-blocks"

var log = logrus.WithField("component", "config")

// Manager handles level configuration loading and caching. Files in the
// config directory shadow the built-in levels of the same id.
type Manager struct {
	configDir     string
	defaultID     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	builtins      map[string]*engine.GameConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
		builtins:  engine.BuiltinConfigs(),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// configID strips an optional .json suffix and rejects ids that could
// escape the config directory.
func configID(name string) (string, error) {
	id := strings.TrimSuffix(name, ".json")
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: bad config id %q", ErrInvalidConfig, name)
	}
	return id, nil
}

// LoadConfig loads a configuration by id
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id, err := configID(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(id)
}

func (m *Manager) loadLocked(id string) (*engine.GameConfig, error) {
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	data, err := os.ReadFile(filepath.Join(m.configDir, id+".json"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		builtin, ok := m.builtins[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
		}
		m.configs[id] = builtin
		return builtin, nil
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, id, err)
	}
	if err := engine.ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.configs[id] = &config
	return &config, nil
}

// ListConfigs returns every loadable configuration, files first overriding
// built-ins, sorted by id.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	byID := map[string]*service.ConfigInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		config, err := m.LoadConfig(id)
		if err != nil {
			log.WithFields(logrus.Fields{"file": entry.Name(), "error": err}).Warn("skipping invalid config")
			continue
		}
		byID[id] = configInfo(id, entry.Name(), config, false)
	}

	for id, config := range m.builtins {
		if _, shadowed := byID[id]; !shadowed {
			byID[id] = configInfo(id, "", config, true)
		}
	}

	configs := make([]*service.ConfigInfo, 0, len(byID))
	for _, info := range byID {
		configs = append(configs, info)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

func configInfo(id, filename string, config *engine.GameConfig, builtin bool) *service.ConfigInfo {
	return &service.ConfigInfo{
		Filename:    filename,
		ConfigID:    id,
		Name:        config.Name,
		Description: config.Description,
		Kind:        config.Kind,
		Rows:        config.Rows,
		Cols:        config.Cols,
		Builtin:     builtin,
	}
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// DefaultID returns the id of the default configuration
func (m *Manager) DefaultID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID
}

// SetDefault sets the default configuration by id
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}
	id, _ := configID(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = id
	m.defaultConfig = config
	return nil
}

// RefreshCache drops cached configurations so files are read again.
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configs = make(map[string]*engine.GameConfig)
	id := m.defaultID
	config, err := m.loadLocked(id)
	if err != nil {
		log.WithError(err).WithField("config", id).Warn("default config unusable after refresh")
		return m.loadDefaultConfig()
	}
	m.defaultConfig = config
	return nil
}

// loadDefaultConfig must be called with mu held or before the manager is
// shared.
func (m *Manager) loadDefaultConfig() error {
	m.defaultID = DefaultConfigID
	config, err := m.loadLocked(DefaultConfigID)
	if err != nil {
		log.WithError(err).Warn("default config unusable, falling back to the built-in level")
		m.configs[DefaultConfigID] = m.builtins[DefaultConfigID]
		config = m.builtins[DefaultConfigID]
	}
	m.defaultConfig = config
	return nil
}

// SaveConfig validates a configuration and writes it to disk
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	id, err := configID(name)
	if err != nil {
		return err
	}
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.configDir, id+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()

	log.WithFields(logrus.Fields{"config": id, "kind": config.Kind}).Info("config saved")
	return nil
}
