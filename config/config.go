package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Endpoint          string `json:"endpoint"`
	StorageKey        string `json:"storage_key,omitempty"`
	MaxConversations  int    `json:"max_conversations,omitempty"`
	HistoryBackend    string `json:"history_backend,omitempty"`
	Theme             string `json:"theme,omitempty"`
	AskAILabel        string `json:"ask_ai_label,omitempty"`
	TelemetryEndpoint string `json:"telemetry_endpoint,omitempty"`
}

// Manager handles configuration persistence
type Manager struct {
	configPath string
	config     *Config
}

// NewManager creates a config manager backed by
// ~/.cmdpal/config.json, creating the directory when missing.
func NewManager() (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".cmdpal")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return NewManagerAt(filepath.Join(configDir, "config.json"))
}

// NewManagerAt creates a config manager reading the given file
func NewManagerAt(configPath string) (*Manager, error) {
	m := &Manager{
		configPath: configPath,
		config:     &Config{},
	}

	if err := m.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return m, nil
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, m.config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	return *m.config
}

// GetEndpoint returns the chat endpoint, "" when chat is not configured
func (m *Manager) GetEndpoint() string {
	return m.config.Endpoint
}

// GetHistoryBackend returns the history backend name, defaulting to file
func (m *Manager) GetHistoryBackend() string {
	if m.config.HistoryBackend == "" {
		return "file"
	}
	return m.config.HistoryBackend
}

// GetTheme returns the theme name, defaulting to dark
func (m *Manager) GetTheme() string {
	if m.config.Theme == "" {
		return "dark"
	}
	return m.config.Theme
}

// SetEndpoint updates the chat endpoint and persists
func (m *Manager) SetEndpoint(endpoint string) error {
	m.config.Endpoint = endpoint
	return m.Save()
}

// Set replaces the configuration and persists
func (m *Manager) Set(cfg Config) error {
	*m.config = cfg
	return m.Save()
}
