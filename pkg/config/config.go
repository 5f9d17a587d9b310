/*
Package config manages TOML config for the completion engine, its
vocabulary and its hosts.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/cellcomplete/internal/utils"
	"github.com/bastiangx/cellcomplete/pkg/session"
)

// Config holds the entire config structure
type Config struct {
	Completion CompletionConfig `toml:"completion"`
	Keys       KeysConfig       `toml:"keys"`
	Dict       DictConfig       `toml:"dict"`
	History    HistoryConfig    `toml:"history"`
	Server     ServerConfig     `toml:"server"`
}

// CompletionConfig holds session options.
type CompletionConfig struct {
	Eager             bool `toml:"eager"`
	DefaultPageHeight int  `toml:"default_page_height"`
	MaxItems          int  `toml:"max_items"`
	RowHeight         int  `toml:"row_height"`
}

// KeysConfig lists the key names bound to each session command.
type KeysConfig struct {
	Accept   []string `toml:"accept"`
	Dismiss  []string `toml:"dismiss"`
	Next     []string `toml:"next"`
	Prev     []string `toml:"prev"`
	PageNext []string `toml:"page_next"`
	PagePrev []string `toml:"page_prev"`
}

// DictConfig holds vocabulary options.
type DictConfig struct {
	Dir              string `toml:"dir"`
	MaxWords         int    `toml:"max_words"`
	ChunkSize        int    `toml:"chunk_size"`
	MinFreqThreshold int    `toml:"min_frequency_threshold"`
	MaxRetries       int    `toml:"max_retries"`
}

// HistoryConfig holds commit history options.
type HistoryConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxVisible int `toml:"max_visible"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. the platform user config dir
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := utils.ConfigDir(homeDir)
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	// Not conventional, fallback if the primary dir is not writable
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", utils.AppName)
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/cellcomplete/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Completion: CompletionConfig{
			Eager:             false,
			DefaultPageHeight: 8,
			MaxItems:          64,
			RowHeight:         1,
		},
		Keys: KeysConfig{
			Accept:   []string{"enter"},
			Dismiss:  []string{"esc"},
			Next:     []string{"down"},
			Prev:     []string{"up"},
			PageNext: []string{"pgdown"},
			PagePrev: []string{"pgup"},
		},
		Dict: DictConfig{
			Dir:              "data",
			MaxWords:         50000,
			ChunkSize:        10000,
			MinFreqThreshold: 20,
			MaxRetries:       3,
		},
		History: HistoryConfig{
			MaxEntries: 256,
		},
		Server: ServerConfig{
			MaxVisible: 64,
		},
	}
}

// KeyMap converts the configured key names into session bindings. Empty
// lists keep the default binding.
func (k KeysConfig) KeyMap() session.KeyMap {
	km := session.DefaultKeyMap()
	rebind(&km.Accept, k.Accept)
	rebind(&km.Dismiss, k.Dismiss)
	rebind(&km.Next, k.Next)
	rebind(&km.Prev, k.Prev)
	rebind(&km.PageNext, k.PageNext)
	rebind(&km.PagePrev, k.PagePrev)
	return km
}

func rebind(b *key.Binding, keys []string) {
	if len(keys) == 0 {
		return
	}
	help := b.Help()
	*b = key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help.Desc))
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every section that decodes and defaults the rest
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "completion"); ok {
		extractCompletionConfig(section, &config.Completion)
	}
	if section, ok := utils.ExtractSection(tempConfig, "keys"); ok {
		extractKeysConfig(section, &config.Keys)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "history"); ok {
		if val, ok := utils.ExtractInt64(section, "max_entries"); ok {
			config.History.MaxEntries = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		if val, ok := utils.ExtractInt64(section, "max_visible"); ok {
			config.Server.MaxVisible = val
		}
	}
	return config, nil
}

func extractCompletionConfig(data map[string]any, c *CompletionConfig) {
	if val, ok := utils.ExtractBool(data, "eager"); ok {
		c.Eager = val
	}
	if val, ok := utils.ExtractInt64(data, "default_page_height"); ok {
		c.DefaultPageHeight = val
	}
	if val, ok := utils.ExtractInt64(data, "max_items"); ok {
		c.MaxItems = val
	}
	if val, ok := utils.ExtractInt64(data, "row_height"); ok {
		c.RowHeight = val
	}
}

func extractKeysConfig(data map[string]any, k *KeysConfig) {
	fields := map[string]*[]string{
		"accept":    &k.Accept,
		"dismiss":   &k.Dismiss,
		"next":      &k.Next,
		"prev":      &k.Prev,
		"page_next": &k.PageNext,
		"page_prev": &k.PagePrev,
	}
	for name, dst := range fields {
		if val, ok := utils.ExtractStringSlice(data, name); ok {
			*dst = val
		}
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "dir"); ok {
		dict.Dir = val
	}
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		dict.MaxWords = val
	}
	if val, ok := utils.ExtractInt64(data, "chunk_size"); ok {
		dict.ChunkSize = val
	}
	if val, ok := utils.ExtractInt64(data, "min_frequency_threshold"); ok {
		dict.MinFreqThreshold = val
	}
	if val, ok := utils.ExtractInt64(data, "max_retries"); ok {
		dict.MaxRetries = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// SetEager changes the eager policy and saves to file
func (c *Config) SetEager(configPath string, eager bool) error {
	c.Completion.Eager = eager
	return SaveConfig(c, configPath)
}
