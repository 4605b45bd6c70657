package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/internal/file"
)

// DefaultPath is where the configuration lives unless overridden with --config.
const DefaultPath = "~/.config/sdoc/config.json"

var defaultConfig = Config{
	APIHost:        "http://localhost:8000",
	APIPrefix:      "/api/v1",
	RequestTimeout: 60,
	RateLimit:      10,
	TopK:           5,

	Cache: &CacheConfig{
		Enabled: true,
		Path:    "~/.config/sdoc/cache.db",
	},

	Upload: &UploadConfig{
		AllowedExtensions: []string{".txt", ".md", ".json"},
		MaxFileSize:       50 * 1024 * 1024,
	},

	Chat: &ChatConfig{
		HistoryPath: "~/.config/sdoc/chat_history",
		TitleLength: 50,
	},

	Server: &ServerConfig{
		Port: 3030,
	},

	Log: &LogConfig{
		Path:  "/tmp/sdoc-debug.log",
		Level: "info",
	},
}

// Config holds configuration for the sdoc tool.
type Config struct {
	// Scheme and host of the document API, e.g. http://localhost:8000.
	APIHost string `json:"api_host" validate:"required,url"`
	// Prefix of the versioned API routes.
	APIPrefix string `json:"api_prefix"`
	// Optional bearer token.
	APIKey string `json:"api_key,omitempty"`
	// Per-request timeout in seconds.
	RequestTimeout int `json:"request_timeout" validate:"gte=1"`
	// Client-side rate limit in requests per second.
	RateLimit int `json:"rate_limit" validate:"gte=1"`
	// Number of chunks the server retrieves per question.
	TopK int `json:"top_k" validate:"gte=1,lte=20"`

	Cache  *CacheConfig  `json:"cache" validate:"required"`
	Upload *UploadConfig `json:"upload" validate:"required"`
	Chat   *ChatConfig   `json:"chat" validate:"required"`
	Server *ServerConfig `json:"server" validate:"required"`
	Log    *LogConfig    `json:"log" validate:"required"`
}

// CacheConfig holds configuration of the local snapshot cache.
type CacheConfig struct {
	Enabled bool `json:"enabled"`
	// Path of the sqlite database.
	Path string `json:"path" validate:"required_if=Enabled true"`
}

// UploadConfig holds configuration of document uploads.
type UploadConfig struct {
	// Only files with these extensions can be uploaded.
	AllowedExtensions []string `json:"allowed_extensions"`
	// Files larger than this are rejected before upload.
	MaxFileSize int64 `json:"max_file_size" validate:"gte=1"`
}

// ChatConfig holds configuration of the chat panel.
type ChatConfig struct {
	// Where we persist the input history.
	HistoryPath string `json:"history_path"`
	// Conversations are titled with the first TitleLength characters of their first question.
	TitleLength int `json:"title_length" validate:"gte=1"`
}

// ServerConfig holds configuration of `sdoc serve`.
type ServerConfig struct {
	Port int `json:"port" validate:"gte=1,lte=65535"`
}

// LogConfig holds configuration of the debug logger.
type LogConfig struct {
	Path  string `json:"path"`
	Level string `json:"level" validate:"oneof=debug info warn error"`
}

// BaseURL returns the root of the versioned API.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.APIHost, "/") + "/" + strings.Trim(c.APIPrefix, "/")
}

// HealthURL returns the health endpoint, served at the host root outside the API prefix.
func (c *Config) HealthURL() string {
	return strings.TrimRight(c.APIHost, "/") + "/health"
}

// Parse a configuration file.
func Parse(path string) (*Config, error) {
	path, err := file.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	// Start from the defaults so older files pick up new sections.
	config := defaultConfig.clone()
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}

	if err := config.expandPaths(); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return config, nil
}

// Default returns a copy of the default configuration with expanded paths.
func Default() (*Config, error) {
	config := defaultConfig.clone()
	if err := config.expandPaths(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) expandPaths() error {
	for name, p := range map[string]*string{
		"cache path":        &c.Cache.Path,
		"chat history path": &c.Chat.HistoryPath,
		"log path":          &c.Log.Path,
	} {
		expanded, err := file.ExpandPath(*p)
		if err != nil {
			return errors.Wrapf(err, "expanding %s", name)
		}
		*p = expanded
	}
	return nil
}

// clone returns a deep copy of the config.
func (c Config) clone() *Config {
	cache, upload, chat, server, log := *c.Cache, *c.Upload, *c.Chat, *c.Server, *c.Log
	upload.AllowedExtensions = append([]string(nil), c.Upload.AllowedExtensions...)
	c.Cache, c.Upload, c.Chat, c.Server, c.Log = &cache, &upload, &chat, &server, &log
	return &c
}

// save a configuration file.
func (c *Config) save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	err = os.WriteFile(path, bytes, 0644)
	if err != nil {
		return errors.Wrap(err, "writing file")
	}

	return nil
}

// initializeIfNotPresent initializes a config if it does not exist.
func initializeIfNotPresent(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	// Create the directories.
	dir, _ := filepath.Split(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating folders")
	}

	if err := defaultConfig.save(path); err != nil {
		return errors.Wrap(err, "saving default config")
	}
	return nil
}
