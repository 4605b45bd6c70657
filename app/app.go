package app

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/internal/cli"
	"github.com/malonaz/sdoc/internal/configuration"
	"github.com/malonaz/sdoc/internal/debug"
	"github.com/malonaz/sdoc/state"
	"github.com/malonaz/sdoc/store"
)

const replHistoryFileName = "repl_history"

// App holds the dependencies shared by the commands.
// The root command loads it before any subcommand runs.
type App struct {
	Config *configuration.Config
	Client *client.Client
	// Cache is nil when the local cache is disabled.
	Cache *store.Store
	State *state.Store
}

// Load parses the configuration at configPath and wires the dependencies.
func (a *App) Load(configPath string) error {
	config, err := configuration.Parse(configPath)
	if err != nil {
		return errors.Wrap(err, "parsing configuration")
	}
	return a.Wire(config)
}

// Wire builds the API client, the cache and the state store from config.
func (a *App) Wire(config *configuration.Config) error {
	debug.Configure(config.Log.Path, config.Log.Level)
	logger := debug.GetLogger()

	if config.Chat.HistoryPath != "" {
		cli.SetHistoryFile(filepath.Join(filepath.Dir(config.Chat.HistoryPath), replHistoryFileName))
	}

	a.Config = config
	a.Client = client.New(
		config.BaseURL(),
		client.WithTimeout(time.Duration(config.RequestTimeout)*time.Second),
		client.WithRateLimit(config.RateLimit),
		client.WithAPIKey(config.APIKey),
		client.WithHealthURL(config.HealthURL()),
		client.WithLogger(logger),
	)

	opts := []state.Option{
		state.WithLogger(logger),
		state.WithTopK(config.TopK),
		state.WithTitleLength(config.Chat.TitleLength),
		state.WithUploadLimits(config.Upload.AllowedExtensions, config.Upload.MaxFileSize),
	}
	if config.Cache.Enabled {
		cache, err := store.New(config.Cache.Path)
		if err != nil {
			return errors.Wrap(err, "opening cache")
		}
		a.Cache = cache
		opts = append(opts, state.WithCache(cache))
	}
	a.State = state.New(a.Client, opts...)

	if a.Cache != nil {
		// The cache is best effort: a stale or broken one never blocks a command.
		if err := a.State.Hydrate(); err != nil {
			logger.Warn("hydrating state from cache", "error", err)
		}
	}
	return nil
}

// Close releases the cache.
func (a *App) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}
