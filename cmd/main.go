package main

import (
	"context"
	"os"

	"github.com/ethurin/tracknest/internal/bot"
	"github.com/ethurin/tracknest/internal/repositories"
	"github.com/ethurin/tracknest/internal/services"
	"github.com/ethurin/tracknest/internal/shared"
	"github.com/ethurin/tracknest/internal/store"
	"github.com/ethurin/tracknest/internal/tasks"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	// A corrupt snapshot is the one fatal startup condition: starting with
	// a silently empty directory would hide data loss.
	directory, err := store.Open(config.Storage.SnapshotPath, logger)
	if err != nil {
		logger.Fatalf("failed to open directory: %v", err)
	}

	var spotify services.Service
	if err := config.Credentials.Spotify.Validate(); err != nil {
		logger.Warnf("%v, run setup first", err)
	} else {
		svc, err := services.NewSpotifyService(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		})
		if err != nil {
			logger.Fatalf("failed to initialize Spotify service: %v", err)
		}
		spotify = svc
	}

	var history *repositories.HistoryRepository
	if config.Storage.HistoryPath != "" {
		if db, err := shared.NewDatabase(config.Storage.HistoryPath); err != nil {
			logger.Warnf("forward history unavailable: %v", err)
		} else if repo, err := repositories.NewHistoryRepository(db); err != nil {
			logger.Warnf("forward history unavailable: %v", err)
		} else {
			history = repo
		}
	}

	engine := tasks.NewEngine(tasks.EngineOpts{
		Directory: directory,
		Service:   spotify,
		History:   history,
		Logger:    logger,
	})

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Directory:  directory,
		Engine:     engine,
		Dispatcher: bot.NewDispatcher(engine, logger),
		History:    history,
		Logger:     logger,
	})

	app := runner.app()
	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
