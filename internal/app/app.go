// Package app wires configuration, storage, logging and the playtime
// services into a runnable application.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"playtime/internal/config"
	"playtime/internal/database"
	"playtime/internal/playtime"
)

// DatabaseFileName is the on-disk name of the session database.
const DatabaseFileName = "playtime.db"

// App holds the wired-up application: one open store and the services
// built on top of it. Every App instance carries its own operation ID so
// log lines from concurrent invocations can be told apart.
type App struct {
	Config     *config.Config
	Store      *database.Store
	Tracker    *playtime.Tracker
	Statistics *playtime.Statistics
	Games      *playtime.Games

	OperationID string

	logFile *os.File
}

// New builds an App from cfg. operation identifies the invocation (e.g.
// "AddTime") and appears on every log line. For a file-backed database
// that does not exist yet the schema is created; an existing database only
// has its migration status verified, so a newer schema on disk fails fast
// instead of being silently misread.
func New(cfg *config.Config, operation string) (*App, error) {
	opID := uuid.New().String()

	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	logger = logger.With("op", operation)

	store, fresh, err := openStore(cfg)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	if fresh {
		if err := store.MigrateUp(); err != nil {
			store.Close()
			logFile.Close()
			return nil, fmt.Errorf("initializing database schema: %w", err)
		}
	} else {
		if err := store.CheckMigrations(); err != nil {
			store.Close()
			logFile.Close()
			return nil, fmt.Errorf("checking database schema: %w", err)
		}
	}

	svcLogger := &slogAdapter{l: logger}
	clock := &playtime.RealClock{}

	return &App{
		Config:      cfg,
		Store:       store,
		Tracker:     playtime.NewTracker(store, svcLogger, clock),
		Statistics:  playtime.NewStatistics(store, svcLogger),
		Games:       playtime.NewGames(store, svcLogger),
		OperationID: opID,
		logFile:     logFile,
	}, nil
}

// openStore opens the configured database. The second return value reports
// whether the database did not exist before this call.
func openStore(cfg *config.Config) (*database.Store, bool, error) {
	switch cfg.Database.Type {
	case "memory":
		store, err := database.Open(":memory:")
		if err != nil {
			return nil, false, err
		}
		return store, true, nil
	case "sqlite", "":
		dataDir := cfg.Database.DataDir
		if dataDir == "" {
			dataDir = filepath.Join(cfg.BaseDir, "data")
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, false, fmt.Errorf("creating data directory: %w", err)
		}
		path := filepath.Join(dataDir, DatabaseFileName)
		_, statErr := os.Stat(path)
		fresh := os.IsNotExist(statErr)

		store, err := database.Open(path)
		if err != nil {
			return nil, false, err
		}
		return store, fresh, nil
	default:
		return nil, false, fmt.Errorf("unknown database type: %q", cfg.Database.Type)
	}
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var firstErr error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LoadConfig reads the configuration from path, or builds a default
// configuration when no file exists there.
func LoadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.ReadFromFile(path)
	}

	defaults, err := GetDefaults()
	if err != nil {
		return nil, err
	}
	return config.NewConfig(defaults["base_dir"]), nil
}
