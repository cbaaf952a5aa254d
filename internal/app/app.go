package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bunchhieng/sticky/internal/collection"
	"github.com/bunchhieng/sticky/internal/config"
	"github.com/bunchhieng/sticky/internal/logger"
	"github.com/bunchhieng/sticky/internal/model"
	"github.com/bunchhieng/sticky/internal/opener"
	"github.com/bunchhieng/sticky/internal/storage"
)

// App bundles the long-lived dependencies built from a Config.
type App struct {
	Config  *config.Config
	Log     logger.Logger
	Store   storage.Store
	Opener  *opener.Registry
	Manager *collection.Manager
}

// NewStorage creates a storage instance, using the default database path when dbPath is empty.
func NewStorage(dbPath string) (storage.Store, error) {
	if dbPath == "" {
		cfg, err := config.Default()
		if err != nil {
			return nil, err
		}
		dbPath = cfg.DBPath
	}
	return storage.NewSQLiteStorage(dbPath)
}

// New wires logger, storage, opener and manager from cfg.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.LogLevel, cfg.PrettyLog, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	s, err := NewStorage(cfg.DBPath)
	if err != nil {
		log.Error("initialize storage", logger.String("db_path", cfg.DBPath), logger.Error(err))
		_ = log.Sync()
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	return Wire(cfg, log, s), nil
}

// Wire assembles an App around an existing logger and store.
func Wire(cfg *config.Config, log logger.Logger, s storage.Store) *App {
	reg := opener.NewRegistry(cfg.Schemes...)
	return &App{
		Config:  cfg,
		Log:     log,
		Store:   s,
		Opener:  reg,
		Manager: collection.New(s, reg, log),
	}
}

// SelectCategory loads the named category into the manager.
// An empty name selects no category. Unknown names fail with model.ErrNotFound.
func (a *App) SelectCategory(ctx context.Context, name string) error {
	if name == "" {
		return a.Manager.SelectCategory(ctx, nil)
	}
	c, err := a.Store.CategoryByName(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("category %q: %w", name, err)
		}
		return err
	}
	return a.Manager.SelectCategory(ctx, c)
}

// Close flushes the logger and closes the store.
func (a *App) Close() error {
	_ = a.Log.Sync()
	return a.Store.Close()
}
