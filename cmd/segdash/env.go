package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zulandar/segdash/internal/api"
	"github.com/zulandar/segdash/internal/config"
	"github.com/zulandar/segdash/internal/db"
	"github.com/zulandar/segdash/internal/logger"
	"github.com/zulandar/segdash/internal/session"
)

// env is what most commands need: config, logger, the persisted session
// and an API client bound to it.
type env struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	store  *session.Store
	client *api.Client
}

// openEnv loads the config named by --config and connects everything.
// Callers must Close the result.
func openEnv(cmd *cobra.Command) (*env, error) {
	path := configPath(cmd)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	gormDB, err := db.Connect(cfg.Session.DBPath)
	if err != nil {
		return nil, err
	}
	store, err := session.Open(session.NewGormBackend(gormDB), log)
	if err != nil {
		db.Close(gormDB)
		return nil, fmt.Errorf("open session: %w", err)
	}
	client, err := api.New(api.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		RetryMax: cfg.API.Retries(),
		Store:    store,
		Logger:   log,
	})
	if err != nil {
		db.Close(gormDB)
		return nil, err
	}
	log.Debug("environment ready",
		zap.String("config", path),
		zap.String("api", client.BaseURL()),
		zap.String("db", cfg.Session.DBPath),
	)
	return &env{cfg: cfg, log: log, db: gormDB, store: store, client: client}, nil
}

// Close flushes the logger and releases the database.
func (e *env) Close() error {
	e.log.Sync()
	return db.Close(e.db)
}

// requireSession fails early with a hint when nobody is signed in.
func (e *env) requireSession() error {
	if !e.store.IsAuthenticated() {
		return fmt.Errorf("not signed in: run 'segdash login' first")
	}
	return nil
}

// withEnv adapts a run function that needs an env into a cobra RunE.
func withEnv(run func(cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		return run(cmd, e, args)
	}
}

// withSession is withEnv for commands that need a signed-in user.
func withSession(run func(cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		if err := e.requireSession(); err != nil {
			return err
		}
		return run(cmd, e, args)
	})
}
