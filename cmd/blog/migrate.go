package main

import (
	"github.com/MosinFAM/blog-posts/internal/config"
	"github.com/MosinFAM/blog-posts/internal/db"
	"github.com/MosinFAM/blog-posts/internal/storage"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func migrate() error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Storage.Type != config.StoragePostgres {
		return errors.Errorf("migrations only apply to %q storage, got %q", config.StoragePostgres, cfg.Storage.Type)
	}

	conn, err := db.Connect(cfg.Storage.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := storage.NewPostgresStorage(conn, cfg.Storage.DatabaseURL, log).InitDB(cfg.Storage.MigrationsDir); err != nil {
		return err
	}
	log.Info("migrations applied", zap.String("dir", cfg.Storage.MigrationsDir))
	return nil
}
