package main

import (
	"database/sql"
	"fmt"

	"traffic_supervisor/internal/config"
	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/repository"
	"traffic_supervisor/internal/repository/db"
	"traffic_supervisor/internal/service"

	"github.com/jonboulle/clockwork"
)

// app holds what every subcommand needs: config, logger, DB and services.
type app struct {
	cfg      config.Config
	log      *logger.Logger
	db       *sql.DB
	services *service.Service
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	log := logger.Get(cfg.LogLevel)

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}

	repos := repository.NewRepository(conn)
	services := service.NewService(repos, serviceConfig(cfg), clockwork.NewRealClock(), log)

	return &app{cfg: cfg, log: log, db: conn, services: services}, nil
}

func serviceConfig(cfg config.Config) service.Config {
	return service.Config{
		DefaultBase:     cfg.Device.DefaultBase,
		Origin:          cfg.Server.Origin,
		ProxyURL:        cfg.ProxyURL(),
		RequestTimeout:  cfg.Device.RequestTimeout,
		StatusInterval:  cfg.Polling.StatusInterval,
		SensorsInterval: cfg.Polling.SensorsInterval,
		JWTSecret:       cfg.Auth.JWTSecret,
	}
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Errorw("failed to close sqlite", "err", err)
	}
}
