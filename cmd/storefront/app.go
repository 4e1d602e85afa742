package main

import (
	"context"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/es"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
	"github.com/Skotchmaster/storefront/pkg/storage"
)

type eventBus interface {
	service.Publisher
	Close() error
}

// app holds the connections shared by every command.
type app struct {
	cfg  config.Config
	log  *slog.Logger
	db   *gorm.DB
	repo *repo.GormRepo
	bus  eventBus
	es   *elasticsearch.Client
	disk storage.Disk
}

func boot(ctx context.Context) (*app, error) {
	cfg := config.Load()
	cfg.Validate()

	l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(l)

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: l, db: gdb, repo: repo.New(gdb), bus: mykafka.Nop{}}

	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			a.close()
			return nil, err
		}
		a.bus = prod
	}

	a.es, err = es.NewClient(ctx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword}, l)
	if err != nil {
		a.close()
		return nil, err
	}

	a.disk, err = storage.New(ctx, cfg.Storage)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) media() *service.MediaService {
	return &service.MediaService{Repo: a.repo, Disk: a.disk}
}

func (a *app) search() *service.SearchService {
	return &service.SearchService{ES: a.es, Index: a.cfg.ESIndex, Repo: a.repo}
}

func (a *app) catalog() *service.CatalogService {
	return &service.CatalogService{Repo: a.repo, Media: a.media(), Search: a.search(), Events: a.bus}
}

func (a *app) close() {
	if err := a.bus.Close(); err != nil {
		a.log.Error("kafka_close_error", "error", err)
	}
	if err := db.Close(a.db); err != nil {
		a.log.Error("db_close_error", "error", err)
	}
}
