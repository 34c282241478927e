package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/storage/memory"
	"github.com/vladislavdragonenkov/bookstore/internal/storage/postgres"
)

// Dependencies содержит хранилища, на которых работает ядро заказов.
type Dependencies struct {
	Orders    domain.OrderRepository
	Catalog   domain.CatalogStore
	Inventory domain.InventoryLedger
	Outbox    domain.OutboxRepository
	Timeline  domain.TimelineRepository

	// Store заполняется только при работе поверх PostgreSQL.
	Store  *postgres.Store
	Logger *log.Entry
}

// NewDependencies выбирает storage backend: PostgreSQL при заданном DSN,
// иначе — in-memory хранилища для локальной разработки.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	if cfg.PostgresDSN == "" {
		logger.Info("postgres dsn is empty, using in-memory storage")
		catalog := memory.NewCatalogRepository()
		return &Dependencies{
			Orders:    memory.NewOrderRepository(),
			Catalog:   catalog,
			Inventory: catalog,
			Outbox:    memory.NewOutboxRepository(),
			Timeline:  memory.NewTimelineRepository(),
			Logger:    logger,
		}, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("postgres storage initialized")

	catalog := postgres.NewCatalogRepository(store)
	return &Dependencies{
		Orders:    postgres.NewOrderRepository(store),
		Catalog:   catalog,
		Inventory: catalog,
		Outbox:    postgres.NewOutboxRepository(store),
		Timeline:  postgres.NewTimelineRepository(store),
		Store:     store,
		Logger:    logger,
	}, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
