package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/bookstore/internal/health"
	"github.com/vladislavdragonenkov/bookstore/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/bookstore/internal/metrics"
	"github.com/vladislavdragonenkov/bookstore/internal/service/outbox"
	"github.com/vladislavdragonenkov/bookstore/internal/service/stats"
	"github.com/vladislavdragonenkov/bookstore/internal/service/workflow"
	"github.com/vladislavdragonenkov/bookstore/internal/version"
)

const statsLogInterval = 1 * time.Minute

// Config описывает настройки запуска сервиса.
type Config struct {
	MetricsAddr  string
	PostgresDSN  string
	KafkaBrokers string
}

// DefaultConfig возвращает базовые значения конфигурации.
func DefaultConfig() Config {
	return Config{
		MetricsAddr: ":9090",
	}
}

// ConfigFromEnv читает конфигурацию из переменных окружения,
// начиная с дефолтных значений.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("BOOKSTORE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("BOOKSTORE_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	return cfg
}

// App объединяет собранное ядро заказов и его ops-обвязку.
// Engine и Stats — публичная поверхность для встраивающего кода.
type App struct {
	Engine *workflow.Engine
	Stats  *stats.Aggregator

	cfg      Config
	deps     *Dependencies
	producer *kafka.Producer
	worker   *outbox.Worker
	logger   *log.Entry
}

// New собирает приложение: хранилища, движок заказов, агрегатор
// статистики и (опционально) Kafka producer с outbox worker.
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	orderMetrics := metrics.NewOrderMetrics()

	engine := workflow.NewEngine(
		deps.Orders,
		deps.Catalog,
		deps.Inventory,
		logger.WithField("layer", "workflow"),
		workflow.WithOutbox(deps.Outbox),
		workflow.WithTimeline(deps.Timeline),
		workflow.WithMetrics(orderMetrics),
	)

	app := &App{
		Engine: engine,
		Stats:  stats.NewAggregator(deps.Orders, logger.WithField("layer", "stats")),
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}

	// Kafka producer и outbox worker опциональны: без брокера события
	// копятся в outbox и могут быть опубликованы позже.
	if cfg.KafkaBrokers != "" {
		producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.WithError(err).Warn("kafka producer unavailable, events stay in outbox")
		} else if producer != nil {
			app.producer = producer
			app.worker = outbox.NewWorker(
				deps.Outbox,
				kafka.NewOutboxPublisher(producer),
				outbox.WithLogger(logger.WithField("layer", "outbox-worker")),
				outbox.WithDLQPublisher(kafka.NewDLQPublisher(producer)),
			)
		}
	}

	return app, nil
}

// Run держит сервис до отмены контекста: outbox worker, периодический
// лог сводки по заказам и ops-endpoint с метриками и health-проверками.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if a.worker != nil {
		go a.worker.Run(ctx)
	}
	go a.logStatsPeriodically(ctx)

	healthHandler := healthcheck.NewHandler(version.String())
	if a.deps.Store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			return a.deps.Store.Ping(context.Background())
		}))
	}

	metricsSrv := startMetricsServer(ctx, a.cfg.MetricsAddr, a.logger, healthHandler)

	<-ctx.Done()
	a.logger.Info("получен сигнал остановки, останавливаем сервис")
	shutdownHTTP(metricsSrv, a.logger)

	return ctx.Err()
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	closeKafka(a.producer, a.logger)
	if err := a.deps.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to close storage")
	}
}

// logStatsPeriodically пишет сводку по заказам в лог раз в минуту.
func (a *App) logStatsPeriodically(ctx context.Context) {
	ticker := time.NewTicker(statsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot, err := a.Stats.GetStatistics(domain.TimeWindow{})
			if err != nil {
				a.logger.WithError(err).Warn("failed to collect order statistics")
				continue
			}
			a.logger.WithFields(log.Fields{
				"total":     snapshot.TotalOrders,
				"pending":   snapshot.PendingOrders,
				"confirmed": snapshot.ConfirmedOrders,
				"shipped":   snapshot.ShippedOrders,
				"delivered": snapshot.DeliveredOrders,
				"cancelled": snapshot.CancelledOrders,
				"revenue":   snapshot.TotalRevenue.String(),
			}).Info("order statistics snapshot")
		}
	}
}

// startMetricsServer запускает ops-endpoint: /metrics, /healthz, /livez, /readyz.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
