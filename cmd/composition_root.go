package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"shipping/api"
	httpin "shipping/internal/adapters/in/http"
	"shipping/internal/adapters/out/postgres"
	"shipping/internal/adapters/out/providers"
	"shipping/internal/adapters/out/redislock"
	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/application/usecases/queries"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/services"
	"shipping/internal/jobs"
	"shipping/internal/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const lockPrefix = "shipping:"

type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	gateway    *providers.Registry
	selector   services.ProviderSelector
	estimator  services.DeliveryEstimator
	policy     services.TransitionPolicy
	metrics    *metrics.Metrics
	redis      *redis.Client
	logger     *slog.Logger
	clock      kernel.Clock
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	gateway, err := providers.NewRegistry(
		providers.NewNRW(providerOptions(config, config.NRWFailureRate)...),
		providers.NewTLS(providerOptions(config, config.TLSFailureRate)...),
	)
	if err != nil {
		return nil, err
	}

	estimator, err := services.NewDeliveryEstimator(services.DefaultDeliveryWindows(), nil)
	if err != nil {
		return nil, err
	}

	var selector services.ProviderSelector = services.NewHashProviderSelector()
	if config.ProviderSelection == SelectionRandom {
		selector = services.NewRandomProviderSelector(nil)
	}

	root := &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		gateway:    gateway,
		selector:   selector,
		estimator:  estimator,
		policy:     services.NewTransitionPolicy(),
		metrics:    metrics.New(),
		logger:     logger,
		clock:      kernel.SystemClock,
	}

	if config.RedisAddr != "" {
		root.redis = redis.NewClient(&redis.Options{Addr: config.RedisAddr})
	}

	return root, nil
}

func providerOptions(config Config, failureRate float64) []providers.Option {
	opts := []providers.Option{providers.WithFailureRate(failureRate)}
	if !config.ProviderLatency {
		opts = append(opts, providers.WithoutLatency())
	}
	return opts
}

func (c *CompositionRoot) Gateway() *providers.Registry {
	return c.gateway
}

func (c *CompositionRoot) Metrics() *metrics.Metrics {
	return c.metrics
}

func (c *CompositionRoot) CreateCreateDeliveryCommandHandler() commands.CreateDeliveryCommandHandler {
	return commands.NewCreateDeliveryCommandHandler(c.deliveryUoWFactory(), c.gateway, c.selector, c.estimator, c.clock)
}

func (c *CompositionRoot) CreateUpdateDeliveryStatusCommandHandler() commands.UpdateDeliveryStatusCommandHandler {
	return commands.NewUpdateDeliveryStatusCommandHandler(c.deliveryUoWFactory(), c.policy, c.clock)
}

func (c *CompositionRoot) CreateApplyTrackingUpdateCommandHandler() commands.ApplyTrackingUpdateCommandHandler {
	return commands.NewApplyTrackingUpdateCommandHandler(c.deliveryUoWFactory(), c.policy, c.clock)
}

func (c *CompositionRoot) CreateReconcileProviderCommandHandler() commands.ReconcileProviderCommandHandler {
	return commands.NewReconcileProviderCommandHandler(c.deliveryUoWFactory(), c.gateway, c.policy, c.clock)
}

func (c *CompositionRoot) CreateGetDeliveryStatusQueryHandler() queries.GetDeliveryStatusQueryHandler {
	return queries.NewGetDeliveryStatusQueryHandler(c.gormDB)
}

// CreateJobManager wires one reconciliation job per polling carrier. With
// REDIS_ADDR set, passes are serialized across replicas.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	var opts []jobs.JobOption
	if c.redis != nil {
		opts = append(opts, jobs.WithLocker(redislock.NewLocker(c.redis, lockPrefix), 0))
	}
	return jobs.NewJobManager(
		c.gateway,
		c.CreateReconcileProviderCommandHandler(),
		c.config.ReconcileSchedule,
		c.metrics,
		c.logger,
		opts...,
	)
}

func (c *CompositionRoot) CreateHTTPServer(ctx context.Context) (*echo.Echo, error) {
	doc, err := api.JSON(ctx)
	if err != nil {
		return nil, fmt.Errorf("load OpenAPI document: %w", err)
	}

	server := httpin.NewServer(
		c.CreateCreateDeliveryCommandHandler(),
		c.CreateGetDeliveryStatusQueryHandler(),
		c.CreateApplyTrackingUpdateCommandHandler(),
		c.gateway,
		c.metrics,
		c.logger,
	)
	return httpin.NewRouter(server, c.metrics, c.logger, doc), nil
}

// Ping checks the optional redis connection.
func (c *CompositionRoot) Ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return redislock.NewLocker(c.redis, lockPrefix).Ping(ctx)
}

func (c *CompositionRoot) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

func (c *CompositionRoot) deliveryUoWFactory() commands.DeliveryUoWFactory {
	return FuncDeliveryUoWFactory(func() commands.DeliveryUoW {
		return c.uowFactory.Create()
	})
}

type FuncDeliveryUoWFactory func() commands.DeliveryUoW

func (f FuncDeliveryUoWFactory) Create() commands.DeliveryUoW {
	return f()
}
