package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/office_scheduler/internal/cache"
	"github.com/Freeeeeet/office_scheduler/internal/config"
	"github.com/Freeeeeet/office_scheduler/internal/controller"
	"github.com/Freeeeeet/office_scheduler/internal/controller/rest"
	"github.com/Freeeeeet/office_scheduler/internal/eventbus"
	"github.com/Freeeeeet/office_scheduler/internal/metrics"
	"github.com/Freeeeeet/office_scheduler/internal/notify"
	"github.com/Freeeeeet/office_scheduler/internal/repository"
	"github.com/Freeeeeet/office_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/office_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// eventPublisher издатель событий, которого нужно закрыть при остановке
type eventPublisher interface {
	service.EventPublisher
	Close() error
}

// Container собирает все зависимости приложения
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Хранилище
	DB       *pgxpool.Pool
	Slots    service.SlotStore
	Bookings service.BookingStore

	// Инфраструктура
	RedisClient    *redis.Client
	EventPublisher eventPublisher
	Registry       *prometheus.Registry
	Metrics        *metrics.Metrics
	Notifier       service.Notifier

	// Движок записи
	SlotService    *service.SlotService
	BookingService *service.BookingService
	Reconciler     *service.Reconciler

	// Каналы
	Bot           *bot.Bot
	BotController *controller.BotController
	HTTPServer    *rest.Server
	Scheduler     *Scheduler
}

type containerOptions struct {
	channels bool
}

// ContainerOption настраивает сборку контейнера
type ContainerOption func(*containerOptions)

// WithoutChannels не поднимает Telegram бота и HTTP сервер (для CLI команд)
func WithoutChannels() ContainerOption {
	return func(o *containerOptions) {
		o.channels = false
	}
}

// NewContainer создаёт все зависимости. Недоступные Redis и RabbitMQ в режиме
// разработки заменяются заглушками, в production это ошибка.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...ContainerOption) (*Container, error) {
	o := containerOptions{channels: true}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if err := c.initStores(ctx); err != nil {
		return nil, err
	}

	if err := c.initInfrastructure(ctx); err != nil {
		c.Close()
		return nil, err
	}

	// Бот нужен раньше сервисов: через него уходят уведомления в Telegram
	if o.channels && cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
		c.Bot = b
	}

	c.initNotifier()

	batchPolicy, err := service.ParseBatchPolicy(cfg.SlotBatchPolicy)
	if err != nil {
		c.Close()
		return nil, err
	}

	serviceOpts := []service.Option{
		service.WithStrictTransitions(cfg.StrictTransitions),
		service.WithBatchPolicy(batchPolicy),
		service.WithNotifier(c.Notifier),
		service.WithPublisher(c.EventPublisher),
		service.WithMetrics(c.Metrics),
	}
	if c.RedisClient != nil {
		serviceOpts = append(serviceOpts, service.WithCache(
			cache.NewAvailabilityCache(c.RedisClient, cfg.AvailabilityCacheTTL, logger),
		))
	}

	c.SlotService = service.NewSlotService(c.Slots, c.Bookings, logger, serviceOpts...)
	c.BookingService = service.NewBookingService(c.Slots, c.Bookings, logger, serviceOpts...)
	c.Reconciler = service.NewReconciler(c.Slots, c.Bookings, logger, serviceOpts...)
	c.Scheduler = NewScheduler(c.Reconciler, cfg.ReconcileInterval, logger)

	if o.channels {
		c.HTTPServer = rest.NewServer(c.SlotService, c.BookingService, logger, rest.Config{
			Addr:      cfg.HTTPAddr,
			JWTSecret: []byte(cfg.JWTSecret),
			Metrics:   c.Metrics,
			Gatherer:  c.Registry,
		})

		if c.Bot != nil {
			c.BotController = controller.NewBotController(c.Bot, c.SlotService, c.BookingService, logger)
		}
	}

	return c, nil
}

func (c *Container) initStores(ctx context.Context) error {
	if c.Config.Store == config.StoreMemory {
		c.Logger.Warn("Using in-memory store, data is lost on restart")
		c.Slots = memory.NewSlotStore()
		c.Bookings = memory.NewBookingStore()
		return nil
	}

	pool, err := pgxpool.New(ctx, c.Config.GetDBDSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	c.DB = pool
	c.Slots = repository.NewSlotRepository(pool)
	c.Bookings = repository.NewBookingRepository(pool)
	c.Logger.Info("✅ Connected to database")

	return nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.Config

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.New(c.Registry)

	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			if cfg.IsProduction() {
				return fmt.Errorf("connect to redis: %w", err)
			}
			c.Logger.Warn("Redis not available, availability cache disabled", zap.Error(err))
		} else {
			c.RedisClient = client
			c.Logger.Info("✅ Connected to Redis")
		}
	}

	c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
	if cfg.AMQPURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.AMQPURL, c.Logger)
		if err != nil {
			if cfg.IsProduction() {
				return fmt.Errorf("connect to rabbitmq: %w", err)
			}
			c.Logger.Warn("RabbitMQ not available, using noop publisher", zap.Error(err))
		} else {
			c.EventPublisher = publisher
		}
	}

	return nil
}

// initNotifier маршрутизирует уведомления между WhatsApp и Telegram
func (c *Container) initNotifier() {
	whatsapp := notify.NewWhatsAppNotifier(notify.WhatsAppConfig{
		APIURL:     c.Config.ZAPIURL,
		InstanceID: c.Config.ZAPIInstanceID,
		Token:      c.Config.ZAPIToken,
	}, c.Logger)

	// Router проверяет канал на nil, поэтому типизированный nil сюда передавать нельзя
	var telegram notify.Sender
	if c.Bot != nil {
		telegram = notify.NewTelegramNotifier(c.Bot, c.Logger)
	}

	c.Notifier = notify.NewRouter(whatsapp, telegram, c.Logger)
}

// Migrate применяет миграции, если используется Postgres
func (c *Container) Migrate(ctx context.Context) error {
	if c.DB == nil {
		return nil
	}

	migrator, err := NewMigrator(c.DB, c.Logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}

// Close освобождает все ресурсы
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("Error closing event publisher", zap.Error(err))
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("Error closing Redis connection", zap.Error(err))
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("PostgreSQL connection closed")
	}
}
