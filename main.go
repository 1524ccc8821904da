package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ceremonify/config"
	"ceremonify/cron"
	"ceremonify/database"
	availabilityRepo "ceremonify/database/repository/availability"
	bookingRepo "ceremonify/database/repository/booking"
	channelRepo "ceremonify/database/repository/channel"
	memoryRepo "ceremonify/database/repository/memory"
	paymentRepo "ceremonify/database/repository/payment"
	providerRepo "ceremonify/database/repository/provider"
	"ceremonify/handlers"
	"ceremonify/metrics"
	"ceremonify/middleware"
	"ceremonify/routes"
	"ceremonify/services/availability"
	"ceremonify/services/booking"
	"ceremonify/services/gateway"
	"ceremonify/services/payment"
	"ceremonify/services/tasks"
	"ceremonify/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type repositories struct {
	availability availabilityRepo.AvailabilityRepository
	bookings     bookingRepo.BookingRepository
	providers    providerRepo.ProviderRepository
	channels     channelRepo.ChannelRepository
	payments     paymentRepo.PaymentRepository
}

func openMongo(ctx context.Context, cfg config.Config, logger *zap.Logger) (*mongo.Client, repositories) {
	client, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	db := client.Database(cfg.DatabaseName)

	for name, ensure := range map[string]func(context.Context, *mongo.Database) error{
		"availability": availabilityRepo.EnsureIndexes,
		"bookings":     bookingRepo.EnsureIndexes,
		"providers":    providerRepo.EnsureIndexes,
		"channels":     channelRepo.EnsureIndexes,
		"payments":     paymentRepo.EnsureIndexes,
	} {
		if err := ensure(ctx, db); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}

	return client, repositories{
		availability: availabilityRepo.NewMongoAvailabilityRepo(db),
		bookings:     bookingRepo.NewMongoBookingRepo(db),
		providers:    providerRepo.NewMongoProviderRepo(db),
		channels:     channelRepo.NewMongoChannelRepo(db),
		payments:     paymentRepo.NewMongoPaymentRepo(db),
	}
}

func openMemory() repositories {
	store := memoryRepo.NewStore()
	return repositories{
		availability: store.Availability(),
		bookings:     store.Bookings(),
		providers:    store.Providers(),
		channels:     store.Channels(),
		payments:     store.Payments(),
	}
}

func newGateway(cfg config.Config, logger *zap.Logger) gateway.Gateway {
	if cfg.PaymentGateway == "stripe" {
		stripe.Key = cfg.StripeKey
		return gateway.NewStripeGateway(cfg.StripeWebhookSecret, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL, logger)
	}
	logger.Warn("Using sandbox payment gateway")
	return gateway.NewSandboxGateway(cfg.SandboxSecret, cfg.CheckoutSuccessURL, logger)
}

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync() //nolint:errcheck

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	health := &utils.HealthMonitor{}
	var (
		repos   repositories
		retries tasks.Scheduler = tasks.NoopScheduler{}
		queue   *asynq.Client
		worker  *asynq.Server
	)

	switch cfg.StorageDriver {
	case "memory":
		logger.Warn("Using in-memory storage; data is lost on restart and retries run only from the sweeper")
		repos = openMemory()
	default:
		client, r := openMongo(ctx, cfg, logger)
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error("main: failed to disconnect MongoDB", zap.Error(err))
			}
		}()
		repos = r
		health.Mongo = client

		cache, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisCacheDB)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		defer cache.Close()
		health.Redis = cache
		repos.availability = availability.NewCachedStore(repos.availability, cache, cfg.AvailabilityCacheTTL, logger)

		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
		queue = asynq.NewClient(redisOpt)
		defer queue.Close()
		retries = tasks.NewAsynqScheduler(queue)
		worker = cron.NewServer(redisOpt, cfg.WorkerConcurrency, logger)
	}
	health.Start(ctx, time.Minute)

	gw := newGateway(cfg, logger)

	tracker := &payment.DefaultTracker{
		Payments:        repos.payments,
		Bookings:        repos.bookings,
		Providers:       repos.providers,
		Gateway:         gw,
		Retries:         retries,
		Logger:          logger,
		DefaultCurrency: cfg.DefaultCurrency,
	}
	bookingService := &booking.DefaultBookingService{
		Bookings:        repos.bookings,
		Providers:       repos.providers,
		Channels:        repos.channels,
		Availability:    repos.availability,
		Checker:         availability.NewChecker(repos.availability, repos.bookings),
		Tracker:         tracker,
		Retries:         retries,
		Logger:          logger,
		DefaultCurrency: cfg.DefaultCurrency,
	}

	if worker != nil {
		w := &cron.Worker{Bookings: bookingService, Tracker: tracker, Logger: logger}
		if err := worker.Start(w.Mux()); err != nil {
			logger.Sugar().Fatalf("main: task worker failed to start: %v", err)
		}
		defer worker.Shutdown()
	}

	sweeper := cron.NewSweeper(bookingService, tracker, repos.payments, logger)
	if err := sweeper.Start(cfg.SweepSchedule); err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	metrics.Register()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	routes.RegisterRoutes(router, handlers.NewHandlerBundle(bookingService, tracker, gw, health))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	<-sweeper.Stop().Done()
	stop()

	logger.Sugar().Info("main: server stopped gracefully")
}
