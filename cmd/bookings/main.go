package main

import (
	"context"

	"carwash/internal/allocation"
	"carwash/internal/bookings/handler"
	"carwash/internal/bookings/repository"
	"carwash/internal/bookings/service"
	"carwash/internal/bookings/validator"
	"carwash/internal/directory"
	"carwash/internal/notifications"
	servicehandler "carwash/internal/services/handler"
	servicerepository "carwash/internal/services/repository"
	serviceservice "carwash/internal/services/service"
	servicevalidator "carwash/internal/services/validator"
	"carwash/pkg/app"
	"carwash/pkg/config"
	"carwash/pkg/contracts"
	"carwash/pkg/kafka"
	kafka_config "carwash/pkg/kafka/config"
	kafkamiddleware "carwash/pkg/kafka/middleware"
)

func main() {
	cfg := config.Load(config.ServiceBookings)

	cfg.SetStore()
	cfg.SetRedis()
	cfg.SetFirebase()

	cfg.Log.Info("Starting Bookings service", "store", cfg.StoreDriver)
	serverApp := app.NewApplication(cfg)

	producer := initProducer(cfg)
	metrics := kafkamiddleware.NewMetrics()
	producer.Use(metrics.ProducerMiddleware())
	catalog := initCatalog(cfg)
	publisher := notifications.NewPublisher(producer, catalog, cfg.NotifyTimeout, cfg.Log.WithComponent("notifications"))

	repos := repository.New(cfg)
	allocator := allocation.NewAllocator(
		initDirectory(cfg),
		repos.AllocationStore(),
		repos.Locks,
		publisher,
		allocation.Options{
			CountCancelledAsOpen: cfg.CountCancelledAsOpen,
			StoreCallTimeout:     cfg.StoreCallTimeout,
		},
		cfg.Log.WithComponent("allocator"),
	)

	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingService := service.NewBookingService(repos.Bookings, catalog, allocator, bookingValidator, cfg)
	allocationService := service.NewAllocationService(repos, allocator, publisher, bookingValidator, cfg)

	serverApp.OnShutdown("notifications", func(ctx context.Context) error {
		publisher.Close()
		metrics.Log(cfg.Log)
		return producer.Close()
	})
	serverApp.SetApp(
		handler.NewHealthHandler(pingers(cfg), cfg.Log),
		handler.NewBookingHandler(bookingService, cfg.Log),
		handler.NewAllocationHandler(allocationService, cfg.Log),
		servicehandler.NewServiceHandler(catalog, cfg.Log),
	)
	serverApp.Run()
}

func initCatalog(cfg *config.Config) serviceservice.CatalogService {
	return serviceservice.NewCatalogService(
		servicerepository.New(cfg),
		servicevalidator.NewServiceValidator(),
		cfg,
	)
}

func initDirectory(cfg *config.Config) allocation.Directory {
	reader, err := directory.NewRTDBReader(context.Background(), cfg.Client.Firebase)
	if err != nil {
		cfg.Log.Fatal("Failed to open professional directory", "error", err)
	}

	var dir allocation.Directory = directory.NewFirebaseDirectory(reader, cfg.FirebaseProfessionalsPath, cfg.Log.WithComponent("directory"))
	if cfg.Client.Redis != nil {
		dir = directory.NewCachedDirectory(dir, cfg.Client.Redis, cfg.DirectoryCacheTTL, cfg.Log.WithComponent("directory-cache"))
		cfg.Log.Info("Directory cache enabled", "ttl", cfg.DirectoryCacheTTL)
	}
	return dir
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationsTopic, cfg.NotificationsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	}
	return producer
}

func pingers(cfg *config.Config) map[string]contracts.Pinger {
	p := map[string]contracts.Pinger{}
	if cfg.Client.Mongo != nil {
		p["mongo"] = func(ctx context.Context) error { return cfg.Client.Mongo.Ping(ctx, nil) }
	}
	if cfg.Client.MySQL != nil {
		p["mysql"] = cfg.Client.MySQL.PingContext
	}
	if cfg.Client.Redis != nil {
		p["redis"] = func(ctx context.Context) error { return cfg.Client.Redis.Ping(ctx).Err() }
	}
	return p
}
