package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"carwash/internal/notifications"
	"carwash/pkg/config"
	"carwash/pkg/kafka"
	kafka_config "carwash/pkg/kafka/config"
	kafkamiddleware "carwash/pkg/kafka/middleware"
)

func main() {
	cfg := config.Load(config.ServiceNotifier)
	defer cfg.GracefulShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	templates, err := notifications.NewTemplates()
	if err != nil {
		cfg.Log.Fatal("Failed to parse email templates", "error", err)
	}

	email := notifications.NewBrevoSender(
		cfg.BrevoBaseURL,
		cfg.BrevoAPIKey,
		notifications.Recipient{Email: cfg.SenderEmail, Name: cfg.SenderName},
		cfg.NotifyTimeout,
	)
	dispatcher := notifications.NewDispatcher(email, initPush(ctx, cfg), templates, cfg.DisplayTimezone, cfg.Log.WithComponent("dispatcher"))

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.NotificationsTopic, cfg.NotificationsGroupID, cfg.NotificationsDLQTopic, dispatcher.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafkamiddleware.NewMetrics()
	consumer.Use(metrics.ConsumerMiddleware())
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Starting notifier", "topic", cfg.NotificationsTopic, "group_id", cfg.NotificationsGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	metrics.Log(cfg.Log)
	cfg.Log.Info("Notifier stopped")
}

// initPush returns nil when Firebase is not configured; emails still go out.
func initPush(ctx context.Context, cfg *config.Config) notifications.PushSender {
	if cfg.FirebaseCredentialsFile == "" && cfg.FirebaseDatabaseURL == "" {
		cfg.Log.Info("Firebase not configured, push notifications disabled")
		return nil
	}

	cfg.SetFirebase()
	push, err := notifications.NewFCMSender(ctx, cfg.Client.Firebase)
	if err != nil {
		cfg.Log.Warn("Push notifications disabled", "error", err)
		return nil
	}
	return push
}
