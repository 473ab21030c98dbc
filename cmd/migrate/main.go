package main

import (
	"context"
	"time"

	mongoMigration "carwash/internal/migrations/mongo"
	mysqlMigration "carwash/internal/migrations/mysql"
	"carwash/pkg/config"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(config.JobMigrate)
	cfg.SetStore()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting migration job", "store", cfg.StoreDriver)

	var err error
	switch cfg.StoreDriver {
	case config.StoreDriverMySQL:
		err = mysqlMigration.RunMigration(ctx, cfg.Client.MySQL, cfg.Log)
	default:
		err = mongoMigration.RunMigration(ctx, cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.Log)
	}
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	cfg.Log.Info("Migration completed successfully")
}
