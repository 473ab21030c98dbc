package client

import (
	"context"
	"database/sql"
	"time"

	"carwash/pkg/logger"

	firebase "firebase.google.com/go/v4"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// Client holds every external connection a process opens. Fields stay nil for backends the
// process does not use.
type Client struct {
	Mongo    *mongo.Client
	MySQL    *sql.DB
	Redis    *redis.Client
	Firebase *firebase.App
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}
	if c.MySQL != nil {
		if err := c.MySQL.Close(); err != nil {
			log.Error("Failed to close MySQL pool", "error", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}
	log.Info("External clients closed")
}
