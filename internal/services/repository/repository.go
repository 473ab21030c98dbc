package repository

import (
	"context"
	"time"

	"carwash/pkg/config"
	"carwash/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Services"
	TableName      = "services"
)

type ServiceRepository interface {
	Create(ctx context.Context, svc *model.Service) error
	FindByID(ctx context.Context, id string) (*model.Service, error)
	FindByName(ctx context.Context, name string) (*model.Service, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Service, error)
	Count(ctx context.Context) (int64, error)
}

func New(cfg *config.Config) ServiceRepository {
	if cfg.StoreDriver == config.StoreDriverMySQL {
		return NewMySQLServiceRepository(cfg)
	}
	return NewMongoServiceRepository(cfg)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
