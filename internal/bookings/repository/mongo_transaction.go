package repository

import (
	"context"

	"carwash/pkg/config"
	mongotx "carwash/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTransactor struct {
	txManager mongotx.TransactionManager
}

func NewMongoTransactor(cfg *config.Config) Transactor {
	return &mongoTransactor{txManager: mongotx.NewTransactionManager(cfg.Client.Mongo)}
}

func (t *mongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}
