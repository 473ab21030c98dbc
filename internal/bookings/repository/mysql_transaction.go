package repository

import (
	"context"

	"carwash/pkg/config"
	mysqltx "carwash/pkg/db/mysql"
)

type mysqlTransactor struct {
	txManager mysqltx.TransactionManager
}

func NewMySQLTransactor(cfg *config.Config) Transactor {
	return &mysqlTransactor{txManager: mysqltx.NewTransactionManager(cfg.Client.MySQL)}
}

func (t *mysqlTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.txManager.ExecuteTransaction(ctx, fn)
}
