package client

import (
	"context"
	"database/sql"
	"time"

	"carwash/pkg/logger"

	_ "github.com/go-sql-driver/mysql"
)

func (c *Client) SetMySQL(log *logger.Logger, dsn string, maxOpenConns int) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal("Failed to open MySQL pool", "error", err)
	}

	// Advisory locks pin one connection each for their lifetime, so keep headroom over the
	// request path.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Failed to ping MySQL", "error", err)
	}

	log.Info("Successfully connected to MySQL")
	c.MySQL = db
}
