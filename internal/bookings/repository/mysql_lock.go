package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"carwash/internal/allocation"
	"carwash/pkg/config"
)

// MySQL caps user lock names at 64 characters.
const maxLockNameLength = 64

// mysqlLockRepository uses GET_LOCK on a connection pinned for the lifetime of the lock. The
// server drops the lock with the session, so a crashed holder never blocks past its connection.
type mysqlLockRepository struct {
	db          *sql.DB
	waitSeconds int
}

func NewMySQLLockRepository(cfg *config.Config) allocation.Locker {
	return &mysqlLockRepository{
		db:          cfg.Client.MySQL,
		waitSeconds: int(math.Ceil(cfg.AllocationLockWait.Seconds())),
	}
}

func (r *mysqlLockRepository) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	name := lockName(key)

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve connection for lock %s: %w", name, err)
	}

	var acquired sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, name, r.waitSeconds).Scan(&acquired); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !acquired.Valid || acquired.Int64 != 1 {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s", allocation.ErrLockBusy, name)
	}

	return func(ctx context.Context) error {
		defer conn.Close()
		if _, err := conn.ExecContext(ctx, `DO RELEASE_LOCK(?)`, name); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", name, err)
		}
		return nil
	}, nil
}

func lockName(key string) string {
	name := "carwash:" + key
	if len(name) > maxLockNameLength {
		name = name[:maxLockNameLength]
	}
	return name
}
