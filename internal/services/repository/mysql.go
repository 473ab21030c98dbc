package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	serviceserrors "carwash/internal/services/errors"
	"carwash/pkg/config"
	"carwash/pkg/model"

	"github.com/google/uuid"
)

const serviceColumns = `id, service_name, description, service_type, base_price, duration_minutes, created_at`

type mysqlServiceRepository struct {
	cfg *config.Config
	db  *sql.DB
}

func NewMySQLServiceRepository(cfg *config.Config) ServiceRepository {
	return &mysqlServiceRepository{cfg: cfg, db: cfg.Client.MySQL}
}

func (r *mysqlServiceRepository) Create(ctx context.Context, svc *model.Service) error {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	svc.ID = uuid.NewString()
	svc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	query := `INSERT INTO ` + TableName + ` (` + serviceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		svc.ID, svc.Name, svc.Description, svc.Type, svc.BasePrice, svc.DurationMinutes, svc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *mysqlServiceRepository) FindByID(ctx context.Context, id string) (*model.Service, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	return r.findOne(ctx, `SELECT `+serviceColumns+` FROM `+TableName+` WHERE id = ?`, id)
}

func (r *mysqlServiceRepository) FindByName(ctx context.Context, name string) (*model.Service, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	return r.findOne(ctx, `SELECT `+serviceColumns+` FROM `+TableName+` WHERE service_name = ?`, name)
}

func (r *mysqlServiceRepository) findOne(ctx context.Context, query string, arg any) (*model.Service, error) {
	svc, err := scanService(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, serviceserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find service: %w", err)
	}
	return svc, nil
}

func (r *mysqlServiceRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Service, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	query := `SELECT ` + serviceColumns + ` FROM ` + TableName + ` ORDER BY service_name LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find services: %w", err)
	}
	defer rows.Close()

	services := []*model.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode services: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}
	return services, nil
}

func (r *mysqlServiceRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+TableName).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count services: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (*model.Service, error) {
	var svc model.Service
	var description sql.NullString
	err := row.Scan(&svc.ID, &svc.Name, &description, &svc.Type, &svc.BasePrice, &svc.DurationMinutes, &svc.CreatedAt)
	if err != nil {
		return nil, err
	}
	svc.Description = description.String
	return &svc, nil
}
