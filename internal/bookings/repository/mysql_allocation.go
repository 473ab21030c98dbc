package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingserrors "carwash/internal/bookings/errors"
	"carwash/pkg/config"
	mysqltx "carwash/pkg/db/mysql"
	"carwash/pkg/model"

	"github.com/google/uuid"
)

const allocationColumns = `id, booking_id, professional_id, assigned_at, status, updated_at`

type mysqlAllocationRepository struct {
	cfg *config.Config
	db  *sql.DB
}

func NewMySQLAllocationRepository(cfg *config.Config) AllocationRepository {
	return &mysqlAllocationRepository{cfg: cfg, db: cfg.Client.MySQL}
}

// Create relies on the unique key over the generated active_booking_id column.
func (r *mysqlAllocationRepository) Create(ctx context.Context, allocation *model.Allocation) error {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}
	allocation.Active = model.IsBookingOwningAllocation(allocation.Status)

	query := `INSERT INTO ` + AllocationsTable + ` (` + allocationColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := mysqltx.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		allocation.ID, allocation.BookingID, allocation.ProfessionalID,
		allocation.AssignedAt, allocation.Status, allocation.UpdatedAt,
	)
	if err != nil {
		if mysqltx.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrActiveAllocationExists, allocation.BookingID)
		}
		return fmt.Errorf("failed to create allocation: %w", err)
	}
	return nil
}

func (r *mysqlAllocationRepository) FindByID(ctx context.Context, id string) (*model.Allocation, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	query := `SELECT ` + allocationColumns + ` FROM ` + AllocationsTable + ` WHERE id = ?`
	allocation, err := scanAllocation(mysqltx.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookingserrors.ErrAllocationNotFound
		}
		return nil, fmt.Errorf("failed to find allocation: %w", err)
	}
	return allocation, nil
}

func (r *mysqlAllocationRepository) FindByProfessional(ctx context.Context, professionalID string, limit int, offset int64) ([]*model.Assignment, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	query := `SELECT a.id, a.booking_id, a.professional_id, a.assigned_at, a.status, a.updated_at,
		b.id, b.customer_id, b.customer_name, b.customer_email, b.customer_phone, b.service_id,
		b.location_id, b.location_address, b.start_time, b.duration_minutes, b.end_time, b.status, b.created_at, b.updated_at
		FROM ` + AllocationsTable + ` a
		JOIN ` + BookingsTable + ` b ON b.id = a.booking_id
		WHERE a.professional_id = ?
		ORDER BY a.assigned_at DESC LIMIT ? OFFSET ?`

	rows, err := mysqltx.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, professionalID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignments: %w", err)
	}
	defer rows.Close()

	assignments := []*model.Assignment{}
	for rows.Next() {
		var a model.Allocation
		var b model.Booking
		var phone sql.NullString
		err := rows.Scan(
			&a.ID, &a.BookingID, &a.ProfessionalID, &a.AssignedAt, &a.Status, &a.UpdatedAt,
			&b.ID, &b.CustomerID, &b.CustomerName, &b.CustomerEmail, &phone, &b.ServiceID,
			&b.LocationID, &b.Address, &b.StartTime, &b.DurationMinutes, &b.EndTime, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to decode assignments: %w", err)
		}
		a.Active = model.IsBookingOwningAllocation(a.Status)
		b.CustomerPhone = phone.String
		assignments = append(assignments, &model.Assignment{Allocation: &a, Booking: &b})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}
	return assignments, nil
}

func (r *mysqlAllocationRepository) CountByProfessional(ctx context.Context, professionalID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	var count int64
	query := `SELECT COUNT(*) FROM ` + AllocationsTable + ` WHERE professional_id = ?`
	if err := mysqltx.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, professionalID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}

func (r *mysqlAllocationRepository) FindProfessionalsByBooking(ctx context.Context, bookingID string) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	query := `SELECT DISTINCT professional_id FROM ` + AllocationsTable + ` WHERE booking_id = ?`
	rows, err := mysqltx.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking professionals: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to list booking professionals: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *mysqlAllocationRepository) UpdateStatus(ctx context.Context, id, from, to string, at time.Time) error {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	exec := mysqltx.ExecutorFrom(ctx, r.db)
	query := `UPDATE ` + AllocationsTable + ` SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := exec.ExecContext(ctx, query, to, at, id, from)
	if err != nil {
		if mysqltx.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: allocation %s", bookingserrors.ErrActiveAllocationExists, id)
		}
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var current string
	err = exec.QueryRowContext(ctx, `SELECT status FROM `+AllocationsTable+` WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return bookingserrors.ErrAllocationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	return fmt.Errorf("%w: allocation %s is %s, expected %s", bookingserrors.ErrStatusChanged, id, current, from)
}

func (r *mysqlAllocationRepository) CountOpen(ctx context.Context, professionalID string, excludedStatuses []string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	query := `SELECT COUNT(*) FROM ` + AllocationsTable + ` WHERE professional_id = ?`
	args := []any{professionalID}
	if len(excludedStatuses) > 0 {
		query += ` AND status NOT IN (` + placeholders(len(excludedStatuses)) + `)`
		for _, s := range excludedStatuses {
			args = append(args, s)
		}
	}

	var count int64
	if err := mysqltx.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open allocations: %w", err)
	}
	return count, nil
}

func (r *mysqlAllocationRepository) ListActiveIntervals(ctx context.Context, professionalID string) ([]model.ScheduledInterval, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	query := `SELECT b.id, b.start_time, b.duration_minutes
		FROM ` + AllocationsTable + ` a
		JOIN ` + BookingsTable + ` b ON b.id = a.booking_id
		WHERE a.professional_id = ?
		AND a.status IN (` + placeholders(len(model.ActiveAllocationStatuses)) + `)
		AND b.status NOT IN (` + placeholders(len(model.ClosedBookingStatuses)) + `)`

	args := []any{professionalID}
	for _, s := range model.ActiveAllocationStatuses {
		args = append(args, s)
	}
	for _, s := range model.ClosedBookingStatuses {
		args = append(args, s)
	}

	rows, err := mysqltx.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active allocations: %w", err)
	}
	defer rows.Close()

	var intervals []model.ScheduledInterval
	for rows.Next() {
		var interval model.ScheduledInterval
		if err := rows.Scan(&interval.BookingID, &interval.Start, &interval.DurationMinutes); err != nil {
			return nil, fmt.Errorf("failed to decode active allocations: %w", err)
		}
		intervals = append(intervals, interval)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode active allocations: %w", err)
	}
	return intervals, nil
}

func scanAllocation(row rowScanner) (*model.Allocation, error) {
	var a model.Allocation
	if err := row.Scan(&a.ID, &a.BookingID, &a.ProfessionalID, &a.AssignedAt, &a.Status, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Active = model.IsBookingOwningAllocation(a.Status)
	return &a, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
