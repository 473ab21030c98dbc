package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	bookingserrors "carwash/internal/bookings/errors"
	"carwash/pkg/config"
	mysqltx "carwash/pkg/db/mysql"
	"carwash/pkg/model"

	"github.com/google/uuid"
)

const bookingColumns = `id, customer_id, customer_name, customer_email, customer_phone, service_id,
	location_id, location_address, start_time, duration_minutes, end_time, status, created_at, updated_at`

type mysqlBookingRepository struct {
	cfg *config.Config
	db  *sql.DB
}

func NewMySQLBookingRepository(cfg *config.Config) BookingRepository {
	return &mysqlBookingRepository{cfg: cfg, db: cfg.Client.MySQL}
}

func (r *mysqlBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now

	query := `INSERT INTO ` + BookingsTable + ` (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := mysqltx.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		booking.ID, booking.CustomerID, booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone,
		booking.ServiceID, booking.LocationID, booking.Address, booking.StartTime, booking.DurationMinutes,
		booking.EndTime, booking.Status, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mysqlBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	query := `SELECT ` + bookingColumns + ` FROM ` + BookingsTable + ` WHERE id = ?`
	row := mysqltx.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id)

	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return booking, nil
}

func (r *mysqlBookingRepository) FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	query := `SELECT ` + bookingColumns + ` FROM ` + BookingsTable + `
		WHERE customer_id = ? ORDER BY start_time DESC LIMIT ? OFFSET ?`

	rows, err := mysqltx.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*model.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode bookings: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mysqlBookingRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	var count int64
	query := `SELECT COUNT(*) FROM ` + BookingsTable + ` WHERE customer_id = ?`
	if err := mysqltx.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, customerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mysqlBookingRepository) SetStatus(ctx context.Context, id, status string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	query := `UPDATE ` + BookingsTable + ` SET status = ?, updated_at = ? WHERE id = ?`
	result, err := mysqltx.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, status, time.Now().UTC().Truncate(time.Millisecond), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	// MySQL reports changed rows, so a same-status update would look like a miss; check existence instead.
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		var exists int
		err := mysqltx.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, `SELECT 1 FROM `+BookingsTable+` WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return bookingserrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to update booking status: %w", err)
		}
	}
	return nil
}

func (r *mysqlBookingRepository) TransitionStatus(ctx context.Context, id, from, to string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	exec := mysqltx.ExecutorFrom(ctx, r.db)
	query := `UPDATE ` + BookingsTable + ` SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := exec.ExecContext(ctx, query, to, time.Now().UTC().Truncate(time.Millisecond), id, from)
	if err != nil {
		return fmt.Errorf("failed to transition booking status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to transition booking status: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var current string
	err = exec.QueryRowContext(ctx, `SELECT status FROM `+BookingsTable+` WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return bookingserrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to transition booking status: %w", err)
	}
	// from == to leaves the row unchanged and reports zero affected rows.
	if current == from {
		return nil
	}
	return fmt.Errorf("%w: booking %s is %s, expected %s", bookingserrors.ErrStatusChanged, id, current, from)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var phone sql.NullString
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.CustomerName, &b.CustomerEmail, &phone, &b.ServiceID,
		&b.LocationID, &b.Address, &b.StartTime, &b.DurationMinutes, &b.EndTime, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.CustomerPhone = phone.String
	return &b, nil
}
