package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"carwash/pkg/logger"
)

type Statement struct {
	Name string
	SQL  string
}

// Statements are idempotent and run in order; services and bookings precede the allocation
// ledger that references them.
var Statements = []Statement{
	{
		Name: "services",
		SQL: `CREATE TABLE IF NOT EXISTS services (
	id               VARCHAR(64)    NOT NULL,
	service_name     VARCHAR(100)   NOT NULL,
	description      TEXT           NULL,
	service_type     VARCHAR(20)    NOT NULL,
	base_price       DECIMAL(10, 2) NOT NULL DEFAULT 0,
	duration_minutes INT            NOT NULL,
	created_at       DATETIME(6)    NOT NULL,
	PRIMARY KEY (id),
	UNIQUE KEY uniq_service_name (service_name),
	CONSTRAINT chk_service_duration CHECK (duration_minutes > 0 AND duration_minutes <= 1440)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "bookings",
		SQL: `CREATE TABLE IF NOT EXISTS bookings (
	id               CHAR(36)     NOT NULL,
	customer_id      VARCHAR(64)  NOT NULL,
	customer_name    VARCHAR(100) NOT NULL,
	customer_email   VARCHAR(254) NOT NULL,
	customer_phone   VARCHAR(20)  NOT NULL DEFAULT '',
	service_id       VARCHAR(64)  NOT NULL,
	location_id      INT          NOT NULL,
	location_address VARCHAR(300) NOT NULL,
	start_time       DATETIME(6)  NOT NULL,
	duration_minutes INT          NOT NULL,
	end_time         DATETIME(6)  NOT NULL,
	status           VARCHAR(32)  NOT NULL,
	created_at       DATETIME(6)  NOT NULL,
	updated_at       DATETIME(6)  NOT NULL,
	PRIMARY KEY (id),
	KEY idx_bookings_customer (customer_id, start_time),
	KEY idx_bookings_status (status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		// active_booking_id is NULL for rejected and cancelled rows, so the unique key allows
		// any number of those and a single owning allocation per booking.
		Name: "professional_allocations",
		SQL: `CREATE TABLE IF NOT EXISTS professional_allocations (
	id                CHAR(36)    NOT NULL,
	booking_id        CHAR(36)    NOT NULL,
	professional_id   VARCHAR(128) NOT NULL,
	assigned_at       DATETIME(6) NOT NULL,
	status            VARCHAR(16) NOT NULL,
	updated_at        DATETIME(6) NOT NULL,
	active_booking_id CHAR(36) AS (CASE WHEN status IN ('rejected', 'cancelled') THEN NULL ELSE booking_id END) STORED,
	PRIMARY KEY (id),
	UNIQUE KEY uniq_active_booking (active_booking_id),
	KEY idx_allocations_professional_status (professional_id, status),
	KEY idx_allocations_professional_assigned (professional_id, assigned_at),
	CONSTRAINT fk_allocations_booking FOREIGN KEY (booking_id) REFERENCES bookings (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

func RunMigration(ctx context.Context, db *sql.DB, log *logger.Logger) error {
	log.Info("Running MySQL migrations", "statements", len(Statements))

	for _, stmt := range Statements {
		if _, err := db.ExecContext(ctx, stmt.SQL); err != nil {
			return fmt.Errorf("failed to apply %s: %w", stmt.Name, err)
		}
		log.Info("Ensured table", "table", stmt.Name)
	}

	log.Info("All MySQL migrations applied")
	return nil
}
