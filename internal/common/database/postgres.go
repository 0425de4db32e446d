package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tenancy-workflow/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Migrate creates the tables owned by this service if they do not exist.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tenancy_applications (
		id            UUID PRIMARY KEY,
		property_id   TEXT NOT NULL,
		landlord_id   TEXT NOT NULL,
		applicant_id  TEXT NOT NULL,
		status        TEXT NOT NULL,
		current_stage INT NOT NULL,
		version       BIGINT NOT NULL,
		token_hashes  TEXT[] NOT NULL DEFAULT '{}',
		document      JSONB NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		UNIQUE (applicant_id, property_id)
	)`,
	`CREATE INDEX IF NOT EXISTS tenancy_applications_token_hashes_idx
		ON tenancy_applications USING GIN (token_hashes)`,
	`CREATE INDEX IF NOT EXISTS tenancy_applications_landlord_idx
		ON tenancy_applications (landlord_id)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id          UUID PRIMARY KEY,
		actor_id    TEXT NOT NULL,
		actor_role  TEXT NOT NULL,
		action      TEXT NOT NULL,
		target_id   TEXT NOT NULL,
		description TEXT NOT NULL,
		metadata    JSONB NOT NULL DEFAULT '{}',
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_log_target_idx ON audit_log (target_id, occurred_at)`,
	`CREATE INDEX IF NOT EXISTS audit_log_actor_idx ON audit_log (actor_id, occurred_at)`,
}
