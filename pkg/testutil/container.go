// Package testutil provides testing utilities for the skjema API.
// It includes a testcontainers PostgreSQL harness, a sqlmock wrapper,
// and common domain fixtures.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "skjema_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer container.Terminate(ctx)
//
//	    code := m.Run()
//	    os.Exit(code)
//	}
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "skjema_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateSchema creates the skjema and vedlegg tables in the container.
// Mirrors the production migrations.
func (c *PostgresContainer) CreateSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS skjema (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			skjematype VARCHAR(50) NOT NULL,
			eier VARCHAR(50) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'UTKAST',
			data JSONB NOT NULL DEFAULT '{}',
			innsending_status VARCHAR(30),
			journalpost_id VARCHAR(50),
			korrelasjons_id UUID,
			siste_feil TEXT,
			forsoek INT NOT NULL DEFAULT 0,
			sist_forsoekt TIMESTAMPTZ,
			innsendt_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT skjematype_valid CHECK (skjematype IN ('ARBEIDSGIVERS_DEL', 'ARBEIDSTAKERS_DEL')),
			CONSTRAINT skjema_status_valid CHECK (status IN ('UTKAST', 'SENDT_INN')),
			CONSTRAINT innsending_status_valid CHECK (innsending_status IS NULL OR innsending_status IN
				('MOTTATT', 'JOURNALFORT', 'FERDIG', 'JOURNALFORING_FEILET', 'MELDING_FEILET'))
		);

		CREATE INDEX IF NOT EXISTS idx_skjema_eier ON skjema (eier, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_skjema_innsending ON skjema (innsending_status, sist_forsoekt)
			WHERE status = 'SENDT_INN';

		CREATE TABLE IF NOT EXISTS vedlegg (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			skjema_id UUID NOT NULL REFERENCES skjema(id) ON DELETE CASCADE,
			filnavn VARCHAR(255) NOT NULL,
			content_type VARCHAR(100) NOT NULL,
			stoerrelse BIGINT NOT NULL,
			lagring_ref VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_vedlegg_skjema ON vedlegg (skjema_id, created_at);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
