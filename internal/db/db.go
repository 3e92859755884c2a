package db

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"gitlab.com/ranfdev/rubricvote/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type SharedDB struct {
	db     DBTX
	pool   *pgxpool.Pool
	config *models.EnvConfig
}

func newMigrate(config *models.EnvConfig) (*migrate.Migrate, error) {
	m, err := migrate.New(config.MigrationsURL, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("Error reading migrations: %w", err)
	}
	return m, nil
}

func MigrateUp(config *models.EnvConfig) error {
	m, err := newMigrate(config)
	if err != nil {
		return err
	}
	defer m.Close()
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("While migrating up: %w", err)
	}
	return nil
}
func MigrateDown(config *models.EnvConfig) error {
	m, err := newMigrate(config)
	if err != nil {
		return err
	}
	defer m.Close()
	err = m.Down()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("While migrating down: %w", err)
	}
	return nil
}
func Drop(config *models.EnvConfig) error {
	m, err := newMigrate(config)
	if err != nil {
		return err
	}
	defer m.Close()
	err = m.Drop()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("While dropping: %w", err)
	}
	return nil
}

func Connect(config *models.EnvConfig) (SharedDB, error) {
	pool, err := pgxpool.Connect(context.Background(), config.DatabaseURL)
	if err != nil {
		return SharedDB{}, fmt.Errorf("Failed to connect to postgres: %w", err)
	}
	return SharedDB{
		db:     pool,
		pool:   pool,
		config: config,
	}, nil
}

func (sdb *SharedDB) Close() {
	if sdb.pool != nil {
		sdb.pool.Close()
	}
}

func execTx(ctx context.Context, db DBTX, txFunc func(context.Context, DBTX) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	err = txFunc(ctx, tx)
	if err != nil {
		tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
