package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/jfrisancho/fabnet-coverage/internal/infrastructure/storage/models"
)

// Config holds database connection configuration.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Debug           bool
}

// DefaultConfig returns sane pool defaults for a single-run-per-connection
// workload (spec §5: "one logical connection per active run").
func DefaultConfig() *Config {
	return &Config{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// NewDB opens a Postgres-backed bun.DB and registers the row models.
func NewDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithTimeout(30*time.Second),
		pgdriver.WithDialTimeout(10*time.Second),
		pgdriver.WithReadTimeout(10*time.Second),
		pgdriver.WithWriteTimeout(10*time.Second),
	)

	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db := bun.NewDB(sqldb, pgdialect.New())
	registerModels(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Int("max_open_conns", cfg.MaxOpenConns).Int("max_idle_conns", cfg.MaxIdleConns).Msg("database connection established")
	return db, nil
}

func registerModels(db *bun.DB) {
	db.RegisterModel(
		(*models.NodeModel)(nil),
		(*models.LinkModel)(nil),
		(*models.ToolsetModel)(nil),
		(*models.EquipmentModel)(nil),
		(*models.PoCModel)(nil),
		(*models.PoCConnectionModel)(nil),
		(*models.RunModel)(nil),
		(*models.PathDefinitionModel)(nil),
		(*models.AttemptPathModel)(nil),
		(*models.ValidationErrorModel)(nil),
		(*models.ReviewFlagModel)(nil),
		(*models.PathTagModel)(nil),
		(*models.RunSummaryModel)(nil),
	)
}

// Close closes the database connection.
func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// WithTransaction runs fn inside a read-committed transaction, rolling back
// on any returned error (spec §7 StorageError: "best-effort rollback of the
// current attempt's updates").
func WithTransaction(ctx context.Context, db *bun.DB, fn func(tx bun.Tx) error) error {
	return db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx bun.Tx) error {
		return fn(tx)
	})
}
