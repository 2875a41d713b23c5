package db

import (
	"context"
	"database/sql"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/db/dao"
	"github.com/eventatlas/eventatlas/db/transaction"
	"github.com/eventatlas/eventatlas/pkg/tracing"
	"github.com/eventatlas/eventatlas/utils"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const driverName = "pgx"

// DB is the record store: the connection pool and the DAOs sharing it
type DB struct {
	DB  *sqlx.DB
	log *zap.SugaredLogger

	Events  dao.EventDAO
	Sources dao.SourceDAO
}

// NewSqlDB opens a lazily connecting pool sized by cfg
func NewSqlDB(cfg modules.DatabaseConfig) (*sql.DB, error) {
	pool, err := sql.Open(driverName, cfg.GetDSN())
	if err != nil {
		return nil, err
	}
	size := int(cfg.MaxPoolSize)
	pool.SetMaxOpenConns(size)
	pool.SetMaxIdleConns(max(size/2, 1))
	pool.SetConnMaxLifetime(utils.Seconds(cfg.MaxLifetime))
	return pool, nil
}

func NewDB(sqlDB *sql.DB) *DB {
	x := sqlx.NewDb(sqlDB, driverName)
	return &DB{
		DB:      x,
		log:     zap.S().Named("db"),
		Events:  dao.NewEventDao(x),
		Sources: dao.NewSourceDAO(x),
	}
}

// TX runs fn in a transaction carried by ctx. A ctx already inside a
// transaction joins it, the outermost call commits.
func (db *DB) TX(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := transaction.FromContext(ctx); ok {
		return fn(ctx)
	}
	ctx, span := tracing.Start(ctx, "db.transaction")
	defer span.End()
	return db.inTx(ctx, nil, fn)
}

// Snapshot runs fn inside a read-only REPEATABLE READ transaction, so every
// query issued through ctx observes the same committed state.
func (db *DB) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := tracing.Start(ctx, "db.snapshot")
	defer span.End()
	return db.inTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (db *DB) inTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	tx, err := db.DB.BeginTxx(ctx, opts)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.log.Errorf("failed to rollback the tx: %v", rbErr)
		}
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err := fn(transaction.WithTx(ctx, tx)); err != nil {
		rollback()
		return err
	}
	return tx.Commit()
}
