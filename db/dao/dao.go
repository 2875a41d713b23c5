package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/eventatlas/eventatlas/db/query"
	"github.com/eventatlas/eventatlas/db/transaction"
	"github.com/eventatlas/eventatlas/pkg/tracing"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrNoRows = sql.ErrNoRows
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Queryable is an interface to be used interchangeably for sqlx.Db and sqlx.Tx
type Queryable = transaction.Queryable

// BaseDAO is the keyed access every table offers
type BaseDAO[T any] interface {
	Get(ctx context.Context, key string) (*T, error)
	Upsert(ctx context.Context, entity *T) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	Page(ctx context.Context, q query.Queryer) ([]*T, int64, error)
	List(ctx context.Context, q query.Queryer) ([]*T, error)
	Count(ctx context.Context, where map[string]interface{}) (int64, error)
}

type Options struct {
	Table string
	// Key is the primary key column, defaults to id
	Key string
}

type DAO[T any] struct {
	log  *zap.SugaredLogger
	db   *sqlx.DB
	opts Options
}

func NewDAO[T any](db *sqlx.DB, opts Options) *DAO[T] {
	if opts.Key == "" {
		opts.Key = "id"
	}
	return &DAO[T]{
		log:  zap.S().Named("dao"),
		db:   db,
		opts: opts,
	}
}

func (dao *DAO[T]) trace(ctx context.Context, operation string) (context.Context, trace.Span) {
	return tracing.Start(ctx, fmt.Sprintf("dao.%s.%s", dao.opts.Table, operation))
}

func (dao *DAO[T]) debugSQL(sql string, args []interface{}) {
	dao.log.Debugf("execute: %s", sql)
}

// DB returns the transaction carried by ctx, falling back to the pool
func (dao *DAO[T]) DB(ctx context.Context) Queryable {
	return transaction.Executor(ctx, dao.db)
}

func (dao *DAO[T]) UnsafeDB(ctx context.Context) Queryable {
	return transaction.Unsafe(ctx, dao.db)
}

func (dao *DAO[T]) Get(ctx context.Context, key string) (entity *T, err error) {
	ctx, span := dao.trace(ctx, "get")
	defer span.End()

	statement, args := psql.Select("*").From(dao.opts.Table).Where(sq.Eq{dao.opts.Key: key}).MustSql()
	dao.debugSQL(statement, args)
	entity = new(T)
	err = dao.UnsafeDB(ctx).GetContext(ctx, entity, statement, args...)
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return
}

func (dao *DAO[T]) Delete(ctx context.Context, key string) (bool, error) {
	ctx, span := dao.trace(ctx, "delete")
	defer span.End()

	statement, args := psql.Delete(dao.opts.Table).Where(sq.Eq{dao.opts.Key: key}).MustSql()
	dao.debugSQL(statement, args)
	result, err := dao.DB(ctx).ExecContext(ctx, statement, args...)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (dao *DAO[T]) Page(ctx context.Context, q query.Queryer) (list []*T, total int64, err error) {
	total, err = dao.Count(ctx, q.WhereMap())
	if err != nil {
		return
	}
	list, err = dao.List(ctx, q)
	return
}

func (dao *DAO[T]) Count(ctx context.Context, where map[string]interface{}) (total int64, err error) {
	ctx, span := dao.trace(ctx, "count")
	defer span.End()

	builder := psql.Select("COUNT(*)").From(dao.opts.Table)
	if len(where) > 0 {
		builder = builder.Where(sq.Eq(where))
	}
	statement, args := builder.MustSql()
	dao.debugSQL(statement, args)
	err = dao.DB(ctx).GetContext(ctx, &total, statement, args...)
	return
}

func (dao *DAO[T]) List(ctx context.Context, q query.Queryer) (list []*T, err error) {
	ctx, span := dao.trace(ctx, "list")
	defer span.End()

	builder := psql.Select("*").From(dao.opts.Table)
	if where := q.WhereMap(); len(where) > 0 {
		builder = builder.Where(sq.Eq(where))
	}
	for _, order := range q.Orders() {
		builder = builder.OrderBy(order.String())
	}
	if q.Limit() != 0 {
		builder = builder.Offset(uint64(q.Offset())).Limit(uint64(q.Limit()))
	}
	statement, args := builder.MustSql()
	dao.debugSQL(statement, args)
	list = make([]*T, 0)
	err = dao.UnsafeDB(ctx).SelectContext(ctx, &list, statement, args...)
	return
}

// Upsert inserts the entity or overwrites every non-key column of the existing row.
// created reports whether a new row was inserted.
func (dao *DAO[T]) Upsert(ctx context.Context, entity *T) (created bool, err error) {
	ctx, span := dao.trace(ctx, "upsert")
	defer span.End()

	columns := make([]string, 0)
	values := make([]interface{}, 0)
	sets := make([]string, 0)
	eachColumn(entity, func(column string, value any) {
		switch column {
		case "created_at", "updated_at":
		default:
			columns = append(columns, column)
			values = append(values, value)
			if column != dao.opts.Key {
				sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
			}
		}
	})
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP(3)")

	suffix := fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s RETURNING (xmax = 0) AS created",
		dao.opts.Key, strings.Join(sets, ", "))
	statement, args := psql.Insert(dao.opts.Table).Columns(columns...).Values(values...).Suffix(suffix).MustSql()
	dao.debugSQL(statement, args)
	err = dao.DB(ctx).QueryRowxContext(ctx, statement, args...).Scan(&created)
	return
}
