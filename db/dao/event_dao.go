package dao

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/jmoiron/sqlx"
)

type EventDAO interface {
	BaseDAO[entities.Event]
	ListByHashes(ctx context.Context, hashes []string) ([]*entities.Event, error)
	Scan(ctx context.Context, size int, fn func(events []*entities.Event) error) error
}

type eventDao struct {
	*DAO[entities.Event]
}

func NewEventDao(db *sqlx.DB) EventDAO {
	return &eventDao{
		DAO: NewDAO[entities.Event](db, Options{Table: "events", Key: "hash"}),
	}
}

// ListByHashes returns the events matching the given hashes, unknown hashes are skipped
func (dao *eventDao) ListByHashes(ctx context.Context, hashes []string) (list []*entities.Event, err error) {
	ctx, span := dao.trace(ctx, "list_by_hashes")
	defer span.End()

	list = make([]*entities.Event, 0, len(hashes))
	if len(hashes) == 0 {
		return
	}
	statement, args := psql.Select("*").
		From(dao.opts.Table).
		Where(sq.Eq{"hash": hashes}).
		OrderBy("starts_at ASC", "hash ASC").
		MustSql()
	dao.debugSQL(statement, args)
	err = dao.UnsafeDB(ctx).SelectContext(ctx, &list, statement, args...)
	return
}

// Scan walks every event ordered by (starts_at, hash) in batches of size.
// Run it inside DB.Snapshot to observe a single consistent view.
func (dao *eventDao) Scan(ctx context.Context, size int, fn func(events []*entities.Event) error) error {
	ctx, span := dao.trace(ctx, "scan")
	defer span.End()

	var (
		lastStartsAt time.Time
		lastHash     string
		first        = true
	)
	for {
		builder := psql.Select("*").From(dao.opts.Table)
		if !first {
			builder = builder.Where(sq.Expr("(starts_at, hash) > (?, ?)", lastStartsAt, lastHash))
		}
		statement, args := builder.OrderBy("starts_at ASC", "hash ASC").Limit(uint64(size)).MustSql()
		dao.debugSQL(statement, args)

		list := make([]*entities.Event, 0, size)
		if err := dao.UnsafeDB(ctx).SelectContext(ctx, &list, statement, args...); err != nil {
			return err
		}
		if len(list) == 0 {
			return nil
		}
		if err := fn(list); err != nil {
			return err
		}
		if len(list) < size {
			return nil
		}
		last := list[len(list)-1]
		lastStartsAt, lastHash, first = last.StartsAt, last.Hash, false
	}
}
