// Package indexer keeps the search index in sync with the record store,
// by full rebuild and by incremental upsert of individual events.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/constants"
	"github.com/eventatlas/eventatlas/db/dao"
	"github.com/eventatlas/eventatlas/db/entities"
	dberrs "github.com/eventatlas/eventatlas/db/errs"
	"github.com/eventatlas/eventatlas/notify"
	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/eventatlas/eventatlas/pkg/lock"
	"github.com/eventatlas/eventatlas/pkg/metrics"
	"github.com/eventatlas/eventatlas/pkg/tracing"
	"github.com/eventatlas/eventatlas/search"
	"github.com/eventatlas/eventatlas/utils"
	"go.uber.org/zap"
)

// ErrIndexBusy means another process holds the index write lock
var ErrIndexBusy = errors.New("search index is locked by another writer")

type Snapshotter interface {
	Snapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

type Options struct {
	Collection string
	BatchSize  int
	Strategy   modules.RebuildStrategy
	LockTTL    time.Duration
	// RebuildWait bounds how long a rebuild waits for the lock
	RebuildWait time.Duration
	// UpsertWait bounds how long an incremental upsert waits for the lock
	UpsertWait time.Duration
}

func OptionsFromConfig(cfg modules.SearchConfig) Options {
	return Options{
		Collection:  cfg.Collection,
		BatchSize:   int(cfg.BatchSize),
		Strategy:    cfg.RebuildStrategy,
		LockTTL:     utils.Seconds(cfg.LockTTL),
		RebuildWait: 5 * time.Minute,
		UpsertWait:  2 * time.Second,
	}
}

type Indexer struct {
	opts      Options
	snapshot  Snapshotter
	events    dao.EventDAO
	engine    search.Engine
	locker    lock.Locker
	state     StateStore
	publisher notify.Publisher
	metrics   *metrics.Metrics
	log       *zap.SugaredLogger
	now       func() time.Time
}

func New(opts Options,
	snapshot Snapshotter,
	events dao.EventDAO,
	engine search.Engine,
	locker lock.Locker,
	state StateStore,
	publisher notify.Publisher,
	metrics *metrics.Metrics) *Indexer {
	return &Indexer{
		opts:      opts,
		snapshot:  snapshot,
		events:    events,
		engine:    engine,
		locker:    locker,
		state:     state,
		publisher: publisher,
		metrics:   metrics,
		log:       zap.S().Named("indexer"),
		now:       time.Now,
	}
}

type RebuildResult struct {
	Collection string        `json:"collection"`
	Documents  int64         `json:"documents"`
	Batches    int64         `json:"batches"`
	Duration   time.Duration `json:"duration"`
}

func (idx *Indexer) acquire(ctx context.Context, wait time.Duration) (lock.Lock, error) {
	l, err := idx.locker.Acquire(ctx, constants.IndexLockName, lock.Options{TTL: idx.opts.LockTTL, Wait: wait})
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, ErrIndexBusy
	}
	if err != nil {
		return nil, errs.NewTransientError(fmt.Errorf("failed to acquire index lock: %w", err))
	}
	return l, nil
}

func (idx *Indexer) release(l lock.Lock) {
	if err := l.Unlock(context.Background()); err != nil {
		idx.log.Warnf("failed to release index lock: %v", err)
	}
}

// Rebuild replaces the index content with every event of a single record store snapshot
func (idx *Indexer) Rebuild(ctx context.Context) (*RebuildResult, error) {
	ctx, span := tracing.Start(ctx, "indexer.rebuild")
	defer span.End()

	l, err := idx.acquire(ctx, idx.opts.RebuildWait)
	if err != nil {
		return nil, err
	}
	defer idx.release(l)
	stop := lock.KeepAlive(ctx, l, idx.opts.LockTTL/3)
	defer stop()

	start := idx.now()
	var result *RebuildResult
	switch idx.opts.Strategy {
	case modules.RebuildStrategyAlias:
		result, err = idx.rebuildWithAlias(ctx)
	default:
		result, err = idx.rebuildInPlace(ctx)
	}
	status := "succeeded"
	if err != nil {
		status = "failed"
	}
	idx.metrics.IndexRebuildCounter.With("strategy", string(idx.opts.Strategy), "status", status).Add(1)
	if err != nil {
		return nil, err
	}

	result.Duration = idx.now().Sub(start)
	idx.metrics.IndexRebuildDurationHistogram.Observe(result.Duration.Seconds())

	if err := idx.state.ClearDegraded(ctx); err != nil {
		idx.log.Warnf("failed to clear degraded flag: %v", err)
	}
	idx.log.Infof("rebuilt collection %s with %d documents in %s", result.Collection, result.Documents, result.Duration)

	event := notify.IndexRebuilt{
		Collection: result.Collection,
		Documents:  result.Documents,
		DurationMs: result.Duration.Milliseconds(),
	}
	if err := idx.publisher.Publish(ctx, constants.SubjectIndexRebuilt, event); err != nil {
		idx.log.Warnf("failed to publish %s: %v", constants.SubjectIndexRebuilt, err)
	}
	return result, nil
}

// rebuildInPlace drops and recreates the serving collection.
// Any failure after the drop leaves the index degraded.
func (idx *Indexer) rebuildInPlace(ctx context.Context) (*RebuildResult, error) {
	name := idx.opts.Collection

	if previous, err := idx.engine.GetAlias(ctx, name); err == nil {
		if err := idx.engine.DeleteAlias(ctx, name); err != nil {
			return nil, err
		}
		defer idx.dropQuietly(previous)
	} else if !errors.Is(err, search.ErrNotFound) {
		return nil, err
	}

	if err := idx.engine.DropCollection(ctx, name); err != nil {
		return nil, idx.degrade(ctx, "drop", err)
	}
	if err := idx.engine.CreateCollection(ctx, search.EventsSchema(name)); err != nil {
		return nil, idx.degrade(ctx, "create", err)
	}
	result, err := idx.importAll(ctx, name)
	if err != nil {
		return nil, idx.degrade(ctx, "import", err)
	}
	return result, nil
}

// rebuildWithAlias builds a new physical collection and repoints the alias at it.
// The serving collection is untouched until the new one is complete.
func (idx *Indexer) rebuildWithAlias(ctx context.Context) (*RebuildResult, error) {
	alias := idx.opts.Collection
	physical := fmt.Sprintf("%s_%d", alias, idx.now().UnixMilli())

	previous, err := idx.engine.GetAlias(ctx, alias)
	if err != nil && !errors.Is(err, search.ErrNotFound) {
		return nil, err
	}

	if err := idx.engine.CreateCollection(ctx, search.EventsSchema(physical)); err != nil {
		return nil, err
	}
	result, err := idx.importAll(ctx, physical)
	if err != nil {
		idx.dropQuietly(physical)
		return nil, err
	}

	if previous == "" {
		// a collection created in place holds the alias name and must go first
		if _, err := idx.engine.GetCollection(ctx, alias); err == nil {
			if err := idx.engine.DropCollection(ctx, alias); err != nil {
				idx.dropQuietly(physical)
				return nil, err
			}
			if err := idx.engine.UpsertAlias(ctx, alias, physical); err != nil {
				return nil, idx.degrade(ctx, "alias", err)
			}
			return result, nil
		}
	}

	if err := idx.engine.UpsertAlias(ctx, alias, physical); err != nil {
		idx.dropQuietly(physical)
		return nil, err
	}
	if previous != "" && previous != physical {
		idx.dropQuietly(previous)
	}
	return result, nil
}

func (idx *Indexer) importAll(ctx context.Context, collection string) (*RebuildResult, error) {
	result := &RebuildResult{Collection: collection}
	err := idx.snapshot.Snapshot(ctx, func(ctx context.Context) error {
		return idx.events.Scan(ctx, idx.opts.BatchSize, func(events []*entities.Event) error {
			if err := idx.engine.Import(ctx, collection, search.NewDocuments(events)); err != nil {
				return err
			}
			result.Documents += int64(len(events))
			result.Batches++
			idx.metrics.IndexDocumentCounter.With("mode", "rebuild").Add(float64(len(events)))
			idx.log.Debugf("imported batch %d (%d documents) into %s", result.Batches, len(events), collection)
			return nil
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (idx *Indexer) degrade(ctx context.Context, stage string, err error) error {
	d := &Degraded{Stage: stage, Reason: err.Error(), Since: idx.now().UTC()}
	if e := idx.state.SetDegraded(context.WithoutCancel(ctx), d); e != nil {
		idx.log.Errorf("failed to record degraded index: %v", e)
	}
	idx.log.Errorf("index left degraded after failed %s: %v", stage, err)
	return errs.NewConsistencyError(stage, err)
}

func (idx *Indexer) dropQuietly(collection string) {
	if err := idx.engine.DropCollection(context.Background(), collection); err != nil {
		idx.log.Warnf("failed to drop collection %s: %v", collection, err)
	}
}

// Upsert writes the documents of the given events, hashes missing from the
// record store are skipped. It never deletes documents.
func (idx *Indexer) Upsert(ctx context.Context, hashes []string) (int, error) {
	ctx, span := tracing.Start(ctx, "indexer.upsert")
	defer span.End()

	if len(hashes) == 0 {
		return 0, nil
	}

	l, err := idx.acquire(ctx, idx.opts.UpsertWait)
	if err != nil {
		return 0, err
	}
	defer idx.release(l)

	events, err := idx.events.ListByHashes(ctx, hashes)
	if err != nil {
		return 0, classify(err)
	}
	if len(events) < len(hashes) {
		found := make(map[string]bool, len(events))
		for _, e := range events {
			found[e.Hash] = true
		}
		for _, hash := range hashes {
			if !found[hash] {
				idx.log.Warnf("skipping unknown event %s", hash)
			}
		}
	}
	if len(events) == 0 {
		return 0, nil
	}

	if err := idx.engine.Import(ctx, idx.opts.Collection, search.NewDocuments(events)); err != nil {
		return 0, err
	}
	idx.metrics.IndexDocumentCounter.With("mode", "incremental").Add(float64(len(events)))
	return len(events), nil
}

type Status struct {
	Collection string    `json:"collection"`
	Physical   string    `json:"physical"`
	Documents  int64     `json:"documents"`
	Degraded   *Degraded `json:"degraded"`
}

func (idx *Indexer) Status(ctx context.Context) (*Status, error) {
	status := &Status{Collection: idx.opts.Collection, Physical: idx.opts.Collection}

	degraded, err := idx.state.GetDegraded(ctx)
	if err != nil {
		return nil, err
	}
	status.Degraded = degraded

	if target, err := idx.engine.GetAlias(ctx, idx.opts.Collection); err == nil {
		status.Physical = target
	} else if !errors.Is(err, search.ErrNotFound) {
		return nil, err
	}

	info, err := idx.engine.GetCollection(ctx, status.Physical)
	if errors.Is(err, search.ErrNotFound) {
		status.Physical = ""
		return status, nil
	}
	if err != nil {
		return nil, err
	}
	status.Documents = info.NumDocuments
	return status, nil
}

func classify(err error) error {
	if dberrs.IsTransient(err) && !errs.IsTransient(err) {
		return errs.NewTransientError(err)
	}
	return err
}
