package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/eventatlas/eventatlas/constants"
	"github.com/eventatlas/eventatlas/db/dao"
	dberrs "github.com/eventatlas/eventatlas/db/errs"
	"github.com/eventatlas/eventatlas/notify"
	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/eventatlas/eventatlas/pkg/metrics"
	"github.com/eventatlas/eventatlas/pkg/taskqueue"
	"github.com/eventatlas/eventatlas/pkg/tracing"
	"go.uber.org/zap"
)

// IngestResult is the outcome of a persisted ingestion
type IngestResult struct {
	Hash    string
	Created bool
	// ReindexTask is the id of the enqueued reindex task
	ReindexTask string
}

// Ingester turns raw source payloads into persisted canonical events
type Ingester struct {
	events    dao.EventDAO
	sources   *SourceRegistry
	queue     taskqueue.TaskQueue
	publisher notify.Publisher
	metrics   *metrics.Metrics
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewIngester(events dao.EventDAO,
	sources *SourceRegistry,
	queue taskqueue.TaskQueue,
	publisher notify.Publisher,
	metrics *metrics.Metrics) *Ingester {
	return &Ingester{
		events:    events,
		sources:   sources,
		queue:     queue,
		publisher: publisher,
		metrics:   metrics,
		log:       zap.S().Named("ingester"),
		now:       time.Now,
	}
}

// Ingest validates, normalizes and persists a payload, then enqueues its reindex.
// A crash after persisting redelivers the task, which replays to the same row.
func (ing *Ingester) Ingest(ctx context.Context, data *IngestData) (*IngestResult, error) {
	ctx, span := tracing.Start(ctx, "ingester.ingest")
	defer span.End()

	payload, err := ParsePayload(data.RawPayload)
	if err != nil {
		return nil, err
	}
	event, err := Normalize(payload, data.SourceCode, ing.now())
	if err != nil {
		return nil, err
	}
	ing.log.Debugf("canonicalized %q (%s) as %s", event.Name, data.SourceCode, event.Hash)

	source, err := ing.sources.LookUp(ctx, data.SourceCode)
	if err != nil {
		return nil, transient(err)
	}
	if source == nil {
		return nil, errs.Transientf("unknown source %q", data.SourceCode)
	}

	created, err := ing.events.Upsert(ctx, event)
	if err != nil {
		if dberrs.IsTransient(err) {
			return nil, errs.NewTransientError(err)
		}
		return nil, dberrs.ConvertError(err)
	}
	ing.metrics.EventPersistedCounter.With("created", strconv.FormatBool(created)).Add(1)
	ing.log.Debugf("persisted event %s (created=%t)", event.Hash, created)

	task := taskqueue.NewTaskMessage(taskqueue.TaskKindReindex, &ReindexData{Hashes: []string{event.Hash}})
	if err := ing.queue.Add(ctx, []*taskqueue.TaskMessage{task}); err != nil {
		return nil, errs.NewTransientError(err)
	}

	notification := notify.EventUpserted{Hash: event.Hash, Source: event.Source, Created: created}
	if err := ing.publisher.Publish(ctx, constants.SubjectEventUpserted, notification); err != nil {
		ing.log.Warnf("failed to publish %s: %v", constants.SubjectEventUpserted, err)
	}

	return &IngestResult{Hash: event.Hash, Created: created, ReindexTask: task.ID}, nil
}

func transient(err error) error {
	if dberrs.IsTransient(err) && !errs.IsTransient(err) {
		return errs.NewTransientError(err)
	}
	return err
}
