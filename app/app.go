package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eventatlas/eventatlas/api"
	"github.com/eventatlas/eventatlas/config"
	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/db"
	"github.com/eventatlas/eventatlas/db/migrator"
	"github.com/eventatlas/eventatlas/indexer"
	"github.com/eventatlas/eventatlas/notify"
	"github.com/eventatlas/eventatlas/pkg/accesslog"
	"github.com/eventatlas/eventatlas/pkg/http/middlewares"
	"github.com/eventatlas/eventatlas/pkg/lock"
	"github.com/eventatlas/eventatlas/pkg/log"
	"github.com/eventatlas/eventatlas/pkg/metrics"
	"github.com/eventatlas/eventatlas/pkg/ratelimiter"
	"github.com/eventatlas/eventatlas/pkg/safe"
	"github.com/eventatlas/eventatlas/pkg/taskqueue"
	"github.com/eventatlas/eventatlas/pkg/tracing"
	"github.com/eventatlas/eventatlas/search"
	"github.com/eventatlas/eventatlas/services"
	"github.com/eventatlas/eventatlas/services/schedule"
	"github.com/eventatlas/eventatlas/status"
	"github.com/eventatlas/eventatlas/status/health"
	"github.com/eventatlas/eventatlas/utils"
	"github.com/eventatlas/eventatlas/worker"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 30 * time.Second
	sourceCacheSize = 1000
	sourceCacheTTL  = time.Minute
)

var (
	ErrApplicationStarted = errors.New("already started")
	ErrApplicationStopped = errors.New("already stopped")
)

// Application owns every client and component of a running node.
// Clients are created once here and injected into the components that use them.
type Application struct {
	cfg *config.Config

	mux     sync.Mutex
	started bool
	stop    chan struct{}

	log       *zap.SugaredLogger
	db        *db.DB
	redis     *redis.Client
	metrics   *metrics.Metrics
	tracer    *tracing.Tracer
	queue     *taskqueue.RedisTaskQueue
	engine    search.Engine
	publisher notify.Publisher
	indexer   *indexer.Indexer
	registry  *worker.SourceRegistry
	ingester  *worker.Ingester
	reporter  *status.Reporter

	worker   *worker.Worker
	services []services.Service

	bootstrapCancel context.CancelFunc
	bootstrapDone   chan struct{}
}

func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		cfg:  cfg,
		stop: make(chan struct{}, 1),
	}

	if err := app.initialize(); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

func (app *Application) initialize() error {
	cfg := app.cfg

	log, err := log.NewZapLogger(&cfg.Log)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(log.Desugar())
	app.log = log

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		app.log.Error(err)
	}))

	// tracing
	app.tracer, err = tracing.New(&cfg.Tracing)
	if err != nil {
		return err
	}

	app.metrics, err = metrics.New(cfg.Metrics)
	if err != nil {
		return err
	}

	// db
	sqlDB, err := db.NewSqlDB(cfg.Database)
	if err != nil {
		return err
	}
	app.db = db.NewDB(sqlDB)

	// redis
	app.redis = cfg.Redis.GetClient()
	app.queue = taskqueue.NewRedisQueue(taskqueue.RedisTaskQueueOptions{
		Client: app.redis,
	}, log.Named("queue"), app.metrics)

	app.publisher, err = notify.New(cfg.Nats)
	if err != nil {
		return err
	}

	// search
	app.engine = search.NewTypesense(cfg.Search)
	app.indexer = indexer.New(
		indexer.OptionsFromConfig(cfg.Search),
		app.db,
		app.db.Events,
		app.engine,
		lock.NewRedisLocker(app.redis),
		indexer.NewRedisStateStore(app.redis),
		app.publisher,
		app.metrics)

	app.registry = worker.NewSourceRegistry(app.db.Sources, sourceCacheSize, sourceCacheTTL)
	app.ingester = worker.NewIngester(app.db.Events, app.registry, app.queue, app.publisher, app.metrics)

	app.reporter = status.NewReporter(status.ReporterOptions{
		Indicators: app.indicators(),
		Queue:      app.queue,
		Indexer:    app.indexer,
		Timeout:    utils.Seconds(cfg.Status.HealthTimeout),
	})

	// worker
	if cfg.Worker.Enabled {
		app.worker = worker.NewWorker(worker.OptionsFromConfig(cfg.Worker), app.queue, app.ingester, app.indexer, app.metrics)
	}

	if cfg.Search.RebuildScheduled() {
		scheduler := schedule.New()
		interval := utils.Seconds(cfg.Search.RebuildInterval)
		err := scheduler.Add(&schedule.Task{
			Name:         "index.rebuild",
			Cron:         cfg.Search.RebuildCron,
			InitialDelay: interval,
			Interval:     interval,
			Do:           app.scheduledRebuild,
		})
		if err != nil {
			return err
		}
		app.services = append(app.services, scheduler)
	}

	// api
	if cfg.API.Listen.Enabled() {
		opts := api.Options{
			Collection:  cfg.Search.Collection,
			MaxBodySize: cfg.API.MaxRequestBodySize,
			Engine:      app.engine,
			Sources:     app.db.Sources,
			Invalidator: app.registry,
			Queue:       app.queue,
			Reporter:    app.reporter,
		}
		accessLogger, err := app.accessLogger("api")
		if err != nil {
			return err
		}
		if accessLogger != nil {
			opts.Middlewares = append(opts.Middlewares, accesslog.NewMiddleware(accessLogger))
		}
		if app.tracer != nil {
			opts.Middlewares = append(opts.Middlewares, otelhttp.NewMiddleware("api"))
		}
		if app.metrics.Enabled {
			opts.Middlewares = append(opts.Middlewares, middlewares.NewMetricsMiddleware(app.metrics).Handle)
		}
		if rl := cfg.API.RateLimit; rl.Enabled() {
			var limiter ratelimiter.RateLimiter = ratelimiter.NewRedisLimiter(app.redis)
			if rl.Store == modules.RateLimitStoreMemory {
				limiter = ratelimiter.NewMemoryLimiter()
			}
			opts.Middlewares = append(opts.Middlewares, mux.MiddlewareFunc(
				middlewares.NewRateLimit(limiter, int(rl.Quota), utils.Seconds(rl.Period)).Handle))
		}
		app.services = append(app.services, api.NewServer(cfg.API, api.NewAPI(opts).Handler()))
	}

	if cfg.Status.Listen.Enabled() {
		accessLogger, err := app.accessLogger("status")
		if err != nil {
			return err
		}
		app.services = append(app.services, status.NewServer(cfg.Status, status.Options{
			AccessLog: accessLogger,
			Reporter:  app.reporter,
			Tracing:   app.tracer != nil,
		}))
	}

	return nil
}

func (app *Application) accessLogger(name string) (accesslog.AccessLogger, error) {
	if !app.cfg.AccessLog.Enabled {
		return nil, nil
	}
	return accesslog.NewAccessLogger(name, accesslog.Options{
		File:    app.cfg.AccessLog.File,
		Format:  string(app.cfg.AccessLog.Format),
		Colored: app.cfg.AccessLog.Colored,
	})
}

func (app *Application) indicators() []*health.Indicator {
	return []*health.Indicator{
		{
			Name: "database",
			Check: func(ctx context.Context) error {
				return app.db.DB.PingContext(ctx)
			},
		},
		{
			Name: "redis",
			Check: func(ctx context.Context) error {
				resp := app.redis.Ping(ctx)
				if resp.Err() != nil {
					return resp.Err()
				}
				if resp.Val() != "PONG" {
					return errors.New("invalid response from redis: " + resp.Val())
				}
				return nil
			},
		},
		{
			Name: "search",
			Check: func(ctx context.Context) error {
				return app.engine.Health(ctx)
			},
		},
	}
}

func (app *Application) scheduledRebuild(ctx context.Context) error {
	result, err := app.indexer.Rebuild(ctx)
	if err != nil {
		return err
	}
	app.log.Infow("scheduled rebuild done",
		"collection", result.Collection, "documents", result.Documents, "elapsed", result.Duration)
	return nil
}

// bootstrapIndex builds the index when the collection does not exist yet
func (app *Application) bootstrapIndex(ctx context.Context) {
	_, err := app.engine.GetCollection(ctx, app.cfg.Search.Collection)
	if err == nil {
		return
	}
	if !errors.Is(err, search.ErrNotFound) {
		app.log.Warnw("search index is unavailable", "error", err)
		return
	}
	app.log.Infof("collection %q not found, building the index", app.cfg.Search.Collection)
	_, err = app.indexer.Rebuild(ctx)
	switch {
	case err == nil, errors.Is(err, indexer.ErrIndexBusy):
	case ctx.Err() != nil:
		app.log.Warnw("initial index build canceled", "error", err)
	default:
		app.log.Errorw("initial index build failed", "error", err)
	}
}

// startBootstrap runs bootstrapIndex in the background. A full rebuild has no deadline,
// only Stop cancels it.
func (app *Application) startBootstrap() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	app.bootstrapCancel, app.bootstrapDone = cancel, done
	safe.Go("index.bootstrap", func() {
		defer close(done)
		app.bootstrapIndex(ctx)
	})
}

// stopBootstrap cancels a running bootstrap and waits for it to return, so the
// clients it uses are still open while it unwinds
func (app *Application) stopBootstrap(ctx context.Context) {
	if app.bootstrapCancel == nil {
		return
	}
	app.bootstrapCancel()
	select {
	case <-app.bootstrapDone:
	case <-ctx.Done():
		app.log.Warn("index bootstrap did not return before shutdown timeout")
	}
	app.bootstrapCancel = nil
}

func (app *Application) Config() *config.Config {
	return app.cfg
}

func (app *Application) DB() *db.DB {
	return app.db
}

func (app *Application) Queue() taskqueue.TaskQueue {
	return app.queue
}

func (app *Application) Indexer() *indexer.Indexer {
	return app.indexer
}

func (app *Application) Ingester() *worker.Ingester {
	return app.ingester
}

func (app *Application) Registry() *worker.SourceRegistry {
	return app.registry
}

func (app *Application) Reporter() *status.Reporter {
	return app.reporter
}

func (app *Application) Worker() *worker.Worker {
	return app.worker
}

// Start starts application
func (app *Application) Start() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if app.started {
		return ErrApplicationStarted
	}

	dbStatus, err := migrator.New(app.db.DB.DB, nil).Status()
	if err != nil {
		return err
	}
	if dbStatus.Dirty {
		return fmt.Errorf("database is in a dirty state at version %d", dbStatus.Version)
	}
	if len(dbStatus.Pendings) > 0 {
		return errors.New("database is not up to date. Run 'eventatlas db up' before starting")
	}

	app.log.Infof("starting EventAtlas %s", config.VERSION)

	if app.worker != nil {
		if err := app.worker.Start(); err != nil {
			return err
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := services.StartAll(ctx, app.services); err != nil {
		if app.worker != nil {
			_ = app.worker.Stop()
		}
		return err
	}

	app.startBootstrap()

	app.started = true

	return nil
}

func (app *Application) Wait() {
	<-app.stop
}

// Stop stops application
func (app *Application) Stop() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if !app.started {
		return ErrApplicationStopped
	}

	app.log.Info("exiting")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.stopBootstrap(ctx)
	services.StopAll(ctx, app.services, app.log)
	if app.worker != nil {
		_ = app.worker.Stop()
	}

	app.Close()

	app.started = false
	app.log.Info("exit")
	_ = app.log.Sync()
	app.stop <- struct{}{}

	return nil
}

// Close releases the clients, used directly by one-shot commands that never Start
func (app *Application) Close() {
	if app.queue != nil {
		app.queue.Close()
	}
	if app.publisher != nil {
		_ = app.publisher.Close()
	}
	if app.metrics != nil {
		_ = app.metrics.Stop()
	}
	if app.tracer != nil {
		_ = app.tracer.Stop()
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.DB.Close()
	}
}
