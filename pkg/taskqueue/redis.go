package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eventatlas/eventatlas/constants"
	"github.com/eventatlas/eventatlas/pkg/metrics"
	"github.com/eventatlas/eventatlas/pkg/schedule"
	"github.com/eventatlas/eventatlas/pkg/tracing"
	"github.com/eventatlas/eventatlas/utils"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	getMultiScript = redis.NewScript(`
		redis.replicate_commands()
		local time = redis.call('TIME')
		local now = time[1] * 1000 + math.floor(time[2] / 1000)
		local task_ids = redis.call('ZRANGEBYSCORE', KEYS[1], 0, now, 'LIMIT', 0, ARGV[1])
		local list = {}
		for _, task_id in ipairs(task_ids) do
			redis.call('ZREM', KEYS[1], task_id)
			local data = redis.call('HGET', KEYS[2], task_id)
			if not data then
				redis.call('ZREM', KEYS[3], task_id)
				redis.call('HDEL', KEYS[4], task_id)
			else
				redis.call('ZADD', KEYS[3], now + tonumber(ARGV[2]), task_id)
				local attempts = redis.call('HINCRBY', KEYS[4], task_id, 1)
				table.insert(list, { task_id, data, attempts })
			end
		end
		return list
	`)

	requeueScript = redis.NewScript(`
		redis.replicate_commands()
		local time = redis.call('TIME')
		local now = time[1] * 1000 + math.floor(time[2] / 1000)
		local tasks = redis.call('ZRANGEBYSCORE', KEYS[1], 0, now)
		for _, id in ipairs(tasks) do
			redis.call('ZREM', KEYS[1], id)
			redis.call('ZADD', KEYS[2], now, id)
		end
		if #tasks > 0 then
			redis.call('LPUSH', KEYS[3], 1)
			redis.call('LTRIM', KEYS[3], 0, 0)
		end
		return tasks
	`)
)

// RedisTaskQueue use redis as queue implementation
type RedisTaskQueue struct {
	queue             string
	invisibleQueue    string
	queueData         string
	queueAttempts     string
	deadLetterQueue   string
	notifyList        string
	visibilityTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	c       *redis.Client
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

type RedisTaskQueueOptions struct {
	QueueName          string
	InvisibleQueueName string
	QueueDataName      string
	AttemptsName       string
	DeadLetterName     string
	NotifyName         string
	VisibilityTimeout  time.Duration
	RequeueInterval    time.Duration
	Client             *redis.Client
}

func NewRedisQueue(opts RedisTaskQueueOptions, logger *zap.SugaredLogger, metrics *metrics.Metrics) *RedisTaskQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &RedisTaskQueue{
		queue:             utils.DefaultIfZero(opts.QueueName, constants.TaskQueueName),
		invisibleQueue:    utils.DefaultIfZero(opts.InvisibleQueueName, constants.TaskQueueInvisibleQueueName),
		queueData:         utils.DefaultIfZero(opts.QueueDataName, constants.TaskQueueDataName),
		queueAttempts:     utils.DefaultIfZero(opts.AttemptsName, constants.TaskQueueAttemptsName),
		deadLetterQueue:   utils.DefaultIfZero(opts.DeadLetterName, constants.TaskQueueDeadLetterName),
		notifyList:        utils.DefaultIfZero(opts.NotifyName, constants.TaskQueueNotifyName),
		visibilityTimeout: utils.DefaultIfZero(opts.VisibilityTimeout, constants.TaskQueueVisibilityTimeout),
		ctx:               ctx,
		cancel:            cancel,
		c:                 opts.Client,
		log:               logger,
		metrics:           metrics,
	}

	schedule.Every(ctx, utils.DefaultIfZero(opts.RequeueInterval, time.Second), q.requeue)
	if metrics.Enabled {
		schedule.Every(ctx, metrics.Interval, q.monitoring)
	}

	return q
}

func (q *RedisTaskQueue) Add(ctx context.Context, tasks []*TaskMessage) error {
	ctx, span := tracing.Start(ctx, "taskqueue.redis.add", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	if len(tasks) == 0 {
		return nil
	}

	members := make([]redis.Z, 0, len(tasks))
	strs := make([]interface{}, 0, len(tasks)*2)
	for _, task := range tasks {
		members = append(members, redis.Z{
			Score:  float64(task.ScheduledAt.UnixMilli()),
			Member: task.ID,
		})
		data, err := task.MarshalData()
		if err != nil {
			return err
		}
		strs = append(strs, task.ID, data)
	}

	_, err := q.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.queueData, strs...)
		pipe.ZAdd(ctx, q.queue, members...)
		q.notify(ctx, pipe)
		return nil
	})
	return err
}

func (q *RedisTaskQueue) Get(ctx context.Context, opts *GetOptions) ([]*TaskMessage, error) {
	ctx, span := tracing.Start(ctx, "taskqueue.redis.get", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	keys := []string{q.queue, q.queueData, q.invisibleQueue, q.queueAttempts}
	argv := []interface{}{
		opts.Count,
		q.visibilityTimeout.Milliseconds(),
	}
	res, err := getMultiScript.Run(ctx, q.c, keys, argv...).Result()
	if err != nil {
		return nil, err
	}
	list, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected return value: expect array, got %v", res)
	}
	if len(list) == 0 {
		return nil, nil
	}
	tasks := make([]*TaskMessage, 0, len(list))
	for _, e := range list {
		fields := e.([]interface{})
		task := &TaskMessage{
			ID:       fields[0].(string),
			Attempts: fields[2].(int64),
		}
		if err := task.unmarshalEnvelope([]byte(fields[1].(string))); err != nil {
			q.log.Warnf("discarding undecodable task %s: %v", task.ID, err)
			_ = q.DeadLetter(ctx, task, "undecodable task: "+err.Error())
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (q *RedisTaskQueue) Delete(ctx context.Context, task *TaskMessage) error {
	ctx, span := tracing.Start(ctx, "taskqueue.redis.delete", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	q.log.Debugf("delete task %s", task.ID)
	_, err := q.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		q.remove(ctx, pipe, task.ID)
		return nil
	})
	return err
}

func (q *RedisTaskQueue) Schedule(ctx context.Context, task *TaskMessage, at time.Time, refund bool) error {
	ctx, span := tracing.Start(ctx, "taskqueue.redis.schedule", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	q.log.Debugf("schedule task %s at %s", task.ID, at.Format(time.RFC3339))
	_, err := q.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.invisibleQueue, task.ID)
		pipe.ZAdd(ctx, q.queue, redis.Z{Score: float64(at.UnixMilli()), Member: task.ID})
		if refund && task.Attempts > 0 {
			pipe.HIncrBy(ctx, q.queueAttempts, task.ID, -1)
		}
		q.notify(ctx, pipe)
		return nil
	})
	if err == nil {
		task.ScheduledAt = at
	}
	return err
}

func (q *RedisTaskQueue) DeadLetter(ctx context.Context, task *TaskMessage, reason string) error {
	ctx, span := tracing.Start(ctx, "taskqueue.redis.dead_letter", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	dead, err := json.Marshal(&DeadTask{
		ID:       task.ID,
		Kind:     task.Kind,
		Data:     task.data,
		Attempts: task.Attempts,
		Reason:   reason,
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	_, err = q.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.deadLetterQueue, task.ID, dead)
		q.remove(ctx, pipe, task.ID)
		return nil
	})
	return err
}

func (q *RedisTaskQueue) ListDeadLetters(ctx context.Context) ([]*DeadTask, error) {
	values, err := q.c.HVals(ctx, q.deadLetterQueue).Result()
	if err != nil {
		return nil, err
	}
	list := make([]*DeadTask, 0, len(values))
	for _, value := range values {
		var task DeadTask
		if err := json.Unmarshal([]byte(value), &task); err != nil {
			return nil, err
		}
		list = append(list, &task)
	}
	return list, nil
}

func (q *RedisTaskQueue) Wait(ctx context.Context, timeout time.Duration) error {
	err := q.c.BLPop(ctx, timeout, q.notifyList).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (q *RedisTaskQueue) Size(ctx context.Context) (int64, error) {
	res, err := q.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZCard(ctx, q.queue)
		pipe.ZCard(ctx, q.invisibleQueue)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return res[0].(*redis.IntCmd).Val() + res[1].(*redis.IntCmd).Val(), nil
}

func (q *RedisTaskQueue) DeadLetterSize(ctx context.Context) (int64, error) {
	return q.c.HLen(ctx, q.deadLetterQueue).Result()
}

// Close stops background maintenance, the redis client is left open
func (q *RedisTaskQueue) Close() {
	q.cancel()
}

func (q *RedisTaskQueue) remove(ctx context.Context, pipe redis.Pipeliner, id string) {
	pipe.HDel(ctx, q.queueData, id)
	pipe.HDel(ctx, q.queueAttempts, id)
	pipe.ZRem(ctx, q.invisibleQueue, id)
	pipe.ZRem(ctx, q.queue, id)
}

func (q *RedisTaskQueue) notify(ctx context.Context, pipe redis.Pipeliner) {
	pipe.LPush(ctx, q.notifyList, 1)
	pipe.LTrim(ctx, q.notifyList, 0, 0)
}

// requeue makes invisible tasks that reach the visibility timeout visible again
func (q *RedisTaskQueue) requeue() {
	keys := []string{q.invisibleQueue, q.queue, q.notifyList}
	res, err := requeueScript.Run(q.ctx, q.c, keys).Result()
	if err != nil {
		if q.ctx.Err() == nil {
			q.log.Errorf("failed to run requeue script: %s", err)
		}
		return
	}
	if ids, ok := res.([]interface{}); ok && len(ids) > 0 {
		q.log.Warnf("requeued tasks whose visibility timeout expired: %v", ids)
	}
}

func (q *RedisTaskQueue) monitoring() {
	size, err := q.Size(q.ctx)
	if err != nil {
		q.log.Errorf("failed to get task queue size: %v", err)
		return
	}
	q.metrics.QueuePendingGauge.Set(float64(size))

	dead, err := q.DeadLetterSize(q.ctx)
	if err != nil {
		q.log.Errorf("failed to get dead-letter queue size: %v", err)
		return
	}
	q.metrics.QueueDeadGauge.Set(float64(dead))
}
