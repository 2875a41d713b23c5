package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/pkg/metrics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const prefix = "eventatlas:test-queue"

var _ = Describe("RedisTaskQueue", Ordered, func() {

	var client *redis.Client
	var queue *RedisTaskQueue
	ctx := context.TODO()

	BeforeAll(func() {
		client = redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
		if err := client.Ping(ctx).Err(); err != nil {
			Skip("redis is unavailable: " + err.Error())
		}
		m, err := metrics.New(modules.MetricsConfig{})
		Expect(err).To(BeNil())

		queue = NewRedisQueue(RedisTaskQueueOptions{
			QueueName:          prefix,
			InvisibleQueueName: prefix + "_invisible",
			QueueDataName:      prefix + "_data",
			AttemptsName:       prefix + "_attempts",
			DeadLetterName:     prefix + "_dead",
			NotifyName:         prefix + "_notify",
			VisibilityTimeout:  time.Second * 2,
			RequeueInterval:    time.Millisecond * 200,
			Client:             client,
		}, zap.S(), m)
	})

	BeforeEach(func() {
		for _, suffix := range []string{"", "_invisible", "_data", "_attempts", "_dead", "_notify"} {
			client.Del(ctx, prefix+suffix)
		}
	})

	AfterAll(func() {
		if queue != nil {
			queue.Close()
		}
	})

	It("delivers tasks in schedule order", func() {
		messages := []*TaskMessage{
			NewTaskMessage(TaskKindIngest, "data-one"),
			NewTaskMessage(TaskKindIngest, "data-two"),
			NewTaskMessage(TaskKindReindex, []string{"h1"}),
		}
		for i, msg := range messages {
			msg.ScheduledAt = time.Now().Add(-time.Duration(len(messages)-i) * time.Second)
		}
		assert.NoError(GinkgoT(), queue.Add(ctx, messages))

		size, err := queue.Size(ctx)
		assert.NoError(GinkgoT(), err)
		assert.EqualValues(GinkgoT(), 3, size)

		tasks, err := queue.Get(ctx, &GetOptions{Count: 1})
		assert.NoError(GinkgoT(), err)
		assert.Len(GinkgoT(), tasks, 1)
		assert.Equal(GinkgoT(), messages[0].ID, tasks[0].ID)
		assert.Equal(GinkgoT(), TaskKindIngest, tasks[0].Kind)
		assert.EqualValues(GinkgoT(), 1, tasks[0].Attempts)
		var data string
		assert.NoError(GinkgoT(), tasks[0].UnmarshalData(&data))
		assert.Equal(GinkgoT(), "data-one", data)
		assert.NoError(GinkgoT(), queue.Delete(ctx, tasks[0]))

		tasks, err = queue.Get(ctx, &GetOptions{Count: 10})
		assert.NoError(GinkgoT(), err)
		assert.Len(GinkgoT(), tasks, 2)
		assert.Equal(GinkgoT(), TaskKindReindex, tasks[1].Kind)
		var hashes []string
		assert.NoError(GinkgoT(), tasks[1].UnmarshalData(&hashes))
		assert.Equal(GinkgoT(), []string{"h1"}, hashes)
		for _, task := range tasks {
			assert.NoError(GinkgoT(), queue.Delete(ctx, task))
		}

		size, err = queue.Size(ctx)
		assert.NoError(GinkgoT(), err)
		assert.EqualValues(GinkgoT(), 0, size)
	})

	It("does not deliver tasks scheduled in the future", func() {
		msg := NewTaskMessage(TaskKindIngest, "later")
		msg.ScheduledAt = time.Now().Add(time.Hour)
		assert.NoError(GinkgoT(), queue.Add(ctx, []*TaskMessage{msg}))

		tasks, err := queue.Get(ctx, &GetOptions{Count: 10})
		assert.NoError(GinkgoT(), err)
		assert.Len(GinkgoT(), tasks, 0)
	})

	It("redelivers a task whose visibility timeout expired", func() {
		msg := NewTaskMessage(TaskKindIngest, "crash")
		assert.NoError(GinkgoT(), queue.Add(ctx, []*TaskMessage{msg}))

		tasks, err := queue.Get(ctx, &GetOptions{Count: 1})
		assert.NoError(GinkgoT(), err)
		assert.Len(GinkgoT(), tasks, 1)

		Eventually(func() []*TaskMessage {
			tasks, _ := queue.Get(ctx, &GetOptions{Count: 1})
			return tasks
		}, time.Second*5, time.Millisecond*200).Should(HaveLen(1))

		attempts, err := client.HGet(ctx, prefix+"_attempts", msg.ID).Int64()
		assert.NoError(GinkgoT(), err)
		assert.EqualValues(GinkgoT(), 2, attempts)
	})

	It("refunds the attempt when rescheduled with refund", func() {
		msg := NewTaskMessage(TaskKindReindex, []string{"h1"})
		assert.NoError(GinkgoT(), queue.Add(ctx, []*TaskMessage{msg}))

		tasks, err := queue.Get(ctx, &GetOptions{Count: 1})
		assert.NoError(GinkgoT(), err)
		assert.NoError(GinkgoT(), queue.Schedule(ctx, tasks[0], time.Now(), true))

		tasks, err = queue.Get(ctx, &GetOptions{Count: 1})
		assert.NoError(GinkgoT(), err)
		assert.Len(GinkgoT(), tasks, 1)
		assert.EqualValues(GinkgoT(), 1, tasks[0].Attempts)

		assert.NoError(GinkgoT(), queue.Schedule(ctx, tasks[0], time.Now(), false))
		tasks, err = queue.Get(ctx, &GetOptions{Count: 1})
		assert.NoError(GinkgoT(), err)
		assert.EqualValues(GinkgoT(), 2, tasks[0].Attempts)
	})

	It("moves a task to the dead-letter queue", func() {
		msg := NewTaskMessage(TaskKindIngest, map[string]string{"name": "x"})
		assert.NoError(GinkgoT(), queue.Add(ctx, []*TaskMessage{msg}))
		tasks, err := queue.Get(ctx, &GetOptions{Count: 1})
		assert.NoError(GinkgoT(), err)

		assert.NoError(GinkgoT(), queue.DeadLetter(ctx, tasks[0], "invalid payload"))

		size, err := queue.Size(ctx)
		assert.NoError(GinkgoT(), err)
		assert.EqualValues(GinkgoT(), 0, size)
		dead, err := queue.DeadLetterSize(ctx)
		assert.NoError(GinkgoT(), err)
		assert.EqualValues(GinkgoT(), 1, dead)

		list, err := queue.ListDeadLetters(ctx)
		assert.NoError(GinkgoT(), err)
		assert.Len(GinkgoT(), list, 1)
		assert.Equal(GinkgoT(), msg.ID, list[0].ID)
		assert.Equal(GinkgoT(), "invalid payload", list[0].Reason)
		assert.JSONEq(GinkgoT(), `{"name":"x"}`, string(list[0].Data))
	})

	It("wakes a waiting consumer on add", func() {
		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			assert.NoError(GinkgoT(), queue.Wait(ctx, time.Second*5))
			close(done)
		}()
		time.Sleep(time.Millisecond * 100)
		assert.NoError(GinkgoT(), queue.Add(ctx, []*TaskMessage{NewTaskMessage(TaskKindIngest, "wake")}))
		Eventually(done, time.Second*2).Should(BeClosed())
	})
})

func TestTaskMessage(t *testing.T) {
	msg := NewTaskMessage(TaskKindReindex, []string{"a", "b"})
	assert.NotEmpty(t, msg.ID)
	b, err := msg.MarshalData()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"kind":"reindex","data":["a","b"]}`, string(b))

	decoded := &TaskMessage{ID: msg.ID}
	assert.NoError(t, decoded.unmarshalEnvelope(b))
	assert.Equal(t, TaskKindReindex, decoded.Kind)
	var hashes []string
	assert.NoError(t, decoded.UnmarshalData(&hashes))
	assert.Equal(t, []string{"a", "b"}, hashes)
	assert.Equal(t, msg.ID+":reindex", msg.String())
}

func TestRedisTaskQueue(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "TaskQueue Suite")
}
