package taskqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eventatlas/eventatlas/utils"
)

type TaskKind string

const (
	TaskKindIngest  TaskKind = "ingest"
	TaskKindReindex TaskKind = "reindex"
)

type TaskMessage struct {
	ID          string
	Kind        TaskKind
	ScheduledAt time.Time
	// Attempts counts deliveries including the current one, set by Get
	Attempts int64

	data []byte
	Data interface{}
}

type envelope struct {
	Kind TaskKind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func NewTaskMessage(kind TaskKind, data interface{}) *TaskMessage {
	return &TaskMessage{
		ID:          utils.KSUID(),
		Kind:        kind,
		ScheduledAt: time.Now(),
		Data:        data,
	}
}

func (t *TaskMessage) String() string {
	return t.ID + ":" + string(t.Kind)
}

func (t *TaskMessage) MarshalData() ([]byte, error) {
	data := t.data
	if data == nil {
		var err error
		if data, err = json.Marshal(t.Data); err != nil {
			return nil, err
		}
	}
	return json.Marshal(envelope{Kind: t.Kind, Data: data})
}

func (t *TaskMessage) unmarshalEnvelope(b []byte) error {
	var e envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return err
	}
	t.Kind = e.Kind
	t.data = e.Data
	return nil
}

// UnmarshalData decodes the payload into v, tasks built locally decode their Data
func (t *TaskMessage) UnmarshalData(v interface{}) error {
	data := t.data
	if data == nil {
		var err error
		if data, err = json.Marshal(t.Data); err != nil {
			return err
		}
	}
	return json.Unmarshal(data, v)
}

// RawData returns the encoded payload
func (t *TaskMessage) RawData() []byte {
	return t.data
}

type GetOptions struct {
	Count int64
}

// DeadTask is a task that exhausted its attempts or was rejected as invalid
type DeadTask struct {
	ID       string          `json:"id"`
	Kind     TaskKind        `json:"kind"`
	Data     json.RawMessage `json:"data"`
	Attempts int64           `json:"attempts"`
	Reason   string          `json:"reason"`
	FailedAt time.Time       `json:"failed_at"`
}

// TaskQueue is an at-least-once delayed queue.
// A task handed out by Get stays invisible until it is deleted, rescheduled,
// dead-lettered, or its visibility timeout expires.
type TaskQueue interface {
	Add(ctx context.Context, tasks []*TaskMessage) error
	Get(ctx context.Context, opts *GetOptions) ([]*TaskMessage, error)
	Delete(ctx context.Context, task *TaskMessage) error
	// Schedule makes the task visible again at the given time.
	// refund returns the current attempt so it is not counted.
	Schedule(ctx context.Context, task *TaskMessage, at time.Time, refund bool) error
	DeadLetter(ctx context.Context, task *TaskMessage, reason string) error
	// Wait blocks until a task may be available or the timeout elapses
	Wait(ctx context.Context, timeout time.Duration) error
	Size(ctx context.Context) (int64, error)
	DeadLetterSize(ctx context.Context) (int64, error)
	ListDeadLetters(ctx context.Context) ([]*DeadTask, error)
}
