package notify

import "context"

// EventUpserted is published after an event is persisted
type EventUpserted struct {
	Hash    string `json:"hash"`
	Source  string `json:"source"`
	Created bool   `json:"created"`
}

// IndexRebuilt is published after a successful full rebuild
type IndexRebuilt struct {
	Collection string `json:"collection"`
	Documents  int64  `json:"documents"`
	DurationMs int64  `json:"duration_ms"`
}

// Publisher emits change notifications, delivery is best effort
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}

// NoopPublisher drops every notification
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, event any) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
