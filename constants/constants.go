// Package constants holds the names shared between nodes: redis keys, notification
// subjects and response headers. Changing any of them breaks mixed-version clusters.
package constants

import (
	"time"

	"github.com/eventatlas/eventatlas/config"
)

const keyPrefix = "eventatlas:"

// Job queue keys
const (
	TaskQueueName               = keyPrefix + "queue"
	TaskQueueInvisibleQueueName = keyPrefix + "queue_invisible"
	TaskQueueDataName           = keyPrefix + "queue_data"
	TaskQueueAttemptsName       = keyPrefix + "queue_attempts"
	TaskQueueDeadLetterName     = keyPrefix + "queue_dead"
	TaskQueueNotifyName         = keyPrefix + "queue_notify"

	// TaskQueueVisibilityTimeout must exceed the longest job, otherwise the job is redelivered while still running
	TaskQueueVisibilityTimeout = 65 * time.Second
)

const (
	IndexLockName    = keyPrefix + "lock:index"
	IndexDegradedKey = keyPrefix + "index:degraded"
)

const (
	SubjectEventUpserted = "eventatlas.event.upserted"
	SubjectIndexRebuilt  = "eventatlas.index.rebuilt"
)

// ResponseHeaders are set on every JSON response
var ResponseHeaders = map[string]string{
	"Server": "EventAtlas/" + config.VERSION,
}
