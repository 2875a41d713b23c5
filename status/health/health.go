package health

import (
	"context"
	"sync"
	"time"
)

type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Indicator checks one dependency, a nil error means the dependency is usable
type Indicator struct {
	Name  string
	Check func(ctx context.Context) error
}

type Result struct {
	Status  Status  `json:"status"`
	Latency int64   `json:"latency_ms"`
	Error   *string `json:"error,omitempty"`
}

func (i *Indicator) run(ctx context.Context, timeout time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := i.Check(ctx)
	result := Result{Status: StatusUp, Latency: time.Since(start).Milliseconds()}
	if err != nil {
		msg := err.Error()
		result.Status = StatusDown
		result.Error = &msg
	}
	return result
}

// Run checks all indicators concurrently, each bounded by timeout.
// The overall status is DOWN when any indicator is down.
func Run(ctx context.Context, indicators []*Indicator, timeout time.Duration) (Status, map[string]Result) {
	results := make([]Result, len(indicators))
	var wg sync.WaitGroup
	for i, indicator := range indicators {
		i, indicator := i, indicator
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = indicator.run(ctx, timeout)
		}()
	}
	wg.Wait()

	status := StatusUp
	components := make(map[string]Result, len(indicators))
	for i, indicator := range indicators {
		components[indicator.Name] = results[i]
		if results[i].Status != StatusUp {
			status = StatusDown
		}
	}
	return status, components
}
