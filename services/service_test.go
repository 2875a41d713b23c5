package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recorder struct {
	calls []string
}

type fakeService struct {
	name     string
	startErr error
	stopErr  error
	rec      *recorder
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start() error {
	s.rec.calls = append(s.rec.calls, "start "+s.name)
	return s.startErr
}

func (s *fakeService) Stop(ctx context.Context) error {
	s.rec.calls = append(s.rec.calls, "stop "+s.name)
	return s.stopErr
}

func TestStartAllStopAll(t *testing.T) {
	rec := &recorder{}
	svcs := []Service{
		&fakeService{name: "schedule", rec: rec},
		&fakeService{name: "api", rec: rec, stopErr: errors.New("boom")},
		&fakeService{name: "status", rec: rec},
	}

	assert.NoError(t, StartAll(context.Background(), svcs))
	StopAll(context.Background(), svcs, zap.NewNop().Sugar())

	assert.Equal(t, []string{
		"start schedule", "start api", "start status",
		"stop status", "stop api", "stop schedule",
	}, rec.calls)
}

func TestStartAllRollsBack(t *testing.T) {
	rec := &recorder{}
	svcs := []Service{
		&fakeService{name: "schedule", rec: rec},
		&fakeService{name: "api", rec: rec, startErr: errors.New("address already in use")},
		&fakeService{name: "status", rec: rec},
	}

	err := StartAll(context.Background(), svcs)
	assert.EqualError(t, err, "failed to start api: address already in use")
	assert.Equal(t, []string{"start schedule", "start api", "stop schedule"}, rec.calls)
}
