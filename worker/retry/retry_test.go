package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	p := Policy{Initial: time.Second, Max: 5 * time.Minute, Multiplier: 2}
	for attempts, want := range map[int]time.Duration{
		0:    time.Second,
		1:    time.Second,
		2:    2 * time.Second,
		3:    4 * time.Second,
		100:  5 * time.Minute,
		5000: 5 * time.Minute,
	} {
		delay, ok := p.Next(attempts)
		assert.True(t, ok)
		assert.Equal(t, want, delay, "attempts %d", attempts)
	}
}

func TestMaxAttempts(t *testing.T) {
	p := Policy{Initial: time.Second, Max: 10 * time.Second, Multiplier: 3, MaxAttempts: 4}

	delay, ok := p.Next(3)
	assert.True(t, ok)
	assert.Equal(t, 9*time.Second, delay)

	_, ok = p.Next(4)
	assert.False(t, ok)
	_, ok = p.Next(5)
	assert.False(t, ok)
}

func TestConstantDelay(t *testing.T) {
	p := Policy{Initial: time.Second, Max: 5 * time.Second, Multiplier: 1}
	delay, ok := p.Next(50)
	assert.True(t, ok)
	assert.Equal(t, time.Second, delay)
}

func TestJitter(t *testing.T) {
	p := Policy{Initial: 10 * time.Second, Max: time.Minute, Multiplier: 2, Jitter: 0.5}

	p.random = func() float64 { return 1 }
	delay, _ := p.Next(1)
	assert.Equal(t, 5*time.Second, delay)

	p.random = func() float64 { return 0 }
	delay, _ = p.Next(1)
	assert.Equal(t, 10*time.Second, delay)

	p.random = nil
	for i := 0; i < 100; i++ {
		delay, _ = p.Next(2)
		assert.GreaterOrEqual(t, delay, 10*time.Second)
		assert.LessOrEqual(t, delay, 20*time.Second)
	}
}
