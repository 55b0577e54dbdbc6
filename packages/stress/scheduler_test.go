package stress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerAddTarget(t *testing.T) {
	s := NewScheduler(DefaultConfig())

	s.AddTarget(Target{Name: "a", Path: "/", Weight: 1})
	s.AddTarget(Target{Name: "b", Path: "/", Weight: 2})
	s.AddTarget(Target{Name: "c", Path: "/"}) // default weight

	assert.Equal(t, 3, s.TargetCount())
}

func TestSchedulerSelectTarget(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	s.AddTarget(GetTarget("/only", nil))

	for i := 0; i < 10; i++ {
		target := s.SelectTarget()
		require.NotNil(t, target)
		assert.Equal(t, "/only", target.Path)
	}
}

func TestSchedulerSelectTargetWeighted(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	s.AddTarget(Target{Name: "heavy", Weight: 90})
	s.AddTarget(Target{Name: "light", Weight: 10})

	counts := make(map[string]int)
	iterations := 10000

	for i := 0; i < iterations; i++ {
		target := s.SelectTarget()
		require.NotNil(t, target)
		counts[target.Name]++
	}

	assert.InDelta(t, 0.9, float64(counts["heavy"])/float64(iterations), 0.05)
	assert.InDelta(t, 0.1, float64(counts["light"])/float64(iterations), 0.05)
}

func TestSchedulerSelectTargetEmpty(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	assert.Nil(t, s.SelectTarget())
}

func TestSchedulerWaitRateMode(t *testing.T) {
	s := NewScheduler(&Config{Mode: RateMode, Rate: 100})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, s.Wait(ctx))
	assert.Less(t, time.Since(start), 5*time.Millisecond)

	start = time.Now()
	require.NoError(t, s.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestSchedulerWaitCancelled(t *testing.T) {
	s := NewScheduler(&Config{Mode: RateMode, Rate: 1})

	ctx, cancel := context.WithCancel(context.Background())
	_ = s.Wait(ctx)
	cancel()

	assert.Error(t, s.Wait(ctx))
}

func TestSchedulerWaitVUMode(t *testing.T) {
	s := NewScheduler(&Config{Mode: VUMode, Workers: 2})
	assert.Zero(t, s.Limit())

	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, s.Wait(ctx))
	cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.Canceled)
}

func TestSchedulerGetCurrentRate(t *testing.T) {
	s := NewScheduler(&Config{Rate: 100, RampUp: 10 * time.Second})

	assert.InDelta(t, 0, s.GetCurrentRate(0), 0.1)
	assert.InDelta(t, 50, s.GetCurrentRate(5*time.Second), 1)
	assert.InDelta(t, 100, s.GetCurrentRate(10*time.Second), 0.1)
	assert.InDelta(t, 100, s.GetCurrentRate(15*time.Second), 0.1)
}

func TestSchedulerGetCurrentWorkers(t *testing.T) {
	s := NewScheduler(&Config{Mode: VUMode, Workers: 10, RampUp: 10 * time.Second})

	assert.Equal(t, 1, s.GetCurrentWorkers(0))
	assert.Equal(t, 5, s.GetCurrentWorkers(5*time.Second))
	assert.Equal(t, 10, s.GetCurrentWorkers(10*time.Second))

	flat := NewScheduler(&Config{Mode: VUMode, Workers: 4})
	assert.Equal(t, 4, flat.GetCurrentWorkers(0))
}

func TestSchedulerRampUpStartsLow(t *testing.T) {
	s := NewScheduler(&Config{Mode: RateMode, Rate: 100, RampUp: time.Second})
	assert.InDelta(t, 10, s.Limit(), 0.001)

	s.UpdateRate(100)
	assert.InDelta(t, 100, s.Limit(), 0.001)

	s.UpdateRate(0)
	assert.InDelta(t, 100, s.Limit(), 0.001)
}

func TestSchedulerTargets(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	s.AddTarget(Target{Name: "a"})
	s.AddTarget(Target{Name: "b"})

	targets := s.Targets()
	require.Len(t, targets, 2)
	assert.Equal(t, "a", targets[0].Name)
	assert.Equal(t, "b", targets[1].Name)

	targets[0] = nil
	assert.NotNil(t, s.Targets()[0])
}
