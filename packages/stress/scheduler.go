package stress

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler picks targets and paces requests for a stress test
type Scheduler struct {
	config  *Config
	limiter *rate.Limiter

	mu          sync.Mutex
	targets     []*Target
	weights     []int
	totalWeight int
}

// NewScheduler creates a new scheduler with the given config
func NewScheduler(config *Config) *Scheduler {
	s := &Scheduler{
		config: config,
	}

	// Initialize rate limiter for rate mode
	if config.Mode == RateMode && config.Rate > 0 {
		initial := config.Rate
		if config.RampUp > 0 {
			initial = config.Rate / 10
		}
		s.limiter = rate.NewLimiter(rate.Limit(initial), 1)
	}

	return s
}

// AddTarget registers a target. Weights below 1 count as 1.
func (s *Scheduler) AddTarget(t Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	weight := t.Weight
	if weight < 1 {
		weight = 1
	}
	s.targets = append(s.targets, &t)
	s.weights = append(s.weights, weight)
	s.totalWeight += weight
}

// SelectTarget picks a target at random, proportionally to its weight
func (s *Scheduler) SelectTarget() *Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.targets) == 0 {
		return nil
	}

	if len(s.targets) == 1 {
		return s.targets[0]
	}

	r := rand.Intn(s.totalWeight)
	cumulative := 0
	for i, w := range s.weights {
		cumulative += w
		if r < cumulative {
			return s.targets[i]
		}
	}

	return s.targets[len(s.targets)-1]
}

// Wait waits for rate limiter (rate mode) or returns immediately (VU mode)
func (s *Scheduler) Wait(ctx context.Context) error {
	if s.limiter != nil {
		return s.limiter.Wait(ctx)
	}
	return ctx.Err()
}

// GetCurrentRate returns the current target rate based on ramp-up
func (s *Scheduler) GetCurrentRate(elapsed time.Duration) float64 {
	if s.config.RampUp <= 0 || elapsed >= s.config.RampUp {
		return s.config.Rate
	}

	// Linear ramp-up
	progress := float64(elapsed) / float64(s.config.RampUp)
	return s.config.Rate * progress
}

// GetCurrentWorkers returns the current target worker count based on ramp-up. It is at least 1.
func (s *Scheduler) GetCurrentWorkers(elapsed time.Duration) int {
	if s.config.RampUp <= 0 || elapsed >= s.config.RampUp {
		return s.config.Workers
	}

	// Linear ramp-up
	progress := float64(elapsed) / float64(s.config.RampUp)
	n := int(float64(s.config.Workers) * progress)
	if n < 1 {
		n = 1
	}
	return n
}

// UpdateRate updates the rate limiter's rate
func (s *Scheduler) UpdateRate(newRate float64) {
	if s.limiter != nil && newRate > 0 {
		s.limiter.SetLimit(rate.Limit(newRate))
	}
}

// Limit returns the current rate limit, or 0 without a limiter
func (s *Scheduler) Limit() float64 {
	if s.limiter == nil {
		return 0
	}
	return float64(s.limiter.Limit())
}

// TargetCount returns the number of registered targets
func (s *Scheduler) TargetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

// Targets returns all registered targets
func (s *Scheduler) Targets() []*Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*Target, len(s.targets))
	copy(result, s.targets)
	return result
}
