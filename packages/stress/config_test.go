package stress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, RateMode, cfg.Mode)
	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.Equal(t, float64(10), cfg.Rate)
	assert.Equal(t, 10, cfg.Workers)
	assert.Zero(t, cfg.Requests)
	assert.NoError(t, cfg.Validate())
}

func TestExecutionModeString(t *testing.T) {
	assert.Equal(t, "rate", RateMode.String())
	assert.Equal(t, "vu", VUMode.String())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name:   "valid rate mode config",
			config: DefaultConfig(),
		},
		{
			name:   "valid VU mode config",
			config: &Config{Mode: VUMode, Duration: 30 * time.Second, Workers: 10},
		},
		{
			name:   "request count without duration",
			config: &Config{Mode: VUMode, Requests: 100, Workers: 4},
		},
		{
			name:    "neither duration nor count",
			config:  &Config{Mode: RateMode, Rate: 10, Workers: 1},
			wantErr: "duration or request count",
		},
		{
			name:    "negative duration",
			config:  &Config{Mode: RateMode, Duration: -time.Second, Requests: 5, Rate: 10, Workers: 1},
			wantErr: "duration cannot be negative",
		},
		{
			name:    "negative request count",
			config:  &Config{Mode: RateMode, Duration: time.Second, Requests: -1, Rate: 10, Workers: 1},
			wantErr: "request count cannot be negative",
		},
		{
			name:    "invalid rate in rate mode",
			config:  &Config{Mode: RateMode, Duration: 30 * time.Second, Workers: 1},
			wantErr: "rate must be positive",
		},
		{
			name:    "no workers",
			config:  &Config{Mode: VUMode, Duration: 30 * time.Second},
			wantErr: "workers must be at least 1",
		},
		{
			name:    "negative ramp-up",
			config:  &Config{Mode: VUMode, Duration: 30 * time.Second, Workers: 1, RampUp: -time.Second},
			wantErr: "rampUp cannot be negative",
		},
		{
			name:    "ramp-up exceeds duration",
			config:  &Config{Mode: VUMode, Duration: 10 * time.Second, Workers: 1, RampUp: 20 * time.Second},
			wantErr: "rampUp cannot exceed duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseThresholds(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Thresholds
		wantErr  bool
	}{
		{
			name:  "p95 threshold",
			input: "p95<200ms",
			expected: Thresholds{
				P95: 200 * time.Millisecond,
			},
		},
		{
			name:  "p99 threshold",
			input: "p99<500ms",
			expected: Thresholds{
				P99: 500 * time.Millisecond,
			},
		},
		{
			name:  "error rate percentage",
			input: "errors<1%",
			expected: Thresholds{
				ErrorRate: 0.01,
			},
		},
		{
			name:  "error rate decimal",
			input: "errors<0.001",
			expected: Thresholds{
				ErrorRate: 0.001,
			},
		},
		{
			name:  "multiple thresholds",
			input: "p95<200ms,errors<0.1%",
			expected: Thresholds{
				P95:       200 * time.Millisecond,
				ErrorRate: 0.001,
			},
		},
		{
			name:  "with spaces",
			input: "p95 < 200ms, errors < 1%",
			expected: Thresholds{
				P95:       200 * time.Millisecond,
				ErrorRate: 0.01,
			},
		},
		{
			name:  "rps threshold",
			input: "rps>50",
			expected: Thresholds{
				MinRPS: 50,
			},
		},
		{
			name:    "invalid format",
			input:   "invalid",
			wantErr: true,
		},
		{
			name:  "latency bounds",
			input: "p50<=10ms,max<1s",
			expected: Thresholds{
				P50:        10 * time.Millisecond,
				MaxLatency: time.Second,
			},
		},
		{
			name:    "latency with wrong operator",
			input:   "p95>200ms",
			wantErr: true,
		},
		{
			name:    "rps with wrong operator",
			input:   "rps<50",
			wantErr: true,
		},
		{
			name:    "bad duration",
			input:   "p99<soon",
			wantErr: true,
		},
		{
			name:    "invalid metric",
			input:   "unknown<100",
			wantErr: true,
		},
		{
			name:     "empty string",
			input:    "",
			expected: Thresholds{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseThresholds(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected.P50, result.P50)
				assert.Equal(t, tt.expected.P95, result.P95)
				assert.Equal(t, tt.expected.P99, result.P99)
				assert.Equal(t, tt.expected.MaxLatency, result.MaxLatency)
				assert.InDelta(t, tt.expected.ErrorRate, result.ErrorRate, 0.0001)
				assert.Equal(t, tt.expected.MinRPS, result.MinRPS)
			}
		})
	}
}

func TestThresholdsHasThresholds(t *testing.T) {
	tests := []struct {
		name       string
		thresholds Thresholds
		expected   bool
	}{
		{
			name:       "empty thresholds",
			thresholds: Thresholds{},
			expected:   false,
		},
		{
			name: "with p95",
			thresholds: Thresholds{
				P95: 200 * time.Millisecond,
			},
			expected: true,
		},
		{
			name: "with error rate",
			thresholds: Thresholds{
				ErrorRate: 0.01,
			},
			expected: true,
		},
		{
			name: "with min RPS",
			thresholds: Thresholds{
				MinRPS: 50,
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.thresholds.HasThresholds())
		})
	}
}
