package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/tartan/internal/runner"
	"github.com/kode4food/tartan/pkg/api"
)

func TestDelay(t *testing.T) {
	tests := []struct {
		name     string
		cfg      api.WorkConfig
		attempt  int
		expected time.Duration
	}{
		{
			name: "fixed",
			cfg: api.WorkConfig{
				InitBackoff: 100, BackoffType: api.BackoffTypeFixed,
			},
			attempt:  4,
			expected: 100 * time.Millisecond,
		},
		{
			name: "linear",
			cfg: api.WorkConfig{
				InitBackoff: 100, BackoffType: api.BackoffTypeLinear,
			},
			attempt:  2,
			expected: 300 * time.Millisecond,
		},
		{
			name: "exponential",
			cfg: api.WorkConfig{
				InitBackoff: 100, BackoffType: api.BackoffTypeExponential,
			},
			attempt:  3,
			expected: 800 * time.Millisecond,
		},
		{
			name:     "unknown_type_is_exponential",
			cfg:      api.WorkConfig{InitBackoff: 100},
			attempt:  1,
			expected: 200 * time.Millisecond,
		},
		{
			name: "capped",
			cfg: api.WorkConfig{
				InitBackoff: 1000,
				MaxBackoff:  5000,
				BackoffType: api.BackoffTypeExponential,
			},
			attempt:  10,
			expected: 5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, runner.Delay(&tt.cfg, tt.attempt))
		})
	}
}

func TestDelayNonDecreasing(t *testing.T) {
	for _, typ := range []string{
		api.BackoffTypeFixed,
		api.BackoffTypeLinear,
		api.BackoffTypeExponential,
	} {
		cfg := &api.WorkConfig{
			InitBackoff: 250, MaxBackoff: 10000, BackoffType: typ,
		}
		prev := time.Duration(0)
		for attempt := range 20 {
			d := runner.Delay(cfg, attempt)
			assert.GreaterOrEqual(t, d, prev, typ)
			assert.LessOrEqual(t, d, 10*time.Second, typ)
			prev = d
		}
	}
}

func TestResolveWork(t *testing.T) {
	def := api.WorkConfig{
		MaxRetries:  3,
		InitBackoff: 1000,
		MaxBackoff:  60000,
		BackoffType: api.BackoffTypeExponential,
	}

	assert.Equal(t, def, runner.ResolveWork(nil, def))

	res := runner.ResolveWork(&api.WorkConfig{
		MaxRetries:  5,
		BackoffType: api.BackoffTypeFixed,
	}, def)
	assert.Equal(t, 5, res.MaxRetries)
	assert.Equal(t, int64(1000), res.InitBackoff)
	assert.Equal(t, int64(60000), res.MaxBackoff)
	assert.Equal(t, api.BackoffTypeFixed, res.BackoffType)

	res = runner.ResolveWork(&api.WorkConfig{InitBackoff: 90000}, def)
	assert.Equal(t, int64(90000), res.MaxBackoff)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, runner.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, runner.Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, runner.Sleep(ctx, 0), context.Canceled)
}
