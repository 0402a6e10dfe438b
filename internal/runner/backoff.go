package runner

import (
	"context"
	"math"
	"time"

	"github.com/kode4food/tartan/pkg/api"
)

type (
	// Sleeper waits for the given delay or until the context is done
	Sleeper func(context.Context, time.Duration) error

	backoffCalculator func(baseDelay int64, retryCount int) int64
)

var backoffCalculators = map[string]backoffCalculator{
	api.BackoffTypeFixed: func(base int64, _ int) int64 {
		return base
	},
	api.BackoffTypeLinear: func(base int64, count int) int64 {
		return base * int64(count+1)
	},
	api.BackoffTypeExponential: func(base int64, count int) int64 {
		multiplier := math.Pow(2, float64(count))
		return int64(float64(base) * multiplier)
	},
}

// Delay returns how long to wait after the given zero-based failed
// attempt. The delay never exceeds the configured maximum
func Delay(cfg *api.WorkConfig, attempt int) time.Duration {
	calculator, ok := backoffCalculators[cfg.BackoffType]
	if !ok {
		calculator = backoffCalculators[api.BackoffTypeExponential]
	}

	delay := calculator(cfg.InitBackoff, attempt)
	if cfg.MaxBackoff > 0 && (delay > cfg.MaxBackoff || delay < 0) {
		delay = cfg.MaxBackoff
	}
	return time.Duration(delay) * time.Millisecond
}

// Sleep is the default Sleeper
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ResolveWork fills the zero-valued fields of a node's retry override from
// the engine defaults
func ResolveWork(override *api.WorkConfig, def api.WorkConfig) api.WorkConfig {
	if override == nil {
		return def
	}
	res := *override
	if res.MaxRetries == 0 {
		res.MaxRetries = def.MaxRetries
	}
	if res.InitBackoff == 0 {
		res.InitBackoff = def.InitBackoff
	}
	if res.MaxBackoff == 0 {
		res.MaxBackoff = max(def.MaxBackoff, res.InitBackoff)
	}
	if res.BackoffType == "" {
		res.BackoffType = def.BackoffType
	}
	return res
}
