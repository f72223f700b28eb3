package httpprobe

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// budgetBackOff 总预算用尽后返回 backoff.Stop
// 只在两次尝试之间检查，不会打断进行中的请求
type budgetBackOff struct {
	delegate backoff.BackOff
	start    time.Time
	budget   time.Duration
	now      func() time.Time
}

func (b *budgetBackOff) NextBackOff() time.Duration {
	if b.budget > 0 && b.now().Sub(b.start) >= b.budget {
		return backoff.Stop
	}
	return b.delegate.NextBackOff()
}

func (b *budgetBackOff) Reset() {
	b.delegate.Reset()
}

// newRetryPolicy 立即重试，最多 MaxAttempts 次，且受总预算约束
func newRetryPolicy(cfg ProberConfig, start time.Time) backoff.BackOff {
	var inner backoff.BackOff
	if cfg.MaxAttempts <= 1 {
		// WithMaxRetries(b, 0) 表示不限次数，这里必须显式停止
		inner = &backoff.StopBackOff{}
	} else {
		inner = backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(cfg.MaxAttempts-1))
	}
	return &budgetBackOff{
		delegate: inner,
		start:    start,
		budget:   cfg.TotalTimeout,
		now:      time.Now,
	}
}
