package qos

import (
	"context"
	"sync/atomic"
)

// Semaphore 固定容量的计数信号量
// 令牌通过带缓冲的 channel 发放，同时记录当前与峰值在途数量，便于校验并发上限
type Semaphore struct {
	sem      chan struct{}
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewSemaphore 创建容量为 n 的信号量，n < 1 时按 1 处理
func NewSemaphore(n int) *Semaphore {
	if n < 1 {
		n = 1
	}
	s := &Semaphore{sem: make(chan struct{}, n)}
	for i := 0; i < n; i++ {
		s.sem <- struct{}{}
	}
	return s
}

// Acquire 获取一个令牌
// 没有令牌可用时阻塞，直到有令牌释放或 context 取消
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case <-s.sem:
	case <-ctx.Done():
		return ctx.Err()
	}

	cur := s.inFlight.Add(1)
	for {
		p := s.peak.Load()
		if cur <= p || s.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	return nil
}

// Release 归还一个令牌
func (s *Semaphore) Release() {
	s.inFlight.Add(-1)
	select {
	case s.sem <- struct{}{}:
	default:
		// Release 次数多于 Acquire，忽略
	}
}

// Capacity 令牌总数
func (s *Semaphore) Capacity() int {
	return cap(s.sem)
}

// InFlight 当前持有令牌的数量
func (s *Semaphore) InFlight() int64 {
	return s.inFlight.Load()
}

// Peak 运行以来的最大在途数量
func (s *Semaphore) Peak() int64 {
	return s.peak.Load()
}
