package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"statusprobe/internal/core/lib/network/qos"
	"statusprobe/internal/core/model"
	"statusprobe/internal/pkg/logger"
)

// PoolConfig 工作池参数
type PoolConfig struct {
	Concurrency int   // 同时在途的探测上限 N
	Ports       []int // 每个目标都会与每个端口组合一次
}

// PoolStats 一次 Run 的计数
type PoolStats struct {
	Submitted    int64 // 提交的 (目标, 端口) 任务数
	Completed    int64 // 执行结束的任务数
	Delivered    int64 // 成功写入结果通道的数量
	Dropped      int64 // 投递失败被丢弃的数量
	PeakInFlight int64 // 最大同时在途探测数
}

type probeJob struct {
	target model.Target
	port   int
}

// WorkerPool 固定并发的探测工作池
// 每个 (目标, 端口) 产生且只产生一个结果；Run 返回时所有任务均已结束，结果通道已关闭
type WorkerPool struct {
	cfg PoolConfig

	submitted atomic.Int64
	completed atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
	peak      atomic.Int64
}

// NewWorkerPool 创建工作池
func NewWorkerPool(cfg PoolConfig) *WorkerPool {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &WorkerPool{cfg: cfg}
}

// Run 执行所有探测
// 结果通道容量为 目标数 x 端口数，生产者永不阻塞
// 返回前会等待全部任务结束 (WaitGroup 屏障) 并关闭通道，调用方可直接 range 读取
func (p *WorkerPool) Run(ctx context.Context, targets []model.Target, prober Prober) (<-chan *model.ProbeResult, error) {
	if prober == nil {
		return nil, fmt.Errorf("worker pool: prober is nil")
	}
	if len(p.cfg.Ports) == 0 {
		return nil, fmt.Errorf("worker pool: no ports configured")
	}

	p.reset()
	total := len(targets) * len(p.cfg.Ports)
	results := make(chan *model.ProbeResult, total)

	// 并发上限由 ants 的 N 个 worker 保证，同容量的信号量只负责在途计数与峰值
	sem := qos.NewSemaphore(p.cfg.Concurrency)
	var wg sync.WaitGroup

	pool, err := ants.NewPoolWithFunc(p.cfg.Concurrency, func(item interface{}) {
		job := item.(probeJob)
		defer wg.Done()
		defer p.completed.Add(1)

		res := p.execute(ctx, sem, prober, job)

		// 非阻塞投递，通道容量足够时不会失败
		select {
		case results <- res:
			p.delivered.Add(1)
		default:
			p.dropped.Add(1)
			logger.Warnf("[WorkerPool] Failed to deliver result for %s:%d, result channel full", job.target.Address, job.port)
		}
	}, ants.WithPanicHandler(func(v interface{}) {
		logger.Errorf("[WorkerPool] Worker panic: %v", v)
	}))
	if err != nil {
		close(results)
		return results, fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	for _, target := range targets {
		for _, port := range p.cfg.Ports {
			wg.Add(1)
			p.submitted.Add(1)
			if err := pool.Invoke(probeJob{target: target, port: port}); err != nil {
				wg.Done()
				p.dropped.Add(1)
				logger.Warnf("[WorkerPool] Failed to submit %s:%d: %v", target.Address, port, err)
			}
		}
	}

	wg.Wait()
	p.peak.Store(sem.Peak())
	close(results)

	logger.Debugf("[WorkerPool] Finished: submitted=%d delivered=%d dropped=%d peak=%d",
		p.submitted.Load(), p.delivered.Load(), p.dropped.Load(), p.peak.Load())
	return results, nil
}

// execute 占用一个令牌执行探测，探测结束立即归还令牌，结果投递不占用令牌
// 探测发生 panic 时转换为失败结果，保证每个任务都有结果
func (p *WorkerPool) execute(ctx context.Context, sem *qos.Semaphore, prober Prober, job probeJob) (res *model.ProbeResult) {
	if err := sem.Acquire(ctx); err != nil {
		return failedResult(job, err)
	}
	defer sem.Release()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[WorkerPool] Probe %s:%d panicked: %v", job.target.Address, job.port, r)
			res = failedResult(job, fmt.Errorf("probe panic: %v", r))
		}
	}()

	res = prober.Probe(ctx, job.target, job.port)
	if res == nil {
		res = failedResult(job, fmt.Errorf("prober returned no result"))
	}
	return res
}

func failedResult(job probeJob, err error) *model.ProbeResult {
	return &model.ProbeResult{
		Address: job.target.Address,
		Kind:    job.target.Kind,
		Port:    job.port,
		Err:     &model.ProbeError{Reason: model.ReasonRequestFailed, Err: err},
	}
}

func (p *WorkerPool) reset() {
	p.submitted.Store(0)
	p.completed.Store(0)
	p.delivered.Store(0)
	p.dropped.Store(0)
	p.peak.Store(0)
}

// Stats 最近一次 Run 的计数
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Submitted:    p.submitted.Load(),
		Completed:    p.completed.Load(),
		Delivered:    p.delivered.Load(),
		Dropped:      p.dropped.Load(),
		PeakInFlight: p.peak.Load(),
	}
}
