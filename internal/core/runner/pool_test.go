package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statusprobe/internal/core/model"
)

// slowProber 记录并发度的假探测器
type slowProber struct {
	delay    time.Duration
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	calls    atomic.Int64
}

func (p *slowProber) Probe(ctx context.Context, target model.Target, port int) *model.ProbeResult {
	p.calls.Add(1)
	cur := p.inFlight.Add(1)
	for {
		m := p.maxSeen.Load()
		if cur <= m || p.maxSeen.CompareAndSwap(m, cur) {
			break
		}
	}
	time.Sleep(p.delay)
	p.inFlight.Add(-1)
	return &model.ProbeResult{Address: target.Address, Kind: target.Kind, Port: port, StatusCode: 200}
}

type panicProber struct{}

func (panicProber) Probe(context.Context, model.Target, int) *model.ProbeResult {
	panic("boom")
}

func makeTargets(n int) []model.Target {
	targets := make([]model.Target, 0, n)
	for i := 0; i < n; i++ {
		addr := fmt.Sprintf("10.0.%d.%d", i/256, i%256)
		targets = append(targets, model.Target{Address: addr, Kind: model.AddressIPv4, Host: addr})
	}
	return targets
}

func TestWorkerPool_PeakBoundedAndAllDelivered(t *testing.T) {
	const n = 5
	targets := makeTargets(60)
	ports := []int{80, 8080}

	prober := &slowProber{delay: 5 * time.Millisecond}
	pool := NewWorkerPool(PoolConfig{Concurrency: n, Ports: ports})

	results, err := pool.Run(context.Background(), targets, prober)
	require.NoError(t, err)

	// Run 返回时通道已关闭，range 可以直接结束
	seen := make(map[string]int)
	for res := range results {
		seen[fmt.Sprintf("%s:%d", res.Address, res.Port)]++
	}

	assert.Len(t, seen, len(targets)*len(ports))
	for key, count := range seen {
		assert.Equal(t, 1, count, key)
	}

	stats := pool.Stats()
	assert.Equal(t, int64(120), stats.Submitted)
	assert.Equal(t, int64(120), stats.Completed)
	assert.Equal(t, int64(120), stats.Delivered)
	assert.Equal(t, int64(0), stats.Dropped)
	assert.LessOrEqual(t, stats.PeakInFlight, int64(n))
	assert.GreaterOrEqual(t, stats.PeakInFlight, int64(1))
	assert.LessOrEqual(t, prober.maxSeen.Load(), int64(n))
	assert.Equal(t, int64(120), prober.calls.Load())
}

func TestWorkerPool_ResultsAvailableWithoutConcurrentReader(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{Concurrency: 3, Ports: []int{80}})
	results, err := pool.Run(context.Background(), makeTargets(10), &slowProber{})
	require.NoError(t, err)

	assert.Equal(t, 10, len(results))
	count := 0
	for range results {
		count++
	}
	assert.Equal(t, 10, count)
}

func TestWorkerPool_PanicBecomesFailure(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{Concurrency: 2, Ports: []int{80}})
	results, err := pool.Run(context.Background(), makeTargets(3), panicProber{})
	require.NoError(t, err)

	count := 0
	for res := range results {
		count++
		require.NotNil(t, res.Err)
		assert.Equal(t, model.ReasonRequestFailed, res.Err.Reason)
	}
	assert.Equal(t, 3, count)
}

func TestWorkerPool_EmptyTargets(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{Concurrency: 2, Ports: []int{80}})
	results, err := pool.Run(context.Background(), nil, &slowProber{})
	require.NoError(t, err)

	_, open := <-results
	assert.False(t, open)
}

func TestWorkerPool_InvalidConfig(t *testing.T) {
	_, err := NewWorkerPool(PoolConfig{Concurrency: 2}).Run(context.Background(), makeTargets(1), &slowProber{})
	assert.Error(t, err)

	_, err = NewWorkerPool(PoolConfig{Concurrency: 2, Ports: []int{80}}).Run(context.Background(), makeTargets(1), nil)
	assert.Error(t, err)
}

type fakeRunner struct {
	mu    sync.Mutex
	tasks []*model.Task
}

func (r *fakeRunner) Name() model.TaskType { return model.TaskTypeHttpProbe }

func (r *fakeRunner) Run(ctx context.Context, task *model.Task) ([]*model.TaskResult, error) {
	r.mu.Lock()
	r.tasks = append(r.tasks, task)
	r.mu.Unlock()
	return []*model.TaskResult{{TaskID: task.ID, Status: model.TaskStatusCompleted}}, nil
}

func TestRunnerManager(t *testing.T) {
	m := NewRunnerManager()

	_, err := m.Get(model.TaskTypeHttpProbe)
	assert.Error(t, err)

	r := &fakeRunner{}
	m.Register(r)

	task := model.NewTask(model.TaskTypeHttpProbe, "ips-v4.txt")
	results, err := m.Execute(context.Background(), task)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, task.ID, results[0].TaskID)
	assert.Len(t, r.tasks, 1)
}
