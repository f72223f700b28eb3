package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"statusprobe/internal/core/model"
	"statusprobe/internal/pkg/logger"
)

// RunnerManager 管理所有的 Runner
type RunnerManager struct {
	runners map[model.TaskType]Runner
	mu      sync.RWMutex
}

// NewRunnerManager 创建空的 Runner 注册表
func NewRunnerManager() *RunnerManager {
	return &RunnerManager{
		runners: make(map[model.TaskType]Runner),
	}
}

// Register 注册一个 Runner
func (m *RunnerManager) Register(runner Runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runners[runner.Name()] = runner
}

// Get 获取指定类型的 Runner
func (m *RunnerManager) Get(taskType model.TaskType) (Runner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if runner, ok := m.runners[taskType]; ok {
		return runner, nil
	}
	return nil, fmt.Errorf("no runner found for task type: %s", taskType)
}

// Execute 按任务类型分发给已注册的 Runner
func (m *RunnerManager) Execute(ctx context.Context, task *model.Task) ([]*model.TaskResult, error) {
	if task == nil {
		return nil, fmt.Errorf("nil task")
	}
	runner, err := m.Get(task.Type)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := runner.Run(ctx, task)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"type":     logger.ScanLog,
			"task_id":  task.ID,
			"runner":   task.Type,
			"duration": time.Since(start).Milliseconds(),
		}).Warnf("Runner failed: %v", err)
		return nil, err
	}
	return results, nil
}
