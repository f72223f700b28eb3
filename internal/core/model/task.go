/**
 * 任务模型定义 (Core Domain)
 * @date: 2026.10.19
 * @description: 核心任务模型。CLI 的参数最终都转换为 Task 交给 Runner 执行。
 */

package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskType 定义任务类型
type TaskType string

const (
	TaskTypeHttpProbe TaskType = "http_probe" // HTTP 状态码/Server 探测
)

// TaskStatus 定义任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task 核心任务结构体
type Task struct {
	ID        string        `json:"id"`
	Type      TaskType      `json:"type"`
	Target    string        `json:"target"`               // 地址文件路径
	Targets   []string      `json:"targets,omitempty"`    // 命令行直接给出的目标，非空时优先于 Target
	PortRange string        `json:"port_range,omitempty"` // 端口列表 (e.g. "80,8080")，为空时使用配置
	Timeout   time.Duration `json:"timeout"`              // 整个任务的超时，0 表示不限制
	CreatedAt time.Time     `json:"created_at"`
}

// TaskResult 任务执行结果
type TaskResult struct {
	TaskID    string      `json:"task_id"`
	Status    TaskStatus  `json:"status"`
	Result    interface{} `json:"result"` // 具体结果 (强类型结构体)
	Error     string      `json:"error,omitempty"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
}

// NewTask 创建一个新任务
func NewTask(taskType TaskType, target string) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Type:      taskType,
		Target:    target,
		CreatedAt: time.Now(),
	}
}
