package runner

import (
	"context"

	"statusprobe/internal/core/model"
)

// Runner 定义了探测执行器的通用接口
type Runner interface {
	// Name 返回 Runner 的名称 (对应 TaskType)
	Name() model.TaskType

	// Run 执行具体的探测任务
	// ctx: 用于控制超时和取消
	// task: 任务参数
	Run(ctx context.Context, task *model.Task) ([]*model.TaskResult, error)
}

// Prober 单个 (目标, 端口) 的探测能力，必须总是返回一个结果
type Prober interface {
	Probe(ctx context.Context, target model.Target, port int) *model.ProbeResult
}
