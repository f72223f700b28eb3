// 探测相关的结构化日志
package logger

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// LogType 日志类型
type LogType string

const (
	// SystemLog 系统日志 - 配置、文件、位置库等运行状态
	SystemLog LogType = "system"
	// ProbeLog 探测日志 - 单次 HTTP 探测尝试
	ProbeLog LogType = "probe"
	// ScanLog 扫描日志 - 整个探测任务的执行情况
	ScanLog LogType = "scan"
)

// ProbeAttemptEntry 单次探测尝试的日志条目
type ProbeAttemptEntry struct {
	Endpoint   string        // address 或 address:port
	Attempt    int           // 第几次尝试 (从 1 开始)
	Remaining  int           // 剩余尝试次数
	StatusCode int           // 成功时的状态码
	Elapsed    time.Duration // 本次尝试耗时
	ServerEnv  string        // Server 头首个 token
	Err        error         // 失败原因
	Timeout    bool          // 是否单次超时
}

// LogProbeAttempt 记录一次探测尝试
// 统一记为 Debug，重试耗尽由调用方另行记录
func LogProbeAttempt(e ProbeAttemptEntry) {
	if LoggerInstance == nil {
		return
	}

	fields := logrus.Fields{
		"type":       ProbeLog,
		"endpoint":   e.Endpoint,
		"attempt":    e.Attempt,
		"remaining":  e.Remaining,
		"elapsed_ms": e.Elapsed.Milliseconds(),
	}

	if e.Err == nil {
		fields["status_code"] = e.StatusCode
		fields["server_env"] = e.ServerEnv
		LoggerInstance.logger.WithFields(fields).Debug("Probe attempt succeeded")
		return
	}

	fields["error"] = e.Err.Error()
	fields["timeout"] = e.Timeout
	LoggerInstance.logger.WithFields(fields).Debug("Probe attempt failed")
}

// LogScanOperation 记录探测任务的状态变化
func LogScanOperation(taskID, target, status string, duration time.Duration, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	fields := logrus.Fields{
		"type":     ScanLog,
		"task_id":  taskID,
		"target":   target,
		"status":   status,
		"duration": duration.Milliseconds(),
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	// 根据状态选择日志级别
	switch status {
	case "completed":
		LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("Probe task completed: %s", target))
	case "failed":
		LoggerInstance.logger.WithFields(fields).Error(fmt.Sprintf("Probe task failed: %s", target))
	default:
		LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("Probe task %s: %s", status, target))
	}
}
