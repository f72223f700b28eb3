package httpprobe

import (
	"fmt"
	"sync"

	"github.com/pterm/pterm"

	"statusprobe/internal/core/model"
	"statusprobe/internal/pkg/utils"
)

// ProgressPrinter 逐次尝试的进度输出
type ProgressPrinter interface {
	Println(line string)
}

// ConsolePrinter 通过 pterm 输出到终端，多个 worker 并发写入时按行加锁
type ConsolePrinter struct {
	mu sync.Mutex
}

func (p *ConsolePrinter) Println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pterm.Println(line)
}

// DiscardPrinter 丢弃所有进度行 (probe.quiet)
type DiscardPrinter struct{}

func (DiscardPrinter) Println(string) {}

// NewProgressPrinter 按 quiet 选择输出方式
func NewProgressPrinter(quiet bool) ProgressPrinter {
	if quiet {
		return DiscardPrinter{}
	}
	return &ConsolePrinter{}
}

// FormatSuccessLine 成功进度行
// 2026/10/19 12:00:00 1.2.3.4:80 -> Request successful, HTTP status code: 403, Response time: 87ms, Server: cloudflare
func FormatSuccessLine(ts, endpoint string, a model.ProbeAttempt, serverEnv string) string {
	return fmt.Sprintf("%s %s -> Request successful, HTTP status code: %d, Response time: %dms, Server: %s",
		ts, endpoint, a.StatusCode, a.Elapsed.Milliseconds(), serverEnv)
}

// FormatFailureLine 失败进度行
// 2026/10/19 12:00:05 1.2.3.4:80 -> Request timeout, Requests remaining: 2
func FormatFailureLine(ts, endpoint string, timeout bool, remaining int) string {
	kind := "failed"
	if timeout {
		kind = "timeout"
	}
	return fmt.Sprintf("%s %s -> Request %s, Requests remaining: %d", ts, endpoint, kind, remaining)
}

// FormatShapeErrorLine 响应头结构异常，不再重试
// 2026/10/19 12:00:00 1.2.3.4:80 -> Unexpected response headers, Requests remaining: 0
func FormatShapeErrorLine(ts, endpoint string) string {
	return fmt.Sprintf("%s %s -> Unexpected response headers, Requests remaining: 0", ts, endpoint)
}

func nowStamp() string {
	return utils.NowProgressTime()
}
