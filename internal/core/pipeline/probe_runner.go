/**
 * HTTP 探测任务编排
 * @date: 2026.10.19
 * @description: 读取输入 -> 展开去重 -> 打乱 -> 工作池探测 -> 屏障 -> 汇总写 CSV -> 写分类文件。
 */
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"statusprobe/internal/config"
	"statusprobe/internal/core/lib/network/dialer"
	"statusprobe/internal/core/model"
	"statusprobe/internal/core/reporter"
	"statusprobe/internal/core/runner"
	"statusprobe/internal/core/scanner/httpprobe"
	"statusprobe/internal/pkg/locations"
	"statusprobe/internal/pkg/logger"
	"statusprobe/internal/pkg/utils"
)

// ProbeRunner 实现 runner.Runner，负责一次完整的 HTTP 探测任务
type ProbeRunner struct {
	cfg        *config.Config
	rng        *rand.Rand
	httpClient *http.Client // 下载 locations 用，nil 表示默认
	proberOpts []httpprobe.ProberOption
	console    *reporter.ConsoleReporter
}

// ProbeRunnerOption ProbeRunner 选项
type ProbeRunnerOption func(*ProbeRunner)

// WithRand 固定随机源 (测试用)
func WithRand(r *rand.Rand) ProbeRunnerOption {
	return func(p *ProbeRunner) { p.rng = r }
}

// WithDownloadClient 指定下载 locations 的 http client
func WithDownloadClient(c *http.Client) ProbeRunnerOption {
	return func(p *ProbeRunner) { p.httpClient = c }
}

// WithProberOptions 追加探测器选项
func WithProberOptions(opts ...httpprobe.ProberOption) ProbeRunnerOption {
	return func(p *ProbeRunner) { p.proberOpts = append(p.proberOpts, opts...) }
}

// NewProbeRunner 创建 ProbeRunner，cfg 必须已通过 Validate
func NewProbeRunner(cfg *config.Config, opts ...ProbeRunnerOption) *ProbeRunner {
	r := &ProbeRunner{
		cfg:     cfg,
		console: reporter.NewConsoleReporter(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name 返回Runner名称
func (r *ProbeRunner) Name() model.TaskType {
	return model.TaskTypeHttpProbe
}

// Run 执行 HTTP 探测任务
// 输入错误 (*model.InputError) 在探测开始前直接返回；单个目标的失败不会中断任务
func (r *ProbeRunner) Run(ctx context.Context, task *model.Task) ([]*model.TaskResult, error) {
	startTime := time.Now()
	cfg := r.cfg

	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	// 1. 读取并展开目标
	source, lines, err := r.loadLines(task)
	if err != nil {
		return nil, err
	}

	expander := NewAddressExpander(cfg.Input.MinPrefixBits)
	targets, err := expander.Expand(lines)
	if err != nil {
		var inErr *model.InputError
		if errors.As(err, &inErr) && inErr.Path == "" {
			inErr.Path = source
		}
		return nil, err
	}
	if cfg.Probe.Shuffle {
		Shuffle(targets, r.rng)
	}

	ports := cfg.Probe.Ports
	if task.PortRange != "" {
		if ports, err = utils.ParsePortList(task.PortRange); err != nil {
			return nil, err
		}
	}

	logger.LogScanOperation(task.ID, source, string(model.TaskStatusRunning), 0, map[string]interface{}{
		"targets":     len(targets),
		"ports":       ports,
		"concurrency": cfg.Probe.Concurrency,
	})

	// 2. 准备位置库、分类器与探测器
	table, err := locations.LoadTable(ctx, cfg.Locations, r.httpClient)
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}

	classifier := httpprobe.NewHeaderClassifier(table, httpprobe.ClassifierOptions{
		ServerKeyword: cfg.Classify.ServerKeyword,
		LicenseMarker: cfg.Classify.LicenseMarker,
	})

	d, err := dialer.NewDialer(cfg.Probe.Proxy, cfg.Probe.AttemptTimeout)
	if err != nil {
		return nil, fmt.Errorf("create dialer: %w", err)
	}

	proberOpts := []httpprobe.ProberOption{
		httpprobe.WithDialer(d),
		httpprobe.WithProgressPrinter(httpprobe.NewProgressPrinter(cfg.Probe.Quiet)),
	}
	proberOpts = append(proberOpts, r.proberOpts...)
	prober := httpprobe.NewProber(httpprobe.ProberConfigFrom(cfg.Probe), classifier, proberOpts...)

	// 3. 工作池探测，Run 返回时全部任务已结束且通道已关闭
	pool := runner.NewWorkerPool(runner.PoolConfig{Concurrency: cfg.Probe.Concurrency, Ports: ports})
	results, err := pool.Run(ctx, targets, prober)
	if err != nil {
		return nil, err
	}
	poolStats := pool.Stats()

	// 4. 汇总写入
	sink, outputFiles, err := r.openWriters()
	if err != nil {
		return nil, err
	}

	agg := reporter.NewAggregator(sink, reporter.AggregatorConfig{
		IsEnvironment: classifier.IsEnvironment,
		MarkerNote:    cfg.Output.MarkerNote,
	})
	buckets, stats, consumeErr := agg.Consume(results)
	if closeErr := sink.Close(); consumeErr == nil {
		consumeErr = closeErr
	}
	if consumeErr != nil {
		return nil, consumeErr
	}

	outcome, err := reporter.PersistBuckets(buckets, cfg.Output.EnvironmentFile, cfg.Output.LicenseFile)
	if err != nil {
		return nil, err
	}
	r.console.PrintOutputNotices(outcome, cfg.Output.EnvironmentFile, cfg.Output.LicenseFile)
	if outcome.EnvironmentWritten {
		outputFiles = append(outputFiles, cfg.Output.EnvironmentFile)
	}
	if outcome.LicenseAppended {
		outputFiles = append(outputFiles, cfg.Output.LicenseFile)
	}

	endTime := time.Now()
	summary := &model.ProbeSummary{
		Targets:          len(targets),
		Probes:           int(poolStats.Submitted),
		Records:          stats.Records,
		Failed:           stats.Failed,
		Excluded:         stats.Excluded,
		EnvironmentCount: len(buckets.EnvironmentDomains) + len(buckets.EnvironmentIPs),
		LicenseCount:     len(buckets.LicenseServers),
		PeakInFlight:     poolStats.PeakInFlight,
		Elapsed:          endTime.Sub(startTime),
		OutputFiles:      outputFiles,
	}

	logger.LogScanOperation(task.ID, source, string(model.TaskStatusCompleted), summary.Elapsed, map[string]interface{}{
		"records":  summary.Records,
		"failed":   summary.Failed,
		"excluded": summary.Excluded,
		"peak":     summary.PeakInFlight,
	})

	return []*model.TaskResult{{
		TaskID:    task.ID,
		Status:    model.TaskStatusCompleted,
		Result:    summary,
		StartTime: startTime,
		EndTime:   endTime,
	}}, nil
}

// loadLines 命令行目标优先，否则读取地址文件
func (r *ProbeRunner) loadLines(task *model.Task) (string, []string, error) {
	if len(task.Targets) > 0 {
		return strings.Join(task.Targets, ","), task.Targets, nil
	}

	path := task.Target
	if path == "" {
		path = r.cfg.Input.File
	}
	lines, err := LoadTargetLines(path)
	return path, lines, err
}

// openWriters CSV 必选，Excel 可选
func (r *ProbeRunner) openWriters() (reporter.RecordWriter, []string, error) {
	out := r.cfg.Output

	csvWriter, err := reporter.NewCsvRecordWriter(out.CsvFile, out.CsvBOM)
	if err != nil {
		return nil, nil, err
	}
	writers := []reporter.RecordWriter{csvWriter}
	files := []string{out.CsvFile}

	if out.ExcelFile != "" {
		excelWriter, err := reporter.NewExcelRecordWriter(out.ExcelFile)
		if err != nil {
			csvWriter.Close()
			return nil, nil, err
		}
		writers = append(writers, excelWriter)
		files = append(files, out.ExcelFile)
	}
	return reporter.NewMultiRecordWriter(writers...), files, nil
}
