/**
 * HTTP 探测器
 * @date: 2026.10.19
 * @description: 对单个 (目标, 端口) 发起 HEAD 请求，按单次超时与总预算重试，拿到任意 HTTP 响应即视为成功。
 */
package httpprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"statusprobe/internal/config"
	"statusprobe/internal/core/lib/network/dialer"
	"statusprobe/internal/core/model"
	"statusprobe/internal/pkg/logger"
	"statusprobe/internal/pkg/version"
)

const (
	DefaultAttemptTimeout = 5 * time.Second
	DefaultTotalTimeout   = 15 * time.Second
	DefaultMaxAttempts    = 3
)

// ProberConfig 探测参数
type ProberConfig struct {
	AttemptTimeout time.Duration // 单次请求超时
	TotalTimeout   time.Duration // 单个目标的总预算，只在两次尝试之间检查
	MaxAttempts    int           // 最大尝试次数 (含第一次)
	Method         string
	UserAgent      string
}

// ProberConfigFrom 从全局配置提取探测参数
func ProberConfigFrom(cfg *config.ProbeConfig) ProberConfig {
	if cfg == nil {
		return ProberConfig{}
	}
	return ProberConfig{
		AttemptTimeout: cfg.AttemptTimeout,
		TotalTimeout:   cfg.TotalTimeout,
		MaxAttempts:    cfg.MaxAttempts,
		Method:         cfg.Method,
	}
}

func (c *ProberConfig) normalize() {
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	if c.TotalTimeout <= 0 {
		c.TotalTimeout = DefaultTotalTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Method == "" {
		c.Method = http.MethodHead
	}
	c.Method = strings.ToUpper(c.Method)
	if c.UserAgent == "" {
		c.UserAgent = version.GetUserAgent()
	}
}

// AttemptObserver 每次尝试结束后回调
type AttemptObserver func(target model.Target, port int, attempt model.ProbeAttempt)

// Prober HTTP 探测器，可被多个 worker 并发使用
type Prober struct {
	cfg        ProberConfig
	classifier Classifier
	client     *http.Client
	dialer     dialer.Dialer
	printer    ProgressPrinter
	observer   AttemptObserver
}

// ProberOption 探测器选项
type ProberOption func(*Prober)

// WithHTTPClient 使用自定义 client (测试用)，调用方需自行关闭重定向跟随
func WithHTTPClient(c *http.Client) ProberOption {
	return func(p *Prober) { p.client = c }
}

// WithDialer 指定拨号器 (直连或 SOCKS5)
func WithDialer(d dialer.Dialer) ProberOption {
	return func(p *Prober) { p.dialer = d }
}

// WithProgressPrinter 指定进度输出
func WithProgressPrinter(pp ProgressPrinter) ProberOption {
	return func(p *Prober) { p.printer = pp }
}

// WithAttemptObserver 注册尝试回调
func WithAttemptObserver(fn AttemptObserver) ProberOption {
	return func(p *Prober) { p.observer = fn }
}

// NewProber 创建探测器
func NewProber(cfg ProberConfig, classifier Classifier, opts ...ProberOption) *Prober {
	cfg.normalize()
	p := &Prober{
		cfg:        cfg,
		classifier: classifier,
		printer:    DiscardPrinter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.dialer == nil {
		p.dialer = dialer.NewDefaultDialer(cfg.AttemptTimeout)
	}
	if p.client == nil {
		p.client = newHTTPClient(p.dialer)
	}
	return p
}

// newHTTPClient 不跟随重定向，Location 头才能被分类器看到
func newHTTPClient(d dialer.Dialer) *http.Client {
	transport := &http.Transport{
		Proxy:               nil,
		DialContext:         d.DialContext,
		DisableKeepAlives:   true,
		MaxIdleConnsPerHost: -1,
	}
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Config 返回规范化后的参数
func (p *Prober) Config() ProberConfig {
	return p.cfg
}

// ProbeURL 域名目标不带端口，IP 目标为 http://ip:port
func ProbeURL(target model.Target, port int) string {
	if target.IsDomain() {
		host := target.Host
		if host == "" {
			host = target.Address
		}
		return "http://" + host
	}
	return "http://" + net.JoinHostPort(target.Address, strconv.Itoa(port))
}

// Endpoint 进度行与输出文件中的地址写法
func Endpoint(target model.Target, port int) string {
	if target.IsDomain() {
		return target.Address
	}
	return fmt.Sprintf("%s:%d", target.Address, port)
}

// Probe 探测一个 (目标, 端口)，总是返回一个结果
// 传输失败或单次超时会立即重试，直到次数用尽或总预算耗尽
// 分类器返回结构错误时立即失败，不消耗重试
func (p *Prober) Probe(ctx context.Context, target model.Target, port int) *model.ProbeResult {
	url := ProbeURL(target, port)
	endpoint := Endpoint(target, port)

	result := &model.ProbeResult{
		Address: target.Address,
		Kind:    target.Kind,
		Port:    port,
	}

	var (
		attempts    int
		lastErr     error
		lastTimeout bool
		shapeErr    error
	)

	operation := func() error {
		attempts++
		remaining := p.cfg.MaxAttempts - attempts

		start := time.Now()
		statusCode, header, err := p.do(ctx, url)
		elapsed := time.Since(start)

		attempt := model.ProbeAttempt{Index: attempts, Elapsed: elapsed, StatusCode: statusCode, Err: err}
		if err != nil {
			lastErr = err
			lastTimeout = isTimeout(err)
			p.printer.Println(FormatFailureLine(nowStamp(), endpoint, lastTimeout, remaining))
			logger.LogProbeAttempt(logger.ProbeAttemptEntry{
				Endpoint:  endpoint,
				Attempt:   attempts,
				Remaining: remaining,
				Elapsed:   elapsed,
				Err:       err,
				Timeout:   lastTimeout,
			})
			p.notify(target, port, attempt)
			return err
		}

		signals, err := p.classifier.Classify(header)
		if err != nil {
			shapeErr = err
			attempt.Err = err
			p.printer.Println(FormatShapeErrorLine(nowStamp(), endpoint))
			logger.LogProbeAttempt(logger.ProbeAttemptEntry{
				Endpoint:   endpoint,
				Attempt:    attempts,
				StatusCode: statusCode,
				Elapsed:    elapsed,
				Err:        err,
			})
			p.notify(target, port, attempt)
			return backoff.Permanent(err)
		}

		result.StatusCode = statusCode
		result.ElapsedMs = elapsed.Milliseconds()
		result.ServerEnv = signals.ServerEnv
		result.RoutingTag = signals.RoutingTag
		result.CountryCode = signals.CountryCode
		result.IsLicenseServer = signals.IsLicenseServer

		p.printer.Println(FormatSuccessLine(nowStamp(), endpoint, attempt, signals.ServerEnv))
		logger.LogProbeAttempt(logger.ProbeAttemptEntry{
			Endpoint:   endpoint,
			Attempt:    attempts,
			Remaining:  remaining,
			StatusCode: statusCode,
			Elapsed:    elapsed,
			ServerEnv:  signals.ServerEnv,
		})
		p.notify(target, port, attempt)
		return nil
	}

	policy := backoff.WithContext(newRetryPolicy(p.cfg, time.Now()), ctx)
	err := backoff.Retry(operation, policy)
	result.Attempts = attempts
	if err == nil {
		return result
	}

	switch {
	case shapeErr != nil:
		result.Err = &model.ProbeError{Reason: model.ReasonUnexpectedShape, Attempts: attempts, Err: shapeErr}
	case lastErr != nil && lastTimeout:
		result.Err = &model.ProbeError{Reason: model.ReasonTimeout, Attempts: attempts, Err: lastErr}
	case lastErr != nil:
		result.Err = &model.ProbeError{Reason: model.ReasonRequestFailed, Attempts: attempts, Err: lastErr}
	default:
		result.Err = &model.ProbeError{Reason: model.ReasonRequestFailed, Attempts: attempts, Err: err}
	}
	logger.Debugf("[HttpProbe] %s gave up: %v", endpoint, result.Err)
	return result
}

// do 发起一次请求，只读取状态码与响应头
func (p *Prober) do(ctx context.Context, url string) (int, http.Header, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, p.cfg.Method, url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	resp.Body.Close()
	return resp.StatusCode, resp.Header, nil
}

func (p *Prober) notify(target model.Target, port int, a model.ProbeAttempt) {
	if p.observer != nil {
		p.observer(target, port, a)
	}
}

// isTimeout 单次超时: context 截止或底层网络超时
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
