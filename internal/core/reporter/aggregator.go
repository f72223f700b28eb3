package reporter

import (
	"fmt"
	"strings"

	"statusprobe/internal/core/model"
	"statusprobe/internal/pkg/logger"
)

// ClassificationBuckets 分类结果
type ClassificationBuckets struct {
	EnvironmentDomains []string // 命中 Server 关键字的域名
	EnvironmentIPs     []string // 命中 Server 关键字的 IP
	LicenseServers     []string // 授权服务器 (域名为 address，IP 为 address:port)
}

// EnvironmentAddresses 域名在前，IP 在后
func (b *ClassificationBuckets) EnvironmentAddresses() []string {
	out := make([]string, 0, len(b.EnvironmentDomains)+len(b.EnvironmentIPs))
	out = append(out, b.EnvironmentDomains...)
	return append(out, b.EnvironmentIPs...)
}

// EnvironmentContent 换行拼接，末尾不带换行
func (b *ClassificationBuckets) EnvironmentContent() string {
	return strings.Join(b.EnvironmentAddresses(), "\n")
}

// LicenseContent 换行拼接并以换行结尾，便于多次追加；为空时返回空串
func (b *ClassificationBuckets) LicenseContent() string {
	if len(b.LicenseServers) == 0 {
		return ""
	}
	return strings.Join(b.LicenseServers, "\n") + "\n"
}

// AggregateStats 汇总计数
type AggregateStats struct {
	Received int // 从通道读到的结果数
	Records  int // 写入的记录数
	Failed   int // Err 结果
	Excluded int // 状态码为 0 的结果
}

// AggregatorConfig 汇总规则
type AggregatorConfig struct {
	IsEnvironment func(serverEnv string) bool // Server 关键字匹配
	MarkerNote    string                      // 有记录时在末尾追加的说明
}

// Aggregator 消费结果通道，写记录并分桶
// 只应在工作池屏障之后、对已关闭的通道调用
type Aggregator struct {
	sink RecordWriter
	cfg  AggregatorConfig
}

func NewAggregator(sink RecordWriter, cfg AggregatorConfig) *Aggregator {
	if cfg.IsEnvironment == nil {
		cfg.IsEnvironment = func(string) bool { return false }
	}
	return &Aggregator{sink: sink, cfg: cfg}
}

// Consume 读取通道直到关闭
// 1. Err 结果丢弃，计入 Failed
// 2. 状态码为 0 的结果丢弃，计入 Excluded
// 3. 其它结果写一条记录，并按 Server 关键字 / 授权服务器分桶
// 至少写过一条记录时追加说明行
func (a *Aggregator) Consume(results <-chan *model.ProbeResult) (*ClassificationBuckets, *AggregateStats, error) {
	buckets := &ClassificationBuckets{}
	stats := &AggregateStats{}

	for res := range results {
		if res == nil {
			continue
		}
		stats.Received++

		if !res.OK() {
			stats.Failed++
			continue
		}
		if res.StatusCode == 0 {
			stats.Excluded++
			continue
		}

		if err := a.sink.WriteRecord(res.Record()); err != nil {
			return buckets, stats, fmt.Errorf("write record for %s: %w", res.Address, err)
		}
		stats.Records++

		if a.cfg.IsEnvironment(res.ServerEnv) {
			if res.IsDomain() {
				buckets.EnvironmentDomains = append(buckets.EnvironmentDomains, res.Address)
			} else {
				buckets.EnvironmentIPs = append(buckets.EnvironmentIPs, res.Address)
			}
		}
		if res.IsLicenseServer {
			buckets.LicenseServers = append(buckets.LicenseServers, res.Endpoint())
		}
	}

	if stats.Records > 0 {
		if err := a.sink.WriteMarker(a.cfg.MarkerNote); err != nil {
			return buckets, stats, fmt.Errorf("write marker row: %w", err)
		}
	}

	logger.Debugf("[Aggregator] received=%d records=%d failed=%d excluded=%d",
		stats.Received, stats.Records, stats.Failed, stats.Excluded)
	return buckets, stats, nil
}
