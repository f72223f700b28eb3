package model

import (
	"strconv"
	"time"
)

// ProbeSummary 一次 HTTP 探测任务的汇总
type ProbeSummary struct {
	Targets          int           `json:"targets"`           // 展开去重后的目标数
	Probes           int           `json:"probes"`            // 目标 x 端口
	Records          int           `json:"records"`           // 写入 CSV 的有效记录
	Failed           int           `json:"failed"`            // 重试耗尽或结构异常
	Excluded         int           `json:"excluded"`          // 状态码为 0 被剔除
	EnvironmentCount int           `json:"environment_count"` // 命中 Server 关键字
	LicenseCount     int           `json:"license_count"`     // 授权服务器
	PeakInFlight     int64         `json:"peak_in_flight"`    // 最大并发
	Elapsed          time.Duration `json:"elapsed"`
	OutputFiles      []string      `json:"output_files"`
}

// Headers 实现 TabularData 接口
func (s ProbeSummary) Headers() []string {
	return []string{"Targets", "Probes", "Records", "Failed", "Excluded", "Environment", "License", "Peak", "Elapsed"}
}

// Rows 实现 TabularData 接口
func (s ProbeSummary) Rows() [][]string {
	return [][]string{{
		strconv.Itoa(s.Targets),
		strconv.Itoa(s.Probes),
		strconv.Itoa(s.Records),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Excluded),
		strconv.Itoa(s.EnvironmentCount),
		strconv.Itoa(s.LicenseCount),
		strconv.FormatInt(s.PeakInFlight, 10),
		s.Elapsed.Round(time.Millisecond).String(),
	}}
}
