package model

import (
	"fmt"
	"strconv"
	"time"
)

// ProbeAttempt 单次请求尝试，只存在于重试循环内
type ProbeAttempt struct {
	Index      int           // 第几次尝试 (从 1 开始)
	Elapsed    time.Duration // 本次耗时
	StatusCode int           // 成功时的 HTTP 状态码
	Err        error         // 失败原因
}

// ProbeResult 一个 (Target, Port) 的最终探测结果
// Err 为 nil 表示 Ok，否则表示 Err；每个 (Target, Port) 只产生一次
type ProbeResult struct {
	Address         string      `json:"address"`
	Kind            AddressKind `json:"kind"`
	Port            int         `json:"port"`
	ElapsedMs       int64       `json:"response_time_ms"`
	StatusCode      int         `json:"status_code"`
	RoutingTag      string      `json:"routing_tag"`
	CountryCode     string      `json:"country_code"`
	ServerEnv       string      `json:"server_env"`
	IsLicenseServer bool        `json:"is_license_server"`
	Attempts        int         `json:"attempts"`
	Err             *ProbeError `json:"-"`
}

// OK 探测是否成功拿到 HTTP 响应
func (r *ProbeResult) OK() bool {
	return r != nil && r.Err == nil
}

// IsDomain 是否是域名目标
func (r *ProbeResult) IsDomain() bool {
	return r.Kind == AddressDomain
}

// Endpoint 域名返回 address，IP 返回 address:port
func (r *ProbeResult) Endpoint() string {
	if r.IsDomain() {
		return r.Address
	}
	return fmt.Sprintf("%s:%d", r.Address, r.Port)
}

// ProbeRecord CSV 输出记录
type ProbeRecord struct {
	Address        string
	ResponseTimeMs int64
	StatusCode     int
	RoutingTag     string
	CountryCode    string
	ServerEnv      string
}

// RecordHeaders CSV/Excel 表头
func RecordHeaders() []string {
	return []string{"address", "response_time_ms", "status_code", "routing_tag", "country_code", "server_env"}
}

// Record 转换为输出记录
func (r *ProbeResult) Record() *ProbeRecord {
	return &ProbeRecord{
		Address:        r.Address,
		ResponseTimeMs: r.ElapsedMs,
		StatusCode:     r.StatusCode,
		RoutingTag:     r.RoutingTag,
		CountryCode:    r.CountryCode,
		ServerEnv:      r.ServerEnv,
	}
}

// Strings 按表头顺序输出
func (r *ProbeRecord) Strings() []string {
	return []string{
		r.Address,
		strconv.FormatInt(r.ResponseTimeMs, 10),
		strconv.Itoa(r.StatusCode),
		r.RoutingTag,
		r.CountryCode,
		r.ServerEnv,
	}
}
