package httpprobe

import (
	"fmt"
	"net/http"
	"strings"

	"statusprobe/internal/core/model"
)

const (
	DefaultServerKeyword = "cloudflare"
	DefaultLicenseMarker = "account.jetbrains.com/fls-auth"
)

// 参与分类的响应头，每个头占一个槽位
var signalHeaders = []string{"Server", "CF-RAY", "Location"}

// Signals 从响应头提取出的分类信号
type Signals struct {
	ServerEnv       string // Server 头的第一个 token，小写
	RoutingTag      string // CF-RAY 中 '-' 之后的数据中心代码，大写
	CountryCode     string // RoutingTag 对应的国家代码
	IsLicenseServer bool   // Location 指向授权服务器
}

// Classifier 响应头分类器
type Classifier interface {
	Classify(h http.Header) (*Signals, error)
}

// ClassifierOptions 分类规则
type ClassifierOptions struct {
	ServerKeyword string
	LicenseMarker string
}

// HeaderClassifier 基于位置索引的响应头分类器
// 构建后只读，可被所有 worker 共享
type HeaderClassifier struct {
	table         *model.LocationTable
	serverKeyword string
	licenseMarker string
}

// NewHeaderClassifier 创建分类器，未设置的规则使用默认值
func NewHeaderClassifier(table *model.LocationTable, opts ClassifierOptions) *HeaderClassifier {
	if opts.ServerKeyword == "" {
		opts.ServerKeyword = DefaultServerKeyword
	}
	if opts.LicenseMarker == "" {
		opts.LicenseMarker = DefaultLicenseMarker
	}
	return &HeaderClassifier{
		table:         table,
		serverKeyword: strings.ToLower(opts.ServerKeyword),
		licenseMarker: strings.ToLower(opts.LicenseMarker),
	}
}

// Classify 提取分类信号
// 槽位数量与 signalHeaders 不一致时返回 model.ErrUnexpectedShape，调用方不应重试
func (c *HeaderClassifier) Classify(h http.Header) (*Signals, error) {
	slots := extractSlots(h)
	if len(slots) != len(signalHeaders) {
		return nil, fmt.Errorf("%w: got %d, want %d", model.ErrUnexpectedShape, len(slots), len(signalHeaders))
	}

	s := &Signals{
		ServerEnv:       ParseServerEnv(slots[0]),
		RoutingTag:      ParseRoutingTag(slots[1]),
		IsLicenseServer: slots[2] != "" && strings.Contains(strings.ToLower(slots[2]), c.licenseMarker),
	}
	if cca2, ok := c.table.Lookup(s.RoutingTag); ok {
		s.CountryCode = cca2
	}
	return s, nil
}

// IsEnvironment Server 值是否命中关键字 (不区分大小写的子串匹配)
func (c *HeaderClassifier) IsEnvironment(serverEnv string) bool {
	return strings.Contains(strings.ToLower(serverEnv), c.serverKeyword)
}

// extractSlots 按 signalHeaders 顺序取值，头不存在时为空串
// http.Header.Get 本身大小写无关
func extractSlots(h http.Header) []string {
	slots := make([]string, 0, len(signalHeaders))
	for _, name := range signalHeaders {
		slots = append(slots, strings.TrimSpace(h.Get(name)))
	}
	return slots
}

// ParseServerEnv 取 Server 头的第一个空白分隔 token 并转小写
// "cloudflare" -> "cloudflare", "Apache/2.4 (Ubuntu)" -> "apache/2.4"
func ParseServerEnv(server string) string {
	fields := strings.Fields(server)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// ParseRoutingTag 取 CF-RAY 的第二段并转大写
// "8a1b2c3d4e5f6789-iad" -> "IAD"，没有 '-' 时返回空串
func ParseRoutingTag(cfRay string) string {
	parts := strings.Split(strings.TrimSpace(cfRay), "-")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToUpper(parts[1])
}
