package pipeline

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"net/netip"
	"net/url"
	"os"
	"strings"

	"go4.org/netipx"

	"statusprobe/internal/core/model"
	"statusprobe/internal/pkg/logger"
)

// ParsedAddress 一行输入的解析结果
type ParsedAddress struct {
	Raw    string
	Kind   model.AddressKind
	Prefix netip.Prefix // AddressIPv4 为 /32，AddressIPv4CIDR 为网络地址对齐后的网段
	Host   string       // AddressDomain 的 host[:port]
}

// ParseAddress 判断一行输入的类型
// 顺序: IPv4 / IPv6 字面量 -> IPv4 / IPv6 CIDR -> 域名 (无 scheme 时补 http:// 后按 URL 解析，host 非空即可)
func ParseAddress(raw string) ParsedAddress {
	raw = strings.TrimSpace(raw)
	p := ParsedAddress{Raw: raw, Kind: model.AddressUnsupported}
	if raw == "" {
		return p
	}

	if addr, err := netip.ParseAddr(raw); err == nil {
		if addr.Is4() {
			p.Kind = model.AddressIPv4
			p.Prefix = netip.PrefixFrom(addr, 32)
		} else {
			p.Kind = model.AddressIPv6
		}
		return p
	}

	if prefix, err := netip.ParsePrefix(raw); err == nil {
		if prefix.Addr().Is4() {
			p.Kind = model.AddressIPv4CIDR
			// 容忍主机位，例如 1.2.3.5/30 按 1.2.3.4/30 展开
			p.Prefix = prefix.Masked()
		} else {
			p.Kind = model.AddressIPv6CIDR
		}
		return p
	}

	withScheme := raw
	if !strings.HasPrefix(withScheme, "http://") && !strings.HasPrefix(withScheme, "https://") {
		withScheme = "http://" + withScheme
	}
	u, err := url.Parse(withScheme)
	if err != nil || u.Hostname() == "" {
		return p
	}
	// http://[::1]:8080 这类写法仍然是 IPv6
	addr, err := netip.ParseAddr(u.Hostname())
	if err == nil && !addr.Is4() {
		p.Kind = model.AddressIPv6
		return p
	}
	// 最后一段是数字却不是合法 IPv4 (1.2.3.256, 1.2.3.4.5) 不当作域名
	if err != nil && numericLastLabel(u.Hostname()) {
		return p
	}

	p.Kind = model.AddressDomain
	p.Host = u.Host
	return p
}

func numericLastLabel(host string) bool {
	label := host[strings.LastIndex(host, ".")+1:]
	if label == "" {
		return false
	}
	for _, c := range label {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ExpandStats 展开过程的计数
type ExpandStats struct {
	Lines    int // 非空、非注释行
	IPv4     int
	CIDR     int
	Domains  int
	IPv6     int // 静默丢弃
	Invalid  int // 静默丢弃
	TooWide  int // 前缀过短被跳过的网段
	Expanded int // 去重后的目标总数
}

// AddressExpander 将原始地址行展开为去重后的目标列表
type AddressExpander struct {
	minPrefixBits int
	stats         ExpandStats
}

// NewAddressExpander 创建展开器
// minPrefixBits: 允许展开的最短 IPv4 前缀，防止 /0 之类的输入耗尽内存
func NewAddressExpander(minPrefixBits int) *AddressExpander {
	return &AddressExpander{minPrefixBits: minPrefixBits}
}

// Stats 返回最近一次 Expand 的计数
func (e *AddressExpander) Stats() ExpandStats {
	return e.stats
}

// Expand 展开并去重
// IPv4 与 IPv4 网段统一放入 IPSet，重叠部分天然合并；域名按字面量去重
// IPv6 与无法解析的行静默丢弃
// 结果为空时返回 *model.InputError
func (e *AddressExpander) Expand(lines []string) ([]model.Target, error) {
	e.stats = ExpandStats{}

	var builder netipx.IPSetBuilder
	domains := make(map[string]struct{})
	var domainTargets []model.Target

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e.stats.Lines++

		parsed := ParseAddress(line)
		if !parsed.Kind.Supported() {
			if parsed.Kind == model.AddressIPv6 || parsed.Kind == model.AddressIPv6CIDR {
				e.stats.IPv6++
			} else {
				e.stats.Invalid++
			}
			continue
		}

		switch parsed.Kind {
		case model.AddressIPv4:
			e.stats.IPv4++
			builder.AddPrefix(parsed.Prefix)
		case model.AddressIPv4CIDR:
			if parsed.Prefix.Bits() < e.minPrefixBits {
				e.stats.TooWide++
				logger.Warnf("[Expander] Skipping %s: prefix shorter than /%d", line, e.minPrefixBits)
				continue
			}
			e.stats.CIDR++
			builder.AddPrefix(parsed.Prefix)
		case model.AddressDomain:
			e.stats.Domains++
			if _, seen := domains[parsed.Raw]; seen {
				continue
			}
			domains[parsed.Raw] = struct{}{}
			domainTargets = append(domainTargets, model.Target{
				Address: parsed.Raw,
				Kind:    model.AddressDomain,
				Host:    parsed.Host,
			})
		}
	}

	ipset, err := builder.IPSet()
	if err != nil {
		return nil, fmt.Errorf("build ip set: %w", err)
	}

	targets := make([]model.Target, 0, len(domainTargets))
	for _, r := range ipset.Ranges() {
		for addr := r.From(); ; addr = addr.Next() {
			s := addr.String()
			targets = append(targets, model.Target{Address: s, Kind: model.AddressIPv4, Host: s})
			if addr == r.To() {
				break
			}
		}
	}
	targets = append(targets, domainTargets...)

	e.stats.Expanded = len(targets)
	if e.stats.IPv6 > 0 || e.stats.Invalid > 0 {
		logger.Debugf("[Expander] Dropped %d IPv6 and %d unparseable entries", e.stats.IPv6, e.stats.Invalid)
	}

	if len(targets) == 0 {
		return nil, &model.InputError{Err: model.ErrNoTargets}
	}
	return targets, nil
}

// LoadTargetLines 读取地址文件
// 文件不存在或无法读取时返回 *model.InputError
func LoadTargetLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &model.InputError{Path: path, Err: fmt.Errorf("%w: %v", model.ErrInputUnreadable, err)}
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			// 去掉 Windows 记事本写入的 BOM
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &model.InputError{Path: path, Err: fmt.Errorf("%w: %v", model.ErrInputUnreadable, err)}
	}
	return lines, nil
}

// SplitTargetList 拆分逗号分隔的目标列表 (命令行 -t)
func SplitTargetList(list string) []string {
	parts := strings.Split(list, ",")
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			lines = append(lines, part)
		}
	}
	return lines
}

// Shuffle 原地打乱目标顺序，避免按字典序集中请求同一网段
// r 为 nil 时使用全局随机源
func Shuffle(targets []model.Target, r *rand.Rand) {
	swap := func(i, j int) { targets[i], targets[j] = targets[j], targets[i] }
	if r == nil {
		rand.Shuffle(len(targets), swap)
		return
	}
	r.Shuffle(len(targets), swap)
}
