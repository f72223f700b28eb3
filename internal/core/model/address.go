package model

// AddressKind 地址类型
// 解析时一次确定，之后作为数据随 Target 传递，不再重复用字符串判断
type AddressKind int

const (
	AddressUnsupported AddressKind = iota // 无法识别
	AddressIPv4                           // 单个 IPv4
	AddressIPv4CIDR                       // IPv4 网段，展开后变为多个 AddressIPv4
	AddressDomain                         // 域名 (可带端口)
	AddressIPv6                           // IPv6，不支持，静默丢弃
	AddressIPv6CIDR                       // IPv6 网段，不支持，静默丢弃
)

func (k AddressKind) String() string {
	switch k {
	case AddressIPv4:
		return "ipv4"
	case AddressIPv4CIDR:
		return "ipv4_cidr"
	case AddressDomain:
		return "domain"
	case AddressIPv6:
		return "ipv6"
	case AddressIPv6CIDR:
		return "ipv6_cidr"
	default:
		return "unsupported"
	}
}

// Supported 是否可以进入目标集合 (CIDR 会先展开)
func (k AddressKind) Supported() bool {
	return k == AddressIPv4 || k == AddressIPv4CIDR || k == AddressDomain
}

// Target 一个待探测目标
type Target struct {
	Address string      // 原始字面量，去重与输出都用它
	Kind    AddressKind // AddressIPv4 或 AddressDomain
	Host    string      // 域名目标用于拼接 URL 的 host[:port]；IPv4 目标与 Address 相同
}

// IsDomain 是否是域名目标
func (t Target) IsDomain() bool {
	return t.Kind == AddressDomain
}
