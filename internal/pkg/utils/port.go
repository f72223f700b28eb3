package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// maxPortRange 单个区间最多展开的端口数
const maxPortRange = 65535

// ParsePortList 解析端口列表
// 支持 "80"、"80,8080"、"8000-8010" 及其组合，结果去重并保持首次出现的顺序
// 无法解析或超出 1-65535 的项返回错误
func ParsePortList(s string) ([]int, error) {
	var ports []int
	seen := make(map[int]struct{})
	add := func(p int) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		ports = append(ports, p)
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			rangeParts := strings.SplitN(part, "-", 2)
			start, err1 := parsePort(rangeParts[0])
			end, err2 := parsePort(rangeParts[1])
			if err1 != nil || err2 != nil || start > end || end-start >= maxPortRange {
				return nil, fmt.Errorf("invalid port range: %q", part)
			}
			for i := start; i <= end; i++ {
				add(i)
			}
			continue
		}

		p, err := parsePort(part)
		if err != nil {
			return nil, err
		}
		add(p)
	}

	if len(ports) == 0 {
		return nil, fmt.Errorf("empty port list: %q", s)
	}
	return ports, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p <= 0 || p > 65535 {
		return 0, fmt.Errorf("invalid port: %q", s)
	}
	return p, nil
}
