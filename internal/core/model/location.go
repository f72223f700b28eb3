package model

// DataCenterLocation locations.json 中的一条数据中心记录
type DataCenterLocation struct {
	IATA   string  `json:"iata"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	CCA2   string  `json:"cca2"`
	Region string  `json:"region"`
	City   string  `json:"city"`
}

// LocationTable IATA -> 国家代码 索引
// 构建后只读，可在所有 worker 间共享，无需加锁
type LocationTable struct {
	byIATA map[string]string
}

// NewLocationTable 构建索引，重复的 IATA 以第一条为准
func NewLocationTable(locations []DataCenterLocation) *LocationTable {
	t := &LocationTable{byIATA: make(map[string]string, len(locations))}
	for _, loc := range locations {
		if loc.IATA == "" {
			continue
		}
		if _, exists := t.byIATA[loc.IATA]; exists {
			continue
		}
		t.byIATA[loc.IATA] = loc.CCA2
	}
	return t
}

// Lookup 精确匹配 IATA 代码；nil 表或空 tag 返回未命中
func (t *LocationTable) Lookup(iata string) (string, bool) {
	if t == nil || iata == "" {
		return "", false
	}
	cca2, ok := t.byIATA[iata]
	return cca2, ok
}

// Len 表中条目数
func (t *LocationTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byIATA)
}
