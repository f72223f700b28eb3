package options

import (
	"statusprobe/internal/config"
)

// OutputOptions 定义结果输出的通用参数
type OutputOptions struct {
	OutputCsv     string // --oc, --outputCsv
	OutputTxt     string // --ot, --outputTxt (命中 Server 关键字的地址)
	OutputLicense string // --ol, --outputLicense
	OutputExcel   string // --oe, --outputExcel
	OutputJson    string // --oj, --outputJson (任务汇总)
}

// ApplyToConfig 将命令行指定的输出路径覆盖到配置，未指定的保持配置值
func (o *OutputOptions) ApplyToConfig(out *config.OutputConfig) {
	if out == nil {
		return
	}
	if o.OutputCsv != "" {
		out.CsvFile = o.OutputCsv
	}
	if o.OutputTxt != "" {
		out.EnvironmentFile = o.OutputTxt
	}
	if o.OutputLicense != "" {
		out.LicenseFile = o.OutputLicense
	}
	if o.OutputExcel != "" {
		out.ExcelFile = o.OutputExcel
	}
	if o.OutputJson != "" {
		out.JsonFile = o.OutputJson
	}
}
