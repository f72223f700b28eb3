package scan

import (
	"github.com/spf13/cobra"

	"statusprobe/internal/config"
	"statusprobe/internal/core/options"
)

// ConfigLoaderFunc 由根命令提供，负责读取配置并初始化日志
type ConfigLoaderFunc func() (*config.Config, error)

var globalOutputOptions options.OutputOptions

// NewScanCmd 创建 scan 父命令
func NewScanCmd(loadConfig ConfigLoaderFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "执行探测任务",
		Long: `执行探测任务。
请使用具体的子命令。`,
	}

	// 定义持久化 Flags (所有子命令都可用)
	pFlags := cmd.PersistentFlags()
	pFlags.StringVar(&globalOutputOptions.OutputCsv, "outputCsv", "", "指定保存csv文件路径 (alias: --oc)")
	pFlags.StringVar(&globalOutputOptions.OutputTxt, "outputTxt", "", "指定保存命中 Server 关键字地址的txt文件路径 (alias: --ot)")
	pFlags.StringVar(&globalOutputOptions.OutputLicense, "outputLicense", "", "指定追加授权服务器地址的txt文件路径 (alias: --ol)")
	pFlags.StringVar(&globalOutputOptions.OutputExcel, "outputExcel", "", "指定保存excel文件路径[以.xlsx结尾] (alias: --oe)")
	pFlags.StringVar(&globalOutputOptions.OutputJson, "outputJson", "", "指定保存任务汇总json文件路径 (alias: --oj)")

	// 注册别名 (Hidden flags) 方便用户使用简短命令
	pFlags.StringVar(&globalOutputOptions.OutputCsv, "oc", "", "outputCsv 简写")
	pFlags.Lookup("oc").Hidden = true
	pFlags.StringVar(&globalOutputOptions.OutputTxt, "ot", "", "outputTxt 简写")
	pFlags.Lookup("ot").Hidden = true
	pFlags.StringVar(&globalOutputOptions.OutputLicense, "ol", "", "outputLicense 简写")
	pFlags.Lookup("ol").Hidden = true
	pFlags.StringVar(&globalOutputOptions.OutputExcel, "oe", "", "outputExcel 简写")
	pFlags.Lookup("oe").Hidden = true
	pFlags.StringVar(&globalOutputOptions.OutputJson, "oj", "", "outputJson 简写")
	pFlags.Lookup("oj").Hidden = true

	// 注册子命令
	cmd.AddCommand(NewHttpProbeCmd(loadConfig))

	return cmd
}
