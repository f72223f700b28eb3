/*
 * @date: 2026.10.19
 * @description: Cobra Root Command 定义
 */

package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"statusprobe/cmd/statusprobe/scan"
	"statusprobe/internal/config"
	"statusprobe/internal/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "statusprobe",
	Short: "statusprobe HTTP 状态探测工具",
	Long: `statusprobe 对地址列表中的 IPv4 / CIDR / 域名发起 HTTP 探测，
记录状态码、耗时、Server 头与 CF-RAY 路由标记，并按规则归类输出。
IPv6 地址与网段会被静默忽略。
前缀短于 input.min_prefix_bits (默认 /8) 的网段不会展开，仅给出警告。

示例:
  1.使用默认地址文件 (ips-v4.txt) 探测 80 端口
	statusprobe scan http
  2.指定地址文件、端口与并发
	statusprobe scan http -i targets.txt -p 80,443,8080 -c 200
  3.通过 SOCKS5 代理探测，同时输出 Excel
	statusprobe scan http -t 1.1.1.0/24,example.com --proxy socks5://127.0.0.1:1080 --oe result.xlsx
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// PersistentPreRun: 全局初始化逻辑，确保所有子命令都能使用日志
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initCLILogger(cmd)
	},
}

func Execute() {
	// 全局 Panic Recovery
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n[FATAL] statusprobe crashed unexpectedly: %v\n", r)
			if logLevel == "debug" {
				fmt.Fprintln(os.Stderr, string(debug.Stack()))
			}
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// 全局 Flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认: ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)")

	// 注册子命令
	rootCmd.AddCommand(scan.NewScanCmd(loadConfig))
}

// initConfig 加载 .env 文件，之后 viper 的 AutomaticEnv 即可读到其中的变量
func initConfig() {
	if _, err := config.LoadEnvFiles(); err != nil {
		pterm.Warning.Println(err)
	}
}

// loadConfig 读取配置文件与环境变量，并按配置初始化日志
// --log-level 优先于配置文件
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfigLoader(cfgFile, "").LoadConfig()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if _, err := logger.InitLogger(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}

// initCLILogger 根据 --log-level 控制 pterm 的提示输出
// 在配置加载之前先以 fatal 级别初始化日志，避免加载过程中的日志刷屏
func initCLILogger(cmd *cobra.Command) {
	flag := cmd.Flags().Lookup("log-level")
	level := "info"
	if flag != nil && flag.Changed {
		level = flag.Value.String()
	}

	switch level {
	case "debug":
		pterm.EnableDebugMessages()
	case "info":
		pterm.DisableDebugMessages()
	case "warn", "error", "fatal":
		pterm.DisableDebugMessages()
		pterm.Info = *pterm.Info.WithWriter(io.Discard)
	}

	if _, err := logger.InitLogger(&config.LogConfig{Level: "fatal", Format: "text", Output: "stdout"}); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
	}
}
