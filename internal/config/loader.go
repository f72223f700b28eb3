package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const defaultEnvPrefix = "STATUSPROBE"

// ConfigLoader 配置加载器
type ConfigLoader struct {
	configFile string // 显式指定的配置文件 (--config)
	configPath string // 配置文件搜索目录
	envPrefix  string
	viper      *viper.Viper
}

// NewConfigLoader 创建配置加载器
func NewConfigLoader(configFile, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = defaultEnvPrefix
	}

	return &ConfigLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
		viper:      viper.New(),
	}
}

// LoadConfig 加载配置
// 优先级: 命令行 (由调用方覆盖) > 环境变量 > 配置文件 > 默认值
// 配置文件不存在时直接使用默认值，显式指定的文件不存在则报错
func (cl *ConfigLoader) LoadConfig() (*Config, error) {
	cl.viper.SetConfigType("yaml")

	// 设置环境变量前缀
	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.AutomaticEnv()
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值 (同时让 AutomaticEnv 能识别所有 key)
	cl.setDefaults()

	// 加载配置文件
	if err := cl.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// 解析配置
	config := DefaultConfig()
	if err := cl.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 验证配置
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// loadConfigFile 加载配置文件
func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configFile != "" {
		cl.viper.SetConfigFile(cl.configFile)
		return cl.viper.ReadInConfig()
	}

	if cl.configPath == "" {
		// 尝试从环境变量获取配置文件目录
		if envPath := os.Getenv(cl.envPrefix + "_CONFIG_PATH"); envPath != "" {
			cl.configPath = envPath
		} else {
			cl.configPath = "./configs"
		}
	}

	cl.viper.AddConfigPath(cl.configPath)
	cl.viper.AddConfigPath(".")

	// 先尝试环境特定的配置文件，再回退到 config.yaml
	cl.viper.SetConfigName(fmt.Sprintf("config.%s", cl.getEnvironment()))
	err := cl.viper.ReadInConfig()
	if err == nil {
		return nil
	}

	cl.viper.SetConfigName("config")
	err = cl.viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// 没有配置文件也可以运行，全部使用默认值
		return nil
	}
	return err
}

// getEnvironment 获取运行环境
func (cl *ConfigLoader) getEnvironment() string {
	env := os.Getenv(cl.envPrefix + "_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	if env == "" {
		env = "development"
	}
	return env
}

// setDefaults 设置默认值
func (cl *ConfigLoader) setDefaults() {
	d := DefaultConfig()

	// App默认值
	cl.viper.SetDefault("app.name", d.App.Name)
	cl.viper.SetDefault("app.environment", d.App.Environment)

	// 日志默认值
	cl.viper.SetDefault("log.level", d.Log.Level)
	cl.viper.SetDefault("log.format", d.Log.Format)
	cl.viper.SetDefault("log.output", d.Log.Output)
	cl.viper.SetDefault("log.file_path", d.Log.FilePath)
	cl.viper.SetDefault("log.max_size", d.Log.MaxSize)
	cl.viper.SetDefault("log.max_backups", d.Log.MaxBackups)
	cl.viper.SetDefault("log.max_age", d.Log.MaxAge)
	cl.viper.SetDefault("log.compress", d.Log.Compress)
	cl.viper.SetDefault("log.caller", d.Log.Caller)

	// 探测默认值
	cl.viper.SetDefault("probe.ports", d.Probe.Ports)
	cl.viper.SetDefault("probe.concurrency", d.Probe.Concurrency)
	cl.viper.SetDefault("probe.attempt_timeout", d.Probe.AttemptTimeout.String())
	cl.viper.SetDefault("probe.total_timeout", d.Probe.TotalTimeout.String())
	cl.viper.SetDefault("probe.max_attempts", d.Probe.MaxAttempts)
	cl.viper.SetDefault("probe.method", d.Probe.Method)
	cl.viper.SetDefault("probe.proxy", d.Probe.Proxy)
	cl.viper.SetDefault("probe.shuffle", d.Probe.Shuffle)
	cl.viper.SetDefault("probe.quiet", d.Probe.Quiet)

	// 输入默认值
	cl.viper.SetDefault("input.file", d.Input.File)
	cl.viper.SetDefault("input.min_prefix_bits", d.Input.MinPrefixBits)

	// 位置库默认值
	cl.viper.SetDefault("locations.file", d.Locations.File)
	cl.viper.SetDefault("locations.url", d.Locations.URL)
	cl.viper.SetDefault("locations.download_timeout", d.Locations.DownloadTimeout.String())
	cl.viper.SetDefault("locations.optional", d.Locations.Optional)

	// 分类默认值
	cl.viper.SetDefault("classify.server_keyword", d.Classify.ServerKeyword)
	cl.viper.SetDefault("classify.license_marker", d.Classify.LicenseMarker)

	// 输出默认值
	cl.viper.SetDefault("output.csv_file", d.Output.CsvFile)
	cl.viper.SetDefault("output.csv_bom", d.Output.CsvBOM)
	cl.viper.SetDefault("output.environment_file", d.Output.EnvironmentFile)
	cl.viper.SetDefault("output.license_file", d.Output.LicenseFile)
	cl.viper.SetDefault("output.excel_file", d.Output.ExcelFile)
	cl.viper.SetDefault("output.json_file", d.Output.JsonFile)
	cl.viper.SetDefault("output.marker_note", d.Output.MarkerNote)
}

// GetConfigPath 获取实际使用的配置文件路径
func (cl *ConfigLoader) GetConfigPath() string {
	return cl.viper.ConfigFileUsed()
}

// LoadConfigFromFile 从指定文件加载配置
func LoadConfigFromFile(configFile string) (*Config, error) {
	loader := NewConfigLoader(configFile, defaultEnvPrefix)
	return loader.LoadConfig()
}
