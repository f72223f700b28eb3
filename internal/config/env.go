package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvFiles 加载 .env 文件到进程环境变量
// 不存在的文件直接跳过；已经存在的环境变量不会被覆盖
// 返回实际加载的文件列表
func LoadEnvFiles(files ...string) ([]string, error) {
	if len(files) == 0 {
		files = defaultEnvFiles()
	}

	var loaded []string
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return loaded, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
		loaded = append(loaded, file)
	}
	return loaded, nil
}

// defaultEnvFiles 默认的 .env 搜索顺序
func defaultEnvFiles() []string {
	env := os.Getenv(defaultEnvPrefix + "_ENV")
	files := make([]string, 0, 4)
	if env != "" {
		files = append(files, fmt.Sprintf(".env.%s", env))
	}
	files = append(files, ".env", filepath.Join("configs", ".env"))
	return files
}
