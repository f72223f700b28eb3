// ### 发布流程
// 1. 修改 Version
// 2. 构建时通过 -ldflags 注入 BuildTime / GitCommit / GoVersion
//    go build -ldflags "-X statusprobe/internal/pkg/version.GitCommit=$(git rev-parse --short HEAD)"

package version

var (
	Version   = "1.0.0" // 版本号 -- 发布时候更新版本号
	BuildTime string
	GitCommit string
	GoVersion string
)

func GetVersion() string {
	return Version
}

// GetUserAgent 探测请求使用的 User-Agent
func GetUserAgent() string {
	return "Mozilla/5.0 (compatible; statusprobe/" + Version + ") AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
}
