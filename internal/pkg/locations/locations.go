/**
 * 数据中心位置库
 * @date: 2026.10.19
 * @description: locations.json 的下载与加载。文件不存在时从网上下载，加载结果构建为 IATA -> 国家代码 索引。
 */
package locations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	pkgerrors "github.com/pkg/errors"

	"statusprobe/internal/config"
	"statusprobe/internal/core/model"
	"statusprobe/internal/pkg/logger"
	"statusprobe/internal/pkg/version"
)

// maxDownloadSize locations.json 通常只有几十 KB
const maxDownloadSize = 16 << 20

// Decode 解析 locations.json 内容，未知字段忽略
func Decode(data []byte) ([]model.DataCenterLocation, error) {
	var locations []model.DataCenterLocation
	if err := json.Unmarshal(data, &locations); err != nil {
		return nil, pkgerrors.Wrap(err, "解析 locations 数据失败")
	}
	return locations, nil
}

// Load 读取并解析本地 locations.json
func Load(path string) ([]model.DataCenterLocation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "读取 %s 失败", path)
	}
	return Decode(data)
}

// Downloader 下载 locations.json
type Downloader struct {
	client    *http.Client
	userAgent string
}

// NewDownloader 创建下载器，client 为 nil 时按 timeout 新建
func NewDownloader(client *http.Client, timeout time.Duration) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Downloader{
		client:    client,
		userAgent: version.GetUserAgent(),
	}
}

// Download 下载 url 内容并保存到 path
// 先写临时文件再重命名，下载中断不会留下半个文件
func (d *Downloader) Download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "构造下载请求失败")
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, "下载 locations 失败")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("下载 locations 失败: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return pkgerrors.Wrap(err, "读取下载内容失败")
	}
	// 内容必须能解析，否则不落盘
	if _, err := Decode(data); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return pkgerrors.Wrap(err, "创建目录失败")
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return pkgerrors.Wrap(err, "写入临时文件失败")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return pkgerrors.Wrap(err, "保存 locations 文件失败")
	}
	return nil
}

// Ensure 文件不存在时下载
// 返回值 downloaded 表示本次是否发生了下载
func (d *Downloader) Ensure(ctx context.Context, path, url string) (downloaded bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, pkgerrors.Wrapf(err, "检查 %s 失败", path)
	}

	logger.Infof("[Locations] %s not found, downloading from %s", path, url)
	if err := d.Download(ctx, url, path); err != nil {
		return false, err
	}
	logger.Infof("[Locations] Saved %s", path)
	return true, nil
}

// LoadTable 按配置准备位置索引
// 1. 文件不存在则下载，下载失败只告警，使用空表继续
// 2. 文件存在但无法解析: Optional 为 true 时告警并使用空表，否则返回错误
func LoadTable(ctx context.Context, cfg *config.LocationsConfig, client *http.Client) (*model.LocationTable, error) {
	empty := model.NewLocationTable(nil)
	if cfg == nil || cfg.File == "" {
		return empty, nil
	}

	if cfg.URL != "" {
		dctx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.DownloadTimeout > 0 {
			dctx, cancel = context.WithTimeout(ctx, cfg.DownloadTimeout)
		}
		defer cancel()
		if _, err := NewDownloader(client, cfg.DownloadTimeout).Ensure(dctx, cfg.File, cfg.URL); err != nil {
			logger.Warnf("[Locations] Download failed, country codes will be empty: %v", err)
			return empty, nil
		}
	}

	locations, err := Load(cfg.File)
	if err != nil {
		if os.IsNotExist(pkgerrors.Cause(err)) || cfg.Optional {
			logger.Warnf("[Locations] %v, country codes will be empty", err)
			return empty, nil
		}
		return nil, err
	}

	table := model.NewLocationTable(locations)
	logger.Debugf("[Locations] Loaded %d data centers from %s", table.Len(), cfg.File)
	return table, nil
}
