package reporter

import (
	"context"
	"os"

	"github.com/goccy/go-json"
	pkgerrors "github.com/pkg/errors"

	"statusprobe/internal/core/model"
)

// JsonReporter 将任务结果 (含探测汇总) 写入 JSON 文件，每次 Report 覆盖
type JsonReporter struct {
	path string
}

func NewJsonReporter(path string) *JsonReporter {
	return &JsonReporter{path: path}
}

func (r *JsonReporter) Report(ctx context.Context, result *model.TaskResult) error {
	if result == nil {
		return nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "序列化任务结果失败")
	}
	if err := ensureDir(r.path); err != nil {
		return err
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return pkgerrors.Wrapf(err, "写入 %s 失败", r.path)
	}
	return nil
}
