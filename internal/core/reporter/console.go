package reporter

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"statusprobe/internal/core/model"
)

// ConsoleReporter 控制台输出
type ConsoleReporter struct{}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// Report 实现 Reporter 接口
func (r *ConsoleReporter) Report(ctx context.Context, result *model.TaskResult) error {
	if result == nil {
		return nil
	}
	r.PrintResults([]*model.TaskResult{result})
	return nil
}

// PrintResults 打印 RunnerManager 返回的结果列表
// 表格化的结果合并为一张表，探测汇总额外列出生成的文件
func (r *ConsoleReporter) PrintResults(results []*model.TaskResult) {
	if len(results) == 0 {
		pterm.Warning.Println("No results found.")
		return
	}

	var headers []string
	var rows [][]string
	var files []string

	for _, res := range results {
		if res == nil {
			continue
		}
		if res.Status == model.TaskStatusFailed {
			pterm.Error.Printfln("Task %s failed: %s", res.TaskID, res.Error)
			continue
		}
		if res.Result == nil {
			continue
		}
		tabular, ok := res.Result.(TabularData)
		if !ok {
			pterm.Println(res.Result)
			continue
		}
		if headers == nil {
			headers = tabular.Headers()
		}
		rows = append(rows, tabular.Rows()...)
		if summary, ok := res.Result.(*model.ProbeSummary); ok {
			files = append(files, summary.OutputFiles...)
		}
	}

	if len(rows) > 0 {
		_ = r.printTableFromData(headers, rows)
	}
	if len(files) > 0 {
		items := make([]pterm.BulletListItem, 0, len(files))
		for _, f := range files {
			items = append(items, pterm.BulletListItem{Level: 0, Text: f})
		}
		_ = pterm.DefaultBulletList.WithItems(items).Render()
	}
}

// PrintOutputNotices 输出文件被跳过时给出提示
func (r *ConsoleReporter) PrintOutputNotices(out *PersistOutcome, environmentPath, licensePath string) {
	if out == nil {
		return
	}
	if environmentPath != "" && !out.EnvironmentWritten {
		if out.EnvironmentRemoved {
			pterm.Warning.Printfln("No matching server environment found, removed stale %s", environmentPath)
		} else {
			pterm.Warning.Printfln("No matching server environment found, %s not written", environmentPath)
		}
	}
	if licensePath != "" && !out.LicenseAppended {
		pterm.Warning.Printfln("No license server found, %s not updated", licensePath)
	}
}

func (r *ConsoleReporter) printTableFromData(headers []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	// 使用 pterm 渲染表格
	tableData := pterm.TableData{headers}
	tableData = append(tableData, rows...)

	err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false). // 简洁风格
		WithData(tableData).
		Render()

	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
