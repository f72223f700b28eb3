/**
 * 结果输出接口定义
 * @date: 2026.10.19
 * @description: 定义结果输出的通用接口，解耦 Console / CSV / Excel / TXT 输出。
 */

package reporter

import (
	"context"
	"errors"

	"statusprobe/internal/core/model"
)

// TabularData 是一个可以被渲染为表格的数据接口
// 任何想要在控制台漂亮打印的 Result 都应该实现此接口
type TabularData interface {
	Headers() []string
	Rows() [][]string
}

// Reporter 定义任务结果上报的行为
type Reporter interface {
	// Report 上报/输出任务结果
	Report(ctx context.Context, result *model.TaskResult) error
}

// RecordWriter 逐条写入探测记录
type RecordWriter interface {
	WriteRecord(record *model.ProbeRecord) error
	// WriteMarker 写入末尾说明行
	WriteMarker(note string) error
	Close() error
}

// MultiReporter 支持同时向多个目标上报 (e.g., Console + File)
type MultiReporter struct {
	reporters []Reporter
}

func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{
		reporters: reporters,
	}
}

func (m *MultiReporter) Report(ctx context.Context, result *model.TaskResult) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Report(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MultiRecordWriter 将同一条记录写入多个 RecordWriter (e.g., CSV + Excel)
type MultiRecordWriter struct {
	writers []RecordWriter
}

func NewMultiRecordWriter(writers ...RecordWriter) *MultiRecordWriter {
	return &MultiRecordWriter{writers: writers}
}

func (m *MultiRecordWriter) WriteRecord(record *model.ProbeRecord) error {
	for _, w := range m.writers {
		if err := w.WriteRecord(record); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiRecordWriter) WriteMarker(note string) error {
	for _, w := range m.writers {
		if err := w.WriteMarker(note); err != nil {
			return err
		}
	}
	return nil
}

// Close 关闭全部 writer，返回所有错误
func (m *MultiRecordWriter) Close() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
