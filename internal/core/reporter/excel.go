package reporter

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"statusprobe/internal/core/model"
)

// ExcelRecordWriter 将探测记录写入 xlsx
// 行先写入内存中的工作簿，Close 时落盘
type ExcelRecordWriter struct {
	FilePath string
	file     *excelize.File
	sheet    string
	row      int
}

// NewExcelRecordWriter 创建工作簿并写入表头
func NewExcelRecordWriter(path string) (*ExcelRecordWriter, error) {
	f := excelize.NewFile()
	w := &ExcelRecordWriter{
		FilePath: path,
		file:     f,
		sheet:    f.GetSheetName(f.GetActiveSheetIndex()),
	}
	if err := w.appendRow(toCells(model.RecordHeaders())); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// Sheet 写入的工作表名
func (w *ExcelRecordWriter) Sheet() string {
	return w.sheet
}

func (w *ExcelRecordWriter) WriteRecord(record *model.ProbeRecord) error {
	// 数值列保持数值类型，便于在 Excel 中排序
	return w.appendRow([]interface{}{
		record.Address,
		record.ResponseTimeMs,
		record.StatusCode,
		record.RoutingTag,
		record.CountryCode,
		record.ServerEnv,
	})
}

func (w *ExcelRecordWriter) WriteMarker(note string) error {
	row := make([]interface{}, len(model.RecordHeaders()))
	for i := range row {
		row[i] = ""
	}
	row[len(row)-1] = note
	return w.appendRow(row)
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// appendRow SetSheetRow 需要切片指针
func (w *ExcelRecordWriter) appendRow(row []interface{}) error {
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return pkgerrors.Wrap(err, "invalid excel cell")
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &row); err != nil {
		return pkgerrors.Wrap(err, "failed to write excel row")
	}
	return nil
}

// Close 保存并释放工作簿
func (w *ExcelRecordWriter) Close() error {
	if w.file == nil {
		return nil
	}
	defer func() {
		w.file.Close()
		w.file = nil
	}()

	if err := ensureDir(w.FilePath); err != nil {
		return err
	}
	if err := w.file.SaveAs(w.FilePath); err != nil {
		return pkgerrors.Wrap(err, "failed to save excel file")
	}
	return nil
}
