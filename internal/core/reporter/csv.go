package reporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"statusprobe/internal/core/model"
)

// utf8BOM 写入后 Excel 打开不乱码
const utf8BOM = "\xEF\xBB\xBF"

// CsvRecordWriter 将探测记录写入 CSV
// 创建时写入表头，每条记录写完立即 Flush
type CsvRecordWriter struct {
	FilePath string
	mu       sync.Mutex
	file     *os.File
	writer   *csv.Writer
}

// NewCsvRecordWriter 创建 (覆盖) CSV 文件并写入表头
func NewCsvRecordWriter(path string, bom bool) (*CsvRecordWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to create csv directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create csv file")
	}
	if bom {
		if _, err := f.WriteString(utf8BOM); err != nil {
			f.Close()
			return nil, pkgerrors.Wrap(err, "failed to write bom")
		}
	}

	w := &CsvRecordWriter{FilePath: path, file: f, writer: csv.NewWriter(f)}
	if err := w.writeRow(model.RecordHeaders()); err != nil {
		f.Close()
		return nil, pkgerrors.Wrap(err, "failed to write headers")
	}
	return w, nil
}

func (w *CsvRecordWriter) WriteRecord(record *model.ProbeRecord) error {
	return w.writeRow(record.Strings())
}

// WriteMarker 说明行只占最后一列
func (w *CsvRecordWriter) WriteMarker(note string) error {
	row := make([]string, len(model.RecordHeaders()))
	row[len(row)-1] = note
	return w.writeRow(row)
}

func (w *CsvRecordWriter) writeRow(row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Write(row); err != nil {
		return err
	}
	w.writer.Flush()
	return w.writer.Error()
}

func (w *CsvRecordWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	w.writer.Flush()
	flushErr := w.writer.Error()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return pkgerrors.Wrap(flushErr, "failed to flush csv")
	}
	if closeErr != nil {
		return pkgerrors.Wrap(closeErr, "failed to close csv")
	}
	return nil
}
