package reporter

import (
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// WriteTextFile 覆盖写入文本文件
func WriteTextFile(path, content string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return pkgerrors.Wrapf(err, "写入 %s 失败", path)
	}
	return nil
}

// AppendTextFile 追加写入，文件不存在时创建
func AppendTextFile(path, content string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "打开 %s 失败", path)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return pkgerrors.Wrapf(err, "追加写入 %s 失败", path)
	}
	return nil
}

// RemoveIfExists 文件存在时删除，返回是否删除了文件
func RemoveIfExists(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, pkgerrors.Wrapf(err, "删除 %s 失败", path)
	}
	return true, nil
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return pkgerrors.Wrapf(err, "创建目录 %s 失败", dir)
		}
	}
	return nil
}

// PersistOutcome 分类文件的落盘情况
type PersistOutcome struct {
	EnvironmentWritten bool // 覆盖写入了环境文件
	EnvironmentRemoved bool // 没有命中，删除了旧的环境文件
	LicenseAppended    bool // 追加了授权服务器
}

// PersistBuckets 写入分类文件
// 环境文件: 内容非空时覆盖写入，否则删除已存在的旧文件
// 授权文件: 内容非空时追加，否则不动
// 路径为空表示不输出该文件
func PersistBuckets(b *ClassificationBuckets, environmentPath, licensePath string) (*PersistOutcome, error) {
	out := &PersistOutcome{}

	if environmentPath != "" {
		content := b.EnvironmentContent()
		if strings.TrimSpace(content) != "" {
			if err := WriteTextFile(environmentPath, content); err != nil {
				return out, err
			}
			out.EnvironmentWritten = true
		} else {
			removed, err := RemoveIfExists(environmentPath)
			if err != nil {
				return out, err
			}
			out.EnvironmentRemoved = removed
		}
	}

	if licensePath != "" {
		content := b.LicenseContent()
		if strings.TrimSpace(content) != "" {
			if err := AppendTextFile(licensePath, content); err != nil {
				return out, err
			}
			out.LicenseAppended = true
		}
	}
	return out, nil
}
