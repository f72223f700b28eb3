/*
 * @date: 2026.10.19
 * @description: 时间工具包
 * @func: 进度输出与耗时展示使用的时间格式化函数
 */

package utils

import (
	"fmt"
	"time"
)

// 常用时间格式常量
const (
	// ProgressTimeFormat 进度行时间格式 "2006/01/02 15:04:05"
	ProgressTimeFormat = "2006/01/02 15:04:05"
	// DateTimeMilliFormat 带毫秒的日期时间格式 "2006-01-02 15:04:05.000"
	DateTimeMilliFormat = "2006-01-02 15:04:05.000"
)

// FormatProgressTime 格式化进度行时间戳
func FormatProgressTime(t time.Time) string {
	return t.Format(ProgressTimeFormat)
}

// NowProgressTime 当前时间的进度行格式
func NowProgressTime() string {
	return FormatProgressTime(time.Now())
}

// MillisSince 返回从 start 起经过的毫秒数
func MillisSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// FormatElapsed 将耗时格式化为易读字符串
// 小于 1 秒显示毫秒，小于 1 分钟保留两位小数秒，否则显示 分/秒
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		m := int(d / time.Minute)
		s := (d % time.Minute).Seconds()
		return fmt.Sprintf("%dm%.2fs", m, s)
	}
}
