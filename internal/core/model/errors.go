package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTargets 输入解析后没有任何可用目标
	ErrNoTargets = errors.New("no usable targets")
	// ErrInputUnreadable 输入文件不存在或无法读取
	ErrInputUnreadable = errors.New("input unreadable")
	// ErrUnexpectedShape 响应头提取结果的结构不符合预期，不可重试
	ErrUnexpectedShape = errors.New("unexpected number of headers")
)

// InputError 输入错误，致命，探测开始前终止运行
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("input error: %v", e.Err)
	}
	return fmt.Sprintf("input error (%s): %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// FailureReason 单个目标的失败原因
type FailureReason string

const (
	ReasonRequestFailed   FailureReason = "request_failed"   // 传输层失败，重试耗尽
	ReasonTimeout         FailureReason = "timeout"          // 单次超时，重试耗尽
	ReasonUnexpectedShape FailureReason = "unexpected_shape" // 响应头结构异常，未重试
)

// ProbeError 单个 (Target, Port) 的失败
// 只影响自身，不会中断其它探测
type ProbeError struct {
	Reason   FailureReason
	Attempts int
	Err      error // 最后一次的底层错误
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", e.Reason, e.Attempts, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
