package errorutil

import (
	"errors"
	"fmt"
)

// Kind 错误分类
type Kind string

const (
	// KindNotFound 平台无匹配记录（预期结果，不是错误场景）
	KindNotFound Kind = "not_found"
	// KindPlatformUnavailable 平台暂时不可用（超时/5xx/响应解析失败），可重试
	KindPlatformUnavailable Kind = "platform_unavailable"
	// KindRefinementUnavailable AI 精炼步骤失败，非致命，降级为仅摘要输出
	KindRefinementUnavailable Kind = "refinement_unavailable"
	// KindSyncConflict 同租户已有进行中的同步任务
	KindSyncConflict Kind = "sync_conflict"
	// KindPersistence 存储写入失败，记录到当前实体错误列表后继续
	KindPersistence Kind = "persistence"
	// KindInternal 未分类错误
	KindInternal Kind = "internal"
)

// Error 错误结构（包含分类与可重试标记）
type Error struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	DevDetails string `json:"dev_details,omitempty"`
	cause      error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return e.Message
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.cause
}

// NotFound 创建未找到错误（platform 为平台名，key 为查询键）
func NotFound(platform, key string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s: no record for key %s", platform, key),
	}
}

// PlatformUnavailable 创建平台不可用错误
func PlatformUnavailable(platform string, cause error) *Error {
	e := &Error{
		Kind:      KindPlatformUnavailable,
		Message:   fmt.Sprintf("%s unavailable", platform),
		Retryable: true,
		cause:     cause,
	}
	if cause != nil {
		e.DevDetails = cause.Error()
	}
	return e
}

// RefinementUnavailable 创建 AI 精炼不可用错误
func RefinementUnavailable(cause error) *Error {
	e := &Error{
		Kind:    KindRefinementUnavailable,
		Message: "ai refinement unavailable",
		cause:   cause,
	}
	if cause != nil {
		e.DevDetails = cause.Error()
	}
	return e
}

// SyncConflict 创建同步冲突错误
func SyncConflict(message string) *Error {
	return &Error{
		Kind:    KindSyncConflict,
		Message: message,
	}
}

// Persistence 创建存储错误
func Persistence(cause error) *Error {
	e := &Error{
		Kind:    KindPersistence,
		Message: "persistence failed",
		cause:   cause,
	}
	if cause != nil {
		e.DevDetails = cause.Error()
	}
	return e
}

// Wrap 包装错误（已是 Error 类型则原样返回，否则归为 internal）
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{
		Kind:       KindInternal,
		Message:    err.Error(),
		Retryable:  false,
		DevDetails: fmt.Sprintf("%+v", err),
	}
}

// KindOf 返回错误分类（非 Error 类型返回 KindInternal）
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound 判断是否为未找到
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsPlatformUnavailable 判断是否为平台不可用
func IsPlatformUnavailable(err error) bool {
	return KindOf(err) == KindPlatformUnavailable
}

// IsSyncConflict 判断是否为同步冲突
func IsSyncConflict(err error) bool {
	return KindOf(err) == KindSyncConflict
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
