// Package errors 提供统一错误类型与哨兵错误 (三层错误体系精简版)。
//
//   - L1 哨兵错误: ErrNotFound / ErrInvalidInput / ErrUnknownKind 等
//   - L2 AppError: 带 Op + Code + Message 的应用级错误
//   - L3 错误码: 渲染管线的四类可恢复错误 (schema / binding / payload / coercion)
//
// 渲染核心永远不把这些错误抛给调用方, 它们只出现在日志、Node.Issues 与 HTTP 错误信封里。
package errors

import (
	"errors"
	"fmt"
)

// ========================================
// L1 哨兵错误 (Sentinel Errors)
// ========================================

var (
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput 输入参数无效
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout 操作超时
	ErrTimeout = errors.New("timeout")

	// ErrUnknownKind 组件类型不在 Catalog 中
	ErrUnknownKind = errors.New("unknown component kind")

	// ErrUpstream 外部接口返回 success=false 或非 2xx
	ErrUpstream = errors.New("upstream error")
)

// ========================================
// L3 错误码
// ========================================

const (
	CodeSchemaViolation = "SCHEMA_VIOLATION" // Element 类型或 props 不符合 Catalog
	CodeBindingMiss     = "BINDING_MISS"     // $state 路径不存在
	CodePayloadMismatch = "PAYLOAD_MISMATCH" // 工具结果未通过类型守卫
	CodeCoercion        = "COERCION"         // 非数字标量
	CodeUpstream        = "UPSTREAM"         // 外部查询失败
)

// ========================================
// L2 AppError (应用级错误)
// ========================================

// AppError 应用级错误，带操作上下文。
type AppError struct {
	Op      string // 操作名，如 "Resolver.Resolve"
	Code    string // 错误码，如 CodeBindingMiss
	Message string // 人类可读消息
	Err     error  // 原始错误
}

// Error 实现 error 接口。
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap 支持 errors.Is / errors.As 链式查找。
func (e *AppError) Unwrap() error {
	return e.Err
}

// ========================================
// 工厂函数
// ========================================

// New 创建无原因链的应用错误。
func New(op, message string) error {
	return &AppError{Op: op, Message: message}
}

// Newf 创建带格式化消息的应用错误。
func Newf(op, format string, args ...any) error {
	return &AppError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装错误并附加操作上下文。
func Wrap(err error, op string, message string) error {
	return &AppError{Op: op, Message: message, Err: err}
}

// Wrapf 用格式化消息包装错误。
func Wrapf(err error, op, format string, args ...any) error {
	return &AppError{Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithCode 创建带错误码的应用错误, err 可为 nil。
func WithCode(err error, op, code, message string) error {
	return &AppError{Op: op, Code: code, Message: message, Err: err}
}

// CodeOf 沿错误链查找第一个非空错误码, 找不到返回 ""。
func CodeOf(err error) string {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return ""
		}
		if appErr.Code != "" {
			return appErr.Code
		}
		err = appErr.Err
	}
	return ""
}

// Is / As 透传标准库, 调用方无需同时 import 两个 errors 包。
func Is(err, target error) bool     { return errors.Is(err, target) }
func As(err error, target any) bool { return errors.As(err, target) }
