package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ==================== 业务错误 ====================

// ErrorKind 业务错误类别，控制器据此映射 HTTP 状态码
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindExternalFailure
	KindForbidden
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindValidation:
		return "Validation"
	case KindExternalFailure:
		return "ExternalFailure"
	case KindForbidden:
		return "Forbidden"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return "Internal"
	}
}

// AppError 业务错误
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func ErrNotFound(msg string) error {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func ErrConflict(msg string) error {
	return &AppError{Kind: KindConflict, Message: msg}
}

func ErrValidation(msg string) error {
	return &AppError{Kind: KindValidation, Message: msg}
}

func ErrForbidden(msg string) error {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

// ErrExternal 外部依赖（对象存储等）失败
func ErrExternal(msg string, err error) error {
	return &AppError{Kind: KindExternalFailure, Message: msg, Err: err}
}

// ErrInternal 包装存储层等内部错误
func ErrInternal(msg string, err error) error {
	return &AppError{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf 判断错误类别，未分类的一律视为 Internal
// 唯一索引冲突 (gorm TranslateError) 归为 Conflict
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return KindConflict
	}
	return KindInternal
}

// MessageOf 面向调用方的错误信息，内部错误不暴露细节
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "记录已存在"
	}
	return "服务器内部错误"
}

// wrapInternal 已分类的错误原样返回，其余包成 Internal
func wrapInternal(msg string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) || KindOf(err) != KindInternal {
		return err
	}
	return ErrInternal(msg, err)
}

// 认证相关
var (
	ErrInvalidCredentials = &AppError{Kind: KindUnauthorized, Message: "邮箱或密码错误"}
	ErrUserDisabled       = &AppError{Kind: KindForbidden, Message: "用户已禁用"}
	ErrInvalidToken       = &AppError{Kind: KindUnauthorized, Message: "无效的 Token"}
)
