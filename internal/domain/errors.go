package domain

import (
	"errors"
	"fmt"
)

// 错误分类：传输层的状态码由错误类别唯一决定（见 internal/http/respond.go）
var (
	// ErrNotFound 纯读未命中，或 strict 策略下转移未命中偏好行
	ErrNotFound = errors.New("not found")

	// ErrInvalidReference 引用的联系人不存在（客户端错误，不是服务端错误）
	ErrInvalidReference = errors.New("invalid contact reference")

	// ErrDuplicatePhone 手机号唯一约束冲突，由 Registry 内部消化为
	// "already existed"，不向调用方暴露
	ErrDuplicatePhone = errors.New("phone number already registered")
)

// FieldError 单个字段的校验失败
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError 请求体校验失败（在任何存储访问之前短路返回）
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s %s", e.Fields[0].Field, e.Fields[0].Reason)
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
