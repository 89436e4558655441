package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidationFailed 聚合校验失败，AggregateValidationError 通过 Unwrap 暴露
	ErrValidationFailed = errors.New("validation failed")
	// ErrInvalidPattern 正则表达式无法编译
	ErrInvalidPattern = errors.New("invalid key pattern")
	// ErrNilTarget 校验对象为 nil
	ErrNilTarget = errors.New("validation target cannot be nil")
	// ErrNotStruct 校验对象不是结构体或结构体指针
	ErrNotStruct = errors.New("validation target must be a struct")
	// ErrUnknownField 注册规则时字段不存在或不可导出
	ErrUnknownField = errors.New("unknown struct field")
)

// errorMessageEstimateLen 单条错误消息的预估长度，用于预分配
const errorMessageEstimateLen = 96

// FieldError 单个字段的验证错误
// 国际化时，可以通过 Namespace + Tag 和 Param 字段查找对应的翻译
type FieldError struct {
	// FieldName 结构体字段名
	FieldName string `json:"field_name,omitempty"`
	// JsonName JSON 字段名
	JsonName string `json:"json_name"`
	// Tag 验证标签（如 keyregex, required 等）
	Tag string `json:"tag"`
	// Param 验证参数（keyregex 为正则表达式）
	Param string `json:"param,omitempty"`
	// Value 字段的实际值
	Value any `json:"-"`
	// Message 格式化后的错误消息
	Message string `json:"message,omitempty"`
	// Namespace 字段的完整命名空间（如 Order.Labels）
	Namespace string `json:"namespace,omitempty"`
}

// NewFieldError 创建字段错误
// value: 字段值
// fieldName: 结构体字段名
// jsonName: JSON 字段名
// tag: 验证标签
// param: 验证参数
func NewFieldError(value any, fieldName, jsonName, tag, param string) *FieldError {
	return &FieldError{
		FieldName: fieldName,
		JsonName:  jsonName,
		Tag:       tag,
		Param:     param,
		Value:     value,
		Namespace: fieldName,
	}
}

// newFieldErrorByValidator 将 go-playground/validator 的错误转换为 FieldError
func newFieldErrorByValidator(e validator.FieldError) *FieldError {
	return &FieldError{
		FieldName: e.StructField(),
		JsonName:  e.Field(),
		Tag:       e.Tag(),
		Param:     e.Param(),
		Value:     e.Value(),
		Message:   e.Error(),
		Namespace: trimRootNamespace(e.StructNamespace()),
	}
}

// trimRootNamespace 去掉 go-playground 命名空间中的根类型名（User.Labels -> Labels）
func trimRootNamespace(namespace string) string {
	if idx := strings.IndexByte(namespace, '.'); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

// Error 实现 error 接口
func (fe *FieldError) Error() string {
	return fe.String()
}

// String 返回友好的错误信息
func (fe *FieldError) String() string {
	if fe.Message != "" {
		return fe.Message
	}
	return fmt.Sprintf("field '%s' validation failed on tag '%s'", fe.FieldName, fe.Tag)
}

func (fe *FieldError) WithMessage(message string) *FieldError {
	fe.Message = message
	return fe
}

func (fe *FieldError) WithNamespace(namespace string) *FieldError {
	fe.Namespace = namespace
	return fe
}

func (fe *FieldError) WithJsonName(jsonName string) *FieldError {
	fe.JsonName = jsonName
	return fe
}

// ValidationErrors 字段错误集合
type ValidationErrors []*FieldError

// Error 实现 error 接口
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation passed: no errors"
	}

	var builder strings.Builder
	builder.Grow(len(ve) * errorMessageEstimateLen)

	for i, err := range ve {
		if i > 0 {
			builder.WriteString("; ")
		}
		builder.WriteString(err.String())
	}

	return builder.String()
}

// Has 检查字段（结构体字段名或命名空间）是否存在错误
func (ve ValidationErrors) Has(field string) bool {
	for _, err := range ve {
		if err.FieldName == field || err.Namespace == field {
			return true
		}
	}
	return false
}

// Get 获取字段（结构体字段名或命名空间）的全部错误
func (ve ValidationErrors) Get(field string) ValidationErrors {
	var result ValidationErrors
	for _, err := range ve {
		if err.FieldName == field || err.Namespace == field {
			result = append(result, err)
		}
	}
	return result
}

// GetByTag 按验证标签获取错误
func (ve ValidationErrors) GetByTag(tag string) ValidationErrors {
	var result ValidationErrors
	for _, err := range ve {
		if err.Tag == tag {
			result = append(result, err)
		}
	}
	return result
}

// Fields 返回出错的命名空间列表（去重，保持顺序）
func (ve ValidationErrors) Fields() []string {
	var fields []string
	seen := make(map[string]struct{}, len(ve))
	for _, err := range ve {
		if _, ok := seen[err.Namespace]; ok {
			continue
		}
		seen[err.Namespace] = struct{}{}
		fields = append(fields, err.Namespace)
	}
	return fields
}

// Messages 返回全部错误消息
func (ve ValidationErrors) Messages() []string {
	messages := make([]string, 0, len(ve))
	for _, err := range ve {
		messages = append(messages, err.String())
	}
	return messages
}

// AggregateValidationError EnsureIsValid 返回的聚合错误
// 携带对象类型名和所有 (消息, 字段) 对
type AggregateValidationError struct {
	// TypeName 被校验对象的类型名
	TypeName string `json:"type"`
	// Errors 所有字段错误
	Errors ValidationErrors `json:"errors"`
}

// Error 实现 error 接口
func (e *AggregateValidationError) Error() string {
	return fmt.Sprintf("object of type %s has some invalid values: %s", e.TypeName, e.Errors.Error())
}

// Unwrap 支持 errors.Is(err, ErrValidationFailed)
func (e *AggregateValidationError) Unwrap() error {
	return ErrValidationFailed
}

// ToJSON 转换为 JSON 格式
func (e *AggregateValidationError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AsAggregate 从错误链中提取 AggregateValidationError
func AsAggregate(err error) (*AggregateValidationError, bool) {
	var aggregate *AggregateValidationError
	if errors.As(err, &aggregate) {
		return aggregate, true
	}
	return nil, false
}
