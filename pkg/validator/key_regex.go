package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

const (
	// TagKeyRegex 键格式规则的标签名，同一字段可重复出现
	// 示例：`keyregex:"^[a-z]+$" keyregex:"^.{1,20}$"`
	TagKeyRegex = "keyregex"
	// TagKeyRegexMessage 覆盖同一字段上所有 keyregex 规则的消息模板
	TagKeyRegexMessage = "keyregex_msg"

	// DefaultKeyRegexMessage 默认错误消息模板
	// %[1]s 为字段名，%[2]s 为正则表达式，消息文本是对外约定，不能随意修改
	DefaultKeyRegexMessage = "'%[1]s' must be a dictionary with string keys, and the keys must be in the format of '%[2]s'."
)

// KeyRegex 字符串键映射的键格式规则
// 设计目标：
//   - 不可变：构造后 pattern、正则、消息模板都不再变化，可在多个 goroutine 间共享
//   - 只读：校验过程只检查目标值，从不修改
//   - 整体判定：一次校验最多产生一个错误，与违规键的数量无关
//
// 示例：
//
//	rule := MustKeyRegex(`^[a-zA-Z0-9]{1,20}$`)
//	if fe := rule.Evaluate("Labels", nil, map[string]string{"a.b": "x"}); fe != nil {
//	    fmt.Println(fe.Message)
//	}
type KeyRegex struct {
	// pattern 原始正则表达式，同时用于渲染错误消息
	pattern string
	// regex 编译后的正则
	regex *regexp.Regexp
	// message 消息模板
	message string
}

// KeyRegexOption KeyRegex 构造选项
type KeyRegexOption func(*KeyRegex)

// WithMessage 覆盖默认消息模板，空字符串表示使用默认模板
// 模板参数：%[1]s 字段名，%[2]s 正则表达式
func WithMessage(template string) KeyRegexOption {
	return func(r *KeyRegex) {
		if template != "" {
			r.message = template
		}
	}
}

// NewKeyRegex 创建键格式规则
// 正则无法编译时返回 ErrInvalidPattern
func NewKeyRegex(pattern string, opts ...KeyRegexOption) (*KeyRegex, error) {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}

	r := &KeyRegex{
		pattern: pattern,
		regex:   regex,
		message: DefaultKeyRegexMessage,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MustKeyRegex 同 NewKeyRegex，正则无效时 panic
// 用于类型描述阶段（标签解析、包级变量），非法正则必须中止初始化
func MustKeyRegex(pattern string, opts ...KeyRegexOption) *KeyRegex {
	r, err := NewKeyRegex(pattern, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Pattern 返回原始正则表达式
func (r *KeyRegex) Pattern() string {
	return r.pattern
}

// MessageTemplate 返回生效的消息模板
func (r *KeyRegex) MessageTemplate() string {
	return r.message
}

// Message 按模板渲染字段的错误消息
func (r *KeyRegex) Message(field string) string {
	// 不含格式动词的模板原样返回，避免 fmt 追加 %!(EXTRA ...)
	if !strings.Contains(r.message, "%") {
		return r.message
	}
	return fmt.Sprintf(r.message, field, r.pattern)
}

// MatchKey 判断单个键是否合法：非空白且被正则完整匹配
func (r *KeyRegex) MatchKey(key string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	loc := r.regex.FindStringIndex(key)
	return loc != nil && loc[0] == 0 && loc[1] == len(key)
}

// Evaluate 校验字段值
//
// 校验流程：
//  1. value 非 nil 时检查其运行时类型，否则使用字段声明类型（指针会被解引用）
//  2. 通过 Classify 判断是否为字符串键映射，不是则直接失败，不提取键
//  3. 值为 nil 时键集合为空，视为通过
//  4. 任一键为空白或不匹配正则则失败
//
// 参数：
//
//	field: 字段名，用于错误消息
//	declared: 字段声明类型，value 为 nil 时使用，可为 nil
//	value: 字段当前值
//
// 返回：
//
//	nil 表示通过，否则返回唯一的 FieldError
func (r *KeyRegex) Evaluate(field string, declared reflect.Type, value any) *FieldError {
	typ, val := resolveTarget(declared, value)

	capability := Classify(typ)
	if capability == CapabilityNone {
		return r.newFieldError(field, value)
	}

	for _, key := range extractKeys(capability, val) {
		if !r.MatchKey(key) {
			return r.newFieldError(field, value)
		}
	}

	return nil
}

func (r *KeyRegex) newFieldError(field string, value any) *FieldError {
	return NewFieldError(value, field, field, TagKeyRegex, r.pattern).
		WithMessage(r.Message(field))
}

// resolveTarget 确定要检查的类型和值
// 指针逐层解引用，nil 指针视为 nil 值，此时回退到声明类型的元素类型
func resolveTarget(declared reflect.Type, value any) (reflect.Type, reflect.Value) {
	val := reflect.ValueOf(value)

	typ := declared
	if val.IsValid() {
		typ = val.Type()
	}

	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
		if !val.IsValid() {
			continue
		}
		if val.IsNil() {
			val = reflect.Value{}
		} else {
			val = val.Elem()
		}
	}

	return typ, val
}
