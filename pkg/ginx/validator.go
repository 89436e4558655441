package ginx

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"katydid-data-annotations/pkg/validator"
)

// bindingTagName gin 默认使用的标签名
const bindingTagName = "binding"

// StructValidator 把 validator.Validator 适配为 gin 的 binding.StructValidator
// 使用：
//
//	binding.Validator = ginx.NewStructValidator(nil)
//
// 之后 c.ShouldBindJSON 等方法会同时执行 binding 标签和 keyregex 规则
type StructValidator struct {
	v *validator.Validator
}

var _ binding.StructValidator = (*StructValidator)(nil)

// NewStructValidator 创建适配器，v 为 nil 时创建一个使用 binding 标签名的验证器
func NewStructValidator(v *validator.Validator) *StructValidator {
	if v == nil {
		v = validator.New(validator.WithTagName(bindingTagName))
	}
	return &StructValidator{v: v}
}

// ValidateStruct 实现 binding.StructValidator
// 结构体、结构体指针之外的值（如 map）不校验；切片和数组逐个元素校验
func (s *StructValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}

	val := reflect.ValueOf(obj)
	switch val.Kind() {
	case reflect.Ptr:
		if val.IsNil() {
			return nil
		}
		if val.Elem().Kind() != reflect.Struct {
			return s.ValidateStruct(val.Elem().Interface())
		}
		return s.v.EnsureIsValid(obj)
	case reflect.Struct:
		return s.v.EnsureIsValid(obj)
	case reflect.Slice, reflect.Array:
		for i := 0; i < val.Len(); i++ {
			if err := s.ValidateStruct(val.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// Engine 实现 binding.StructValidator，返回底层 go-playground 实例
func (s *StructValidator) Engine() any {
	return s.v.GetUnderlyingValidator()
}

// ErrorResponse 校验失败的响应体
type ErrorResponse struct {
	Message string                     `json:"message"`
	Errors  validator.ValidationErrors `json:"errors,omitempty"`
}

// AbortWithValidationError 根据错误类型写出响应并中止后续 handler
// 校验错误返回 400 与字段错误列表，其他错误返回 400 与错误消息
func AbortWithValidationError(c *gin.Context, err error) {
	if aggregate, ok := validator.AsAggregate(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: aggregate.Error(),
			Errors:  aggregate.Errors,
		})
		return
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: fieldErrors.Error(),
			Errors:  fieldErrors,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
}

// BindJSON 绑定并校验 JSON 请求体，失败时写出 400 响应并返回 false
func BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		AbortWithValidationError(c, err)
		return false
	}
	return true
}
