package validator

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

// validateKeyRegexTag go-playground 的 keyregex 标签实现
// 用法：`validate:"keyregex=^[a-z]+$"`
// 注意：go-playground 用逗号分隔规则、用竖线表示或，正则中的 , 和 | 需写成 0x2C 和 0x7C
// 非法正则在首次校验到该标签时 panic
func (v *Validator) validateKeyRegexTag(fl validator.FieldLevel) bool {
	rule := v.keyRegexFor(fl.Param())

	field := fl.Field()
	var value any
	if field.IsValid() && field.CanInterface() {
		value = field.Interface()
	}

	return rule.Evaluate(fl.StructFieldName(), declaredFieldType(fl), value) == nil
}

// declaredFieldType 取字段的声明类型
// 字段值无效（nil 接口）时从父结构体按字段名查找
func declaredFieldType(fl validator.FieldLevel) reflect.Type {
	if field := fl.Field(); field.IsValid() {
		return field.Type()
	}

	parent := fl.Parent()
	for parent.IsValid() && parent.Kind() == reflect.Ptr {
		if parent.IsNil() {
			return nil
		}
		parent = parent.Elem()
	}
	if !parent.IsValid() || parent.Kind() != reflect.Struct {
		return nil
	}
	if sf, ok := parent.Type().FieldByName(fl.StructFieldName()); ok {
		return sf.Type
	}
	return nil
}
