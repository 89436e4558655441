package validator

import (
	"reflect"
)

// ValidateMap 不依赖结构体，直接用一组规则校验单个值
// 适用场景：动态数据（如 types.Extras、JSON 反序列化得到的 map）入库或透传前的检查
// 参数：
//
//	field: 字段名，用于错误消息
//	value: 待校验的值，nil 时按声明类型未知处理（校验失败）
//	rules: 规则列表，每条规则独立报告错误
//
// 返回：
//
//	验证错误列表，nil 表示验证通过
func ValidateMap(field string, value any, rules ...*KeyRegex) ValidationErrors {
	return ValidateMapAs(field, nil, value, rules...)
}

// ValidateMapAs 同 ValidateMap，但显式给出声明类型
// value 为 nil 且声明类型是字符串键映射时视为通过
func ValidateMapAs(field string, declared reflect.Type, value any, rules ...*KeyRegex) ValidationErrors {
	var errs ValidationErrors
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if fe := rule.Evaluate(field, declared, value); fe != nil {
			errs = append(errs, fe)
		}
	}
	return errs
}
