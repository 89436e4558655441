package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structtag"
)

// lookupTagValues 返回结构体标签中 key 的全部取值（按出现顺序）
// reflect.StructTag.Lookup 只返回第一个，keyregex 允许在同一字段上重复出现
// 标签格式错误时返回错误
func lookupTagValues(tag reflect.StructTag, key string) ([]string, error) {
	tags, err := structtag.Parse(string(tag))
	if err != nil {
		return nil, fmt.Errorf("parse tag %q: %w", tag, err)
	}

	// 只有空白的标签没有任何键
	if tags == nil {
		return nil, nil
	}

	var values []string
	for _, t := range tags.Tags() {
		if t.Key != key {
			continue
		}
		// structtag 按逗号拆分 Name 和 Options，正则中的逗号需原样拼回
		values = append(values, strings.Join(append([]string{t.Name}, t.Options...), ","))
	}
	return values, nil
}

// jsonFieldName 返回字段的 json 名称，未设置或为 "-" 时返回结构体字段名
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
