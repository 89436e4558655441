package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
)

// Extras 扩展字段，用于存储键值对形式的额外数据
// 支持存储各种类型的值（string, number, bool, array, object等）
// 键的格式通常由 keyregex 规则约束，例如：
//
//	type Product struct {
//	    Labels types.Extras `json:"labels" keyregex:"^[a-z][a-z0-9_]{0,31}$"`
//	}
type Extras map[string]any

// NewExtras 创建一个新的扩展字段实例
func NewExtras(capacity int) Extras {
	if capacity <= 0 {
		return make(Extras)
	}
	return make(Extras, capacity)
}

// Set 设置键值对，空键名会被忽略
func (e Extras) Set(key string, value any) {
	if key == "" {
		return
	}
	e[key] = value
}

// Get 获取指定键的值
func (e Extras) Get(key string) (any, bool) {
	value, exists := e[key]
	return value, exists
}

// GetString 获取字符串类型的值
func (e Extras) GetString(key string) (string, bool) {
	value, exists := e[key]
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

// Delete 删除指定键
func (e Extras) Delete(key string) {
	delete(e, key)
}

func (e Extras) Has(key string) bool {
	_, exists := e[key]
	return exists
}

// Keys 返回所有的键（按字典序，便于比较和输出）
func (e Extras) Keys() []string {
	if len(e) == 0 {
		return []string{}
	}
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e Extras) Len() int {
	return len(e)
}

// Clone 创建一个浅拷贝
func (e Extras) Clone() Extras {
	if len(e) == 0 {
		return NewExtras(0)
	}
	return maps.Clone(e)
}

// ReadOnly 返回只读视图，视图与原 Extras 共享数据
func (e Extras) ReadOnly() ReadOnlyMap {
	return readOnlyExtras{data: e}
}

// GormDataType 数据库列类型（JSON 文本）
func (Extras) GormDataType() string {
	return "text"
}

// Value 实现 driver.Valuer 接口
func (e Extras) Value() (driver.Value, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Extras to JSON: %w", err)
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner 接口
func (e *Extras) Scan(value any) error {
	if value == nil {
		*e = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan Extras: unsupported database type %T, expected []byte or string", value)
	}
	if len(data) == 0 {
		*e = nil
		return nil
	}

	result := make(Extras)
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("failed to unmarshal Extras from JSON: %w", err)
	}

	*e = result
	return nil
}

// MarshalJSON 实现 json.Marshaler 接口
func (e Extras) MarshalJSON() ([]byte, error) {
	if len(e) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(e))
}

// UnmarshalJSON 实现 json.Unmarshaler 接口
func (e *Extras) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = nil
		return nil
	}

	m := make(map[string]any)
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to unmarshal JSON into Extras: %w", err)
	}

	*e = Extras(m)
	return nil
}
