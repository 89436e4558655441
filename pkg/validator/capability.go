package validator

import (
	"reflect"
)

// Capability 可识别的字符串键容器能力
// 所有被 KeyRegex 接受的容器形态都集中在这里登记，避免在各处零散地遍历接口
type Capability int

const (
	// CapabilityNone 不是字符串键的映射
	CapabilityNone Capability = iota
	// CapabilityMap 可变映射：键类型恰好为 string 的 Go map（含具名 map 类型）
	CapabilityMap
	// CapabilityKeyReader 只读映射：实现了 StringKeyReader 的类型（或其指针）
	CapabilityKeyReader
)

// String 返回能力名称，用于日志
func (c Capability) String() string {
	switch c {
	case CapabilityMap:
		return "map"
	case CapabilityKeyReader:
		return "key_reader"
	default:
		return "none"
	}
}

// StringKeyReader 只读的字符串键映射能力
// 只需暴露键集合即可被 KeyRegex 校验，例如 types.ReadOnlyMap
type StringKeyReader interface {
	Keys() []string
}

var (
	stringType          = reflect.TypeOf("")
	stringKeyReaderType = reflect.TypeOf((*StringKeyReader)(nil)).Elem()
)

// Classify 判断类型属于哪一种字符串键容器能力
// 注意：键类型必须恰好是 string，type Key string 这类具名类型不算
func Classify(typ reflect.Type) Capability {
	if typ == nil {
		return CapabilityNone
	}

	if typ.Kind() == reflect.Map {
		if typ.Key() == stringType {
			return CapabilityMap
		}
		// 非字符串键的 map 即使实现了 Keys() []string 也不接受
		return CapabilityNone
	}

	if typ.Implements(stringKeyReaderType) {
		return CapabilityKeyReader
	}
	if typ.Kind() != reflect.Interface && typ.Kind() != reflect.Ptr &&
		reflect.PointerTo(typ).Implements(stringKeyReaderType) {
		return CapabilityKeyReader
	}

	return CapabilityNone
}

// keyAdapter 每种能力对应一个取键适配器
type keyAdapter func(val reflect.Value) []string

var keyAdapters = map[Capability]keyAdapter{
	CapabilityMap:       mapKeys,
	CapabilityKeyReader: readerKeys,
}

// extractKeys 按能力提取键集合
// val 无效（nil 值）时返回空集合
func extractKeys(c Capability, val reflect.Value) []string {
	if !val.IsValid() {
		return nil
	}
	adapter, ok := keyAdapters[c]
	if !ok {
		return nil
	}
	return adapter(val)
}

// mapKeys 读取 map[string]T 的全部键，nil map 没有键
func mapKeys(val reflect.Value) []string {
	if val.IsNil() {
		return nil
	}

	keys := make([]string, 0, val.Len())
	iter := val.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	return keys
}

// readerKeys 通过 StringKeyReader 接口读取键
// 方法定义在指针接收者上时，复制一份可寻址的值再调用，不修改原值
func readerKeys(val reflect.Value) []string {
	if reader, ok := asKeyReader(val); ok {
		return reader.Keys()
	}
	return nil
}

func asKeyReader(val reflect.Value) (StringKeyReader, bool) {
	if !val.CanInterface() {
		return nil, false
	}
	if reader, ok := val.Interface().(StringKeyReader); ok {
		return reader, true
	}

	ptr := reflect.New(val.Type())
	ptr.Elem().Set(val)
	reader, ok := ptr.Interface().(StringKeyReader)
	return reader, ok
}
