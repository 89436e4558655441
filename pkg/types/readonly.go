package types

// ReadOnlyMap 只读的字符串键映射
// 只暴露读取能力，适合把内部数据交给外部模块检查而不允许修改
type ReadOnlyMap interface {
	// Keys 返回所有的键
	Keys() []string
	// Get 获取指定键的值
	Get(key string) (any, bool)
	// Len 返回键的数量
	Len() int
}

// readOnlyExtras Extras 的只读视图
type readOnlyExtras struct {
	data Extras
}

func (r readOnlyExtras) Keys() []string {
	return r.data.Keys()
}

func (r readOnlyExtras) Get(key string) (any, bool) {
	return r.data.Get(key)
}

func (r readOnlyExtras) Len() int {
	return r.data.Len()
}

// NewReadOnlyMap 从普通 map 创建只读视图（不复制数据）
func NewReadOnlyMap(m map[string]any) ReadOnlyMap {
	return readOnlyExtras{data: Extras(m)}
}
