package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// 验证器配置常量
const (
	// maxNestedDepth 最大嵌套验证深度，防止无限递归导致栈溢出
	maxNestedDepth = 100
	// defaultTagName go-playground/validator 默认标签名
	defaultTagName = "validate"
)

// ============================================================================
// 核心验证接口
// ============================================================================

// KeyRuleProvider 规则提供者接口 - 由模型以代码方式提供键格式规则
// 适用场景：规则需要运行时拼装，或正则无法方便地写在 struct tag 中
//
// 示例：
//
//	func (o *Order) KeyRules() map[string][]*KeyRegex {
//	    return map[string][]*KeyRegex{
//	        "Labels": {labelKeyRule, labelLenRule},
//	    }
//	}
type KeyRuleProvider interface {
	// KeyRules 返回 字段名 -> 规则列表，字段名为结构体字段名
	KeyRules() map[string][]*KeyRegex
}

// ErrorMessageProvider 错误消息提供者接口 - 自定义（如多语言资源）错误消息
// 返回空字符串表示使用规则自身的消息模板
type ErrorMessageProvider interface {
	GetErrorMessage(fieldName, tag, param string) string
}

var (
	keyRuleProviderType      = reflect.TypeOf((*KeyRuleProvider)(nil)).Elem()
	errorMessageProviderType = reflect.TypeOf((*ErrorMessageProvider)(nil)).Elem()
)

// Validator 验证器，负责发现字段上的规则、逐一执行并聚合所有错误
// 设计原则：
//   - 单例模式：Default() 全局唯一
//   - 工厂模式：New() 创建独立实例（测试、隔离配置）
//
// 特性：
//   - 规则来源：keyregex 标签、KeyRuleProvider 接口、RegisterKeyRules 注册、go-playground 标签
//   - 类型信息缓存，避免重复的反射操作
//   - 收集全部错误后统一返回，而非遇到第一个错误就停止
type Validator struct {
	// validate 底层验证器实例（go-playground/validator）
	validate *validator.Validate
	// typeCache 类型信息缓存，key: reflect.Type, value: *typeInfo
	typeCache *sync.Map
	// registered 通过 RegisterKeyRules 注册的规则，key: reflect.Type, value: map[string][]*KeyRegex
	// value 只替换不修改，读路径无需加锁
	registered *sync.Map
	// patterns go-playground 标签中出现过的正则，key: pattern, value: *KeyRegex
	patterns *sync.Map
	// mu 保护 registered 的写入
	mu sync.Mutex
	// logger 日志
	logger *zap.Logger
}

// typeInfo 结构体类型的规则描述，首次校验该类型时构建
type typeInfo struct {
	// fields 所有可导出字段
	fields []fieldInfo
	// isRuleProvider 是否（或其指针）实现了 KeyRuleProvider
	isRuleProvider bool
	// isMessageProvider 是否（或其指针）实现了 ErrorMessageProvider
	isMessageProvider bool
}

// fieldInfo 单个字段的描述
type fieldInfo struct {
	index    int
	name     string
	jsonName string
	typ      reflect.Type
	// rules 来自 keyregex 标签的规则
	rules []*KeyRegex
	// nested 字段是结构体或结构体指针，需要递归
	nested bool
	// embedded 匿名嵌入字段，命名空间不追加字段名
	embedded bool
}

// Option 验证器选项
type Option func(*options)

type options struct {
	tagName string
	logger  *zap.Logger
}

// WithTagName 设置 go-playground 使用的标签名（默认 validate，gin 使用 binding）
func WithTagName(tagName string) Option {
	return func(o *options) {
		if tagName != "" {
			o.tagName = tagName
		}
	}
}

// WithLogger 设置日志，nil 表示不输出
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

var (
	// defaultValidator 默认验证器实例，全局单例
	defaultValidator *Validator
	// once 确保默认验证器只初始化一次（线程安全）
	once sync.Once
)

// Default 获取默认验证器实例（单例模式）
func Default() *Validator {
	once.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// Validate 使用默认验证器验证对象
func Validate(obj any) ValidationErrors {
	return Default().Validate(obj)
}

// IsValid 使用默认验证器判断对象是否完全合法
func IsValid(obj any) bool {
	return Default().IsValid(obj)
}

// EnsureIsValid 使用默认验证器校验对象，不合法时返回 *AggregateValidationError
func EnsureIsValid(obj any) error {
	return Default().EnsureIsValid(obj)
}

// New 创建新的验证器实例
func New(opts ...Option) *Validator {
	o := &options{tagName: defaultTagName}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	v := &Validator{
		validate:   validator.New(),
		typeCache:  &sync.Map{},
		registered: &sync.Map{},
		patterns:   &sync.Map{},
		logger:     o.logger,
	}

	v.validate.SetTagName(o.tagName)
	// 使用 json tag 作为字段名，错误中的 JsonName 与 API 保持一致
	v.validate.RegisterTagNameFunc(jsonFieldName)
	// nil 值同样交给 keyregex 判定（声明类型合法时视为通过）
	if err := v.validate.RegisterValidation(TagKeyRegex, v.validateKeyRegexTag, true); err != nil {
		panic(fmt.Sprintf("validator: register %s: %v", TagKeyRegex, err))
	}

	return v
}

// Validate 验证模型，返回全部字段错误，nil 表示验证通过
//
// 验证流程（按顺序执行）：
//  1. go-playground 标签验证（含 keyregex=pattern 形式）
//  2. keyregex 标签、KeyRuleProvider、RegisterKeyRules 规则验证
//  3. 递归验证嵌套的结构体字段，超过 100 层的子树不再检查键格式
//
// 键格式错误的消息优先取所在层模型的 ErrorMessageProvider，其次是根对象的；
// go-playground 标签错误只使用根对象的 ErrorMessageProvider
//
// 对象为 nil 或不是结构体时返回一条描述该问题的错误
func (v *Validator) Validate(obj any) ValidationErrors {
	errs, err := v.run(obj)
	if err != nil {
		return ValidationErrors{
			NewFieldError(obj, "", "", "struct", "").WithMessage(err.Error()),
		}
	}
	return errs
}

// IsValid 判断对象是否完全合法
func (v *Validator) IsValid(obj any) bool {
	errs, err := v.run(obj)
	return err == nil && len(errs) == 0
}

// EnsureIsValid 校验对象，不合法时返回 *AggregateValidationError
// 对象为 nil 或不是结构体时返回 ErrNilTarget / ErrNotStruct
func (v *Validator) EnsureIsValid(obj any) error {
	errs, err := v.run(obj)
	if err != nil {
		return err
	}
	if len(errs) == 0 {
		return nil
	}
	return &AggregateValidationError{
		TypeName: targetTypeName(obj),
		Errors:   errs,
	}
}

// RegisterKeyRules 以代码方式为模型字段追加规则
// 参数：
//
//	model: 结构体或结构体指针（仅用于确定类型）
//	field: 结构体字段名（必须是该结构体直接声明的可导出字段）
//	rules: 追加的规则，nil 会被忽略
func (v *Validator) RegisterKeyRules(model any, field string, rules ...*KeyRegex) error {
	typ := reflect.TypeOf(model)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %v", ErrNotStruct, typ)
	}
	if !hasDirectField(typ, field) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, typ, field)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	next := make(map[string][]*KeyRegex)
	if current, ok := v.registered.Load(typ); ok {
		for name, list := range current.(map[string][]*KeyRegex) {
			next[name] = list
		}
	}

	merged := append([]*KeyRegex(nil), next[field]...)
	for _, rule := range rules {
		if rule != nil {
			merged = append(merged, rule)
		}
	}
	next[field] = merged

	v.registered.Store(typ, next)
	return nil
}

// ClearTypeCache 清除类型缓存（不影响 RegisterKeyRules 注册的规则）
// 可与 Validate 并发调用
func (v *Validator) ClearTypeCache() {
	v.typeCache.Range(func(key, _ any) bool {
		v.typeCache.Delete(key)
		return true
	})
}

// GetUnderlyingValidator 获取底层的 go-playground/validator 实例
// 警告：此方法暴露了第三方库的实现细节，仅用于高级场景（如 gin 的 Engine()）
func (v *Validator) GetUnderlyingValidator() *validator.Validate {
	return v.validate
}

// run 执行校验，返回字段错误；对象本身不可校验时返回 error
func (v *Validator) run(obj any) (ValidationErrors, error) {
	val := reflect.ValueOf(obj)
	if !val.IsValid() {
		return nil, ErrNilTarget
	}
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, ErrNilTarget
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %s", ErrNotStruct, val.Type())
	}

	provider, _ := asInterface(val, errorMessageProviderType).(ErrorMessageProvider)

	ctx := acquireValidationContext(val.Type().String(), provider)
	defer releaseValidationContext(ctx)

	// 步骤1: go-playground 标签验证（自身会递归嵌套结构体）
	if err := v.validate.Struct(structInterface(val)); err != nil {
		v.addValidatorErrors(err, ctx)
	}

	// 步骤2/3: 键格式规则验证，递归嵌套结构体
	v.validateKeyRules(val, "", ctx, 0)

	return ctx.result(), nil
}

// validateKeyRules 对结构体的每个字段执行全部键格式规则
// 同一字段上的多条规则各自独立报告错误
func (v *Validator) validateKeyRules(val reflect.Value, prefix string, ctx *ValidationContext, depth int) {
	// 防止栈溢出：超过最大深度的子树不再检查键格式
	if depth > maxNestedDepth {
		v.logger.Debug("nested key validation skipped",
			zap.String("type", ctx.TypeName),
			zap.String("field", prefix),
			zap.Int("max_depth", maxNestedDepth),
		)
		return
	}

	typ := val.Type()
	info := v.getOrCacheTypeInfo(typ)

	var registered map[string][]*KeyRegex
	if cached, ok := v.registered.Load(typ); ok {
		registered = cached.(map[string][]*KeyRegex)
	}

	var provided map[string][]*KeyRegex
	if info.isRuleProvider {
		if provider, ok := asInterface(val, keyRuleProviderType).(KeyRuleProvider); ok {
			provided = provider.KeyRules()
		}
	}

	// 嵌套模型自己的消息提供者优先，没有时沿用根对象的
	messages := ctx.provider
	if info.isMessageProvider {
		if provider, ok := asInterface(val, errorMessageProviderType).(ErrorMessageProvider); ok {
			messages = provider
		}
	}

	for i := range info.fields {
		f := &info.fields[i]
		fv := val.Field(f.index)

		namespace := prefix
		if !f.embedded {
			namespace = joinNamespace(prefix, f.name)
		}

		v.evaluateField(f, fv, namespace, ctx, messages, f.rules, registered[f.name], provided[f.name])

		if f.nested {
			if nested, ok := derefStruct(fv); ok {
				v.validateKeyRules(nested, namespace, ctx, depth+1)
			}
		}
	}
}

// evaluateField 依次执行字段上的规则组
func (v *Validator) evaluateField(f *fieldInfo, fv reflect.Value, namespace string, ctx *ValidationContext, messages ErrorMessageProvider, groups ...[]*KeyRegex) {
	var value any
	if fv.CanInterface() {
		value = fv.Interface()
	}

	for _, rules := range groups {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			fe := rule.Evaluate(f.name, f.typ, value)
			if fe == nil {
				continue
			}

			v.logger.Debug("key format validation failed",
				zap.String("type", ctx.TypeName),
				zap.String("field", namespace),
				zap.String("pattern", rule.Pattern()),
			)
			ctx.addErrorWith(fe.WithNamespace(namespace).WithJsonName(f.jsonName), messages)
		}
	}
}

// addValidatorErrors 将 go-playground 的错误转换为内部错误类型
func (v *Validator) addValidatorErrors(err error, ctx *ValidationContext) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// 不是标准的验证错误，作为普通错误处理
		ctx.AddError(NewFieldError(nil, "", "", "", "").WithMessage(err.Error()))
		return
	}

	for _, e := range validationErrors {
		fe := newFieldErrorByValidator(e)
		if e.Tag() == TagKeyRegex {
			fe.Message = v.keyRegexFor(e.Param()).Message(e.StructField())
			v.logger.Debug("key format validation failed",
				zap.String("type", ctx.TypeName),
				zap.String("field", fe.Namespace),
				zap.String("pattern", e.Param()),
			)
		}
		ctx.AddError(fe)
	}
}

// getOrCacheTypeInfo 获取或缓存类型信息
// 标签中的非法正则在此处 panic：类型描述阶段的错误不能推迟到校验时
func (v *Validator) getOrCacheTypeInfo(typ reflect.Type) *typeInfo {
	if cached, ok := v.typeCache.Load(typ); ok {
		return cached.(*typeInfo)
	}

	info := &typeInfo{
		isRuleProvider: typ.Implements(keyRuleProviderType) ||
			reflect.PointerTo(typ).Implements(keyRuleProviderType),
		isMessageProvider: typ.Implements(errorMessageProviderType) ||
			reflect.PointerTo(typ).Implements(errorMessageProviderType),
	}

	numField := typ.NumField()
	for i := 0; i < numField; i++ {
		sf := typ.Field(i)
		// 跳过私有字段
		if !sf.IsExported() {
			continue
		}

		f := fieldInfo{
			index:    i,
			name:     sf.Name,
			jsonName: jsonFieldName(sf),
			typ:      sf.Type,
			nested:   isStructOrStructPtr(sf.Type),
		}
		f.embedded = sf.Anonymous && f.nested

		patterns, err := lookupTagValues(sf.Tag, TagKeyRegex)
		if err != nil {
			// 格式错误的标签中可能有被吞掉的 keyregex，不能当作没有规则
			if strings.Contains(string(sf.Tag), TagKeyRegex) {
				panic(fmt.Errorf("validator: %s.%s: %w", typ, sf.Name, err))
			}
			patterns = nil
		}

		message := sf.Tag.Get(TagKeyRegexMessage)
		for _, pattern := range patterns {
			rule, err := NewKeyRegex(pattern, WithMessage(message))
			if err != nil {
				panic(fmt.Errorf("validator: %s.%s: %w", typ, sf.Name, err))
			}
			f.rules = append(f.rules, rule)
		}

		info.fields = append(info.fields, f)
	}

	actual, _ := v.typeCache.LoadOrStore(typ, info)
	return actual.(*typeInfo)
}

// keyRegexFor 获取 go-playground 标签参数对应的规则（按 pattern 缓存）
func (v *Validator) keyRegexFor(pattern string) *KeyRegex {
	if cached, ok := v.patterns.Load(pattern); ok {
		return cached.(*KeyRegex)
	}
	actual, _ := v.patterns.LoadOrStore(pattern, MustKeyRegex(pattern))
	return actual.(*KeyRegex)
}

// ============================================================================
// 反射辅助函数
// ============================================================================

// asInterface 取出实现了 iface 的值，优先使用指针（方法可能定义在指针接收者上）
// 值不可寻址时（按值传入的模型）复制一份再取地址，原值不受影响
func asInterface(val reflect.Value, iface reflect.Type) any {
	if !val.CanInterface() {
		return nil
	}
	if val.Type().Implements(iface) {
		return val.Interface()
	}
	if !reflect.PointerTo(val.Type()).Implements(iface) {
		return nil
	}
	if val.CanAddr() {
		return val.Addr().Interface()
	}

	ptr := reflect.New(val.Type())
	ptr.Elem().Set(val)
	return ptr.Interface()
}

// structInterface 取结构体的可校验形式，可寻址时传指针
func structInterface(val reflect.Value) any {
	if val.CanAddr() {
		return val.Addr().Interface()
	}
	return val.Interface()
}

// derefStruct 解引用到结构体值，nil 指针返回 false
func derefStruct(val reflect.Value) (reflect.Value, bool) {
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return reflect.Value{}, false
		}
		val = val.Elem()
	}
	return val, val.Kind() == reflect.Struct
}

func isStructOrStructPtr(typ reflect.Type) bool {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ.Kind() == reflect.Struct
}

func hasDirectField(typ reflect.Type, name string) bool {
	for i := 0; i < typ.NumField(); i++ {
		if sf := typ.Field(i); sf.Name == name && sf.IsExported() {
			return true
		}
	}
	return false
}

func targetTypeName(obj any) string {
	typ := reflect.TypeOf(obj)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil {
		return "<nil>"
	}
	return typ.Name()
}
