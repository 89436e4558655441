package validator

import (
	"strings"
	"sync"
)

// ============================================================================
// 对象池优化 - 减少内存分配和 GC 压力
// ============================================================================

// ValidationContext 一次校验的上下文，收集所有字段错误
type ValidationContext struct {
	// TypeName 被校验对象的类型名
	TypeName string
	// Errors 所有验证错误的集合
	Errors ValidationErrors
	// provider 模型提供的自定义消息（可选）
	provider ErrorMessageProvider
}

// HasErrors 检查是否有验证错误
func (vc *ValidationContext) HasErrors() bool {
	return len(vc.Errors) > 0
}

// AddError 添加字段错误，nil 会被忽略
// 根对象实现了 ErrorMessageProvider 时使用其消息
func (vc *ValidationContext) AddError(err *FieldError) {
	vc.addErrorWith(err, vc.provider)
}

// addErrorWith 同 AddError，但使用指定的消息提供者（嵌套模型自己的提供者）
func (vc *ValidationContext) addErrorWith(err *FieldError, provider ErrorMessageProvider) {
	if err == nil {
		return
	}
	if provider != nil {
		if msg := provider.GetErrorMessage(err.FieldName, err.Tag, err.Param); msg != "" {
			err.Message = msg
		}
	}
	vc.Errors = append(vc.Errors, err)
}

// result 复制错误列表，调用方拿到的切片与池中对象无关
func (vc *ValidationContext) result() ValidationErrors {
	if len(vc.Errors) == 0 {
		return nil
	}
	errs := make(ValidationErrors, len(vc.Errors))
	copy(errs, vc.Errors)
	return errs
}

var (
	// validationContextPool ValidationContext 对象池
	// 线程安全：sync.Pool 是线程安全的
	validationContextPool = sync.Pool{
		New: func() interface{} {
			return &ValidationContext{
				Errors: make(ValidationErrors, 0, 8), // 预分配8个错误容量
			}
		},
	}

	// stringBuilderPool strings.Builder 对象池
	// 用途：拼接命名空间时复用构建器
	stringBuilderPool = sync.Pool{
		New: func() interface{} {
			return &strings.Builder{}
		},
	}
)

// acquireValidationContext 从对象池获取 ValidationContext
// 使用后必须调用 releaseValidationContext 归还
func acquireValidationContext(typeName string, provider ErrorMessageProvider) *ValidationContext {
	ctx := validationContextPool.Get().(*ValidationContext)
	ctx.TypeName = typeName
	ctx.provider = provider
	ctx.Errors = ctx.Errors[:0] // 清空错误列表，保留底层数组
	return ctx
}

// releaseValidationContext 将 ValidationContext 归还到对象池
func releaseValidationContext(ctx *ValidationContext) {
	if ctx == nil {
		return
	}

	// 防止内存泄漏：清空大容量的错误列表
	if cap(ctx.Errors) > 1000 {
		ctx.Errors = make(ValidationErrors, 0, 8)
	} else {
		// 清空错误引用，帮助 GC 回收
		for i := range ctx.Errors {
			ctx.Errors[i] = nil
		}
		ctx.Errors = ctx.Errors[:0]
	}

	ctx.TypeName = ""
	ctx.provider = nil

	validationContextPool.Put(ctx)
}

// acquireStringBuilder 从对象池获取 strings.Builder
func acquireStringBuilder() *strings.Builder {
	sb := stringBuilderPool.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

// releaseStringBuilder 将 strings.Builder 归还到对象池
func releaseStringBuilder(sb *strings.Builder) {
	if sb == nil {
		return
	}

	// 超过 10KB 的 Builder 不归还，让其被 GC 回收
	if sb.Cap() > 10*1024 {
		return
	}

	sb.Reset()
	stringBuilderPool.Put(sb)
}

// joinNamespace 拼接命名空间（prefix.name），prefix 为空时返回 name
func joinNamespace(prefix, name string) string {
	if prefix == "" {
		return name
	}

	sb := acquireStringBuilder()
	defer releaseStringBuilder(sb)

	sb.Grow(len(prefix) + len(name) + 1)
	sb.WriteString(prefix)
	sb.WriteByte('.')
	sb.WriteString(name)
	return sb.String()
}
