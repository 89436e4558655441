package gormx

import (
	"fmt"
	"reflect"

	"gorm.io/gorm"

	"katydid-data-annotations/pkg/validator"
)

const (
	// pluginName 插件名称
	pluginName = "katydid:validator"
	// callbackName 回调名称
	callbackName = "katydid:validate"
)

// Plugin gorm 插件：在 create / update 之前校验模型
// 校验失败时通过 db.AddError 返回 *validator.AggregateValidationError，写入不会发生
//
// 使用：
//
//	db.Use(gormx.NewPlugin(nil))
type Plugin struct {
	v *validator.Validator
}

var _ gorm.Plugin = (*Plugin)(nil)

// NewPlugin 创建插件，v 为 nil 时使用 validator.Default()
func NewPlugin(v *validator.Validator) *Plugin {
	if v == nil {
		v = validator.Default()
	}
	return &Plugin{v: v}
}

// Name 实现 gorm.Plugin
func (p *Plugin) Name() string {
	return pluginName
}

// Initialize 实现 gorm.Plugin，注册回调
func (p *Plugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register(callbackName, p.validate); err != nil {
		return fmt.Errorf("gormx: register create callback: %w", err)
	}
	if err := db.Callback().Update().Before("gorm:update").Register(callbackName, p.validate); err != nil {
		return fmt.Errorf("gormx: register update callback: %w", err)
	}
	return nil
}

// validate 回调实现，只校验结构体（含切片批量写入），map 方式写入不校验
func (p *Plugin) validate(db *gorm.DB) {
	if db.Error != nil || db.Statement == nil {
		return
	}

	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Struct:
		p.validateValue(db, rv)
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			p.validateValue(db, reflect.Indirect(rv.Index(i)))
			if db.Error != nil {
				return
			}
		}
	}
}

func (p *Plugin) validateValue(db *gorm.DB, rv reflect.Value) {
	if rv.Kind() != reflect.Struct || !rv.CanInterface() {
		return
	}

	obj := rv.Interface()
	if rv.CanAddr() {
		obj = rv.Addr().Interface()
	}

	if err := p.v.EnsureIsValid(obj); err != nil {
		_ = db.AddError(err)
	}
}
