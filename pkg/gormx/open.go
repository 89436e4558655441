package gormx

import (
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// 支持的数据库驱动
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnsupportedDriver 不支持的驱动名称
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Dialector 按驱动名称创建 gorm.Dialector
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Open 打开数据库连接并安装校验插件
func Open(driver, dsn string, plugin *Plugin, opts ...gorm.Option) (*gorm.DB, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, opts...)
	if err != nil {
		return nil, fmt.Errorf("gormx: open %s: %w", driver, err)
	}

	if plugin != nil {
		if err := db.Use(plugin); err != nil {
			return nil, fmt.Errorf("gormx: use plugin: %w", err)
		}
	}
	return db, nil
}
