package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置
// 通过 mapstructure 标签由 viper 直接解码
type Config struct {
	// Level 日志级别：debug, info, warn, error
	Level string `mapstructure:"level"`
	// Encoding 输出格式：json 或 console
	Encoding string `mapstructure:"encoding"`
	// Filename 日志文件路径，为空时输出到 stderr
	Filename string `mapstructure:"filename"`
	// MaxSize 单个日志文件最大尺寸（MB）
	MaxSize int `mapstructure:"max_size"`
	// MaxBackups 保留的旧日志文件数量
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAge 旧日志文件保留天数
	MaxAge int `mapstructure:"max_age"`
	// Compress 是否压缩旧日志文件
	Compress bool `mapstructure:"compress"`
}

// DefaultConfig 默认配置：info 级别，json 格式，输出到 stderr
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Encoding:   "json",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// New 按配置创建 zap.Logger
// 设置了 Filename 时使用 lumberjack 滚动写文件
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logger: invalid level %q: %w", cfg.Level, err)
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("logger: unsupported encoding %q", cfg.Encoding)
	}

	core := zapcore.NewCore(encoder, writeSyncer(cfg), level)
	return zap.New(core, zap.AddCaller()), nil
}

// writeSyncer 选择输出目标
func writeSyncer(cfg Config) zapcore.WriteSyncer {
	if cfg.Filename == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
}
