package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"katydid-data-annotations/pkg/logger"
	"katydid-data-annotations/pkg/validator"
)

// envPrefix 环境变量前缀，如 KATYDID_LOG_LEVEL=debug
const envPrefix = "KATYDID"

// ErrInvalidKeyRule 配置中的键格式规则不完整
var ErrInvalidKeyRule = errors.New("invalid key rule config")

// Config 应用配置
type Config struct {
	// Log 日志配置
	Log logger.Config `mapstructure:"log"`
	// KeyRules 外部配置的键格式规则，由 RegisterKeyRules 挂到模型字段上
	KeyRules []KeyRuleConfig `mapstructure:"key_rules"`
}

// KeyRuleConfig 单条键格式规则
// 示例（yaml）：
//
//	key_rules:
//	  - field: Labels
//	    pattern: '^[a-z][a-z0-9_]*$'
//	    message: "'%[1]s' keys must be snake_case"
type KeyRuleConfig struct {
	// Field 结构体字段名
	Field string `mapstructure:"field"`
	// Pattern 正则表达式
	Pattern string `mapstructure:"pattern"`
	// Message 可选的消息模板
	Message string `mapstructure:"message"`
}

// Load 读取配置文件（yaml/json/toml 由扩展名决定），环境变量可覆盖
// path 为空时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := logger.DefaultConfig()
	v.SetDefault("log.level", def.Level)
	v.SetDefault("log.encoding", def.Encoding)
	v.SetDefault("log.filename", def.Filename)
	v.SetDefault("log.max_size", def.MaxSize)
	v.SetDefault("log.max_backups", def.MaxBackups)
	v.SetDefault("log.max_age", def.MaxAge)
	v.SetDefault("log.compress", def.Compress)
}

// BuildKeyRules 编译配置中的规则，返回 字段名 -> 规则列表
// 任一正则非法时返回错误（包装 validator.ErrInvalidPattern）
func (c *Config) BuildKeyRules() (map[string][]*validator.KeyRegex, error) {
	rules := make(map[string][]*validator.KeyRegex, len(c.KeyRules))
	for i, rc := range c.KeyRules {
		if rc.Field == "" || rc.Pattern == "" {
			return nil, fmt.Errorf("%w: key_rules[%d] requires field and pattern", ErrInvalidKeyRule, i)
		}
		rule, err := validator.NewKeyRegex(rc.Pattern, validator.WithMessage(rc.Message))
		if err != nil {
			return nil, fmt.Errorf("config: key_rules[%d]: %w", i, err)
		}
		rules[rc.Field] = append(rules[rc.Field], rule)
	}
	return rules, nil
}

// ApplyKeyRules 编译规则并注册到验证器的模型上
func (c *Config) ApplyKeyRules(v *validator.Validator, model any) error {
	rules, err := c.BuildKeyRules()
	if err != nil {
		return err
	}
	for field, list := range rules {
		if err := v.RegisterKeyRules(model, field, list...); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}
