package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "默认配置", cfg: DefaultConfig()},
		{name: "console", cfg: Config{Level: "debug", Encoding: "console"}},
		{name: "非法级别", cfg: Config{Level: "verbose"}, wantErr: true},
		{name: "非法格式", cfg: Config{Encoding: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestNew_File(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Filename = filepath.Join(t.TempDir(), "validator.log")

	log, err := New(cfg)
	require.NoError(t, err)

	log.Info("hello")
	_ = log.Sync()

	data, err := os.ReadFile(cfg.Filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
