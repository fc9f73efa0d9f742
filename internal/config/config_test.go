package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"BLOGAPI_ADDR", "BLOGAPI_READ_TIMEOUT", "BLOGAPI_WRITE_TIMEOUT", "BLOGAPI_SHUTDOWN_TIMEOUT",
		"BLOGAPI_REDIS_ADDR", "BLOGAPI_EVENT_QUEUE_CAP", "BLOGAPI_LOG_FORMAT", "BLOGAPI_TRACE_STDOUT",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, int64(1000), cfg.EventQueueCap)
	assert.Equal(t, LogFormatConsole, cfg.LogFormat)
	assert.False(t, cfg.TraceStdout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("BLOGAPI_ADDR", ":9000")
	t.Setenv("BLOGAPI_READ_TIMEOUT", "3s")
	t.Setenv("BLOGAPI_REDIS_ADDR", "redis:6379")
	t.Setenv("BLOGAPI_EVENT_QUEUE_CAP", "50")
	t.Setenv("BLOGAPI_LOG_FORMAT", "json")
	t.Setenv("BLOGAPI_TRACE_STDOUT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, int64(50), cfg.EventQueueCap)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.True(t, cfg.TraceStdout)
}

func TestLoad_InvalidValuesAreErrors(t *testing.T) {
	t.Setenv("BLOGAPI_READ_TIMEOUT", "soon")
	t.Setenv("BLOGAPI_EVENT_QUEUE_CAP", "many")
	t.Setenv("BLOGAPI_TRACE_STDOUT", "maybe")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "BLOGAPI_READ_TIMEOUT")
	assert.Contains(t, err.Error(), "BLOGAPI_EVENT_QUEUE_CAP")
	assert.Contains(t, err.Error(), "BLOGAPI_TRACE_STDOUT")
}

func TestLoad_SingleInvalidValue(t *testing.T) {
	t.Setenv("BLOGAPI_WRITE_TIMEOUT", "abc")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `BLOGAPI_WRITE_TIMEOUT: invalid duration "abc"`)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Addr:            ":8000",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
			EventQueueCap:   10,
			LogFormat:       LogFormatJSON,
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"empty addr":      func(c *Config) { c.Addr = "" },
		"zero timeout":    func(c *Config) { c.WriteTimeout = 0 },
		"zero queue cap":  func(c *Config) { c.EventQueueCap = 0 },
		"bad log format":  func(c *Config) { c.LogFormat = "xml" },
		"negative period": func(c *Config) { c.ShutdownTimeout = -time.Second },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
