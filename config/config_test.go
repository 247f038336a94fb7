package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	def := 30 * time.Second
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"500ms", 500 * time.Millisecond},
		{"30s", 30 * time.Second},
		{"10m", 10 * time.Minute},
		{"1h", time.Hour},
		{"1.5s", 1500 * time.Millisecond},
		{"8", 8 * time.Second}, // bare numeric means seconds
		{"0.5", 500 * time.Millisecond},
		{`"15s"`, 15 * time.Second},
		{"'2m'", 2 * time.Minute},
		{"", def},
		{"abc", def},
		{"10x", def},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDuration(tt.in, def), "input: %q", tt.in)
	}
}

func TestGetConfigDefaults(t *testing.T) {
	cfg := GetConfig()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 200, cfg.PreviewLimit)
	assert.Equal(t, 500, cfg.MaxReturnRows)
	assert.Equal(t, 96, cfg.Ollama.NumPredict)
	assert.Equal(t, 1024, cfg.Ollama.NumCtx)
	assert.Equal(t, "15m", cfg.Ollama.KeepAlive)
	assert.Equal(t, 8*time.Second, cfg.Agents.CallTimeout)
	assert.Equal(t, 14*time.Second, cfg.Agents.HardDeadline)
	assert.Equal(t, 0.65, cfg.Sanitize.FuzzyCutoff)
	assert.Equal(t, 200, cfg.Sanitize.TopDefault)
}

func TestGetConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("OLLAMA_TIMEOUT", "45s")
	t.Setenv("SANITIZE_TOP_DEFAULT", "100")

	cfg := GetConfig()
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, 100, cfg.Sanitize.TopDefault)
}
