package mocktracer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
service_name: checkout
sampled: false
id_pool_size: 128
workers: 4
queue_size: 256
codecs: [text_map, trace_context]
metrics: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "checkout", cfg.ServiceName)
	require.NotNil(t, cfg.Sampled)
	assert.False(t, *cfg.Sampled)
	assert.Equal(t, 128, cfg.IDPoolSize)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 256, cfg.QueueSize)
	assert.Equal(t, []string{CodecTextMap, CodecTraceContext}, cfg.Codecs)
	assert.True(t, cfg.Metrics)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "service_name: svc\n"))
	require.NoError(t, err)

	assert.True(t, cfg.sampled())
	assert.Equal(t, []string{CodecTextMap, CodecHTTPHeaders, CodecTraceContext}, cfg.codecNames())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "service_nmae: typo\n"},
		{"unknown codec", "codecs: [b3]\n"},
		{"workers without queue", "workers: 2\n"},
		{"negative pool", "id_pool_size: -1\n"},
		{"malformed", "codecs: {\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEmptyCodecListRegistersNone(t *testing.T) {
	cfg := Config{Codecs: []string{}}
	require.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.codecNames())
}
