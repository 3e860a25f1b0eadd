package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, BackendNone, c.Backend.Kind)

	p := c.Pipeline()
	assert.Equal(t, 4*time.Second, p.Deadline)
	assert.Equal(t, "v1", p.PipelineVersion)
	assert.Equal(t, c.Tags, p.Tags)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	c := Default()
	c.Backend.Kind = BackendOllama
	c.Backend.URL = "http://localhost:11434"
	c.Orchestrator.Deadline = "2500ms"
	c.Caption.MaxLength = 80
	require.NoError(t, c.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Validate())
	assert.Equal(t, c, loaded)
	assert.Equal(t, 2500*time.Millisecond, loaded.Pipeline().Deadline)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[caption]\nmax_length = 60\n"), 0644))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 60, loaded.Caption.MaxLength)
	assert.Equal(t, Default().Tags, loaded.Tags)
	assert.NoError(t, loaded.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[caption\n"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty version", func(c *Config) { c.Orchestrator.PipelineVersion = "" }},
		{"bad deadline", func(c *Config) { c.Orchestrator.Deadline = "soon" }},
		{"negative deadline", func(c *Config) { c.Orchestrator.Deadline = "-1s" }},
		{"no workers", func(c *Config) { c.Orchestrator.Workers = 0 }},
		{"no cache", func(c *Config) { c.Orchestrator.CacheCapacity = 0 }},
		{"unknown backend", func(c *Config) { c.Backend.Kind = "openai" }},
		{"backend without model", func(c *Config) { c.Backend.Kind = BackendLlamaCpp; c.Backend.Model.Model = "" }},
		{"jpeg quality", func(c *Config) { c.Backend.Model.JPEGQuality = 0 }},
		{"no formats", func(c *Config) { c.Analyzer.SupportedFormats = nil }},
		{"edge threshold", func(c *Config) { c.Vision.EdgeThreshold = 2 }},
		{"background override", func(c *Config) { c.Fusion.BackgroundOverride = 1.5 }},
		{"boost below one", func(c *Config) { c.Fusion.PersonBoost = 0.5 }},
		{"too many subjects", func(c *Config) { c.Subject.MaxSubjects = 4 }},
		{"short caption", func(c *Config) { c.Caption.MaxLength = 5 }},
		{"no tags", func(c *Config) { c.Tags.MaxTags = 0 }},
		{"crop padding", func(c *Config) { c.Tags.Crop.PaddingRatio = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.toml", filepath.Base(GetConfigPath()))
}
