package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("test", flag.ContinueOnError)
}

func TestLoad_MissingGeminiKey(t *testing.T) {
	t.Setenv("GENERATION_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load(newFlagSet(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoad_MissingOpenAIKey(t *testing.T) {
	t.Setenv("GENERATION_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load(newFlagSet(), nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("GENERATION_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("TRANSLATOR_PROVIDER", "stub")
	t.Setenv("GENERATION_TIMEOUT", "5s")

	cfg, err := Load(newFlagSet(), []string{"-bind-addr", ":9000", "-translation-chunk-size", "100"})
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.GenerationProvider)
	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, TranslatorStub, cfg.TranslatorProvider)
	assert.Equal(t, 5*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, ":9000", cfg.BindAddr)
	assert.Equal(t, 100, cfg.TranslationChunkSize)
	// дефолты сохраняются
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "stub provider needs no key", mutate: func(c *Config) { c.GenerationProvider = ProviderStub }},
		{name: "unknown provider", mutate: func(c *Config) { c.GenerationProvider = "claude" }, wantErr: true},
		{name: "openai translator without key", mutate: func(c *Config) {
			c.GenerationProvider = ProviderStub
			c.TranslatorProvider = TranslatorOpenAI
		}, wantErr: true},
		{name: "zero chunk size", mutate: func(c *Config) {
			c.GenerationProvider = ProviderStub
			c.TranslationChunkSize = 0
		}, wantErr: true},
		{name: "unknown translator", mutate: func(c *Config) {
			c.GenerationProvider = ProviderStub
			c.TranslatorProvider = "deepl"
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
