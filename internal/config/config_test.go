package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("echo", pflag.ContinueOnError)
	flags.String("backend-url", "", "")
	flags.String("openai-api-key", "", "")
	flags.String("openai-model", "", "")
	flags.Bool("verbose", false, "")
	flags.Bool("no-playback", false, "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPEN_AI_API_KEY", "")
	cfg, err := Load(viper.New(), nil, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.Empty(t, cfg.OpenAIAPIKey)
	assert.False(t, cfg.Verbose)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("ECHO_BACKEND_URL", "http://backend.test:9000")
	t.Setenv("OPEN_AI_API_KEY", "sk-env")
	t.Setenv("ECHO_VERBOSE", "true")

	cfg, err := Load(viper.New(), nil, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://backend.test:9000", cfg.BackendURL)
	assert.Equal(t, "sk-env", cfg.OpenAIAPIKey)
	assert.True(t, cfg.Verbose)
}

func TestLoad_FlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("ECHO_BACKEND_URL", "http://from-env")
	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--backend-url", "http://from-flag", "--no-playback"}))

	cfg, err := Load(viper.New(), flags, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag", cfg.BackendURL)
	assert.True(t, cfg.NoPlayback)
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ECHO_OPENAI_MODEL=gpt-4\n"), 0644))
	t.Setenv("ECHO_OPENAI_MODEL", "")
	require.NoError(t, os.Unsetenv("ECHO_OPENAI_MODEL"))

	cfg, err := Load(viper.New(), nil, envFile)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", cfg.OpenAIModel)

	require.NoError(t, os.Unsetenv("ECHO_OPENAI_MODEL"))
}
