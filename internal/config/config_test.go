package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup points the config at a fresh directory and reloads it.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KITFILE_HOME", dir)
	viper.Reset()
	t.Cleanup(viper.Reset)
	Load()
	return dir
}

func TestDefaults(t *testing.T) {
	setup(t)

	assert.Equal(t, "Kitfile", Get(KeyKitfile))
	assert.True(t, GetBool(KeySuppressEmpty))
	assert.Equal(t, slog.LevelWarn, LogLevel())
	assert.Len(t, All(), len(Keys))
}

func TestDirOverride(t *testing.T) {
	dir := setup(t)
	assert.Equal(t, dir, Dir())
	assert.Equal(t, filepath.Join(dir, "config.yaml"), FilePath())
}

func TestSetPersists(t *testing.T) {
	dir := setup(t)

	require.NoError(t, Set(KeySuppressEmpty, "false"))
	require.NoError(t, Set(KeyLogLevel, "DEBUG"))
	require.NoError(t, Set(KeyAuthor, "Ada"))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "author: Ada")

	viper.Reset()
	Load()
	assert.False(t, GetBool(KeySuppressEmpty))
	assert.Equal(t, slog.LevelDebug, LogLevel())
	assert.Equal(t, "Ada", Get(KeyAuthor))
}

func TestSetRejectsInvalid(t *testing.T) {
	setup(t)

	tests := []struct {
		key, value string
	}{
		{"mirror", "x"},
		{KeySuppressEmpty, "sometimes"},
		{KeyLogLevel, "loud"},
		{KeyKitfile, ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Error(t, Set(tt.key, tt.value))
		})
	}
}

func TestEnvOverride(t *testing.T) {
	setup(t)
	t.Setenv("KITFILE_KITFILE", "Kitfile.prod")
	assert.Equal(t, "Kitfile.prod", Get(KeyKitfile))
}
