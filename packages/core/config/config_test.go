package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{"go", "test", "-json", "./..."}, cfg.Command)
	assert.Equal(t, "go", cfg.Format)
	assert.False(t, cfg.GetNoColor())
	assert.False(t, cfg.GetBail())
	assert.True(t, cfg.IsDefault())
}

func TestFindAndLoadConfig(t *testing.T) {
	t.Run("no config file returns defaults", func(t *testing.T) {
		cfg, err := FindAndLoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.True(t, cfg.IsDefault())
	})

	t.Run("loads yaml config", func(t *testing.T) {
		dir := t.TempDir()
		content := `command: [npx, tap, --reporter=tap]
format: tap
envFile: .env.test
env:
  NODE_ENV: test
bail: true
watch:
  paths: [src, test]
  extensions: [.js, .ts]
  debounce: 1s
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "dotrun.yaml"), []byte(content), 0644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"npx", "tap", "--reporter=tap"}, cfg.Command)
		assert.Equal(t, "tap", cfg.Format)
		assert.Equal(t, ".env.test", cfg.EnvFile)
		assert.Equal(t, map[string]string{"NODE_ENV": "test"}, cfg.Env)
		assert.True(t, cfg.GetBail())
		assert.False(t, cfg.GetNoColor())
		assert.False(t, cfg.IsDefault())

		w := cfg.GetWatch()
		assert.Equal(t, []string{"src", "test"}, w.Paths)
		assert.Equal(t, []string{".js", ".ts"}, w.Extensions)
		assert.Equal(t, DefaultMaxRunsPerMinute, w.MaxRunsPerMinute)
		d, err := w.DebounceDuration()
		require.NoError(t, err)
		assert.Equal(t, time.Second, d)
	})

	t.Run("hidden file takes precedence", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".dotrun.yaml"), []byte("format: junit\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "dotrun.yaml"), []byte("format: tap\n"), 0644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "junit", cfg.Format)
		assert.Equal(t, DefaultCommand(), cfg.Command)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".dotrun.yml"), []byte("command: [unterminated\n"), 0644))

		_, err := FindAndLoadConfig(dir)
		assert.ErrorContains(t, err, "parsing config")
	})
}

func TestLoadConfig_ExplicitPathMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading config")
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Env = map[string]string{"A": "1", "B": "2"}

	merged := base.Merge(&Config{
		Format:  "tap",
		NoColor: BoolPtr(true),
		Env:     map[string]string{"B": "3"},
	})

	assert.Equal(t, "tap", merged.Format)
	assert.Equal(t, DefaultCommand(), merged.Command)
	assert.True(t, merged.GetNoColor())
	assert.False(t, merged.GetBail())
	assert.Equal(t, map[string]string{"A": "1", "B": "3"}, merged.Env)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, base.Env, "base is not modified")

	assert.Same(t, base, base.Merge(nil))
}

func TestWatchConfig_DebounceDuration(t *testing.T) {
	d, err := (&WatchConfig{}).DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, d)

	_, err = (&WatchConfig{Debounce: "soon"}).DebounceDuration()
	assert.ErrorContains(t, err, "invalid watch debounce")
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dotrun.yaml")
	cfg := DefaultConfig()
	cfg.Format = "junit"
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "junit", loaded.Format)
	assert.Equal(t, cfg.Command, loaded.Command)
}
