package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Workers  int
	Duration time.Duration
	Ignored  []int
	Nested   struct {
		Name string
	}
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig_MergesOverridesAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "workers: 1\nduration: 10s\nnested:\n  name: base\n")
	override := writeFile(t, t.TempDir(), "override.yaml", "workers: 4\n")
	t.Setenv("HTAPBENCH_NESTED_NAME", "fromenv")

	var config testConfig
	_, err := LoadConfig(&config, dir, []string{override})
	require.NoError(t, err)

	assert.Equal(t, 4, config.Workers)
	assert.Equal(t, 10*time.Second, config.Duration)
	assert.Equal(t, "fromenv", config.Nested.Name)
}

func TestLoadConfig_MissingDefault(t *testing.T) {
	var config testConfig
	_, err := LoadConfig(&config, t.TempDir(), nil)
	assert.Error(t, err)
}

func TestBindFlags_OnlyChangedFlagsWin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "workers: 2\nduration: 10s\n")

	var config testConfig
	v, err := LoadConfig(&config, dir, nil)
	require.NoError(t, err)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 99, "")
	flags.Duration("duration", time.Hour, "")
	flags.String("ignored", "", "")
	require.NoError(t, flags.Parse([]string{"--workers=8", "--ignored=3,5"}))

	require.NoError(t, BindFlags(v, flags, &config))
	assert.Equal(t, 8, config.Workers)
	assert.Equal(t, 10*time.Second, config.Duration)
	assert.Equal(t, []int{3, 5}, config.Ignored)
}
