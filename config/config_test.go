package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	DefineFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t), filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 800.0, cfg.Width)
	assert.Equal(t, 600.0, cfg.Height)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "#ffffff", cfg.Background)
	assert.Equal(t, "png", cfg.Format)
	assert.Equal(t, 300, cfg.Ticks)
	assert.Equal(t, 10.0, cfg.Cell.Width)
	assert.Equal(t, 20.0, cfg.Cell.Height)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int64(1), cfg.Synthetic.Seed)
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywordgraph.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
width = 1024
fps = 20
format = "svg"

[log]
level = "warn"

[synthetic]
count = 50
`), 0o644))

	t.Setenv("KEYWORDGRAPH_FPS", "45")
	t.Setenv("KEYWORDGRAPH_LOG_LEVEL", "debug")

	cfg, err := Load(newFlags(t, "--format", "dot", "--synthetic-seed", "9"), path)
	require.NoError(t, err)

	// file
	assert.Equal(t, 1024.0, cfg.Width)
	assert.Equal(t, 50, cfg.Synthetic.Count)

	// env over file
	assert.Equal(t, 45, cfg.FPS)
	assert.Equal(t, "debug", cfg.Log.Level)

	// flag over file
	assert.Equal(t, "dot", cfg.Format)
	assert.Equal(t, int64(9), cfg.Synthetic.Seed)

	// default
	assert.Equal(t, 600.0, cfg.Height)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(newFlags(t, "--width", "-5"), filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)

	_, err = Load(newFlags(t, "--format", "gif"), filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)

	_, err = Load(newFlags(t, "--height", "100000"), filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)

	cfg, err := Load(newFlags(t, "--width", "16384"), filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, 16384.0, cfg.Width)
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("width = = 3"), 0o644))

	_, err := Load(nil, path)
	assert.Error(t, err)
}
