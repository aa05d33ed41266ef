package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	opts, err := ParseArgs(nil)
	require.NoError(t, err)
	assert.True(t, opts.Run)
	assert.Empty(t, opts.Command)
	assert.Equal(t, 48000.0, opts.Config.Audio.SampleRate)
	assert.Equal(t, 480, opts.Config.Audio.FramesPerBuffer)
	assert.Equal(t, 1.0, opts.Config.Denoise.Strength)
	assert.True(t, opts.Config.Monitor.TUI)
	assert.Empty(t, opts.RecordFile)
}

func TestParseArgs_List(t *testing.T) {
	t.Chdir(t.TempDir())

	opts, err := ParseArgs([]string{"list", "--interactive"})
	require.NoError(t, err)
	assert.False(t, opts.Run)
	assert.Equal(t, "list", opts.Command)
	assert.True(t, opts.Interactive)
}

func TestParseArgs_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("denoise:\n  strength: 0.9\n  engine: passthrough\naudio:\n  output_device: 4\n"), 0644))

	opts, err := ParseArgs([]string{
		"--config", path,
		"--strength", "0.3",
		"--input", "2",
		"--ws", ":9000",
		"--record-file", "take.wav",
		"--no-tui",
		"-v",
	})
	require.NoError(t, err)

	cfg := opts.Config
	assert.Equal(t, 0.3, cfg.Denoise.Strength)
	assert.Equal(t, "passthrough", cfg.Denoise.Engine, "file value kept when flag unset")
	assert.Equal(t, 2, cfg.Audio.InputDevice)
	assert.Equal(t, 4, cfg.Audio.OutputDevice)
	assert.True(t, cfg.Transport.WebSocketEnabled)
	assert.Equal(t, ":9000", cfg.Transport.WebSocketAddress)
	assert.True(t, cfg.Recording.Enabled)
	assert.Equal(t, "take.wav", opts.RecordFile)
	assert.False(t, cfg.Monitor.TUI)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseArgs_RecordDefaultName(t *testing.T) {
	t.Chdir(t.TempDir())

	opts, err := ParseArgs([]string{"--record"})
	require.NoError(t, err)
	assert.Equal(t, "recordings", filepath.Dir(filepath.Clean(opts.RecordFile)))
	assert.Equal(t, ".wav", filepath.Ext(opts.RecordFile))
}

func TestParseArgs_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := ParseArgs([]string{"--strength", "1.5"})
	assert.Error(t, err)

	_, err = ParseArgs([]string{"--engine", "magic"})
	assert.Error(t, err)

	_, err = ParseArgs([]string{"--no-such-flag"})
	assert.Error(t, err)
}
