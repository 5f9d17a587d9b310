package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/cellcomplete/pkg/config"
	"github.com/bastiangx/cellcomplete/pkg/dictionary"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()
	cfg.Dict.ChunkSize = 2
	cfg.Completion.Eager = true
	require.NoError(t, config.SaveConfig(cfg, path))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigPrint(t *testing.T) {
	path := writeConfig(t)

	out, err := execute(t, "config", "print", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.Contains(t, out, "[completion]")
	assert.Contains(t, out, "eager = true")
}

func TestDictBuild(t *testing.T) {
	path := writeConfig(t)
	dir := t.TempDir()
	words := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(words, []byte("select 90\nsort 40\nsum 10\n"), 0o644))

	out := filepath.Join(dir, "data")
	_, err := execute(t, "dict", "build", words, "--out", out, "--config", path)
	require.NoError(t, err)

	ix, err := dictionary.NewLoader(out).Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Len())

	chunks, err := dictionary.NewLoader(out).GetAvailableChunks()
	require.NoError(t, err)
	assert.Len(t, chunks, 2, "chunk size comes from config")
}

func TestUnknownLogFormat(t *testing.T) {
	_, err := execute(t, "serve", "--log-format", "xml", "--config", writeConfig(t))
	assert.ErrorContains(t, err, "unknown log format")
}
