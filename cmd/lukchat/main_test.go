package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	configPath = ""

	buf := new(bytes.Buffer)
	cmd := newRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return buf.String(), err
}

func writeConfig(t *testing.T, dir, key string) string {
	data := fmt.Sprintf(`node:
  role: miner
  key: %q
  profile:
    name: test
storage:
  driver: bolt
  path: %s
logger:
  level: error
simulation:
  nodes: 3
  miners: 1
  interval: 10ms
  duration: 200ms
`, key, filepath.Join(dir, "chain.db"))

	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	return path
}

func TestKeygen(t *testing.T) {
	out, err := execute(t, "keygen")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "WIF: "))
	require.True(t, strings.HasPrefix(lines[1], "ID:  "))

	wif := strings.TrimPrefix(lines[0], "WIF: ")

	t.Run("configured key", func(t *testing.T) {
		dir := t.TempDir()
		cfg := writeConfig(t, dir, wif)

		out, err := execute(t, "--config", cfg, "genesis")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(out, "genesis: "))
	})
}

func TestGenesisInspect(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")

	out, err := execute(t, "--config", cfg, "genesis")
	require.NoError(t, err)
	genesis := strings.TrimSpace(strings.TrimPrefix(out, "genesis: "))
	require.NotEmpty(t, genesis)

	_, err = execute(t, "--config", cfg, "genesis")
	require.Error(t, err)

	out, err = execute(t, "--config", cfg, "inspect", "--verbose")
	require.NoError(t, err)
	require.Contains(t, out, "stored: 1\n")
	require.Contains(t, out, "length: 1\n")
	require.Contains(t, out, "tail:   "+genesis)
}

func TestSimulate(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")

	out, err := execute(t, "--config", cfg, "simulate")
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(out, "length="))
	require.Contains(t, out, "node-0")

	out, err = execute(t, "--config", cfg, "inspect")
	require.NoError(t, err)
	require.NotContains(t, out, "length: 0\n")
}

func TestBadConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yml"), "inspect")
	require.Error(t, err)
}
