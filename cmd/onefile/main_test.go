package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "onefile.db")
	configPath := filepath.Join(dir, "onefile.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
database:
  path: `+dbPath+`
storage:
  default: local
  disks:
    local:
      driver: local
      root: `+filepath.Join(dir, "storage")+`
logging:
  level: error
`), 0644))

	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate", "--config", configPath})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestMigrateCommand_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "onefile.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("storage:\n  default: missing\n"), 0644))

	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate", "--config", configPath})
	assert.Error(t, cmd.Execute())
}
