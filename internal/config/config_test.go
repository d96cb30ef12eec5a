package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/clickreplay/internal/executor"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, Exists(path))
	assert.False(t, cfg.FilesCheck)
	assert.Equal(t, executor.FailurePolicy{Mode: executor.Continue}, cfg.Failure)
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.HoldTerminal)
	assert.Equal(t, 3*time.Second, cfg.Countdown)
	assert.Equal(t, "task.clk", cfg.TaskFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "system.log", cfg.LogFile)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `# balance output folders
Number_of_Files_Check=ENABLE
PATH_1=.\PATH1
PATH_2=out2
ON_INJECT_FAILURE=abort
INJECT_RETRIES=2
INTERRUPTIBLE_DELAY=true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.FilesCheck)
	assert.Equal(t, `.\PATH1`, cfg.Path1)
	assert.Equal(t, "out2", cfg.Path2)
	assert.Equal(t, executor.FailurePolicy{Mode: executor.Abort, Retries: 2}, cfg.Failure)
	assert.True(t, cfg.InterruptibleDelay)
	assert.Equal(t, "ENABLE", cfg.Get("number_of_files_check"))
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, "LOG_LEVEL=info\n")
	t.Setenv("CLICKREPLAY_LOG_LEVEL", "warn")
	t.Setenv("CLICKREPLAY_MIN_DELAY_MS", "25")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 25*time.Millisecond, cfg.MinDelay)
}

func TestLoadInvalidValues(t *testing.T) {
	path := writeConfig(t, "INJECT_RETRIES=many\nON_INJECT_FAILURE=explode\nINTERRUPTIBLE_DELAY=maybe\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyInjectRetries)
	assert.Contains(t, err.Error(), KeyOnInjectFailure)
	assert.Contains(t, err.Error(), KeyInterruptibleDelay)
}

func TestFilesCheckNeedsPaths(t *testing.T) {
	path := writeConfig(t, "NUMBER_OF_FILES_CHECK=ENABLE\nPATH_1=\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestInitAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)

	require.NoError(t, Init(path, false))
	assert.True(t, Exists(path))
	assert.Error(t, Init(path, false))
	assert.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults()[KeyPath1], cfg.Path1)
	assert.Equal(t, "DISABLE", cfg.Get(KeyFilesCheck))
}

func TestSetAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Set("hold_terminal_ms", "100"))
	assert.Equal(t, 100*time.Millisecond, cfg.HoldTerminal)
	assert.Error(t, cfg.Set(KeyInjectRetries, "-1"))
	require.NoError(t, cfg.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, reloaded.HoldTerminal)
}

func TestPrintSorted(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	require.NoError(t, err)

	var buf bytes.Buffer
	cfg.Print(&buf)
	out := buf.String()
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("Configurations:\n")))
	assert.Less(t, bytes.Index([]byte(out), []byte("COUNTDOWN_S")), bytes.Index([]byte(out), []byte("PATH_1")))
}
