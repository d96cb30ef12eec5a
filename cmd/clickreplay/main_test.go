package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/clickreplay/internal/abort"
)

func setupWorkspace(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()

	cfg := "COUNTDOWN_S=0\nHOLD_TERMINAL_MS=0\nLOG_FILE=" + filepath.Join(dir, "system.log") + "\n"
	configPath = filepath.Join(dir, "config.txt")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))

	path := filepath.Join(dir, "task.clk")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))
	return path
}

func TestRunDryRun(t *testing.T) {
	path := setupWorkspace(t, "#start\nLEFT 10 20\nDELAY 1\nENTER\n#end\n")

	var out bytes.Buffer
	cmd := newRunCmd()
	cmd.SetArgs([]string{path, "--loops", "2", "--dry-run", "--yes"})
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(""))

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "=== Executing ClickScript round 2 of 2 ===")
	assert.Contains(t, out.String(), "=== ALL ROUNDS COMPLETED SUCCESSFULLY! ===")
	assert.Contains(t, out.String(), "[1] LEFT → (10, 20)")
}

func TestRunPromptsForLoops(t *testing.T) {
	path := setupWorkspace(t, "#start\nDELAY 1\n#end\n")

	var out bytes.Buffer
	cmd := newRunCmd()
	cmd.SetArgs([]string{path, "--dry-run"})
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("3\n\n"))

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Please enter the number of loops: ")
	assert.Contains(t, out.String(), "Press Enter to confirm and start")
	assert.Contains(t, out.String(), "round 3 of 3")
}

func TestRunRejectsBadLoops(t *testing.T) {
	path := setupWorkspace(t, "#start\nENTER\n#end\n")

	cmd := newRunCmd()
	cmd.SetArgs([]string{path, "--dry-run"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("lots\n"))

	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestRunRecordNeedsBrowser(t *testing.T) {
	path := setupWorkspace(t, "#start\nENTER\n#end\n")

	cmd := newRunCmd()
	cmd.SetArgs([]string{path, "--record", "out.gif", "--loops", "1"})
	cmd.SetOut(&bytes.Buffer{})

	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "--record")
}

func TestCheckCommand(t *testing.T) {
	path := setupWorkspace(t, "#start\nLEFT 1 2\nJUMP\nDELAY 300\n#end\n")

	var out bytes.Buffer
	cmd := newCheckCmd()
	cmd.SetArgs([]string{path})
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "[2] DELAY → 300ms")
	assert.Contains(t, out.String(), "2 actions, 1 warnings")
}

func TestCheckCommandEmpty(t *testing.T) {
	path := setupWorkspace(t, "LEFT 1 2\n")

	cmd := newCheckCmd()
	cmd.SetArgs([]string{path})
	cmd.SetOut(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}

func TestCountdown(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, countdown(context.Background(), &out, 0, abort.Never))
	assert.True(t, countdown(context.Background(), &out, 60*time.Millisecond, abort.Never))
	assert.Contains(t, out.String(), "Starting in 1...")

	flag := &abort.Flag{}
	flag.Trip()
	assert.False(t, countdown(context.Background(), &out, time.Second, flag))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, countdown(ctx, &out, time.Second, abort.Never))
}
