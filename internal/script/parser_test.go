package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(s string) []string {
	return strings.Split(s, "\n")
}

func TestParseUnknownCommand(t *testing.T) {
	s, warnings := Parse(lines("#start\nFOO\n#end"))

	assert.Equal(t, 0, s.Len())
	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Line)
	assert.Equal(t, "FOO", warnings[0].Text)
}

func TestParseClickAndDelay(t *testing.T) {
	s, warnings := Parse(lines("#start\nLEFT 10 20\nDELAY 5\n#end"))

	assert.Empty(t, warnings)
	assert.Equal(t, []Action{Click(10, 20, ButtonLeft), Wait(5)}, s.Actions())
}

func TestParseIgnoresOutsideRegion(t *testing.T) {
	src := `# header
LEFT 1 1
#start
  LEFT 100 200
DELAY 300

	RIGHT 50 60
ENTER
#end
RIGHT 9 9
#start
ENTER
#end`
	s, warnings := Parse(lines(src))

	assert.Empty(t, warnings)
	assert.Equal(t, []Action{
		Click(100, 200, ButtonLeft),
		Wait(300),
		Click(50, 60, ButtonRight),
		Press(KeyEnter),
	}, s.Actions())
}

func TestParseEndBeforeStartStopsParsing(t *testing.T) {
	s, warnings := Parse(lines("#end\n#start\nENTER\n#end"))

	assert.Empty(t, warnings)
	assert.Equal(t, 0, s.Len())
}

func TestParseMissingStart(t *testing.T) {
	s, warnings := Parse(lines("LEFT 1 2\nENTER"))

	assert.Empty(t, warnings)
	assert.Equal(t, 0, s.Len())
}

func TestParseRejectsMalformedArguments(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"left missing y", "LEFT 10"},
		{"left not int", "LEFT a 10"},
		{"right extra", "RIGHT 1 2 3"},
		{"delay missing", "DELAY"},
		{"delay float", "DELAY 1.5"},
		{"delay negative", "DELAY -3"},
		{"enter args", "ENTER now"},
		{"lowercase", "left 1 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, warnings := Parse([]string{StartMarker, tt.line, "ENTER", EndMarker})

			require.Len(t, warnings, 1)
			assert.Equal(t, tt.line, warnings[0].Text)
			assert.NotEmpty(t, warnings[0].Reason)
			assert.Equal(t, []Action{Press(KeyEnter)}, s.Actions())
		})
	}
}

func TestParseCountsValidLines(t *testing.T) {
	src := []string{"LEFT 0 0", StartMarker}
	valid := 0
	for i := 0; i < 40; i++ {
		switch i % 4 {
		case 0:
			src = append(src, "LEFT 1 2")
			valid++
		case 1:
			src = append(src, "NOPE")
		case 2:
			src = append(src, "DELAY 10")
			valid++
		case 3:
			src = append(src, "")
		}
	}
	src = append(src, EndMarker, "ENTER")

	s, warnings := Parse(src)
	assert.Equal(t, valid, s.Len())
	assert.Len(t, warnings, 10)
}

func TestScriptStringRoundTrip(t *testing.T) {
	s := New(Click(3, 4, ButtonRight), Wait(20), Press(KeyEnter), Action{})

	parsed, warnings := Parse(lines(s.String()))
	assert.Empty(t, warnings)
	assert.Equal(t, s.Actions(), parsed.Actions())
	assert.Equal(t, 3, s.Len())
}

func TestActionsReturnsCopy(t *testing.T) {
	s := New(Wait(1))
	acts := s.Actions()
	acts[0] = Wait(99)

	assert.Equal(t, Wait(1), s.At(0))
}

func TestLoadFileLogsWarnings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task.clk")
	require.NoError(t, os.WriteFile(path, []byte("#start\nLEFT 1 2\nJUMP\n#end\n"), 0644))

	log, hook := test.NewNullLogger()
	s, err := LoadFile(path, log)
	require.NoError(t, err)
	assert.Equal(t, path, s.Name())
	assert.Equal(t, 1, s.Len())

	var warned int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned++
			assert.Equal(t, 3, e.Data["line"])
		}
	}
	assert.Equal(t, 1, warned)
}

func TestLoadFileEmptyScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.clk")
	require.NoError(t, os.WriteFile(path, []byte("nothing here\n"), 0644))

	log, _ := test.NewNullLogger()
	_, err := LoadFile(path, log)
	assert.True(t, errors.Is(err, ErrNoScript))
}

func TestLoadFileMissing(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.clk"), log)
	assert.Error(t, err)
}

func TestFormatChecklist(t *testing.T) {
	out := Format(New(Click(1, 2, ButtonLeft), Wait(300), Press(KeyEnter)), 4)

	assert.Contains(t, out, "Loops: 4")
	assert.Contains(t, out, "[1] LEFT → (1, 2)")
	assert.Contains(t, out, "[2] DELAY → 300ms")
	assert.Contains(t, out, "[3] Press enter")
}
