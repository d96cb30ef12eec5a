package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	StartMarker = "#start"
	EndMarker   = "#end"
)

// ErrNoScript is returned by LoadFile when the file holds no runnable action
var ErrNoScript = errors.New("script has no actions")

// Warning describes a script line that was dropped while parsing
type Warning struct {
	Line   int // 1-based line number in the source
	Text   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s (%s)", w.Line, w.Text, w.Reason)
}

// Parse reads the #start/#end region of lines into a Script.
// Malformed or unknown lines are dropped and returned as warnings.
func Parse(lines []string) (*Script, []Warning) {
	var (
		actions  []Action
		warnings []Warning
		inBlock  bool
	)

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if line == StartMarker {
			inBlock = true
			continue
		}
		if line == EndMarker {
			break
		}
		if !inBlock {
			continue
		}

		action, reason := parseLine(line)
		if action.Kind == Invalid {
			warnings = append(warnings, Warning{Line: i + 1, Text: line, Reason: reason})
			continue
		}
		actions = append(actions, action)
	}

	return &Script{actions: actions}, warnings
}

// parseLine turns a single trimmed line into an action. The returned
// action has Kind Invalid and a reason when the line cannot be used.
func parseLine(line string) (Action, string) {
	fields := strings.Fields(line)
	args := fields[1:]

	switch fields[0] {
	case "LEFT", "RIGHT":
		if len(args) != 2 {
			return Action{}, fmt.Sprintf("%s requires two coordinates", fields[0])
		}
		x, errX := strconv.Atoi(args[0])
		y, errY := strconv.Atoi(args[1])
		if errX != nil || errY != nil {
			return Action{}, fmt.Sprintf("%s coordinates must be integers", fields[0])
		}
		button := ButtonLeft
		if fields[0] == "RIGHT" {
			button = ButtonRight
		}
		return Click(x, y, button), ""

	case "DELAY":
		if len(args) != 1 {
			return Action{}, "DELAY requires a duration"
		}
		ms, err := strconv.Atoi(args[0])
		if err != nil {
			return Action{}, "DELAY duration must be an integer"
		}
		if ms < 0 {
			return Action{}, "DELAY duration must not be negative"
		}
		return Wait(ms), ""

	case "ENTER":
		if len(args) != 0 {
			return Action{}, "ENTER takes no arguments"
		}
		return Press(KeyEnter), ""

	default:
		return Action{}, fmt.Sprintf("unknown command %q", fields[0])
	}
}

// ParseReader splits r into lines and parses them
func ParseReader(r io.Reader) (*Script, []Warning, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read script: %w", err)
	}

	s, warnings := Parse(lines)
	return s, warnings, nil
}

// LoadFile parses the script at path, logging every dropped line
func LoadFile(path string, log logrus.FieldLogger) (*Script, error) {
	log.WithField("file", path).Info("Loading ClickScript")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script file: %w", err)
	}
	defer f.Close()

	s, warnings, err := ParseReader(f)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.WithFields(logrus.Fields{"line": w.Line, "text": w.Text}).Warnf("Invalid or ignored command: %s", w.Reason)
	}

	s.name = path
	log.WithField("actions", s.Len()).Info("Script loaded")

	if s.Len() == 0 {
		return s, fmt.Errorf("%s: %w", path, ErrNoScript)
	}
	return s, nil
}
