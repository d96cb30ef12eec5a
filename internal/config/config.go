// Package config loads and writes the KEY=VALUE configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/v0xg/clickreplay/internal/executor"
)

// DefaultFile is the configuration file looked up in the working directory
const DefaultFile = "config.txt"

// EnvPrefix prefixes environment overrides, e.g. CLICKREPLAY_LOG_LEVEL
const EnvPrefix = "CLICKREPLAY_"

// Keys understood in the configuration file. Lookups are case-insensitive,
// so files written as Number_of_Files_Check keep working.
const (
	KeyFilesCheck         = "NUMBER_OF_FILES_CHECK"
	KeyPath1              = "PATH_1"
	KeyPath2              = "PATH_2"
	KeyOnInjectFailure    = "ON_INJECT_FAILURE"
	KeyInjectRetries      = "INJECT_RETRIES"
	KeyInterruptibleDelay = "INTERRUPTIBLE_DELAY"
	KeyPollIntervalMs     = "POLL_INTERVAL_MS"
	KeyMinDelayMs         = "MIN_DELAY_MS"
	KeyHoldTerminalMs     = "HOLD_TERMINAL_MS"
	KeyCountdownS         = "COUNTDOWN_S"
	KeyTaskFile           = "TASK_FILE"
	KeyLogLevel           = "LOG_LEVEL"
	KeyLogFile            = "LOG_FILE"
	KeyMonitorAddr        = "MONITOR_ADDR"
)

// Defaults returns the values written by `config init`
func Defaults() map[string]string {
	return map[string]string{
		KeyFilesCheck:         "DISABLE",
		KeyPath1:              "." + string(filepath.Separator) + "PATH1",
		KeyPath2:              "." + string(filepath.Separator) + "PATH2",
		KeyOnInjectFailure:    "continue",
		KeyInjectRetries:      "0",
		KeyInterruptibleDelay: "false",
		KeyPollIntervalMs:     "50",
		KeyMinDelayMs:         "0",
		KeyHoldTerminalMs:     "3000",
		KeyCountdownS:         "3",
		KeyTaskFile:           "task.clk",
		KeyLogLevel:           "debug",
		KeyLogFile:            "system.log",
		KeyMonitorAddr:        "",
	}
}

// Config holds the resolved settings
type Config struct {
	// Path is the file the values were read from
	Path string

	FilesCheck bool
	Path1      string
	Path2      string

	Failure            executor.FailurePolicy
	InterruptibleDelay bool
	PollInterval       time.Duration
	MinDelay           time.Duration
	HoldTerminal       time.Duration
	Countdown          time.Duration

	TaskFile    string
	LogLevel    string
	LogFile     string
	MonitorAddr string

	values map[string]string
}

// Load reads path, applies environment overrides and resolves the typed
// fields. A missing file is not an error: defaults are used and Exists
// reports false.
func Load(path string) (*Config, error) {
	values := Defaults()

	file, err := godotenv.Read(path)
	switch {
	case err == nil:
		for k, v := range file {
			values[normalize(k)] = v
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for k := range values {
		if v, ok := os.LookupEnv(EnvPrefix + k); ok {
			values[k] = v
		}
	}

	return resolve(path, values)
}

// Exists reports whether the configuration file is present
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Init writes the default configuration to path. It refuses to overwrite
// an existing file unless force is set.
func Init(path string, force bool) error {
	if !force && Exists(path) {
		return fmt.Errorf("%s already exists", path)
	}
	if err := godotenv.Write(Defaults(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Get returns the raw value of key
func (c *Config) Get(key string) string {
	return c.values[normalize(key)]
}

// Set updates a raw value and re-resolves the typed fields
func (c *Config) Set(key, value string) error {
	next := make(map[string]string, len(c.values)+1)
	for k, v := range c.values {
		next[k] = v
	}
	next[normalize(key)] = value

	resolved, err := resolve(c.Path, next)
	if err != nil {
		return err
	}
	*c = *resolved
	return nil
}

// Save writes the raw values back to the configuration file
func (c *Config) Save() error {
	return godotenv.Write(c.values, c.Path)
}

// Print lists every value in key order
func (c *Config) Print(w io.Writer) {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "Configurations:")
	for _, k := range keys {
		fmt.Fprintf(w, "%s = %s\n", k, c.values[k])
	}
}

func resolve(path string, values map[string]string) (*Config, error) {
	c := &Config{Path: path, values: values}
	var errs []error

	c.FilesCheck = strings.EqualFold(values[KeyFilesCheck], "ENABLE")
	c.Path1 = values[KeyPath1]
	c.Path2 = values[KeyPath2]

	mode, err := executor.ParseFailureMode(values[KeyOnInjectFailure])
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyOnInjectFailure, err))
	}
	c.Failure = executor.FailurePolicy{Mode: mode, Retries: getInt(values, KeyInjectRetries, &errs)}

	c.InterruptibleDelay = getBool(values, KeyInterruptibleDelay, &errs)
	c.PollInterval = getMillis(values, KeyPollIntervalMs, &errs)
	c.MinDelay = getMillis(values, KeyMinDelayMs, &errs)
	c.HoldTerminal = getMillis(values, KeyHoldTerminalMs, &errs)
	c.Countdown = time.Duration(getInt(values, KeyCountdownS, &errs)) * time.Second

	c.TaskFile = values[KeyTaskFile]
	c.LogLevel = values[KeyLogLevel]
	c.LogFile = values[KeyLogFile]
	c.MonitorAddr = values[KeyMonitorAddr]

	if c.FilesCheck && (c.Path1 == "" || c.Path2 == "") {
		errs = append(errs, fmt.Errorf("%s is enabled but %s or %s is empty", KeyFilesCheck, KeyPath1, KeyPath2))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func normalize(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

func getInt(values map[string]string, key string, errs *[]error) int {
	raw := strings.TrimSpace(values[key])
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Errorf("%s: expected a non-negative integer, got %q", key, raw))
		return 0
	}
	return n
}

func getMillis(values map[string]string, key string, errs *[]error) time.Duration {
	return time.Duration(getInt(values, key, errs)) * time.Millisecond
}

func getBool(values map[string]string, key string, errs *[]error) bool {
	raw := strings.TrimSpace(values[key])
	if raw == "" {
		return false
	}
	switch strings.ToUpper(raw) {
	case "ENABLE", "ON", "YES":
		return true
	case "DISABLE", "OFF", "NO":
		return false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: expected a boolean, got %q", key, raw))
	}
	return b
}
