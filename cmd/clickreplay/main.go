package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/v0xg/clickreplay/internal/config"
)

// errStopped signals a run that ended without completing every round.
// The banner is already printed, so main only sets the exit code.
var errStopped = errors.New("run did not complete")

var (
	configPath string
	verbose    bool
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "clickreplay",
		Short: "Replay scripted mouse clicks, key presses and delays",
		Long: `clickreplay loads a ClickScript (#start ... #end block of LEFT/RIGHT x y,
ENTER and DELAY ms commands) and replays it for a number of rounds, with an
emergency stop (ESC on Windows, Ctrl+C everywhere) checked between actions.

Example:
  clickreplay run task.clk --loops 10`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	rootCmd.AddCommand(newRunCmd(), newCheckCmd(), newPositionCmd(), newConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errStopped) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func logVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}
