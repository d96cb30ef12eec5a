package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/v0xg/clickreplay/internal/abort"
	"github.com/v0xg/clickreplay/internal/browser"
	"github.com/v0xg/clickreplay/internal/config"
	"github.com/v0xg/clickreplay/internal/injector"
	"github.com/v0xg/clickreplay/internal/script"
)

func newCheckCmd() *cobra.Command {
	var loops int
	cmd := &cobra.Command{
		Use:   "check <script>",
		Short: "Parse a ClickScript and print its checklist without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open script file: %w", err)
			}
			defer f.Close()

			s, warnings, err := script.ParseReader(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, script.Format(s, loops))
			for _, w := range warnings {
				fmt.Fprintf(out, "⚠ %s\n", w)
			}
			fmt.Fprintf(out, "%d actions, %d warnings\n", s.Len(), len(warnings))

			if s.Len() == 0 {
				return fmt.Errorf("%s: %w", args[0], script.ErrNoScript)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&loops, "loops", "n", 1, "Rounds to show in the checklist")
	return cmd
}

func newPositionCmd() *cobra.Command {
	var (
		browserURL string
		once       bool
		targets    bool
	)
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Show the pointer position to help write scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			read := injector.CursorPosition
			if browserURL != "" {
				b, err := browser.Open(browserURL, browser.Options{})
				if err != nil {
					return err
				}
				defer b.Close()
				read = b.PointerPosition

				if targets {
					list, err := b.Targets()
					if err != nil {
						return err
					}
					fmt.Fprint(cmd.OutOrStdout(), browser.FormatTargets(list))
					return nil
				}
			}

			out := cmd.OutOrStdout()
			if once {
				x, y, err := read()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Mouse position: (%d, %d)\n", x, y)
				return nil
			}

			sig := abort.NewSignal()
			defer sig.Stop()
			stop := abort.Any{abort.Hotkey(), sig}

			fmt.Fprintln(out, stopHint())
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for !stop.Triggered() {
				x, y, err := read()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\rMouse position: (%d, %d)      ", x, y)
				select {
				case <-cmd.Context().Done():
					fmt.Fprintln(out)
					return nil
				case <-ticker.C:
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&browserURL, "browser", "", "Read the pointer inside a Chromium page at this URL")
	cmd.Flags().BoolVar(&once, "once", false, "Print a single reading and exit")
	cmd.Flags().BoolVar(&targets, "targets", false, "With --browser, list clickable elements and their coordinates")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if config.Exists(configPath) {
				fmt.Fprintln(out, "Configuration loaded successfully.")
			} else {
				fmt.Fprintf(out, "%s not found, showing defaults. Run `clickreplay config init` to create it.\n", configPath)
			}
			cfg.Print(out)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(configPath, force); err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Default configuration file created successfully.")
			fmt.Fprintln(out, "------------------------------")
			cfg.Print(out)
			fmt.Fprintln(out, "------------------------------")
			fmt.Fprintln(out, "Please edit the configuration file and reload the configuration.")
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}
