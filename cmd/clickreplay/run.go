package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/v0xg/clickreplay/internal/abort"
	"github.com/v0xg/clickreplay/internal/balance"
	"github.com/v0xg/clickreplay/internal/browser"
	"github.com/v0xg/clickreplay/internal/config"
	"github.com/v0xg/clickreplay/internal/executor"
	"github.com/v0xg/clickreplay/internal/injector"
	"github.com/v0xg/clickreplay/internal/logging"
	"github.com/v0xg/clickreplay/internal/monitor"
	"github.com/v0xg/clickreplay/internal/progress"
	"github.com/v0xg/clickreplay/internal/recording"
	"github.com/v0xg/clickreplay/internal/runstate"
	"github.com/v0xg/clickreplay/internal/script"
)

type runFlags struct {
	loops       int
	countdown   int
	dryRun      bool
	browserURL  string
	headless    bool
	width       int
	height      int
	profile     string
	record      string
	fps         int
	monitorAddr string
	yes         bool
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [script]",
		Short: "Replay a ClickScript",
		Long: `Replay a ClickScript for a number of rounds. Without a script argument the
task file is prompted for (default from TASK_FILE, task.clk). Without --loops
the number of rounds is prompted for.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, args, f)
		},
	}

	cmd.Flags().IntVarP(&f.loops, "loops", "n", 0, "Number of rounds (prompted if omitted)")
	cmd.Flags().IntVar(&f.countdown, "countdown", -1, "Seconds to wait before the first round (default from COUNTDOWN_S)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Log actions instead of injecting input")
	cmd.Flags().StringVar(&f.browserURL, "browser", "", "Replay inside a Chromium page at this URL instead of the desktop")
	cmd.Flags().BoolVar(&f.headless, "headless", false, "Run the browser headless")
	cmd.Flags().IntVar(&f.width, "width", 1280, "Browser viewport width")
	cmd.Flags().IntVar(&f.height, "height", 720, "Browser viewport height")
	cmd.Flags().StringVar(&f.profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	cmd.Flags().StringVar(&f.record, "record", "", "Record the browser replay to this GIF file")
	cmd.Flags().IntVar(&f.fps, "fps", 2, "Frames per second of the recorded GIF")
	cmd.Flags().StringVar(&f.monitorAddr, "monitor", "", "Serve status, cancel and progress websocket on this address (e.g. 127.0.0.1:8765)")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Skip the confirmation prompts")

	return cmd
}

func runScript(cmd *cobra.Command, args []string, f *runFlags) error {
	if f.record != "" && f.browserURL == "" {
		return fmt.Errorf("--record needs --browser")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	log, closeLog, err := logging.Setup(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer closeLog()

	logging.SplitLine(log)
	log.Info("Autoclick script started.")

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	// Load ClickScript
	path := cfg.TaskFile
	if len(args) == 1 {
		path = args[0]
	} else {
		fmt.Fprintf(out, "Please enter the task to be loaded (e.g., task1.clk --- default: %s): ", cfg.TaskFile)
		if answer := readLine(in); answer != "" {
			path = answer
		} else {
			fmt.Fprintf(out, "No input detected. Using default: %s\n", path)
		}
	}

	s, err := script.LoadFile(path, log)
	if err != nil && !errors.Is(err, script.ErrNoScript) {
		return err
	}
	if s.Len() == 0 {
		fmt.Fprintf(out, "⚠ %s contains no actions between %s and %s\n", path, script.StartMarker, script.EndMarker)
	}

	loops := f.loops
	if !cmd.Flags().Changed("loops") {
		fmt.Fprint(out, "Please enter the number of loops: ")
		loops, err = strconv.Atoi(readLine(in))
		if err != nil {
			return fmt.Errorf("invalid number of loops: %w", err)
		}
	}
	if loops < 0 {
		return fmt.Errorf("number of loops must not be negative: %d", loops)
	}
	log.WithField("loops", loops).Debug("Retrieving number of loops")

	fmt.Fprint(out, script.Format(s, loops))
	cfg.Print(out)
	fmt.Fprintln(out, "-----------------------------")

	if !f.yes {
		fmt.Fprintln(out, "Press Enter to confirm and start")
		readLine(in)
	}

	// Target
	inj, rec, cleanup, err := buildInjector(f, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// Emergency stop sources
	sig := abort.NewSignal()
	defer sig.Stop()
	remote := &abort.Flag{}
	src := abort.Any{abort.Hotkey(), sig, remote}

	state := runstate.New(log, func() {
		fmt.Fprintln(out, "\n*** EMERGENCY STOP ACTIVATED ***")
	})

	opts := executor.Options{
		PollInterval:       cfg.PollInterval,
		MinDelay:           cfg.MinDelay,
		InterruptibleDelay: cfg.InterruptibleDelay,
		Failure:            cfg.Failure,
		HoldTerminal:       cfg.HoldTerminal,
		Verbose:            verbose,
		Out:                out,
		Log:                log,
	}
	if cfg.FilesCheck {
		pair := balance.Pair{Path1: cfg.Path1, Path2: cfg.Path2, Log: log}
		opts.AfterIteration = pair.AfterIteration
		logVerbose("File count check enabled: %s <-> %s", cfg.Path1, cfg.Path2)
	}
	engine := executor.New(state, opts)

	sinks := progress.Multi{titleSink(out), progress.NewLine(out)}

	addr := f.monitorAddr
	if addr == "" {
		addr = cfg.MonitorAddr
	}
	if addr != "" {
		hub, stop := startMonitor(addr, state, remote, engine.RunID, log)
		defer stop()
		sinks = append(sinks, hub)
		fmt.Fprintf(out, "→ Monitor listening on http://%s (status, cancel, ws)\n", addr)
	}

	fmt.Fprintln(out, "\n=== EMERGENCY STOP ENABLED ===")
	fmt.Fprintln(out, stopHint())
	log.Info("Emergency stop monitor activated")

	wait := time.Duration(f.countdown) * time.Second
	if f.countdown < 0 {
		wait = cfg.Countdown
	}
	if !countdown(cmd.Context(), out, wait, src) {
		fmt.Fprintln(out, "\n"+executor.EmergencyStopped.Message())
		return errStopped
	}

	res, runErr := engine.RunDetailed(cmd.Context(), s, loops, inj, src, sinks)

	fmt.Fprintln(out, "\n"+res.Outcome.Message())
	logVerbose("Run %s: %d rounds, %d actions, %d failures", res.RunID, res.Iterations, res.Dispatched, res.Failures)
	logging.SplitLine(log)

	if rec != nil {
		saveRecording(out, rec, f)
	}

	if runErr != nil {
		return runErr
	}
	if res.Outcome != executor.Completed {
		return errStopped
	}
	return nil
}

// buildInjector picks dry-run, browser or desktop input
func buildInjector(f *runFlags, log *logrus.Logger) (executor.Injector, *recording.Recorder, func(), error) {
	noop := func() {}

	if f.dryRun {
		fmt.Println("→ Dry run: actions are logged, not injected")
		return injector.NewLog(log, true), nil, noop, nil
	}

	if f.browserURL != "" {
		fmt.Printf("→ Opening %s... ", f.browserURL)
		b, err := browser.Open(f.browserURL, browser.Options{
			Width:      f.width,
			Height:     f.height,
			Headless:   f.headless,
			ProfileDir: f.profile,
		})
		if err != nil {
			fmt.Println("failed")
			return nil, nil, nil, err
		}
		info, _ := b.Info()
		fmt.Printf("done (%s)\n", info.Title)

		var inj executor.Injector = injector.NewBrowser(injector.PageOf(b.Page()))
		var rec *recording.Recorder
		if f.record != "" {
			rec = recording.New(inj, b, recording.Options{Log: log})
			inj = rec
		}
		return inj, rec, b.Close, nil
	}

	d, err := injector.NewDesktop()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w (use --dry-run or --browser)", err)
	}
	return d, nil, noop, nil
}

func startMonitor(addr string, state *runstate.State, remote *abort.Flag, runID func() string, log logrus.FieldLogger) (*monitor.Hub, func()) {
	hub := monitor.NewHub(runID, log)
	go hub.Run()

	srv := monitor.NewServer(monitor.Options{State: state, Hub: hub, Cancel: remote, Log: log})
	go func() {
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Monitor server failed")
		}
	}()

	return hub, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Monitor shutdown failed")
		}
	}
}

// countdown waits d, printing the remaining seconds. It reports false if
// the operator aborted meanwhile.
func countdown(ctx context.Context, out io.Writer, d time.Duration, src abort.Source) bool {
	if d <= 0 {
		return true
	}

	deadline := time.Now().Add(d)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	shown := -1
	for {
		left := time.Until(deadline)
		if left <= 0 {
			fmt.Fprintln(out)
			return true
		}
		if secs := int(left.Seconds()) + 1; secs != shown {
			shown = secs
			fmt.Fprintf(out, "\rStarting in %d... ", secs)
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if src.Triggered() {
				return false
			}
		}
	}
}

func saveRecording(out io.Writer, rec *recording.Recorder, f *runFlags) {
	frames := rec.Frames()
	fmt.Fprintf(out, "→ Generating GIF (%d frames)... ", len(frames))

	delay := 50
	if f.fps > 0 {
		delay = 100 / f.fps
	}
	size, err := rec.Save(f.record, recording.GIFOptions{FrameDelay: delay, MaxWidth: 800})
	if err != nil {
		fmt.Fprintln(out, "failed")
		fmt.Fprintf(os.Stderr, "GIF generation failed: %v\n", err)
		return
	}
	fmt.Fprintln(out, "done")
	fmt.Fprintf(out, "✓ Saved to %s (%.1f MB)\n", f.record, float64(size)/(1024*1024))
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
