//go:build !windows

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	xterm "golang.org/x/term"

	"github.com/andyrewlee/termview/internal/app"
	"github.com/andyrewlee/termview/internal/config"
	"github.com/andyrewlee/termview/internal/display"
	"github.com/andyrewlee/termview/internal/logging"
)

// Version info set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var errNotTerminal = errors.New("termview needs an interactive terminal")

type options struct {
	configPath  string
	logLevel    string
	printEvents bool
	refTest     bool
	workDir     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "termview [flags] [-- command [args...]]",
		Short: "Terminal renderer running inside your terminal",
		Long: `termview runs a shell in a pseudo-terminal and draws it through its own
display pipeline: grid geometry, decoration rects, message bar and visual bell,
presented as a frame inside the host terminal.

Key bindings:
  ctrl+q   quit
  ctrl+=   increase font size
  ctrl+-   decrease font size
  ctrl+0   reset font size`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd.Context(), opts, args)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.termview/config.json)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&opts.printEvents, "print-events", false, "log every event the event loop receives")
	cmd.Flags().BoolVar(&opts.refTest, "ref-test", false, "dump grid, size and config on close")
	cmd.Flags().StringVarP(&opts.workDir, "working-directory", "w", "", "start the shell in this directory")
	return cmd
}

func run(ctx context.Context, opts *options, command []string) error {
	if !shouldLaunch(term.IsTerminal(os.Stdin.Fd()), term.IsTerminal(os.Stdout.Fd())) {
		return errNotTerminal
	}

	paths, err := config.DefaultPaths()
	if err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create %s: %v\n", paths.Home, err)
	}
	configPath := opts.configPath
	if configPath == "" {
		configPath = paths.ConfigPath
	}

	if err := logging.Initialize(paths.LogDir, resolveLevel(opts.logLevel, configPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not initialize logging: %v\n", err)
	}
	defer logging.Close()
	logging.Info("Starting termview %s", version)

	cols, rows, err := xterm.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		cols, rows = 80, 24
	}

	a, err := app.New(app.Options{
		ConfigPath:  configPath,
		Command:     command,
		WorkDir:     opts.workDir,
		PrintEvents: opts.printEvents,
		RefTest:     opts.refTest,
		HostCols:    cols,
		HostRows:    rows,
	})
	if err != nil {
		var derr *display.Error
		if errors.As(err, &derr) {
			logging.Error("display init failed in %s: %v", derr.Subsystem, derr.Err)
		}
		logging.Error("Failed to initialize: %v", err)
		return err
	}
	defer a.Shutdown()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	filter := &mouseFilter{}
	if err := a.Run(ctx, tea.WithFilter(filter.filter)); err != nil {
		logging.Error("termview exited with error: %v", err)
		return err
	}
	logging.Info("termview shutdown complete")
	return nil
}

func shouldLaunch(stdinIsTTY, stdoutIsTTY bool) bool {
	return stdinIsTTY && stdoutIsTTY
}

// resolveLevel prefers the flag, then the config file's debug.log_level.
func resolveLevel(flag, configPath string) logging.Level {
	if flag != "" {
		return logging.ParseLevel(flag)
	}
	cfg, _ := config.Load(configPath)
	return logging.ParseLevel(cfg.Debug.LogLevel)
}

// mouseFilter drops motion and wheel bursts the event loop cannot use.
type mouseFilter struct {
	lastMotion     time.Time
	lastWheel      time.Time
	lastX, lastY   int
	throttleWindow time.Duration
}

func (f *mouseFilter) window() time.Duration {
	if f.throttleWindow > 0 {
		return f.throttleWindow
	}
	return 15 * time.Millisecond
}

func (f *mouseFilter) filter(_ tea.Model, msg tea.Msg) tea.Msg {
	switch msg := msg.(type) {
	case tea.MouseMotionMsg:
		if msg.X != f.lastX || msg.Y != f.lastY {
			f.lastX, f.lastY = msg.X, msg.Y
			f.lastMotion = time.Now()
			return msg
		}
		now := time.Now()
		if now.Sub(f.lastMotion) < f.window() {
			return nil
		}
		f.lastMotion = now
	case tea.MouseWheelMsg:
		now := time.Now()
		if now.Sub(f.lastWheel) < f.window() {
			return nil
		}
		f.lastWheel = now
	}
	return msg
}
