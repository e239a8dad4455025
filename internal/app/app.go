// Package app wires the terminal, its display and the event loop to a pty
// and a host program.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/andyrewlee/termview/internal/config"
	"github.com/andyrewlee/termview/internal/display"
	"github.com/andyrewlee/termview/internal/event"
	"github.com/andyrewlee/termview/internal/font"
	"github.com/andyrewlee/termview/internal/logging"
	"github.com/andyrewlee/termview/internal/perf"
	"github.com/andyrewlee/termview/internal/pty"
	"github.com/andyrewlee/termview/internal/renderer/canvas"
	"github.com/andyrewlee/termview/internal/safego"
	"github.com/andyrewlee/termview/internal/supervisor"
	"github.com/andyrewlee/termview/internal/term"
	"github.com/andyrewlee/termview/internal/ui/preview"
)

var log = logging.For("app")

// shutdownTimeout bounds the wait for the event loop after the host quits.
const shutdownTimeout = 2 * time.Second

// Options configures an App.
type Options struct {
	// ConfigPath is the config file; empty means defaults only.
	ConfigPath string
	// Command replaces the configured shell when non-empty.
	Command []string
	// WorkDir is the shell's working directory.
	WorkDir string

	PrintEvents bool
	RefTest     bool
	RefTestDir  string

	// HostCols and HostRows are the initial host size in cells.
	HostCols, HostRows int

	// Conn replaces the spawned pty.
	Conn pty.Conn
	// Rasterizer replaces the fixed canvas rasterizer.
	Rasterizer font.Rasterizer
}

// App owns every long-lived component of one terminal window.
type App struct {
	cfg     *config.Config
	term    *term.Term
	lock    *term.FairMutex
	proxy   *event.Proxy
	window  *preview.Window
	canvas  *canvas.Canvas
	display *display.Display

	terminal  *pty.Terminal
	session   *pty.Session
	processor *event.Processor
	watcher   *config.Watcher
	model     *preview.Model

	render chan display.RenderUpdate
	send   atomic.Pointer[func(tea.Msg)]

	workers       *supervisor.Supervisor
	processorDone <-chan error
	startOnce     sync.Once
	shutdownOnce  sync.Once
}

// New builds the window, display, terminal and pty. Nothing runs until
// Start or Run.
func New(opts Options) (*App, error) {
	cfg, loadErr := config.Load(opts.ConfigPath)
	if loadErr != nil {
		log.Warn("config: %v", loadErr)
	}
	if len(opts.Command) > 0 {
		cfg.Shell = config.Shell{Program: opts.Command[0], Args: opts.Command[1:]}
	}
	cfg.Debug.PrintEvents = cfg.Debug.PrintEvents || opts.PrintEvents
	cfg.Debug.RefTest = cfg.Debug.RefTest || opts.RefTest

	rasterizer := opts.Rasterizer
	if rasterizer == nil {
		rasterizer = font.NewFixed()
	}
	metrics, err := rasterizer.Metrics(cfg.Font.ForSize(cfg.Font.Size), 1)
	if err != nil {
		return nil, fmt.Errorf("font metrics: %w", err)
	}
	cw, ch := font.ComputeCellSize(cfg.Font.Offset, metrics)

	a := &App{
		cfg:    cfg,
		lock:   &term.FairMutex{},
		proxy:  event.NewProxy(0),
		window: preview.NewWindow(float64(cw), float64(ch), cfg.Window.Padding, opts.HostCols, opts.HostRows),
		render: make(chan display.RenderUpdate, 1),
	}
	a.canvas = canvas.New(a.publish)

	a.display, err = display.New(cfg, a.window, a.canvas.Surface(), a.canvas, rasterizer, a.proxy)
	if err != nil {
		return nil, err
	}
	a.window.SetGrid(a.display.Size())

	bell := term.NewVisualBell(cfg.VisualBell.Animation, cfg.VisualBell.Duration(), cfg.VisualBell.Color)
	size := a.display.Size()
	a.term = term.New(size.Cols(), size.Lines(), cfg.Colors.Primary, bell)
	if loadErr != nil {
		a.pushStartupError(cfg.ErrorMessage(loadErr))
	}

	conn := opts.Conn
	if conn == nil {
		pts := a.display.PtySize()
		dir := opts.WorkDir
		if dir == "" {
			dir, _ = os.Getwd()
		}
		a.terminal, err = pty.Start(cfg.Shell, dir, nil, uint16(max(pts.Lines(), 0)), uint16(max(pts.Cols(), 0)))
		if err != nil {
			return nil, fmt.Errorf("start shell: %w", err)
		}
		conn = a.terminal
	}
	a.session = pty.NewSession(conn, a.term, a.lock, a.proxy)

	a.processor = event.NewProcessor(event.Options{
		Config:     cfg,
		Term:       a.term,
		Lock:       a.lock,
		Window:     a.window,
		Session:    a.session,
		Signals:    a.display.Mailbox(),
		Render:     a.render,
		Size:       a.display.Size(),
		RefTestDir: opts.RefTestDir,
	})

	if cfg.LiveConfigReload && cfg.Path != "" {
		a.watcher, err = config.NewWatcher(cfg.Path, func(path string) {
			if err := a.proxy.Send(event.ConfigReload{Path: path}); err != nil && !errors.Is(err, event.ErrClosed) {
				log.Warn("post config reload: %v", err)
			}
		})
		if err != nil {
			log.Warn("config watcher disabled: %v", err)
			a.watcher = nil
		}
	}

	a.model = preview.New(a.window, a.proxy)
	return a, nil
}

// pushStartupError shows msg before the first frame and shrinks the grid
// to make room for it.
func (a *App) pushStartupError(msg term.Message) {
	a.term.MessageBuffer().Push(msg)
	size := a.display.Size()
	lines := a.term.MessageBuffer().LineCount(size.Cols(), size.Lines())
	a.term.Resize(size.Cols(), size.Lines())
	if err := a.display.Mailbox().Send(display.MessageBarSignal{Lines: lines}); err != nil {
		log.Warn("message bar signal: %v", err)
	}
}

// SetMsgSender sets the function frames and quit requests are delivered to.
func (a *App) SetMsgSender(send func(tea.Msg)) {
	if send == nil {
		a.send.Store(nil)
		return
	}
	a.send.Store(&send)
}

func (a *App) sendMsg(msg tea.Msg) {
	if send := a.send.Load(); send != nil {
		(*send)(msg)
	}
}

func (a *App) publish(frame string) {
	a.sendMsg(preview.FrameMsg{Frame: frame})
}

// Model returns the host model.
func (a *App) Model() *preview.Model { return a.model }

// Window returns the host window.
func (a *App) Window() *preview.Window { return a.window }

// Display returns the display.
func (a *App) Display() *display.Display { return a.display }

// Term returns the terminal. Callers must hold Lock while reading it.
func (a *App) Term() *term.Term { return a.term }

// Lock returns the terminal lock.
func (a *App) Lock() *term.FairMutex { return a.lock }

// Proxy returns the event loop's proxy.
func (a *App) Proxy() *event.Proxy { return a.proxy }

// Config returns the startup configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Start launches the pty reader, the event loop, the render loop and the
// config watcher. When the event loop stops the host is asked to quit.
func (a *App) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		a.workers = supervisor.New(ctx)
		a.workers.SetErrorHandler(func(name string, err error) {
			if errors.Is(err, event.ErrClosed) {
				return
			}
			log.Warn("%s stopped: %v", name, err)
		})

		a.workers.Start("pty-reader", a.session.Run)
		a.workers.Start("render", a.renderLoop, supervisor.OnExit(func(_ string, err error) {
			if err != nil {
				a.sendMsg(preview.QuitMsg{Err: err})
			}
		}))
		if a.watcher != nil {
			a.workers.Start("config-watcher", a.watcher.Run,
				supervisor.WithRestartPolicy(supervisor.RestartOnError),
				supervisor.WithMaxRestarts(3))
		}
		a.workers.Start("context-quit", func(ctx context.Context) error {
			<-ctx.Done()
			a.sendMsg(preview.QuitMsg{})
			return nil
		})

		done := make(chan error, 1)
		a.processorDone = done
		a.workers.Start("event-loop", func(ctx context.Context) error {
			err := safego.Call("event-loop", func() error {
				return a.processor.Run(ctx, a.proxy.Source())
			})
			a.proxy.Close()
			if errors.Is(err, context.Canceled) || errors.Is(err, event.ErrClosed) {
				err = nil
			}
			done <- err
			a.sendMsg(preview.QuitMsg{Err: err})
			return err
		})
	})
}

// Wait blocks until the event loop returns or timeout passes.
func (a *App) Wait(timeout time.Duration) error {
	if a.processorDone == nil {
		return nil
	}
	select {
	case err := <-a.processorDone:
		return err
	case <-time.After(timeout):
		return errors.New("timed out waiting for the event loop")
	}
}

// Run drives the host program until either side quits.
func (a *App) Run(ctx context.Context, opts ...tea.ProgramOption) error {
	program := tea.NewProgram(a.model, opts...)
	a.SetMsgSender(program.Send)
	a.Start(ctx)

	_, runErr := program.Run()
	a.SetMsgSender(nil)

	if err := a.proxy.Send(event.CloseRequested{}); err != nil && !errors.Is(err, event.ErrClosed) {
		log.Warn("post close: %v", err)
	}
	loopErr := a.Wait(shutdownTimeout)
	if runErr != nil {
		return runErr
	}
	if loopErr != nil {
		return loopErr
	}
	return a.model.Err()
}

// Shutdown releases resources that may outlive the host program.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.proxy.Close()
		if a.watcher != nil {
			_ = a.watcher.Close()
		}
		if a.session != nil {
			_ = a.session.Close()
		}
		a.workers.Stop()
		a.canvas.Close()
		a.display.Mailbox().Close()
		perf.Flush("shutdown")
	})
}
