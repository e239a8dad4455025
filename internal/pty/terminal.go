// Package pty runs the shell behind the terminal and pumps its output into
// the grid.
package pty

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"github.com/andyrewlee/termview/internal/config"
	"github.com/andyrewlee/termview/internal/logging"
	"github.com/andyrewlee/termview/internal/safego"
)

var errNoProgram = errors.New("pty: no program")

// Terminal wraps a PTY with an associated command
type Terminal struct {
	mu      sync.Mutex
	ptyFile *os.File
	cmd     *exec.Cmd
	closed  bool

	done    chan struct{}
	exitErr error
}

// Start runs shell in a new pty of rows x cols. Zero dimensions leave the
// kernel default size.
func Start(shell config.Shell, dir string, env []string, rows, cols uint16) (*Terminal, error) {
	if shell.Program == "" {
		return nil, errNoProgram
	}
	cmd := exec.Command(shell.Program, shell.Args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	var (
		ptmx *os.File
		err  error
	)
	if rows > 0 && cols > 0 {
		ptmx, err = pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	} else {
		ptmx, err = pty.Start(cmd)
	}
	if err != nil {
		return nil, err
	}

	t := &Terminal{
		ptyFile: ptmx,
		cmd:     cmd,
		done:    make(chan struct{}),
	}
	safego.Go("pty-wait", func() {
		err := cmd.Wait()
		t.mu.Lock()
		t.exitErr = err
		t.mu.Unlock()
		close(t.done)
	})
	return t, nil
}

// SetSize sets the terminal size
func (t *Terminal) SetSize(rows, cols uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.ptyFile == nil {
		return nil
	}

	return pty.Setsize(t.ptyFile, &pty.Winsize{
		Rows: rows,
		Cols: cols,
	})
}

// Write sends input to the terminal
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	closed := t.closed
	ptyFile := t.ptyFile
	t.mu.Unlock()

	if closed || ptyFile == nil {
		return 0, io.ErrClosedPipe
	}

	return ptyFile.Write(p)
}

// Read reads output from the terminal
// Note: This does NOT hold the mutex during the blocking read to avoid deadlock
func (t *Terminal) Read(p []byte) (int, error) {
	t.mu.Lock()
	closed := t.closed
	ptyFile := t.ptyFile
	t.mu.Unlock()

	if closed || ptyFile == nil {
		return 0, io.EOF
	}

	return ptyFile.Read(p)
}

// Close kills the child and releases the pty.
func (t *Terminal) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	if t.ptyFile != nil {
		_ = t.ptyFile.Close()
		t.ptyFile = nil
	}
	if t.cmd != nil && t.cmd.Process != nil {
		if err := t.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logging.For("pty").Debug("kill: %v", err)
		}
	}
	t.mu.Unlock()

	<-t.done
	return nil
}

// Exited is closed once the child has been reaped.
func (t *Terminal) Exited() <-chan struct{} {
	return t.done
}

// ExitErr returns the child's wait error after Exited is closed.
func (t *Terminal) ExitErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exitErr
}

// Running returns whether the child is still alive.
func (t *Terminal) Running() bool {
	select {
	case <-t.done:
		return false
	default:
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// IsClosed reports whether Close was called.
func (t *Terminal) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// File returns the underlying PTY file
func (t *Terminal) File() *os.File {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ptyFile
}
