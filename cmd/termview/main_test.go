//go:build !windows

package main

import (
	"os"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/andyrewlee/termview/internal/logging"
)

func TestMouseWheelNotThrottledByMotion(t *testing.T) {
	f := &mouseFilter{}

	motion := tea.MouseMotionMsg{X: 10, Y: 10, Button: tea.MouseLeft}
	if f.filter(nil, motion) == nil {
		t.Fatalf("expected motion event to pass through")
	}

	wheel := tea.MouseWheelMsg{X: 10, Y: 10, Button: tea.MouseWheelDown}
	if f.filter(nil, wheel) == nil {
		t.Fatalf("expected wheel event to pass through after motion")
	}
}

func TestMouseWheelThrottleIndependent(t *testing.T) {
	f := &mouseFilter{}

	wheel := tea.MouseWheelMsg{X: 10, Y: 10, Button: tea.MouseWheelDown}
	if f.filter(nil, wheel) == nil {
		t.Fatalf("expected first wheel event to pass through")
	}
	if f.filter(nil, wheel) != nil {
		t.Fatalf("expected second wheel event to be throttled")
	}
}

func TestMouseMotionNewPositionAlwaysPasses(t *testing.T) {
	f := &mouseFilter{}
	for x := 0; x < 5; x++ {
		if f.filter(nil, tea.MouseMotionMsg{X: x, Y: 1}) == nil {
			t.Fatalf("expected motion to %d to pass", x)
		}
	}
	if f.filter(nil, tea.MouseMotionMsg{X: 4, Y: 1}) != nil {
		t.Fatal("expected repeated position to be throttled")
	}
}

func TestShouldLaunch(t *testing.T) {
	tests := []struct {
		stdin, stdout, want bool
	}{
		{true, true, true},
		{false, true, false},
		{true, false, false},
	}
	for _, tt := range tests {
		if got := shouldLaunch(tt.stdin, tt.stdout); got != tt.want {
			t.Errorf("shouldLaunch(%v, %v) = %v, want %v", tt.stdin, tt.stdout, got, tt.want)
		}
	}
}

func TestResolveLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"debug":{"log_level":"debug"}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if got := resolveLevel("", path); got != logging.LevelDebug {
		t.Fatalf("expected config level debug, got %v", got)
	}
	if got := resolveLevel("error", path); got != logging.LevelError {
		t.Fatalf("expected flag level error, got %v", got)
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--config", "/tmp/x.json", "--print-events", "--ref-test", "--log-level", "warn"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	for _, name := range []string{"config", "print-events", "ref-test", "log-level", "working-directory"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag %q", name)
		}
	}
	if v, _ := cmd.Flags().GetString("config"); v != "/tmp/x.json" {
		t.Fatalf("expected config flag, got %q", v)
	}
}
