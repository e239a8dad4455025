package preview

import (
	"os/exec"
	"runtime"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
)

// readClipboard returns the system clipboard text. Tests replace it.
var readClipboard = func() (string, error) {
	if runtime.GOOS == "darwin" {
		if out, err := exec.Command("pbpaste").Output(); err == nil {
			return string(out), nil
		}
	}
	return clipboard.ReadAll()
}

// pasteClipboard reads the clipboard and feeds it back as a paste, so it
// reaches the shell bracketed like a host paste.
func pasteClipboard() tea.Msg {
	text, err := readClipboard()
	if err != nil {
		log.Warn("read clipboard: %v", err)
		return nil
	}
	if text == "" {
		return nil
	}
	return tea.PasteMsg{Content: text}
}
