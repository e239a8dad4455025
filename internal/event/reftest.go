package event

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Ref-test dump file names.
const (
	RefTestGrid   = "grid.json"
	RefTestSize   = "size.json"
	RefTestConfig = "config.json"
)

type refTestConfig struct {
	HistorySize int `json:"history_size"`
}

// dumpRefTest writes the grid, the geometry and the history size so a
// session can be replayed. Called with the terminal lock held.
func (p *Processor) dumpRefTest() error {
	dir := p.refTestDir
	if dir == "" {
		dir = "."
	}
	files := []struct {
		name  string
		value any
	}{
		{RefTestGrid, p.term.Grid()},
		{RefTestSize, p.size},
		{RefTestConfig, refTestConfig{}},
	}
	for _, f := range files {
		data, err := json.Marshal(f.value)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", f.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, f.name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	log.Info("wrote ref test to %s", dir)
	return nil
}
